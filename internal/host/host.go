// Package host routes calls to registered matcher programs the way the
// chain's runtime would: one program per id, serialized mutation per account,
// failures surfaced without partial effects.
package host

import (
	"errors"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"percolator-go/internal/matcherctx"
	"percolator-go/internal/metrics"
)

var (
	ErrUnknownProgram   = errors.New("no program registered for id")
	ErrDuplicateProgram = errors.New("program id already registered")
)

// Program is the call surface every matcher exposes.
type Program interface {
	Process(accounts []*matcherctx.Account, data []byte, clock matcherctx.Clock) error
}

// ClockSource supplies the current slot and unix time for an invocation.
type ClockSource func() matcherctx.Clock

// Registry maps program ids to matcher implementations.
type Registry struct {
	log      zerolog.Logger
	programs map[solana.PublicKey]registered
	clock    ClockSource
}

type registered struct {
	name string
	prog Program
}

// NewRegistry builds an empty registry with the given clock source.
func NewRegistry(log zerolog.Logger, clock ClockSource) *Registry {
	return &Registry{
		log:      log.With().Str("component", "host").Logger(),
		programs: make(map[solana.PublicKey]registered),
		clock:    clock,
	}
}

// Register binds a program id to a matcher. The name labels metrics and logs.
func (r *Registry) Register(id solana.PublicKey, name string, prog Program) error {
	if _, ok := r.programs[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProgram, id)
	}
	r.programs[id] = registered{name: name, prog: prog}
	r.log.Info().Str("program", id.String()).Str("name", name).Msg("program registered")
	return nil
}

// Invoke dispatches an instruction to the program owning the id, stamping the
// current clock and recording the outcome.
func (r *Registry) Invoke(id solana.PublicKey, accounts []*matcherctx.Account, data []byte) error {
	reg, ok := r.programs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, id)
	}

	op := opName(data)
	err := reg.prog.Process(accounts, data, r.clock())
	if err != nil {
		metrics.RejectionsTotal.WithLabelValues(reg.name, op).Inc()
		r.log.Warn().Err(err).Str("name", reg.name).Str("op", op).Msg("invoke rejected")
		return err
	}
	switch op {
	case "match":
		metrics.MatchesTotal.WithLabelValues(reg.name).Inc()
	case "sync":
		metrics.SyncsTotal.WithLabelValues(reg.name).Inc()
	}
	return nil
}

func opName(data []byte) string {
	if len(data) == 0 {
		return "empty"
	}
	switch data[0] {
	case matcherctx.TagMatch:
		return "match"
	case matcherctx.TagInit:
		return "init"
	case matcherctx.TagSync:
		return "sync"
	case matcherctx.TagResolve:
		return "resolve"
	}
	return "unknown"
}
