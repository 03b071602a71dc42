// Package keeper drives signal syncs: it accepts already-derived signal
// updates from an upstream aggregation layer and submits the matching sync
// instructions, retrying transient failures with backoff. Each update is
// idempotent, so a retry after a partial cycle is safe.
package keeper

import (
	"context"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"percolator-go/internal/host"
	"percolator-go/internal/matcherctx"
)

// Update is one ready-to-submit sync: the target program, the account set,
// and the encoded instruction.
type Update struct {
	Market      string
	ProgramID   solana.PublicKey
	Accounts    []*matcherctx.Account
	Instruction []byte
}

// Keeper submits updates against the host registry.
type Keeper struct {
	log      zerolog.Logger
	registry *host.Registry
	attempts int
	backoff  time.Duration
}

// New builds a keeper with the default retry policy.
func New(log zerolog.Logger, registry *host.Registry) *Keeper {
	return &Keeper{
		log:      log.With().Str("component", "keeper").Logger(),
		registry: registry,
		attempts: 3,
		backoff:  200 * time.Millisecond,
	}
}

// Run consumes updates until the context is cancelled.
func (k *Keeper) Run(ctx context.Context, updates <-chan Update) error {
	k.log.Info().Msg("keeper loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up := <-updates:
			if err := k.Submit(ctx, up); err != nil {
				k.log.Error().Err(err).Str("market", up.Market).Msg("sync dropped")
			}
		}
	}
}

// Submit pushes one update, retrying with doubling backoff.
func (k *Keeper) Submit(ctx context.Context, up Update) error {
	backoff := k.backoff
	var err error
	for attempt := 1; attempt <= k.attempts; attempt++ {
		err = k.registry.Invoke(up.ProgramID, up.Accounts, up.Instruction)
		if err == nil {
			k.log.Debug().Str("market", up.Market).Int("attempt", attempt).Msg("sync submitted")
			return nil
		}
		if attempt == k.attempts {
			break
		}
		k.log.Warn().Err(err).Str("market", up.Market).Int("attempt", attempt).Msg("sync failed, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return err
}
