// Package solver runs the off-protocol side of the encrypted-intent flow: it
// receives sealed order intents, decrypts and validates them, refreshes the
// matcher's mark from a price source, and requests execution.
package solver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"percolator-go/internal/intent"
	"percolator-go/internal/metrics"
	"percolator-go/internal/risk"
)

var (
	ErrQueueFull      = errors.New("intent queue full")
	ErrIntentTooLarge = errors.New("intent size exceeds solver limit")
)

// PriceSource quotes a fresh e6 mark for the solver's market.
type PriceSource interface {
	Quote(ctx context.Context) (uint64, error)
}

// Venue is the solver's on-protocol surface: push a price, then match.
type Venue interface {
	PushPrice(priceE6 uint64) error
	Match(sizeE6 uint64) error
}

// Config tunes the engine.
type Config struct {
	QueueSize      int
	MaxSlippageBps uint32
	Limits         risk.Limits
}

// Engine consumes sealed intents and turns the valid ones into fills.
type Engine struct {
	log         zerolog.Logger
	boxPriv     [32]byte
	maxSlippage uint32
	limits      risk.Limits
	queue       chan intent.Envelope
	prices      PriceSource
	venue       Venue
	now         func() int64
}

// NewEngine wires the solver loop. QueueSize bounds how many undecrypted
// envelopes may be pending before ingress sheds load.
func NewEngine(log zerolog.Logger, boxPriv [32]byte, prices PriceSource, venue Venue, cfg Config) *Engine {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Engine{
		log:         log.With().Str("component", "solver").Logger(),
		boxPriv:     boxPriv,
		maxSlippage: cfg.MaxSlippageBps,
		limits:      cfg.Limits,
		queue:       make(chan intent.Envelope, cfg.QueueSize),
		prices:      prices,
		venue:       venue,
		now:         func() int64 { return time.Now().Unix() },
	}
}

// Enqueue hands a sealed envelope to the engine without blocking ingress.
func (e *Engine) Enqueue(env intent.Envelope) error {
	select {
	case e.queue <- env:
		return nil
	default:
		metrics.IntentsTotal.WithLabelValues("shed").Inc()
		return ErrQueueFull
	}
}

// Run drains the queue until the context is cancelled. Each cycle is
// independent, so a failed intent never blocks the next.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().Uint32("max_slippage", e.maxSlippage).Msg("solver loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-e.queue:
			if err := e.solve(ctx, env); err != nil {
				e.log.Warn().Err(err).Msg("intent discarded")
			}
		}
	}
}

func (e *Engine) solve(ctx context.Context, env intent.Envelope) error {
	it, err := intent.Decrypt(env, &e.boxPriv)
	if err != nil {
		metrics.IntentsTotal.WithLabelValues("undecryptable").Inc()
		return err
	}
	if err := it.Validate(e.now(), e.maxSlippage); err != nil {
		metrics.IntentsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	size := it.Size
	if size < 0 {
		size = -size
	}
	if !e.limits.Allow(uint64(size)) {
		metrics.IntentsTotal.WithLabelValues("too_large").Inc()
		return ErrIntentTooLarge
	}

	price, err := e.prices.Quote(ctx)
	if err != nil {
		metrics.IntentsTotal.WithLabelValues("no_price").Inc()
		return err
	}
	if err := e.venue.PushPrice(price); err != nil {
		metrics.IntentsTotal.WithLabelValues("push_failed").Inc()
		return err
	}

	if err := e.venue.Match(uint64(size)); err != nil {
		metrics.IntentsTotal.WithLabelValues("match_failed").Inc()
		return err
	}

	metrics.IntentsTotal.WithLabelValues("filled").Inc()
	e.log.Info().Int64("size", it.Size).Uint64("price", price).Msg("intent filled")
	return nil
}
