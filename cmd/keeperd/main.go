package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"percolator-go/internal/config"
	"percolator-go/internal/eventmatcher"
	"percolator-go/internal/host"
	"percolator-go/internal/keeper"
	"percolator-go/internal/macromatcher"
	"percolator-go/internal/matcherctx"
	"percolator-go/internal/metrics"
	"percolator-go/internal/util"
	"percolator-go/internal/volmatcher"
)

func wallClock() matcherctx.Clock {
	now := time.Now()
	return matcherctx.Clock{Slot: uint64(now.UnixMilli()) / 400, Unix: now.Unix()}
}

func newProgram(kind string, log zerolog.Logger) host.Program {
	switch kind {
	case "vol":
		return volmatcher.New(log)
	case "macro":
		return macromatcher.New(log)
	case "event":
		return eventmatcher.New(log)
	}
	return nil
}

func main() {
	log := util.NewLogger("info")

	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := host.NewRegistry(log, wallClock)
	for _, name := range cfg.Keeper.Markets {
		market, ok := cfg.MarketByName(name)
		if !ok {
			log.Fatal().Str("market", name).Msg("market not configured")
		}
		prog := newProgram(market.Matcher, log)
		if prog == nil {
			log.Fatal().Str("matcher", market.Matcher).Msg("keeper cannot sync this matcher kind")
		}
		programID, err := solana.PublicKeyFromBase58(market.ProgramID)
		if err != nil {
			log.Fatal().Err(err).Str("market", name).Msg("parse program id")
		}
		if err := registry.Register(programID, market.Matcher, prog); err != nil {
			log.Fatal().Err(err).Str("market", name).Msg("register program")
		}
	}

	// Updates arrive from the aggregation layer; nothing is attached in this
	// skeleton, so the loop idles until shutdown.
	updates := make(chan keeper.Update, 64)
	k := keeper.New(log, registry)

	log.Info().Int("markets", len(cfg.Keeper.Markets)).Msg("keeper started")
	if err := k.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("keeper stopped")
	}
	log.Info().Msg("shutting down")
}
