package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/curve25519"

	"percolator-go/internal/config"
	"percolator-go/internal/host"
	"percolator-go/internal/matcherctx"
	"percolator-go/internal/metrics"
	"percolator-go/internal/privacymatcher"
	"percolator-go/internal/risk"
	"percolator-go/internal/solver"
	"percolator-go/internal/util"
)

type staticSource uint64

func (s staticSource) Quote(context.Context) (uint64, error) { return uint64(s), nil }

func wallClock() matcherctx.Clock {
	now := time.Now()
	return matcherctx.Clock{Slot: uint64(now.UnixMilli()) / 400, Unix: now.Unix()}
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

	keys, err := solver.LoadKeysFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("load solver keys")
	}
	var boxPub [32]byte
	curve25519.ScalarBaseMult(&boxPub, &keys.BoxPriv)

	market, ok := cfg.MarketByName(cfg.Solver.Market)
	if !ok {
		log.Fatal().Str("market", cfg.Solver.Market).Msg("market not configured")
	}
	programID, err := solana.PublicKeyFromBase58(market.ProgramID)
	if err != nil {
		log.Fatal().Err(err).Msg("parse program id")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := host.NewRegistry(log, wallClock)
	if err := registry.Register(programID, "privacy", privacymatcher.New(log)); err != nil {
		log.Fatal().Err(err).Msg("register program")
	}

	// Local mirror of the matcher context, initialized at startup so the
	// solver can quote immediately.
	solverAcc := &matcherctx.Account{Key: keys.Signing.PublicKey(), Signer: true}
	authority := &matcherctx.Account{Key: keys.Signing.PublicKey(), Signer: true}
	ctxAcc := &matcherctx.Account{Key: solana.NewWallet().PublicKey(), Writable: true, Data: make([]byte, matcherctx.CtxSize)}
	initIns, err := privacymatcher.InitParams{
		BaseSpreadBps: cfg.Solver.BaseSpreadBps,
		SolverFeeBps:  cfg.Solver.SolverFeeBps,
		MaxSpreadBps:  cfg.Solver.MaxSpreadBps,
		SolverEncKey:  boxPub,
	}.Instruction()
	if err != nil {
		log.Fatal().Err(err).Msg("encode init")
	}
	if err := registry.Invoke(programID, []*matcherctx.Account{authority, ctxAcc, solverAcc}, initIns); err != nil {
		log.Fatal().Err(err).Msg("init matcher context")
	}

	venue := solver.NewHostVenue(registry, programID, solverAcc, authority, ctxAcc)
	engine := solver.NewEngine(log, keys.BoxPriv, staticSource(cfg.Solver.FallbackPriceE6), venue, solver.Config{
		QueueSize:      cfg.Solver.QueueSize,
		MaxSlippageBps: cfg.Solver.MaxSlippageBps,
		Limits:         risk.Limits{MaxSizePerIntentE6: cfg.Solver.MaxIntentSizeE6},
	})

	ingress := solver.NewIngress(log, engine)
	intentSrv := ingress.Serve(cfg.Solver.IntentAddr)
	defer intentSrv.Close()
	log.Info().Str("addr", cfg.Solver.IntentAddr).Str("market", market.Name).Msg("intent ingress up")

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("solver stopped")
	}
	log.Info().Msg("shutting down")
}
