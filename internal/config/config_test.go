package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "percolator-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.MetricsAddr != ":9100" {
		t.Fatalf("unexpected App.MetricsAddr: %s", cfg.App.MetricsAddr)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected App.LogLevel: %s", cfg.App.LogLevel)
	}
	if cfg.Solver.IntentAddr != ":8090" {
		t.Fatalf("unexpected Solver.IntentAddr: %s", cfg.Solver.IntentAddr)
	}
	if cfg.Solver.QueueSize != 128 {
		t.Fatalf("unexpected Solver.QueueSize: %d", cfg.Solver.QueueSize)
	}
	if cfg.Solver.MaxSlippageBps != 50 {
		t.Fatalf("unexpected Solver.MaxSlippageBps: %d", cfg.Solver.MaxSlippageBps)
	}
	if cfg.Solver.SolverFeeBps != 5 {
		t.Fatalf("unexpected Solver.SolverFeeBps: %d", cfg.Solver.SolverFeeBps)
	}
	if cfg.Solver.FallbackPriceE6 != 1_000_000 {
		t.Fatalf("unexpected Solver.FallbackPriceE6: %d", cfg.Solver.FallbackPriceE6)
	}
	if cfg.Solver.MaxIntentSizeE6 != 250_000 {
		t.Fatalf("unexpected Solver.MaxIntentSizeE6: %d", cfg.Solver.MaxIntentSizeE6)
	}
	if cfg.Keeper.SyncIntervalMs != 400 {
		t.Fatalf("unexpected Keeper.SyncIntervalMs: %d", cfg.Keeper.SyncIntervalMs)
	}
	if len(cfg.Keeper.Markets) != 2 || cfg.Keeper.Markets[0] != "btc-vol" {
		t.Fatalf("unexpected Keeper.Markets: %+v", cfg.Keeper.Markets)
	}
	if len(cfg.Markets) != 3 {
		t.Fatalf("expected 3 markets, got %d", len(cfg.Markets))
	}

	market, ok := cfg.MarketByName("rates-macro")
	if !ok {
		t.Fatalf("rates-macro market not found")
	}
	if market.Matcher != "macro" {
		t.Fatalf("unexpected matcher: %s", market.Matcher)
	}
	if market.ProgramID != "Ma1111111111111111111111111111111111111111" {
		t.Fatalf("unexpected program id: %s", market.ProgramID)
	}

	if _, ok := cfg.MarketByName("nope"); ok {
		t.Fatalf("expected miss for unknown market")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
