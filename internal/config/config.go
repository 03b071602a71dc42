// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Solver configures the encrypted-intent solver daemon.
type Solver struct {
	IntentAddr      string `yaml:"intent_addr"` // websocket listen address
	QueueSize       int    `yaml:"queue_size"`
	MaxSlippageBps  uint32 `yaml:"max_slippage_bps"`
	Market          string `yaml:"market"` // name of the market this solver serves
	BaseSpreadBps   uint32 `yaml:"base_spread_bps"`
	SolverFeeBps    uint32 `yaml:"solver_fee_bps"`
	MaxSpreadBps    uint32 `yaml:"max_spread_bps"`
	FallbackPriceE6 uint64 `yaml:"fallback_price_e6"` // mark used when no feed is attached
	MaxIntentSizeE6 uint64 `yaml:"max_intent_size_e6"` // 0 = unlimited
}

// Keeper configures the signal-sync daemon.
type Keeper struct {
	SyncIntervalMs int      `yaml:"sync_interval_ms"`
	Markets        []string `yaml:"markets"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App     App      `yaml:"app"`
	Solver  Solver   `yaml:"solver"`
	Keeper  Keeper   `yaml:"keeper"`
	Markets []Market `yaml:"markets"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
