package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type DispatcherConfig struct {
	Interval  time.Duration `env:"DISPATCH_INTERVAL, default=30s"`
	Lookahead time.Duration `env:"DISPATCH_LOOKAHEAD, default=1m"`
	// Upcoming is how many future runs are kept materialized per pipeline.
	Upcoming int `env:"DISPATCH_UPCOMING_RUNS, default=5"`
}

func NewDispatcherConfigFromEnv() (*DispatcherConfig, error) {
	var cfg DispatcherConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("DISPATCH_INTERVAL must be positive")
	}
	if cfg.Lookahead < 0 {
		return nil, fmt.Errorf("DISPATCH_LOOKAHEAD must not be negative")
	}
	if cfg.Upcoming < 1 {
		return nil, fmt.Errorf("DISPATCH_UPCOMING_RUNS must be at least 1")
	}
	return &cfg, nil
}
