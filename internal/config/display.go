package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DisplayConfig controls how stored schedules and run history are shown.
type DisplayConfig struct {
	// Timezone is an IANA zone name. "Local" uses the host's zone.
	Timezone string `env:"SCHEDULE_TIMEZONE, default=Local"`
	// AttributionCutoff is an RFC 3339 instant. Runs started before it
	// are shown without a user.
	AttributionCutoff string `env:"RUN_ATTRIBUTION_CUTOFF, default=2024-10-01T00:00:00Z"`
}

// Display is a DisplayConfig with its values parsed.
type Display struct {
	Location          *time.Location
	AttributionCutoff time.Time
}

// NewDisplayFromEnv reads DisplayConfig from the environment and parses it.
func NewDisplayFromEnv() (*Display, error) {
	var cfg DisplayConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	return cfg.Parse()
}

func (c *DisplayConfig) Parse() (*Display, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE %q: %w", c.Timezone, err)
	}
	cutoff, err := time.Parse(time.RFC3339, c.AttributionCutoff)
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_ATTRIBUTION_CUTOFF %q: %w", c.AttributionCutoff, err)
	}
	return &Display{Location: loc, AttributionCutoff: cutoff}, nil
}
