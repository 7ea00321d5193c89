package config

import (
	"context"
	"fmt"

	"loglens/internal/filter"
)

// DefaultConfig returns the configuration used on first run.
func DefaultConfig() *Config {
	return &Config{
		Query:   filter.Query{Direction: filter.Asc},
		Decoder: DecoderConfig{Format: "auto"},
		Watch:   WatchConfig{MinInterval: "250ms"},
	}
}

// LoadOrBootstrap loads the stored configuration, writing and returning
// DefaultConfig when none exists yet. The result is validated.
func LoadOrBootstrap(ctx context.Context, store Store) (*Config, error) {
	cfg, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg == nil {
		cfg = DefaultConfig()
		if err := store.Save(ctx, cfg); err != nil {
			return nil, fmt.Errorf("bootstrap config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
