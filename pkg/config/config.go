// Package config loads the pricing defaults and store settings from the
// environment. Every variable is prefixed with BINGO_.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/domino14/bingofutures/pkg/bingo"
	"github.com/domino14/bingofutures/pkg/lmsr"
)

const envPrefix = "BINGO"

type Config struct {
	// Liquidity is the default LMSR b for new boards.
	Liquidity float64 `envconfig:"LIQUIDITY" default:"100" validate:"gt=0"`
	// Correlation is the default correlation factor for derived markets.
	Correlation float64 `envconfig:"CORRELATION" default:"1.2" validate:"gt=0"`
	DBPath      string  `envconfig:"DB_PATH" default:"bingo.db" validate:"required"`
	LogLevel    string  `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error disabled"`
}

// Default returns the configuration used when nothing is set in the
// environment.
func Default() *Config {
	return &Config{
		Liquidity:   lmsr.Liquidity,
		Correlation: bingo.DefaultCorrelation,
		DBPath:      "bingo.db",
		LogLevel:    "info",
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ApplyLogLevel sets the global zerolog level.
func (c *Config) ApplyLogLevel() error {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
