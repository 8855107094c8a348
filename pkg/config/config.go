// Package config loads CLI configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/mkarri/pgsession"
)

// envPrefix scopes the environment variables the loader reads.
const envPrefix = "PGSESSION_"

// Config holds the full CLI configuration: the database connection
// parameters plus logger settings.
type Config struct {
	Database pgsession.Config `koanf:"database"`
	Log      LogConfig        `koanf:"log"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads PGSESSION_-prefixed environment variables and validates the
// result. A .env file in the working directory is picked up automatically.
// Variable names map onto config paths by lower-casing and splitting once
// after the prefix: PGSESSION_DATABASE_HOST becomes database.host.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
