// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full application configuration, parsed from environment
// variables.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	// DataDir holds the master database and the per-tenant database files.
	DataDir   string `env:"DATA_DIR" envDefault:"./data"`
	UploadDir string `env:"UPLOAD_DIR" envDefault:"./uploads"`

	MarketplaceURL      string        `env:"MARKETPLACE_URL,required"`
	MarketplaceLogin    string        `env:"MARKETPLACE_LOGIN,required"`
	MarketplacePassword string        `env:"MARKETPLACE_PASSWORD,required"`
	MarketplaceTimeout  time.Duration `env:"MARKETPLACE_TIMEOUT" envDefault:"30s"`
}

// Load parses the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
