// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything cmd/api needs to wire the service. The signing
// secret has no default on purpose: a deployment without one must fail at
// startup, not at the first login.
type Config struct {
	Addr        string `env:"AUTHD_ADDR" envDefault:":8080"`
	DatabaseDSN string `env:"AUTHD_PG_DSN"`

	JWTSecret   string        `env:"AUTHD_JWT_SECRET"`
	JWTIssuer   string        `env:"AUTHD_JWT_ISSUER" envDefault:"authd"`
	JWTAudience string        `env:"AUTHD_JWT_AUDIENCE" envDefault:"authd-clients"`
	AccessTTL   time.Duration `env:"AUTHD_ACCESS_TTL" envDefault:"1h"`
	RefreshTTL  time.Duration `env:"AUTHD_REFRESH_TTL" envDefault:"168h"`

	RateBurst     int   `env:"AUTHD_RATE_BURST" envDefault:"20"`
	RatePerSecond int   `env:"AUTHD_RATE_PER_SEC" envDefault:"10"`
	MaxBodyBytes  int64 `env:"AUTHD_MAX_BODY_BYTES" envDefault:"65536"`
}

// Load parses the environment and validates required settings.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("AUTHD_JWT_SECRET is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return Config{}, errors.New("token lifetimes must be positive")
	}
	return cfg, nil
}
