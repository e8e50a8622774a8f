// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the portal API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Session store (Redis)
	RedisURL   string        `env:"REDIS_URL,required"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// API rate limiting (identity-keyed sliding window)
	APIRateWindow time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`
	APIRateMax    int           `env:"API_RATE_MAX"    envDefault:"120"`

	// Login attempt limiting (applied before credential checks)
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"15m"`
	LoginRateMax    int           `env:"LOGIN_RATE_MAX"    envDefault:"5"`

	// SandboxTestKeys enables the reserved development API keys that resolve
	// to the synthetic sandbox identity. Forced off in production regardless
	// of this flag; see guard.NewTestKeyProvider.
	SandboxTestKeys bool `env:"SANDBOX_TEST_KEYS" envDefault:"true"`

	// AuditTokenAccess controls whether tier-3 (secondary API token)
	// authentications append an audit entry. Primary-key authentications are
	// always audited. Off by default to match established portal behavior.
	AuditTokenAccess bool `env:"AUDIT_TOKEN_ACCESS" envDefault:"false"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
