// Copyright (c) 2026 Atelier. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local .env file is
loaded first (if present) via 'joho/godotenv' for developer convenience.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Token, Mail) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the Atelier API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// APIBaseURL is the externally reachable base URL, used to build the
	// activation link embedded in outgoing mail.
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Session Store (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing. Two distinct secrets so a leaked access secret cannot
	// be used to forge refresh tokens.
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	// PasswordHashCost is the bcrypt work factor.
	PasswordHashCost int `env:"PASSWORD_HASH_COST" envDefault:"10"`

	// Credential shape bounds
	MinLoginLen    int `env:"MIN_LOGIN_LEN"    envDefault:"2"`
	MaxLoginLen    int `env:"MAX_LOGIN_LEN"    envDefault:"32"`
	MinEmailLen    int `env:"MIN_EMAIL_LEN"    envDefault:"6"`
	MaxEmailLen    int `env:"MAX_EMAIL_LEN"    envDefault:"64"`
	MinPasswordLen int `env:"MIN_PASSWORD_LEN" envDefault:"8"`
	MaxPasswordLen int `env:"MAX_PASSWORD_LEN" envDefault:"64"`

	// Activation mail delivery (SMTP)
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
//
// A .env file in the working directory is merged in first; its absence is not
// an error.
func Load() (*Config, error) {

	// Best-effort .env load for local development.
	_ = godotenv.Load()

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects configurations that would produce an unusable service.
func (c *Config) validate() error {
	if c.MinLoginLen < 1 || c.MaxLoginLen < c.MinLoginLen {
		return fmt.Errorf("config: invalid login length bounds [%d, %d]", c.MinLoginLen, c.MaxLoginLen)
	}
	if c.MinEmailLen < 1 || c.MaxEmailLen < c.MinEmailLen {
		return fmt.Errorf("config: invalid email length bounds [%d, %d]", c.MinEmailLen, c.MaxEmailLen)
	}
	if c.MinPasswordLen < 1 || c.MaxPasswordLen < c.MinPasswordLen {
		return fmt.Errorf("config: invalid password length bounds [%d, %d]", c.MinPasswordLen, c.MaxPasswordLen)
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return fmt.Errorf("config: access and refresh token secrets must differ")
	}
	return nil
}

// ExtraAllowedOrigins returns the additional CORS origins configured via
// EXTRA_ORIGINS (comma-separated).
func (c *Config) ExtraAllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}
	parts := strings.Split(c.ExtraOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
