// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

// Package config loads the platform configuration with layered
// precedence: built-in defaults, then an optional YAML file, then
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/casaops/casaops/internal/logging"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server" json:"server"`
	Database DatabaseConfig `koanf:"database" json:"database"`
	Logging  logging.Config `koanf:"logging" json:"logging"`
	Audit    AuditConfig    `koanf:"audit" json:"audit"`
	Security SecurityConfig `koanf:"security" json:"security"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string        `koanf:"host" json:"host"`
	Port        int           `koanf:"port" json:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout" json:"timeout"`
	Environment string        `koanf:"environment" json:"environment" validate:"oneof=development production"`
}

// DatabaseConfig configures the audit store backend.
type DatabaseConfig struct {
	// Driver selects the backend: postgres, sqlite or memory.
	Driver string `koanf:"driver" json:"driver" validate:"oneof=postgres sqlite memory"`

	// DSN is the connection string for the relational drivers.
	DSN string `koanf:"dsn" json:"dsn"`
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	// Dir holds the dated audit files. Defaults to <logging.dir>/audit.
	Dir string `koanf:"dir" json:"dir"`

	// RetentionDays is how long stored events are kept.
	RetentionDays int `koanf:"retention_days" json:"retentionDays" validate:"min=1"`

	// CleanupInterval is how often retention cleanup runs.
	CleanupInterval time.Duration `koanf:"cleanup_interval" json:"cleanupInterval"`
}

// SecurityConfig configures the admin API protections.
type SecurityConfig struct {
	// JWTSecret signs and verifies admin bearer tokens. Required in
	// production.
	JWTSecret string `koanf:"jwt_secret" json:"-"`

	// CORSOrigins lists the allowed cross-origin sources.
	CORSOrigins []string `koanf:"cors_origins" json:"corsOrigins"`

	// RateLimitReqs is the request budget per window for the search
	// endpoints.
	RateLimitReqs int `koanf:"rate_limit_reqs" json:"rateLimitReqs" validate:"min=1"`

	// RateLimitWindow is the rate limit window size.
	RateLimitWindow time.Duration `koanf:"rate_limit_window" json:"rateLimitWindow"`

	// RateLimitDisabled turns rate limiting off entirely.
	RateLimitDisabled bool `koanf:"rate_limit_disabled" json:"rateLimitDisabled"`
}

// defaultConfig returns the built-in defaults. The logging section
// starts from the preset selected by APP_ENV.
func defaultConfig(env string) *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        3000,
			Timeout:     30 * time.Second,
			Environment: environmentName(env),
		},
		Database: DatabaseConfig{
			Driver: "memory",
			DSN:    "",
		},
		Logging: Preset(env),
		Audit: AuditConfig{
			Dir:             "",
			RetentionDays:   90,
			CleanupInterval: 24 * time.Hour,
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
	}
}

// environmentName collapses preset names onto the two environment modes.
func environmentName(env string) string {
	if env == "production" {
		return "production"
	}
	return "development"
}

// Validate checks the configuration, including the logging section's
// level/output/format constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Server.Environment == "production" && c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required in production")
	}
	return nil
}

// ValidateLoggerConfig checks a logger configuration submitted at
// runtime (for example over the admin API) without touching the rest
// of the tree.
func ValidateLoggerConfig(cfg *logging.Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid logger configuration: %w", err)
	}
	return nil
}
