// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// User service
	APIURL     string        `env:"USERDESK_API_URL" envDefault:"http://127.0.0.1:5000"`
	APITimeout time.Duration `env:"USERDESK_API_TIMEOUT" envDefault:"10s"`

	DBPath        string `env:"USERDESK_DB_PATH" envDefault:"./data/userdesk.db"`
	SessionSecret string `env:"USERDESK_SESSION_SECRET,required"`
	ServerHost    string `env:"USERDESK_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"USERDESK_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"USERDESK_ENV" envDefault:"development"`
	LogLevel      string `env:"USERDESK_LOG_LEVEL" envDefault:"info"`

	// How long the login success message shows before an admin is sent on.
	AdminRedirectDelay time.Duration `env:"USERDESK_ADMIN_REDIRECT_DELAY" envDefault:"1s"`

	// Directory view state
	RedisURL    string        `env:"USERDESK_REDIS_URL"`                           // Optional Redis URL for shared view state
	CachePrefix string        `env:"USERDESK_CACHE_PREFIX" envDefault:"userdesk:"` // Redis key prefix
	ViewTTL     time.Duration `env:"USERDESK_VIEW_TTL" envDefault:"30m"`

	// Login/register submissions per client IP
	SubmitRPS   float64 `env:"USERDESK_SUBMIT_RPS" envDefault:"0.5"`
	SubmitBurst int     `env:"USERDESK_SUBMIT_BURST" envDefault:"5"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}

// UseRedisCache returns true if Redis is configured for view state.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
// The CSRF key needs 32 bytes.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("USERDESK_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("USERDESK_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("USERDESK_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.Env != "development" && cfg.Env != "production" {
		return nil, fmt.Errorf("USERDESK_ENV must be development or production, got %q", cfg.Env)
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("USERDESK_API_TIMEOUT must be positive, got %s", cfg.APITimeout)
	}
	if cfg.ViewTTL <= 0 {
		return nil, fmt.Errorf("USERDESK_VIEW_TTL must be positive, got %s", cfg.ViewTTL)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
