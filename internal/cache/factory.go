// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Backend names reported by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and configures the view cache backend.
type Config struct {
	// RedisURL selects Redis when set.
	RedisURL string
	Prefix   string

	DefaultTTL    time.Duration
	SweepInterval time.Duration
}

// New returns a RedisCache when RedisURL is set and reachable. Otherwise it
// logs the failure and returns a MemoryCache, so a single instance keeps working.
func New(cfg Config) (Cache, string) {
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(RedisCacheOptions{
			URL:         cfg.RedisURL,
			Prefix:      cfg.Prefix,
			DefaultTTL:  cfg.DefaultTTL,
			DialTimeout: 5 * time.Second,
		})
		if err == nil {
			return rc, BackendRedis
		}
		slog.Warn("redis unavailable, directory views stay local", "error", err)
	}

	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}
	return NewMemoryCache(MemoryCacheOptions{DefaultTTL: cfg.DefaultTTL, SweepInterval: sweep}), BackendMemory
}
