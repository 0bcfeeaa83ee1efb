// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the key/value backends that hold directory view state.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMiss is returned by Get for absent or expired keys.
	ErrMiss = errors.New("cache: miss")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("cache: closed")
)

// Cache is a byte-valued key/value store with per-entry expiry.
// Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error
}
