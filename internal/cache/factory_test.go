// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		redisURL string
	}{
		{"no redis configured", ""},
		// Nothing listens on port 1.
		{"redis unreachable", "redis://127.0.0.1:1/0"},
		{"redis url malformed", "not-a-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, backend := New(Config{RedisURL: tt.redisURL, DefaultTTL: time.Minute})
			t.Cleanup(func() { _ = c.Close() })

			assert.Equal(t, BackendMemory, backend)
			assert.IsType(t, &MemoryCache{}, c)
		})
	}
}
