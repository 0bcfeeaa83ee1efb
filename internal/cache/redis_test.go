// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisURL returns USERDESK_TEST_REDIS_URL or skips the test.
func redisURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("USERDESK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("USERDESK_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c, err := NewRedisCache(RedisCacheOptions{
		URL:        redisURL(t),
		Prefix:     "userdesk-test:" + uuid.NewString() + ":",
		DefaultTTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "view", []byte("state"), 0))
	got, err := c.Get(ctx, "view")
	require.NoError(t, err)
	assert.Equal(t, "state", string(got))

	require.NoError(t, c.Delete(ctx, "view"))
	_, err = c.Get(ctx, "view")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Ping(ctx))

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Ping(ctx), ErrClosed)
}

func TestNewRedisCache_InvalidOptions(t *testing.T) {
	for _, url := range []string{"", "not-a-redis-url"} {
		_, err := NewRedisCache(RedisCacheOptions{URL: url})
		assert.Error(t, err, "url %q", url)
	}
}
