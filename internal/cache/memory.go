// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryCache keeps entries in process memory. Views stored here are only
// visible to the instance that created them.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time

	done chan struct{}
	once sync.Once
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCacheOptions configures a MemoryCache.
type MemoryCacheOptions struct {
	DefaultTTL time.Duration

	// SweepInterval is how often expired entries are dropped. Zero disables sweeping;
	// expired entries are then only removed when read.
	SweepInterval time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewMemoryCache creates a MemoryCache.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     opts.DefaultTTL,
		now:     opts.Now,
		done:    make(chan struct{}),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if opts.SweepInterval > 0 {
		go c.sweepEvery(opts.SweepInterval)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		return nil, ErrClosed
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, ErrMiss
	}
	return slices.Clone(e.value), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		return ErrClosed
	}
	c.entries[key] = memoryEntry{value: slices.Clone(value), expires: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		return ErrClosed
	}
	delete(c.entries, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close drops every entry and stops sweeping.
func (c *MemoryCache) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.entries = nil
		c.mu.Unlock()
	})
	return nil
}

// sweep removes expired entries and reports how many were dropped.
func (c *MemoryCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *MemoryCache) sweepEvery(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

var _ Cache = (*MemoryCache)(nil)
