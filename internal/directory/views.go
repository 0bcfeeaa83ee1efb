// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/olegiv/userdesk/internal/cache"
)

const (
	viewKeyPrefix    = "view:"
	currentKeyPrefix = "current:"
)

// Views persists directory views in a cache and tracks each client's current mount.
type Views struct {
	cache cache.Cache
	ttl   time.Duration

	// Read-modify-write of one view is serialized within this process.
	// Views hash onto a fixed set of stripes, so expired views leave nothing behind.
	locks [lockStripes]sync.Mutex
}

// lockStripes bounds the number of mutexes regardless of how many views exist.
const lockStripes = 64

// NewViews creates a view repository backed by c. Views expire after ttl.
func NewViews(c cache.Cache, ttl time.Duration) *Views {
	return &Views{cache: c, ttl: ttl}
}

// Create stores v and makes it the current view of client.
func (vs *Views) Create(ctx context.Context, client string, v *View) error {
	if err := vs.put(ctx, v); err != nil {
		return err
	}
	if err := vs.cache.Set(ctx, currentKeyPrefix+client, []byte(v.ID), vs.ttl); err != nil {
		return fmt.Errorf("marking current view: %w", err)
	}
	return nil
}

// Get loads a view by id.
func (vs *Views) Get(ctx context.Context, id string) (*View, error) {
	data, err := vs.cache.Get(ctx, viewKeyPrefix+id)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrViewNotFound
		}
		return nil, fmt.Errorf("loading view: %w", err)
	}

	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding view: %w", err)
	}
	return &v, nil
}

// Update applies fn to the stored view and saves the result. If fn fails the
// stored view is left unchanged.
func (vs *Views) Update(ctx context.Context, id string, fn func(*View) error) (*View, error) {
	mu := vs.lock(id)
	mu.Lock()
	defer mu.Unlock()

	v, err := vs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(v); err != nil {
		return nil, err
	}
	if err := vs.put(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Current returns the id of the most recently mounted view of client.
func (vs *Views) Current(ctx context.Context, client string) (string, error) {
	data, err := vs.cache.Get(ctx, currentKeyPrefix+client)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return "", ErrViewNotFound
		}
		return "", fmt.Errorf("loading current view: %w", err)
	}
	return string(data), nil
}

func (vs *Views) put(ctx context.Context, v *View) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding view: %w", err)
	}
	if err := vs.cache.Set(ctx, viewKeyPrefix+v.ID, data, vs.ttl); err != nil {
		return fmt.Errorf("storing view: %w", err)
	}
	return nil
}

func (vs *Views) lock(id string) *sync.Mutex {
	return &vs.locks[xxhash.Sum64String(id)%lockStripes]
}
