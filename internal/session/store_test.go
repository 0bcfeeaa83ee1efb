// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/userdesk/internal/model"
)

func loadedContext(t *testing.T) (*ManagerStore, context.Context) {
	t.Helper()
	sm := New(setupTestDB(t), true)
	ctx, err := sm.Load(context.Background(), "")
	require.NoError(t, err)
	return NewStore(sm), ctx
}

func TestStore_LoadEmpty(t *testing.T) {
	store, ctx := loadedContext(t)

	sess, ok := store.Load(ctx)
	assert.False(t, ok)
	assert.Nil(t, sess)
}

func TestStore_SaveThenLoad(t *testing.T) {
	store, ctx := loadedContext(t)

	want := model.Session{Username: "root", Role: model.RoleAdmin, Email: "root@example.com", Active: true}
	require.NoError(t, store.Save(ctx, want))

	got, ok := store.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, want, *got)
}

func TestStore_SaveOverwrites(t *testing.T) {
	store, ctx := loadedContext(t)

	require.NoError(t, store.Save(ctx, model.Session{Username: "root", Role: model.RoleAdmin}))
	require.NoError(t, store.Save(ctx, model.Session{Username: "bob", Role: model.RoleUser}))

	got, ok := store.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "bob", got.Username)
	assert.Equal(t, model.RoleUser, got.Role)
}

func TestStore_MalformedData(t *testing.T) {
	store, ctx := loadedContext(t)

	store.sm.Put(ctx, Key, []byte("{not json"))

	sess, ok := store.Load(ctx)
	assert.False(t, ok)
	assert.Nil(t, sess)
}

func TestStore_MissingUsername(t *testing.T) {
	store, ctx := loadedContext(t)

	store.sm.Put(ctx, Key, []byte(`{"role":"admin"}`))

	_, ok := store.Load(ctx)
	assert.False(t, ok)
}

func TestStore_ClientIDStable(t *testing.T) {
	store, ctx := loadedContext(t)

	calls := 0
	mint := func() string {
		calls++
		return "client-1"
	}

	assert.Equal(t, "client-1", store.ClientID(ctx, mint))
	assert.Equal(t, "client-1", store.ClientID(ctx, mint))
	assert.Equal(t, 1, calls)
}
