// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/userdesk/internal/model"
)

// Key is the session key under which the identity is stored.
const Key = "user"

// clientKey holds the per-browser client id used to track directory views.
const clientKey = "client_id"

// Store loads and saves the session identity for the request bound to ctx.
type Store interface {
	Load(ctx context.Context) (*model.Session, bool)
	Save(ctx context.Context, s model.Session) error
}

// ManagerStore is a Store backed by an scs session manager.
type ManagerStore struct {
	sm *scs.SessionManager
}

// NewStore creates a Store on top of sm.
func NewStore(sm *scs.SessionManager) *ManagerStore {
	return &ManagerStore{sm: sm}
}

// Load returns the stored identity. Absent or malformed data yields (nil, false).
func (s *ManagerStore) Load(ctx context.Context) (*model.Session, bool) {
	data := s.sm.GetBytes(ctx, Key)
	if len(data) == 0 {
		return nil, false
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		slog.Warn("discarding malformed session identity", "error", err)
		return nil, false
	}
	if sess.Username == "" {
		return nil, false
	}
	return &sess, true
}

// Save overwrites the stored identity and renews the session token.
func (s *ManagerStore) Save(ctx context.Context, sess model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	// Prevent session fixation across a login.
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	s.sm.Put(ctx, Key, data)
	return nil
}

// ClientID returns the id of the browser bound to ctx, minting one if needed.
func (s *ManagerStore) ClientID(ctx context.Context, mint func() string) string {
	if id := s.sm.GetString(ctx, clientKey); id != "" {
		return id
	}
	id := mint()
	s.sm.Put(ctx, clientKey, id)
	return id
}
