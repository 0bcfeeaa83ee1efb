// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/userdesk/internal/model"
)

// stubStore is a session.Store returning a fixed session.
type stubStore struct {
	sess *model.Session
}

func (s stubStore) Load(context.Context) (*model.Session, bool) {
	return s.sess, s.sess != nil
}

func (s stubStore) Save(context.Context, model.Session) error { return nil }

func TestAdminGate(t *testing.T) {
	tests := []struct {
		name       string
		sess       *model.Session
		wantStatus int
		wantNext   bool
	}{
		{"no session", nil, http.StatusForbidden, false},
		{"user role", &model.Session{Username: "alice", Role: model.RoleUser}, http.StatusForbidden, false},
		{"unknown role", &model.Session{Username: "eve", Role: "superuser"}, http.StatusForbidden, false},
		{"admin", &model.Session{Username: "root", Role: model.RoleAdmin}, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			denied := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			})

			var nextCalled bool
			var seen *model.Session
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				seen = GetSession(r)
				w.WriteHeader(http.StatusOK)
			})

			h := AdminGate(stubStore{sess: tt.sess}, denied)(next)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
			if tt.wantNext {
				assert.Equal(t, tt.sess, seen)
			}
		})
	}
}

func TestGetSession_Empty(t *testing.T) {
	assert.Nil(t, GetSession(httptest.NewRequest(http.MethodGet, "/", nil)))
}
