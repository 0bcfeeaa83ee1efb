// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for the admin gate, language
// selection, CSRF protection, rate limiting and security headers.
package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/olegiv/userdesk/internal/i18n"
	"github.com/olegiv/userdesk/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeySession  ContextKey = "session"
	ContextKeyLanguage ContextKey = "language"
)

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, sess)
}

// GetSession returns the session placed in the context by AdminGate, or nil.
func GetSession(r *http.Request) *model.Session {
	sess, _ := r.Context().Value(ContextKeySession).(*model.Session)
	return sess
}

// WithLanguage returns a copy of ctx carrying lang.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ContextKeyLanguage, lang)
}

// GetLanguage returns the UI language of the request.
func GetLanguage(r *http.Request) string {
	if lang, ok := r.Context().Value(ContextKeyLanguage).(string); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}

// getClientIP extracts the client IP from the request.
// chi's RealIP middleware has already folded proxy headers into RemoteAddr.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
