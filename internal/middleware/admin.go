// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/userdesk/internal/model"
	"github.com/olegiv/userdesk/internal/session"
)

// AdminGate lets a request through only when the stored session belongs to an
// admin; the session is then available through GetSession. Anyone else gets
// the denied handler and nothing downstream runs, so no list or delete
// request is sent to the user service.
//
// This gate only shapes the UI. The user service re-checks every call.
func AdminGate(store session.Store, denied http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := store.Load(r.Context())
			if !model.IsAdmin(sess) {
				attrs := []any{
					"category", "security",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				}
				if sess != nil {
					attrs = append(attrs, "username", sess.Username, "role", string(sess.Role))
				}
				slog.Warn("access denied", attrs...)

				denied.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}
