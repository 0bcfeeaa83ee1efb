// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"slices"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/userdesk/internal/i18n"
)

// SessionKeyLanguage stores an explicit language choice.
const SessionKeyLanguage = "lang"

// Language detects the UI language and stores it in the request context.
// Priority order:
//  1. Query parameter ?lang=XX (explicit switch, remembered in the session)
//  2. Language remembered in the session
//  3. Accept-Language header
func Language(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if q := r.URL.Query().Get("lang"); q != "" && slices.Contains(i18n.SupportedLanguages, q) {
				sm.Put(ctx, SessionKeyLanguage, q)
				next.ServeHTTP(w, r.WithContext(WithLanguage(ctx, q)))
				return
			}

			if lang := sm.GetString(ctx, SessionKeyLanguage); slices.Contains(i18n.SupportedLanguages, lang) {
				next.ServeHTTP(w, r.WithContext(WithLanguage(ctx, lang)))
				return
			}

			lang := i18n.MatchLanguage(r.Header.Get("Accept-Language"))
			next.ServeHTTP(w, r.WithContext(WithLanguage(ctx, lang)))
		})
	}
}
