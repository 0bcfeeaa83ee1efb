// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/userdesk/internal/i18n"
)

func languageHandler(t *testing.T) (http.Handler, *string) {
	t.Helper()
	require.NoError(t, i18n.Init(nil))

	sm := scs.New()
	var got string
	h := sm.LoadAndSave(Language(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetLanguage(r)
	})))
	return h, &got
}

func TestLanguage_AcceptLanguage(t *testing.T) {
	h, got := languageHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Accept-Language", "tr-TR,tr;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "tr", *got)

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Accept-Language", "fr-FR")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "en", *got)
}

func TestLanguage_QueryRemembered(t *testing.T) {
	h, got := languageHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?lang=tr", nil))
	assert.Equal(t, "tr", *got)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Accept-Language", "en")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "tr", *got)
}

func TestLanguage_UnsupportedQueryIgnored(t *testing.T) {
	h, got := languageHandler(t)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/login?lang=xx", nil))
	assert.Equal(t, "en", *got)
}

func TestGetLanguage_Default(t *testing.T) {
	assert.Equal(t, "en", GetLanguage(httptest.NewRequest(http.MethodGet, "/", nil)))
}
