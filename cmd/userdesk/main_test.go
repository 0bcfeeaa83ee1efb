// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/userdesk/internal/apiclient"
	"github.com/olegiv/userdesk/internal/authflow"
	"github.com/olegiv/userdesk/internal/cache"
	"github.com/olegiv/userdesk/internal/config"
	"github.com/olegiv/userdesk/internal/directory"
	"github.com/olegiv/userdesk/internal/handler"
	"github.com/olegiv/userdesk/internal/i18n"
	"github.com/olegiv/userdesk/internal/middleware"
	"github.com/olegiv/userdesk/internal/render"
	"github.com/olegiv/userdesk/internal/session"
	"github.com/olegiv/userdesk/internal/testutil"
	"github.com/olegiv/userdesk/web"
)

func testRouter(t *testing.T, apiURL string) http.Handler {
	t.Helper()
	require.NoError(t, i18n.Init(nil))

	db := testutil.TestDB(t)

	cfg := &config.Config{
		SessionSecret: "test-secret-key-32-bytes-long!!!",
		ServerHost:    "localhost",
		ServerPort:    8080,
		Env:           "development",
	}

	sm := session.New(db, true)
	renderer, err := render.New(render.Config{TemplatesFS: web.Templates, SessionManager: sm})
	require.NoError(t, err)

	viewCache := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = viewCache.Close() })

	client := apiclient.New(apiclient.Config{BaseURL: apiURL, Timeout: time.Second})
	sessions := session.NewStore(sm)
	limiter := middleware.NewSubmitRateLimiter(100, 100)
	t.Cleanup(limiter.Stop)

	return newRouter(cfg, sm, routes{
		auth:      handler.NewAuthHandler(client, sessions, authflow.NewTracker(), renderer, time.Second),
		directory: handler.NewDirectoryHandler(directory.NewScreen(client, directory.NewViews(viewCache, time.Minute)), sessions, renderer),
		health:    handler.NewHealthHandler(db, nil),
		denied:    handler.Denied(renderer),
		sessions:  sessions,
		limiter:   limiter,
	})
}

func TestRouter_RootRedirectsToLogin(t *testing.T) {
	r := testRouter(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRouter_Health(t *testing.T) {
	r := testRouter(t, "http://127.0.0.1:1")

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_LoginPageHasSecurityHeaders(t *testing.T) {
	r := testRouter(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "script-src 'none'")
}

func TestRouter_CrossSiteLoginRejected(t *testing.T) {
	var called bool
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(api.Close)

	r := testRouter(t, api.URL)

	form := url.Values{"username": {"root"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Origin", "https://evil.example")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestRouter_AdminDeniedWithoutSession(t *testing.T) {
	r := testRouter(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin Access Required")
}
