// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/userdesk/internal/apiclient"
	"github.com/olegiv/userdesk/internal/authflow"
	"github.com/olegiv/userdesk/internal/cache"
	"github.com/olegiv/userdesk/internal/directory"
	"github.com/olegiv/userdesk/internal/i18n"
	"github.com/olegiv/userdesk/internal/middleware"
	"github.com/olegiv/userdesk/internal/render"
	"github.com/olegiv/userdesk/internal/session"
	"github.com/olegiv/userdesk/web"
)

// apiResponse is a canned response of the fake user service.
type apiResponse struct {
	status int
	body   string
}

// apiRequest is a request received by the fake user service.
type apiRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeAPI is an httptest user service with canned responses per "METHOD /path".
type fakeAPI struct {
	srv *httptest.Server

	mu        sync.Mutex
	responses map[string]apiResponse
	requests  []apiRequest
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{responses: make(map[string]apiResponse)}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := apiRequest{Method: r.Method, Path: r.URL.EscapedPath()}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &req.Body)
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		resp, ok := f.responses[r.Method+" "+req.Path]
		f.mu.Unlock()

		if !ok {
			resp = apiResponse{status: http.StatusNotFound, body: `{"error":"Not found"}`}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		_, _ = io.WriteString(w, resp.body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) respond(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = apiResponse{status: status, body: body}
}

// calls returns the requests received for method and path.
func (f *fakeAPI) calls(method, path string) []apiRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []apiRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// testApp wires the handlers the way cmd/userdesk does, minus CSRF and rate limiting.
type testApp struct {
	api     *fakeAPI
	tracker *authflow.Tracker
	srv     *httptest.Server
	client  *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	require.NoError(t, i18n.Init(nil))

	sm := scs.New()
	renderer, err := render.New(render.Config{TemplatesFS: web.Templates, SessionManager: sm})
	require.NoError(t, err)

	api := newFakeAPI(t)
	client := apiclient.New(apiclient.Config{BaseURL: api.srv.URL, Timeout: 2 * time.Second})
	store := session.NewStore(sm)
	tracker := authflow.NewTracker()

	viewCache := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = viewCache.Close() })
	screen := directory.NewScreen(client, directory.NewViews(viewCache, time.Minute))

	authH := NewAuthHandler(client, store, tracker, renderer, time.Second)
	dirH := NewDirectoryHandler(screen, store, renderer)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Use(middleware.Language(sm))

	r.Get(RouteLogin, authH.LoginForm)
	r.Post(RouteLogin, authH.Login)
	r.Get(RouteRegister, authH.RegisterForm)
	r.Post(RouteRegister, authH.Register)

	r.Route(RouteAdmin, func(r chi.Router) {
		r.Use(middleware.AdminGate(store, Denied(renderer)))
		r.Get("/", dirH.Mount)
		r.Get("/directory/{view}", dirH.View)
		r.Post("/directory/{view}/select", dirH.Select)
		r.Get("/directory/{view}/users/{username}/delete", dirH.ConfirmDelete)
		r.Post("/directory/{view}/users/{username}/delete", dirH.Delete)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		api:     api,
		tracker: tracker,
		srv:     srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// get performs a GET and returns the status, Location header and body.
func (a *testApp) get(t *testing.T, path string, header ...string) (int, string, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return a.do(t, req)
}

// post submits form values and returns the status, Location header and body.
func (a *testApp) post(t *testing.T, path string, form url.Values, header ...string) (int, string, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return a.do(t, req)
}

func (a *testApp) do(t *testing.T, req *http.Request) (int, string, string) {
	t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

// loginAs logs in through the UI with the service answering for username and role.
func (a *testApp) loginAs(t *testing.T, username, role string) {
	t.Helper()
	a.api.respond(http.MethodPost, "/login", http.StatusOK,
		`{"message":"Login successful","username":"`+username+`","role":"`+role+`","email":"`+username+`@example.com"}`)

	status, _, _ := a.post(t, RouteLogin, url.Values{
		fieldFormID:   {authflow.NewFormID()},
		fieldUsername: {username},
		fieldPassword: {"pw"},
	})
	require.Equal(t, http.StatusOK, status)
}

// mount opens the directory and returns the view URL.
func (a *testApp) mount(t *testing.T) string {
	t.Helper()
	status, loc, _ := a.get(t, RouteAdmin)
	require.Equal(t, http.StatusSeeOther, status)
	require.True(t, strings.HasPrefix(loc, RouteDirectory+"/"), "location %q", loc)
	return loc
}
