// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/userdesk/internal/apiclient"
	"github.com/olegiv/userdesk/internal/authflow"
	"github.com/olegiv/userdesk/internal/cache"
	"github.com/olegiv/userdesk/internal/config"
	"github.com/olegiv/userdesk/internal/directory"
	"github.com/olegiv/userdesk/internal/handler"
	"github.com/olegiv/userdesk/internal/i18n"
	"github.com/olegiv/userdesk/internal/logging"
	"github.com/olegiv/userdesk/internal/middleware"
	"github.com/olegiv/userdesk/internal/render"
	"github.com/olegiv/userdesk/internal/session"
	"github.com/olegiv/userdesk/internal/store"
	"github.com/olegiv/userdesk/internal/version"
	"github.com/olegiv/userdesk/web"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "userdesk - login, sign-up and user administration front end\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  USERDESK_SESSION_SECRET  Session and CSRF key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  USERDESK_API_URL         User service base URL (default: http://127.0.0.1:5000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  USERDESK_API_TIMEOUT     User service timeout (default: 10s)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  USERDESK_DB_PATH         SQLite database path (default: ./data/userdesk.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  USERDESK_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  USERDESK_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  USERDESK_REDIS_URL       Redis URL for shared directory views (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Println(version.Get().String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Also write WARN and ERROR logs to the event log table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	sessionManager := session.New(db, cfg.IsDevelopment())

	viewCache, backend := cache.New(cache.Config{
		RedisURL:      cfg.RedisURL,
		Prefix:        cfg.CachePrefix,
		DefaultTTL:    cfg.ViewTTL,
		SweepInterval: time.Minute,
	})
	defer func() { _ = viewCache.Close() }()
	slog.Info("directory view cache initialized", "backend", backend)

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates,
		SessionManager: sessionManager,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	client := apiclient.New(apiclient.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.APITimeout,
		UserAgent: version.Get().UserAgent(),
	})
	slog.Info("user service client initialized", "url", client.BaseURL(), "timeout", cfg.APITimeout)

	sessions := session.NewStore(sessionManager)
	screen := directory.NewScreen(client, directory.NewViews(viewCache, cfg.ViewTTL))

	var cachePinger handler.Pinger
	if p, ok := viewCache.(handler.Pinger); ok {
		cachePinger = p
	}

	limiter := middleware.NewSubmitRateLimiter(cfg.SubmitRPS, cfg.SubmitBurst)
	defer limiter.Stop()

	r := newRouter(cfg, sessionManager, routes{
		auth:      handler.NewAuthHandler(client, sessions, authflow.NewTracker(), renderer, cfg.AdminRedirectDelay),
		directory: handler.NewDirectoryHandler(screen, sessions, renderer),
		health:    handler.NewHealthHandler(db, cachePinger),
		denied:    handler.Denied(renderer),
		sessions:  sessions,
		limiter:   limiter,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// The user service timeout bounds every handler.
		WriteTimeout:   cfg.APITimeout + 15*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// routes holds what newRouter mounts.
type routes struct {
	auth      *handler.AuthHandler
	directory *handler.DirectoryHandler
	health    *handler.HealthHandler
	denied    http.Handler
	sessions  session.Store
	limiter   *middleware.SubmitRateLimiter
}

func newRouter(cfg *config.Config, sm *scs.SessionManager, h routes) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	// Health checks skip sessions.
	r.Get("/health/live", h.health.Liveness)
	r.Get("/health/ready", h.health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		r.Use(middleware.Language(sm))
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr())))

		r.Get(handler.RouteRoot, http.RedirectHandler(handler.RouteLogin, http.StatusFound).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(h.limiter.Middleware())
			r.Get(handler.RouteLogin, h.auth.LoginForm)
			r.Post(handler.RouteLogin, h.auth.Login)
			r.Get(handler.RouteRegister, h.auth.RegisterForm)
			r.Post(handler.RouteRegister, h.auth.Register)
		})

		r.Route(handler.RouteAdmin, func(r chi.Router) {
			r.Use(middleware.AdminGate(h.sessions, h.denied))
			r.Get("/", h.directory.Mount)
			r.Get("/directory/{view}", h.directory.View)
			r.Post("/directory/{view}/select", h.directory.Select)
			r.Get("/directory/{view}/users/{username}/delete", h.directory.ConfirmDelete)
			r.Post("/directory/{view}/users/{username}/delete", h.directory.Delete)
		})
	})

	return r
}
