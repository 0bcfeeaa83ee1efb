// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/userdesk/internal/apiclient"
	"github.com/olegiv/userdesk/internal/authflow"
	"github.com/olegiv/userdesk/internal/i18n"
	"github.com/olegiv/userdesk/internal/middleware"
	"github.com/olegiv/userdesk/internal/model"
	"github.com/olegiv/userdesk/internal/render"
	"github.com/olegiv/userdesk/internal/session"
)

// AuthService is the part of the user service used by the auth screens.
type AuthService interface {
	Register(ctx context.Context, fields map[string]string) (string, error)
	Login(ctx context.Context, fields map[string]string) (*apiclient.LoginResult, error)
}

// AuthHandler handles the login and register screens.
type AuthHandler struct {
	api        AuthService
	sessions   session.Store
	tracker    *authflow.Tracker
	renderer   *render.Renderer
	adminDelay time.Duration
}

// NewAuthHandler creates a new AuthHandler. adminDelay is how long the login
// success message stays on screen before an admin is sent to the directory.
func NewAuthHandler(api AuthService, sessions session.Store, tracker *authflow.Tracker, renderer *render.Renderer, adminDelay time.Duration) *AuthHandler {
	if adminDelay <= 0 {
		adminDelay = time.Second
	}
	return &AuthHandler{
		api:        api,
		sessions:   sessions,
		tracker:    tracker,
		renderer:   renderer,
		adminDelay: adminDelay,
	}
}

// LoginData is the login page model.
type LoginData struct {
	FormID   string
	Username string
	Pending  bool
}

// RegisterData is the register page model.
type RegisterData struct {
	FormID   string
	Username string
	Email    string
	Pending  bool
}

// LoginForm renders an idle login form.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	renderPage(w, r, h.renderer, http.StatusOK, templateLogin, render.TemplateData{
		Title: i18n.T(lang, "login.title"),
		Lang:  lang,
		Data:  LoginData{FormID: authflow.NewFormID()},
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, RouteLogin, i18n.T(lang, "error.unknown"))
		return
	}

	fields := submittedFields(r.PostForm, fieldUsername, fieldPassword)
	data := LoginData{
		FormID:   r.PostForm.Get(fieldFormID),
		Username: r.PostForm.Get(fieldUsername),
	}

	var sess model.Session
	form := h.tracker.Submit(r.Context(), data.FormID, func(ctx context.Context) (string, error) {
		res, err := h.api.Login(ctx, fields)
		if err != nil {
			return "", err
		}
		if err := h.sessions.Save(ctx, res.Session); err != nil {
			return "", fmt.Errorf("saving session: %w", err)
		}
		sess = res.Session
		return res.Message, nil
	})
	data.FormID = form.ID

	td := render.TemplateData{
		Title: i18n.T(lang, "login.title"),
		Lang:  lang,
	}

	switch form.State {
	case authflow.Submitting:
		data.Pending = true
		td.Flash, td.FlashType = i18n.T(lang, "form.in_progress"), render.FlashInfo
		td.Data = data
		renderPage(w, r, h.renderer, http.StatusConflict, templateLogin, td)
		return

	case authflow.Failure:
		if !isServiceFailure(form.Err) {
			logAndInternalError(w, "login failed", "error", form.Err)
			return
		}
		slog.Warn("login failed",
			"category", "auth",
			"username", data.Username,
			"error", form.Err)
		// One fixed message whatever the service said.
		td.Flash, td.FlashType = i18n.T(lang, "login.invalid"), render.FlashError
		td.Data = data
		renderPage(w, r, h.renderer, http.StatusOK, templateLogin, td)
		return
	}

	slog.Info("login succeeded",
		"category", "auth",
		"username", sess.Username,
		"role", string(sess.Role))

	td.Flash, td.FlashType = i18n.T(lang, "login.welcome", sess.Username), render.FlashSuccess
	if model.IsAdmin(&sess) {
		td.RefreshURL = RouteAdmin
		td.RefreshAfter = h.adminDelay
	}
	td.Data = LoginData{FormID: authflow.NewFormID()}
	renderPage(w, r, h.renderer, http.StatusOK, templateLogin, td)
}

// RegisterForm renders an idle register form.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	renderPage(w, r, h.renderer, http.StatusOK, templateRegister, render.TemplateData{
		Title: i18n.T(lang, "register.title"),
		Lang:  lang,
		Data:  RegisterData{FormID: authflow.NewFormID()},
	})
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, RouteRegister, i18n.T(lang, "error.unknown"))
		return
	}

	fields := submittedFields(r.PostForm, fieldUsername, fieldEmail, fieldPassword)
	data := RegisterData{
		FormID:   r.PostForm.Get(fieldFormID),
		Username: r.PostForm.Get(fieldUsername),
		Email:    r.PostForm.Get(fieldEmail),
	}

	form := h.tracker.Submit(r.Context(), data.FormID, func(ctx context.Context) (string, error) {
		return h.api.Register(ctx, fields)
	})
	data.FormID = form.ID

	td := render.TemplateData{
		Title: i18n.T(lang, "register.title"),
		Lang:  lang,
	}

	switch form.State {
	case authflow.Submitting:
		data.Pending = true
		td.Flash, td.FlashType = i18n.T(lang, "form.in_progress"), render.FlashInfo
		td.Data = data
		renderPage(w, r, h.renderer, http.StatusConflict, templateRegister, td)
		return

	case authflow.Failure:
		slog.Warn("register failed",
			"category", "auth",
			"username", data.Username,
			"error", form.Err)

		if msg, ok := apiclient.ServiceMessage(form.Err); ok {
			td.Flash = sanitize(msg)
		} else {
			td.Flash = i18n.T(lang, "register.network_error")
		}
		if td.Flash == "" {
			td.Flash = i18n.T(lang, "error.unknown")
		}
		td.FlashType = render.FlashError
		td.Data = data
		renderPage(w, r, h.renderer, http.StatusOK, templateRegister, td)
		return
	}

	slog.Info("user registered", "category", "auth", "username", data.Username)

	td.Flash = sanitize(form.Message)
	if td.Flash == "" {
		td.Flash = i18n.T(lang, "register.success")
	}
	td.FlashType = render.FlashSuccess
	td.Data = RegisterData{FormID: authflow.NewFormID()}
	renderPage(w, r, h.renderer, http.StatusOK, templateRegister, td)
}

// isServiceFailure reports whether err came from talking to the user service
// rather than from local state.
func isServiceFailure(err error) bool {
	var se *apiclient.ServiceError
	return errors.As(err, &se) || apiclient.IsNetworkError(err)
}
