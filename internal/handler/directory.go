// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/olegiv/userdesk/internal/apiclient"
	"github.com/olegiv/userdesk/internal/directory"
	"github.com/olegiv/userdesk/internal/i18n"
	"github.com/olegiv/userdesk/internal/middleware"
	"github.com/olegiv/userdesk/internal/model"
	"github.com/olegiv/userdesk/internal/render"
)

// ClientIdentifier hands out a stable id per browser session.
type ClientIdentifier interface {
	ClientID(ctx context.Context, mint func() string) string
}

// DirectoryHandler serves the user directory screen. Routes are expected to
// sit behind middleware.AdminGate.
type DirectoryHandler struct {
	screen   *directory.Screen
	clients  ClientIdentifier
	renderer *render.Renderer
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(screen *directory.Screen, clients ClientIdentifier, renderer *render.Renderer) *DirectoryHandler {
	return &DirectoryHandler{
		screen:   screen,
		clients:  clients,
		renderer: renderer,
	}
}

// DirectoryData is the directory page model.
type DirectoryData struct {
	ViewID       string
	Query        string
	Users        []model.UserRecord
	Total        int
	Selected     *model.UserRecord
	SelectedName string
	LoadFailed   bool
}

// ConfirmDeleteData is the delete confirmation page model.
type ConfirmDeleteData struct {
	ViewID   string
	Username string
}

// Mount handles GET /admin: it fetches the directory into a new view and
// redirects to it.
func (h *DirectoryHandler) Mount(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	client := h.clients.ClientID(r.Context(), uuid.NewString)

	v, err := h.screen.Mount(r.Context(), client, sess)
	if err != nil {
		h.handleError(w, r, err, "")
		return
	}
	http.Redirect(w, r, directoryURL(v.ID), http.StatusSeeOther)
}

// View handles GET /admin/directory/{view}. A q parameter replaces the query.
func (h *DirectoryHandler) View(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	id := chi.URLParam(r, "view")

	var (
		v   *directory.View
		err error
	)
	if r.URL.Query().Has("q") {
		v, err = h.screen.Search(r.Context(), id, sess, r.URL.Query().Get("q"))
	} else {
		v, err = h.screen.Open(r.Context(), id, sess)
	}
	if err != nil {
		h.handleError(w, r, err, id)
		return
	}

	lang := middleware.GetLanguage(r)
	renderPage(w, r, h.renderer, http.StatusOK, templateDirectory, render.TemplateData{
		Title: i18n.T(lang, "directory.title"),
		Lang:  lang,
		Data:  directoryData(v),
	})
}

// Select handles POST /admin/directory/{view}/select.
func (h *DirectoryHandler) Select(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	id := chi.URLParam(r, "view")

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, directoryURL(id), http.StatusSeeOther)
		return
	}

	if _, err := h.screen.Select(r.Context(), id, sess, r.PostForm.Get(fieldUsername)); err != nil {
		h.handleError(w, r, err, id)
		return
	}
	http.Redirect(w, r, directoryURL(id), http.StatusSeeOther)
}

// ConfirmDelete handles GET /admin/directory/{view}/users/{username}/delete.
func (h *DirectoryHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	id := chi.URLParam(r, "view")

	if _, err := h.screen.Open(r.Context(), id, sess); err != nil {
		h.handleError(w, r, err, id)
		return
	}

	lang := middleware.GetLanguage(r)
	renderPage(w, r, h.renderer, http.StatusOK, templateConfirmDelete, render.TemplateData{
		Title: i18n.T(lang, "delete.title"),
		Lang:  lang,
		Data: ConfirmDeleteData{
			ViewID:   id,
			Username: usernameParam(r),
		},
	})
}

// Delete handles POST /admin/directory/{view}/users/{username}/delete.
func (h *DirectoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	id := chi.URLParam(r, "view")
	username := usernameParam(r)
	lang := middleware.GetLanguage(r)

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, deleteURL(id, username), http.StatusSeeOther)
		return
	}

	res, err := h.screen.Delete(r.Context(), directory.DeleteRequest{
		ViewID:    id,
		Client:    h.clients.ClientID(r.Context(), uuid.NewString),
		Session:   sess,
		Username:  username,
		Confirmed: r.PostForm.Get(fieldConfirm) == "yes",
	})
	if err != nil {
		if msg, ok := apiclient.ServiceMessage(err); ok {
			flashError(w, r, h.renderer, directoryURL(id), i18n.T(lang, "directory.delete_failed", sanitize(msg)))
			return
		}
		if apiclient.IsNetworkError(err) {
			flashError(w, r, h.renderer, directoryURL(id), i18n.T(lang, "directory.delete_network_error"))
			return
		}
		if errors.Is(err, directory.ErrNotConfirmed) {
			http.Redirect(w, r, deleteURL(id, username), http.StatusSeeOther)
			return
		}
		h.handleError(w, r, err, id)
		return
	}

	msg := sanitize(res.Message)
	if msg == "" {
		msg = i18n.T(lang, "directory.deleted", username)
	}
	if res.Discarded {
		// The delete went through but the view it came from is gone.
		flashSuccess(w, r, h.renderer, RouteAdmin, msg)
		return
	}
	flashSuccess(w, r, h.renderer, directoryURL(id), msg)
}

// handleError maps directory errors to responses.
func (h *DirectoryHandler) handleError(w http.ResponseWriter, r *http.Request, err error, viewID string) {
	lang := middleware.GetLanguage(r)

	switch {
	case errors.Is(err, directory.ErrNotAdmin):
		Denied(h.renderer).ServeHTTP(w, r)
	case errors.Is(err, directory.ErrViewNotFound):
		flashAndRedirect(w, r, h.renderer, RouteAdmin, i18n.T(lang, "directory.expired"), render.FlashInfo)
	case errors.Is(err, directory.ErrUnknownUser):
		http.Redirect(w, r, directoryURL(viewID), http.StatusSeeOther)
	default:
		logAndInternalError(w, "directory request failed", "view", viewID, "error", err)
	}
}

// Denied renders the access-denied page with status 403.
func Denied(renderer *render.Renderer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := middleware.GetLanguage(r)
		renderPage(w, r, renderer, http.StatusForbidden, templateDenied, render.TemplateData{
			Title: i18n.T(lang, "denied.title"),
			Lang:  lang,
		})
	})
}

func directoryData(v *directory.View) DirectoryData {
	data := DirectoryData{
		ViewID:     v.ID,
		Query:      v.Query,
		Users:      v.Visible(),
		Total:      len(v.Records),
		LoadFailed: v.LoadFailed,
	}
	if rec, ok := v.Selection(); ok {
		data.Selected = &rec
		data.SelectedName = rec.Username
	}
	return data
}

// usernameParam returns the decoded {username} route parameter. chi matches
// against the escaped path when the request has one.
func usernameParam(r *http.Request) string {
	raw := chi.URLParam(r, "username")
	if r.URL.RawPath == "" {
		return raw
	}
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}
