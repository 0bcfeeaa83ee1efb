// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the HTML templates once and renders pages with the
// base layout and the session flash message.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/userdesk/internal/i18n"
	"github.com/olegiv/userdesk/internal/model"
)

// pageDirs hold the page templates. Everything else is layout or partial.
var pageDirs = []string{"auth", "admin"}

// Flash types.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Renderer handles template rendering with caching.
type Renderer struct {
	templates      map[string]*template.Template
	sessionManager *scs.SessionManager
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates:      make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}
	return r, nil
}

// parseTemplates parses the base layout and partials once, then clones that
// set for every page under auth/ and admin/. Pages are keyed "dir/name".
func (r *Renderer) parseTemplates(fsys fs.FS) error {
	shared, err := template.New("").Funcs(templateFuncs()).ParseFS(fsys, "layouts/base.html", "partials/*.html")
	if err != nil {
		return fmt.Errorf("parsing layout: %w", err)
	}

	for _, dir := range pageDirs {
		pages, err := fs.Glob(fsys, dir+"/*.html")
		if err != nil {
			return fmt.Errorf("listing %s templates: %w", dir, err)
		}
		for _, page := range pages {
			name := strings.TrimSuffix(page, path.Ext(page))

			tmpl, err := shared.Clone()
			if err != nil {
				return fmt.Errorf("cloning layout for %s: %w", name, err)
			}
			if _, err := tmpl.ParseFS(fsys, page); err != nil {
				return fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.templates[name] = tmpl
		}
	}
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"T":          i18n.T,
		"pathEscape": url.PathEscape,
		"formatDate": func(createdAt string) string {
			return model.UserRecord{CreatedAt: createdAt}.CreatedDate()
		},
		"roleLabel": func(lang string, role model.Role) string {
			if !role.Valid() {
				return string(role)
			}
			return i18n.T(lang, "role."+string(role))
		},
	}
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Lang        string
	Data        any
	Flash       string
	FlashType   string
	CurrentYear int

	// RefreshURL, when set, makes the page navigate there after RefreshAfter.
	RefreshURL   string
	RefreshAfter time.Duration
}

// RefreshSeconds returns the meta refresh delay in whole seconds (at least 1).
func (d TemplateData) RefreshSeconds() int {
	s := int(d.RefreshAfter.Round(time.Second) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// RenderStatus renders a template with the given status code.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.CurrentYear = time.Now().Year()
	if data.Lang == "" {
		data.Lang = i18n.DefaultLanguage
	}

	if r.sessionManager != nil && data.Flash == "" {
		if flash := r.sessionManager.PopString(req.Context(), "flash"); flash != "" {
			data.Flash = flash
			data.FlashType = r.sessionManager.PopString(req.Context(), "flash_type")
			if data.FlashType == "" {
				data.FlashType = FlashInfo
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

// SetFlash sets a flash message in the session.
func (r *Renderer) SetFlash(req *http.Request, message, flashType string) {
	if r.sessionManager != nil {
		r.sessionManager.Put(req.Context(), "flash", message)
		r.sessionManager.Put(req.Context(), "flash_type", flashType)
	}
}
