// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that also records WARN and above in
// the database-backed event log, giving an audit trail of failed logins,
// failed deletes and access denials.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/olegiv/userdesk/internal/store"
)

// Event log levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event log categories.
const (
	CategoryAuth      = "auth"
	CategoryDirectory = "directory"
	CategorySecurity  = "security"
	CategorySystem    = "system"
)

// EventLogHandler wraps another handler and also writes records at or above
// its level to the event log.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level

	// bound holds attributes from WithAttrs, keyed with their group prefix.
	bound []boundAttr

	// prefix is the dotted path of the open groups, e.g. "target.".
	prefix string
}

type boundAttr struct {
	key, value string
}

// NewEventLogHandler creates an EventLogHandler that records WARN and above.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates an EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := slices.Clip(h.bound)
	for _, a := range attrs {
		flatten(h.prefix, a, func(k, v string) { bound = append(bound, boundAttr{k, v}) })
	}
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		bound:   bound,
		prefix:  h.prefix,
	}
}

// WithGroup implements slog.Handler. Later attributes are stored under
// "name.key" so they cannot shadow top-level keys such as username.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		bound:   h.bound,
		prefix:  h.prefix + name + ".",
	}
}

// flatten emits a as dotted key/value pairs, descending into groups.
func flatten(prefix string, a slog.Attr, emit func(key, value string)) {
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		if a.Key != "" {
			emit(prefix+a.Key, v.String())
		}
		return
	}
	// An unnamed group is inlined.
	if a.Key != "" {
		prefix += a.Key + "."
	}
	for _, g := range v.Group() {
		flatten(prefix, g, emit)
	}
}

func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	attrs := make(map[string]string, len(h.bound)+r.NumAttrs())
	for _, b := range h.bound {
		attrs[b.key] = b.value
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(h.prefix, a, func(k, v string) { attrs[k] = v })
		return true
	})

	category := attrs["category"]
	if category == "" {
		category = inferCategory(r.Message)
	}
	delete(attrs, "category")

	// The acting user: requester for directory actions, username otherwise.
	user := attrs["requester"]
	if user == "" {
		user = attrs["username"]
	}

	metadata := "{}"
	if len(attrs) > 0 {
		if data, err := json.Marshal(attrs); err == nil {
			metadata = string(data)
		}
	}

	// Background context: the event is kept even if the request was canceled.
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		Username:  user,
		Metadata:  metadata,
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return EventLevelError
	case level >= slog.LevelWarn:
		return EventLevelWarning
	default:
		return EventLevelInfo
	}
}

func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "login") || strings.Contains(msg, "register") || strings.Contains(msg, "auth"):
		return CategoryAuth
	case strings.Contains(msg, "directory") || strings.Contains(msg, "delete"):
		return CategoryDirectory
	case strings.Contains(msg, "csrf") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "access denied"):
		return CategorySecurity
	default:
		return CategorySystem
	}
}
