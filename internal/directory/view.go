// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package directory implements the user directory screen: one fetch per
// mount, substring search, single selection and admin-only deletion.
package directory

import (
	"errors"
	"strings"

	"github.com/olegiv/userdesk/internal/model"
)

var (
	// ErrNotAdmin is returned when a non-admin session attempts an admin-only action.
	ErrNotAdmin = errors.New("admin role required")

	// ErrUnknownUser is returned when a username is not in the directory.
	ErrUnknownUser = errors.New("user not in directory")

	// ErrViewNotFound is returned for an expired, unknown or foreign view.
	ErrViewNotFound = errors.New("directory view not found")

	// ErrNotConfirmed is returned when a delete arrives without confirmation.
	ErrNotConfirmed = errors.New("deletion not confirmed")
)

// View is the state of one directory screen mount.
type View struct {
	ID         string             `json:"id"`
	Owner      string             `json:"owner"`
	Records    []model.UserRecord `json:"records"`
	Query      string             `json:"query,omitempty"`
	Selected   string             `json:"selected,omitempty"`
	LoadFailed bool               `json:"load_failed,omitempty"`
}

// Filter returns the records whose username contains q, ignoring case.
// Order is preserved and an empty q matches every record.
func Filter(records []model.UserRecord, q string) []model.UserRecord {
	if q == "" {
		return records
	}

	needle := strings.ToLower(q)
	out := make([]model.UserRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Username), needle) {
			out = append(out, r)
		}
	}
	return out
}

// SetQuery replaces the search query.
func (v *View) SetQuery(q string) {
	v.Query = q
}

// Visible returns the records matching the current query.
func (v *View) Visible() []model.UserRecord {
	return Filter(v.Records, v.Query)
}

// Lookup finds a record by exact username.
func (v *View) Lookup(username string) (model.UserRecord, bool) {
	for _, r := range v.Records {
		if r.Username == username {
			return r, true
		}
	}
	return model.UserRecord{}, false
}

// Select toggles the selection of username. Only admins can select.
func (v *View) Select(username string, admin bool) error {
	if !admin {
		return ErrNotAdmin
	}
	if _, ok := v.Lookup(username); !ok {
		return ErrUnknownUser
	}

	if v.Selected == username {
		v.Selected = ""
	} else {
		v.Selected = username
	}
	return nil
}

// Selection returns the selected record, if any.
func (v *View) Selection() (model.UserRecord, bool) {
	if v.Selected == "" {
		return model.UserRecord{}, false
	}
	return v.Lookup(v.Selected)
}

// Remove drops the record with username and clears a selection that pointed
// to it. It reports whether a record was removed.
func (v *View) Remove(username string) bool {
	if v.Selected == username {
		v.Selected = ""
	}

	kept := make([]model.UserRecord, 0, len(v.Records))
	removed := false
	for _, r := range v.Records {
		if r.Username == username {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	v.Records = kept
	return removed
}
