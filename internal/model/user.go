// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared by the screens, the API client
// and the session store: roles, sessions and user records.
package model

import (
	"encoding/json"
	"strings"
)

// Role is a user role as reported by the remote service.
type Role string

// User roles known to the remote service.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// UserRecord is one entry of the user directory.
// Records are immutable from the client's perspective; the only mutation is removal.
type UserRecord struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at,omitempty"`
}

// UnmarshalJSON decodes a user record. A missing "active" field means active.
func (u *UserRecord) UnmarshalJSON(data []byte) error {
	type alias UserRecord
	aux := struct {
		*alias
		Active *bool `json:"active"`
	}{alias: (*alias)(u)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.Active = aux.Active == nil || *aux.Active
	return nil
}

// CreatedDate returns the date part of CreatedAt (the service sends ISO 8601 timestamps).
func (u UserRecord) CreatedDate() string {
	date, _, _ := strings.Cut(u.CreatedAt, "T")
	return date
}
