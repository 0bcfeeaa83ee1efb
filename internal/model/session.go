// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Session is the authenticated identity of a browser session.
// It is created from a successful login response and replaced by the next one.
type Session struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Email    string `json:"email"`
	Active   bool   `json:"active"`
}

// IsAdmin reports whether s belongs to an admin. A nil session is never admin.
//
// The result only drives local UI decisions. The remote service re-checks the
// requester on every list and delete call.
func IsAdmin(s *Session) bool {
	return s != nil && s.Role == RoleAdmin
}
