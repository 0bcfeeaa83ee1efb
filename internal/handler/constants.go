// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/url"
)

// Route constants.
const (
	RouteRoot      = "/"
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteAdmin     = "/admin"
	RouteDirectory = "/admin/directory"
)

// Template names.
const (
	templateLogin         = "auth/login"
	templateRegister      = "auth/register"
	templateDirectory     = "admin/directory"
	templateConfirmDelete = "admin/confirm_delete"
	templateDenied        = "admin/denied"
)

// Form field names.
const (
	fieldFormID   = "form_id"
	fieldUsername = "username"
	fieldEmail    = "email"
	fieldPassword = "password"
	fieldConfirm  = "confirm"
)

// directoryURL returns the URL of a directory view.
func directoryURL(viewID string) string {
	return RouteDirectory + "/" + url.PathEscape(viewID)
}

// deleteURL returns the confirmation URL for deleting username from a view.
func deleteURL(viewID, username string) string {
	return directoryURL(viewID) + "/users/" + url.PathEscape(username) + "/delete"
}
