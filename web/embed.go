// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the HTML templates.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var embedded embed.FS

// Templates holds the HTML templates rooted at the templates directory.
var Templates = mustSub(embedded, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
