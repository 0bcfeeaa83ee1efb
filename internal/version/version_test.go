// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "v1.0.0",
		GitCommit: "abc1234",
		BuildTime: "2025-01-30T12:00:00Z",
	}

	want := "userdesk v1.0.0 (commit: abc1234, built: 2025-01-30T12:00:00Z)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := info.UserAgent(); got != "userdesk/v1.0.0" {
		t.Errorf("UserAgent() = %q, want %q", got, "userdesk/v1.0.0")
	}
}

func TestGetDefaults(t *testing.T) {
	// Zero ldflags build
	info := Get()

	if info.Version != "dev" {
		t.Errorf("Version = %q, want %q", info.Version, "dev")
	}
	if info.GitCommit != "unknown" {
		t.Errorf("GitCommit = %q, want %q", info.GitCommit, "unknown")
	}
	if info.UserAgent() != "userdesk/dev" {
		t.Errorf("UserAgent() = %q", info.UserAgent())
	}
}
