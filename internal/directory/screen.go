// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/olegiv/userdesk/internal/model"
)

// UserService is the subset of the remote API the directory needs.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.UserRecord, error)
	DeleteUser(ctx context.Context, username, requester string) (string, error)
}

// Screen runs directory operations for admin sessions.
type Screen struct {
	api   UserService
	views *Views
}

// NewScreen creates a directory screen.
func NewScreen(api UserService, views *Views) *Screen {
	return &Screen{api: api, views: views}
}

// Mount fetches the directory once and stores it as a new view, which becomes
// the current view of client. A failed fetch yields an empty view.
func (s *Screen) Mount(ctx context.Context, client string, sess *model.Session) (*View, error) {
	if !model.IsAdmin(sess) {
		return nil, ErrNotAdmin
	}

	v := &View{ID: uuid.NewString(), Owner: sess.Username}

	users, err := s.api.ListUsers(ctx)
	if err != nil {
		slog.Warn("user directory load failed",
			"category", "directory",
			"requester", sess.Username,
			"error", err)
		v.LoadFailed = true
	} else {
		v.Records = users
	}

	if err := s.views.Create(ctx, client, v); err != nil {
		return nil, fmt.Errorf("creating view: %w", err)
	}
	return v, nil
}

// Open returns the view with id if it belongs to sess.
func (s *Screen) Open(ctx context.Context, id string, sess *model.Session) (*View, error) {
	if !model.IsAdmin(sess) {
		return nil, ErrNotAdmin
	}

	v, err := s.views.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Owner != sess.Username {
		return nil, ErrViewNotFound
	}
	return v, nil
}

// Search sets the query of a view.
func (s *Screen) Search(ctx context.Context, id string, sess *model.Session, q string) (*View, error) {
	return s.update(ctx, id, sess, func(v *View) error {
		v.SetQuery(q)
		return nil
	})
}

// Select toggles the selection of username in a view.
func (s *Screen) Select(ctx context.Context, id string, sess *model.Session, username string) (*View, error) {
	return s.update(ctx, id, sess, func(v *View) error {
		return v.Select(username, model.IsAdmin(sess))
	})
}

// DeleteRequest describes a delete action from the directory screen.
type DeleteRequest struct {
	ViewID    string
	Client    string
	Session   *model.Session
	Username  string
	Confirmed bool
}

// DeleteResult is the outcome of a successful remote delete.
type DeleteResult struct {
	Message string
	View    *View

	// Removed reports whether a local record was dropped.
	Removed bool

	// Discarded is set when the view was no longer current by the time the
	// service answered; the local state was then left untouched.
	Discarded bool
}

// Delete asks the service to delete a user on behalf of the session's user and,
// on success, removes the record from the view. On failure the view is unchanged
// and the service error is returned.
func (s *Screen) Delete(ctx context.Context, req DeleteRequest) (DeleteResult, error) {
	if !model.IsAdmin(req.Session) {
		return DeleteResult{}, ErrNotAdmin
	}
	if !req.Confirmed {
		return DeleteResult{}, ErrNotConfirmed
	}
	if _, err := s.Open(ctx, req.ViewID, req.Session); err != nil {
		return DeleteResult{}, err
	}

	msg, err := s.api.DeleteUser(ctx, req.Username, req.Session.Username)
	if err != nil {
		slog.Warn("user delete failed",
			"category", "directory",
			"requester", req.Session.Username,
			"username", req.Username,
			"error", err)
		return DeleteResult{}, err
	}

	slog.Info("user deleted",
		"category", "directory",
		"requester", req.Session.Username,
		"username", req.Username)

	res := DeleteResult{Message: msg}

	current, err := s.views.Current(ctx, req.Client)
	if err != nil && !errors.Is(err, ErrViewNotFound) {
		return res, err
	}
	if current != req.ViewID {
		res.Discarded = true
		return res, nil
	}

	v, err := s.views.Update(ctx, req.ViewID, func(v *View) error {
		res.Removed = v.Remove(req.Username)
		return nil
	})
	if errors.Is(err, ErrViewNotFound) {
		res.Discarded = true
		return res, nil
	}
	if err != nil {
		return res, err
	}

	res.View = v
	return res, nil
}

func (s *Screen) update(ctx context.Context, id string, sess *model.Session, fn func(*View) error) (*View, error) {
	if _, err := s.Open(ctx, id, sess); err != nil {
		return nil, err
	}
	return s.views.Update(ctx, id, fn)
}
