// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package authflow drives the login and registration forms through their
// submission states and guards against duplicate submits.
package authflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle state of a form.
type State int

// Form states.
const (
	Idle State = iota
	Submitting
	Success
	Failure
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Form is the visible state of one form instance.
type Form struct {
	ID      string
	State   State
	Message string
	Err     error
}

// NewFormID returns a new form instance id.
func NewFormID() string {
	return uuid.NewString()
}

// Tracker records which form instances have a submission in flight.
type Tracker struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{inFlight: make(map[string]struct{})}
}

// Begin marks id as in flight. It returns false if a submission is already pending.
func (t *Tracker) Begin(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, busy := t.inFlight[id]; busy {
		return false
	}
	t.inFlight[id] = struct{}{}
	return true
}

// End clears the in-flight mark for id.
func (t *Tracker) End(id string) {
	t.mu.Lock()
	delete(t.inFlight, id)
	t.mu.Unlock()
}

// Submit runs fn for form id unless a submission for it is already in flight,
// in which case fn is not called and the form reports Submitting.
// fn returns the success message or an error.
func (t *Tracker) Submit(ctx context.Context, id string, fn func(context.Context) (string, error)) Form {
	if id == "" {
		id = NewFormID()
	}
	if !t.Begin(id) {
		return Form{ID: id, State: Submitting}
	}
	defer t.End(id)

	msg, err := fn(ctx)
	if err != nil {
		return Form{ID: id, State: Failure, Err: err}
	}
	return Form{ID: id, State: Success, Message: msg}
}
