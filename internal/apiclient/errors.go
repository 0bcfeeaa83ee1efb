// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is wrapped in a NetworkError when the service body is not the expected JSON.
var ErrMalformedResponse = errors.New("malformed response")

// unknownError is used when a response carries neither a message nor an error.
const unknownError = "Unknown error"

// ServiceError is a well-formed service response that does not carry the
// success indicator. Message is the service-provided error text.
type ServiceError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: service error (status %d): %s", e.Op, e.Status, e.Message)
}

// NetworkError is a transport-level failure or an unreadable response body.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServiceMessage returns the service-provided error text carried by err, if any.
func ServiceMessage(err error) (string, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Message, true
	}
	return "", false
}

// IsNetworkError reports whether err is a transport or decoding failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
