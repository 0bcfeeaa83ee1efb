// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apiclient is a thin client for the remote user service:
// register, login, list users and delete user.
//
// Every call decodes the raw response explicitly into either a typed value or
// a typed error (*ServiceError when the service rejected the request,
// *NetworkError when the request or its body failed).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/olegiv/userdesk/internal/model"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Client talks to the remote user service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Config holds client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// HTTPClient overrides the default client (Timeout is ignored when set).
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://127.0.0.1:5000",
		Timeout:   10 * time.Second,
		UserAgent: "userdesk/dev",
	}
}

// New creates a new Client.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		userAgent:  cfg.UserAgent,
	}
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LoginResult is a successful login response.
type LoginResult struct {
	Message string
	Session model.Session
}

// Register creates an account. fields are sent as-is: only the submitted
// fields appear in the request body. Returns the service success message.
func (c *Client) Register(ctx context.Context, fields map[string]string) (string, error) {
	const op = "register"

	_, res, err := c.call(ctx, op, http.MethodPost, "/register", fields)
	if err != nil {
		return "", err
	}
	return res.Get("message").String(), nil
}

// Login authenticates with the submitted fields and returns the identity
// reported by the service.
func (c *Client) Login(ctx context.Context, fields map[string]string) (*LoginResult, error) {
	const op = "login"

	status, res, err := c.call(ctx, op, http.MethodPost, "/login", fields)
	if err != nil {
		return nil, err
	}
	// Without a username there is no identity to store.
	if res.Get("username").String() == "" {
		return nil, &ServiceError{Op: op, Status: status, Message: unknownError}
	}

	active := res.Get("active")
	return &LoginResult{
		Message: res.Get("message").String(),
		Session: model.Session{
			Username: res.Get("username").String(),
			Role:     model.Role(res.Get("role").String()),
			Email:    res.Get("email").String(),
			Active:   !active.Exists() || active.Bool(),
		},
	}, nil
}

// ListUsers returns the full user directory in service order.
func (c *Client) ListUsers(ctx context.Context) ([]model.UserRecord, error) {
	const op = "list users"

	status, body, err := c.do(ctx, op, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, &NetworkError{Op: op, Err: ErrMalformedResponse}
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		// An object here is an error envelope.
		return nil, serviceError(op, status, parsed)
	}

	var users []model.UserRecord
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return users, nil
}

// DeleteUser removes username on behalf of requester. Returns the service success message.
func (c *Client) DeleteUser(ctx context.Context, username, requester string) (string, error) {
	const op = "delete user"

	path := "/users/" + url.PathEscape(username)
	_, res, err := c.call(ctx, op, http.MethodDelete, path, map[string]string{"requester": requester})
	if err != nil {
		return "", err
	}
	return res.Get("message").String(), nil
}

// call performs a request whose response is a {message}|{error} envelope.
// Success is the presence of a non-empty message field; the HTTP status is not consulted.
func (c *Client) call(ctx context.Context, op, method, path string, body any) (int, gjson.Result, error) {
	status, raw, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return status, gjson.Result{}, err
	}

	if !gjson.ValidBytes(raw) {
		return status, gjson.Result{}, &NetworkError{Op: op, Err: ErrMalformedResponse}
	}

	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return status, gjson.Result{}, &NetworkError{Op: op, Err: ErrMalformedResponse}
	}
	if msg := res.Get("message"); msg.Exists() && msg.String() != "" {
		return status, res, nil
	}
	return status, gjson.Result{}, serviceError(op, status, res)
}

// do sends a request and returns the status code and the raw body.
func (c *Client) do(ctx context.Context, op, method, path string, body any) (int, []byte, error) {
	req, err := c.createRequest(ctx, method, path, body)
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, &NetworkError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}
	return resp.StatusCode, raw, nil
}

// createRequest creates an HTTP request with a JSON body.
func (c *Client) createRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	return req, nil
}

// serviceError builds a ServiceError from an error envelope.
func serviceError(op string, status int, res gjson.Result) *ServiceError {
	msg := res.Get("error").String()
	if msg == "" {
		msg = unknownError
	}
	return &ServiceError{Op: op, Status: status, Message: msg}
}
