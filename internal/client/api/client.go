// Package api implements the HTTP client for the directory server.
//
// Every call funnels through a single response-inspection stage: an
// authorization failure on any request, whatever feature issued it, fires
// the OnUnauthenticated hook exactly once and surfaces as
// ErrUnauthenticated. Business failures are decoded from the
// {success,message} envelope into sentinel errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/user-directory/internal/domain"
)

// Sentinel errors matched by callers with errors.Is.
var (
	ErrUnauthenticated = errors.New("session invalid or expired")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrStore           = errors.New("storage unavailable")
)

const defaultTimeout = 10 * time.Second

// Client talks to the directory server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	// onUnauthenticated is the shared hook invoked whenever any response
	// signals an authorization failure. Single place, not per-call logic.
	onUnauthenticated func()
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the default request deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithHTTPClient substitutes the underlying transport (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds a client for the given server and bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthenticated registers the hook fired on any authorization failure.
func (c *Client) OnUnauthenticated(fn func()) {
	c.onUnauthenticated = fn
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type authCheckResponse struct {
	envelope
	Authenticated bool `json:"authenticated"`
}

type selfResponse struct {
	envelope
	User domain.Summary `json:"user"`
}

type listUsersResponse struct {
	envelope
	Users []domain.Profile `json:"users"`
}

// CheckAuth reports whether the current credential is accepted.
func (c *Client) CheckAuth(ctx context.Context) (bool, error) {
	var out authCheckResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/is-auth", nil, &out); err != nil {
		return false, err
	}
	return out.Authenticated, nil
}

// Self fetches the caller's identity projection.
func (c *Client) Self(ctx context.Context) (*domain.Summary, error) {
	var out selfResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListUsers fetches the full directory listing.
func (c *Client) ListUsers(ctx context.Context) ([]domain.Profile, error) {
	var out listUsersResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// UpdateUserName renames a record. Confirmation only; the server does not
// echo the updated record.
func (c *Client) UpdateUserName(ctx context.Context, id, userName string) error {
	body := map[string]string{"userName": userName}
	return c.do(ctx, http.MethodPut, "/api/users/"+id, body, &envelope{})
}

// DeleteUser permanently removes a record.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+id, nil, &envelope{})
}

// Logout revokes the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, &envelope{})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// The one generic transport signal: credential rejected or expired.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if c.onUnauthenticated != nil {
			c.onUnauthenticated()
		}
		return ErrUnauthenticated
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	env := extractEnvelope(out)
	if env != nil && !env.Success {
		return businessError(resp.StatusCode, env.Message)
	}
	if resp.StatusCode >= 400 {
		return businessError(resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}

func extractEnvelope(out any) *envelope {
	switch v := out.(type) {
	case *envelope:
		return v
	case *authCheckResponse:
		return &v.envelope
	case *selfResponse:
		return &v.envelope
	case *listUsersResponse:
		return &v.envelope
	default:
		return nil
	}
}

func businessError(status int, message string) error {
	var kind error
	switch status {
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusConflict:
		kind = ErrConflict
	case http.StatusBadRequest:
		kind = ErrValidation
	case http.StatusServiceUnavailable:
		kind = ErrStore
	default:
		kind = ErrStore
	}
	if message == "" {
		return kind
	}
	return fmt.Errorf("%s: %w", message, kind)
}
