// Package client speaks the list sync protocol to a sharedlist server.
package client

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

	"sharedlist/pkg/domain"
)

// DefaultAddr is used when no server address is configured.
const DefaultAddr = "http://localhost:8080"

const listPath = "/api/list"

// StatusError is returned for any non-200 response. Unwrap yields the domain
// error matching the status so callers can use domain.IsValidation and friends.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Unwrap maps the status code back onto the domain error taxonomy.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusMethodNotAllowed:
		return domain.ErrMethodNotAllowed
	case e.Code >= 400 && e.Code < 500:
		return domain.ValidationError{Reason: e.Message}
	default:
		return domain.StorageError{Op: "remote", Err: errors.New(e.Message)}
	}
}

// Client issues protocol requests. The zero value is not usable; use New.
type Client struct {
	base string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New builds a client for the server at addr. A bare host:port gets an
// http:// scheme; an empty addr selects DefaultAddr.
func New(addr string, opts ...Option) *Client {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = DefaultAddr
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	c := &Client{
		base: strings.TrimRight(addr, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the normalized server address.
func (c *Client) BaseURL() string { return c.base }

type command struct {
	Action  string `json:"action,omitempty"`
	Text    string `json:"text,omitempty"`
	AddedBy string `json:"addedBy,omitempty"`
	ID      *int64 `json:"id,omitempty"`
}

// Read fetches the full list.
func (c *Client) Read(ctx context.Context) (domain.List, error) {
	return c.do(ctx, http.MethodGet, nil)
}

// Add appends an item attributed to addedBy.
func (c *Client) Add(ctx context.Context, text, addedBy string) (domain.List, error) {
	return c.do(ctx, http.MethodPost, &command{Action: "add", Text: text, AddedBy: addedBy})
}

// Toggle flips the completed flag of id.
func (c *Client) Toggle(ctx context.Context, id int64) (domain.List, error) {
	return c.do(ctx, http.MethodPost, &command{Action: "toggle", ID: &id})
}

// Delete removes id.
func (c *Client) Delete(ctx context.Context, id int64) (domain.List, error) {
	return c.do(ctx, http.MethodDelete, &command{ID: &id})
}

// ClearAll empties the list.
func (c *Client) ClearAll(ctx context.Context) (domain.List, error) {
	return c.do(ctx, http.MethodPost, &command{Action: "clear_all"})
}

func (c *Client) do(ctx context.Context, method string, cmd *command) (domain.List, error) {
	var body io.Reader
	if cmd != nil {
		b, err := json.Marshal(cmd)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+listPath, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, listPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, payload)
	}
	var list domain.List
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if list == nil {
		list = domain.List{}
	}
	return list, nil
}

func statusError(code int, payload []byte) *StatusError {
	var body struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(code)
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &StatusError{Code: code, Message: msg}
}
