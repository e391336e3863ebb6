// Package api is the REST client for the listings backend: auth exchange, listings,
// images, users/wishlist and the AI chat.
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

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/homeheaven/internal/errs"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// DefaultMaxResponseBytes caps how much of a response body is read.
const DefaultMaxResponseBytes int64 = 4 << 20

// Client talks to <base><prefix>/... over HTTP.
type Client struct {
	http    *http.Client
	base    string
	log     *zap.Logger
	maxBody int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport (tests, custom TLS).
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithMaxResponseBytes overrides DefaultMaxResponseBytes. Non-positive values are ignored.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// New constructs a client for baseURL+prefix with a request timeout.
func New(baseURL, prefix string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		base:    strings.TrimRight(baseURL, "/") + "/" + strings.Trim(prefix, "/"),
		log:     zap.NewNop(),
		maxBody: DefaultMaxResponseBytes,
	}
	c.base = strings.TrimRight(c.base, "/")
	for _, o := range opts {
		o(c)
	}
	return c
}

// do sends a request and decodes a JSON body into out (if non-nil).
// Transport failures wrap errs.ErrNetworkUnavailable; non-2xx responses are *Error.
func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rid := uuid.Must(uuid.NewV4()).String()
	req.Header.Set("X-Request-ID", rid)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("http", zap.String("method", method), zap.String("path", path),
			zap.String("request_id", rid), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", errs.ErrNetworkUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", errs.ErrNetworkUnavailable, err)
	}
	if int64(len(raw)) > c.maxBody {
		c.log.Warn("http: response too large", zap.String("method", method), zap.String("path", path),
			zap.String("request_id", rid), zap.Int64("limit", c.maxBody))
		return fmt.Errorf("%s %s: response body exceeds %d bytes", method, path, c.maxBody)
	}

	// metadata only; bodies may carry credentials
	c.log.Debug("http",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
		zap.String("request_id", rid),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	ct := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body, ct = bytes.NewReader(b), "application/json"
	}
	return c.do(ctx, method, path, token, body, ct, out)
}

// remoteError builds *Error using the body's "error" field or the status text.
func remoteError(status int, raw []byte) error {
	var eb struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(raw, &eb) == nil {
		msg = eb.Error
		if msg == "" {
			msg = eb.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg}
}

// unwrapEnvelope decodes either {"<key>": {...}} or the bare object.
func unwrapEnvelope[T any](raw json.RawMessage, key string) (T, error) {
	var zero T
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err == nil {
		if inner, ok := env[key]; ok && len(inner) > 0 && string(inner) != "null" {
			raw = inner
		}
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, err
	}
	return v, nil
}

// IsRemote reports whether err is a backend rejection (as opposed to transport/local).
func IsRemote(err error) bool {
	var ae *Error
	return errors.As(err, &ae)
}
