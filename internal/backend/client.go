// Package backend adapts the upstream loyalty record store's HTTP API to the
// ports the login pipeline consumes. All response-shape leniency lives here:
// the service layer only ever sees normalized types.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"loyalty-gateway/pkg/platform/sentinel"
)

// Client is the shared HTTP plumbing for all record-store adapters.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout overrides the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient swaps the underlying http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient builds a record-store client rooted at baseURL. Every call is
// bounded by a timeout and traced through otelhttp.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UpstreamError preserves the status and message of a non-2xx response so
// callers that must mirror upstream failures (provisioning) can do so.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// object is a decoded JSON object with raw-valued fields, the working type
// for the lenient shape extractors.
type object map[string]json.RawMessage

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, bearer string) (object, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	return c.do(req, bearer)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, bearer string) (object, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, bearer)
}

func (c *Client) do(req *http.Request, bearer string) (object, error) {
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w: %w", req.URL.Path, sentinel.ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{
			Status:  resp.StatusCode,
			Message: upstreamMessage(body),
		}
	}

	var obj object
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("decode response %s: %w: %w", req.URL.Path, sentinel.ErrUnavailable, err)
	}
	return obj, nil
}

// upstreamMessage pulls a human-readable message out of an error body,
// whatever field the backend chose that day.
func upstreamMessage(body []byte) string {
	var obj object
	if err := json.Unmarshal(body, &obj); err == nil {
		if msg := firstString(obj, "message", "error", "detail"); msg != "" {
			return msg
		}
	}
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}
