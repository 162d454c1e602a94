package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jpalmerr/statuspoll"
)

const defaultRequestTimeout = 10 * time.Second

// ErrFieldMissing is returned when the configured JSON path is absent or
// does not hold a scalar value.
var ErrFieldMissing = errors.New("status field missing")

// HTTP reads a workflow status from a JSON document served over HTTP.
//
// Each read is one GET request. Non-2xx responses, invalid JSON and missing
// fields are reported as read failures, which the poller retries.
type HTTP struct {
	url     string
	path    []string
	headers map[string]string
	timeout time.Duration
	client  *Client
}

// HTTPOption configures an [HTTP] source.
type HTTPOption func(*HTTP)

// WithHeaders sets request headers, e.g. an Authorization token.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(h *HTTP) {
		for k, v := range headers {
			h.headers[k] = v
		}
	}
}

// WithRequestTimeout sets the per-read request timeout. Defaults to 10s.
// Non-positive values are ignored.
func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithClient shares an existing [Client] between sources.
func WithClient(c *Client) HTTPOption {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// NewHTTP creates an [HTTP] source reading the field at jsonPath.
//
// jsonPath uses dot notation: "data.invoice.status" navigates to
// {"data": {"invoice": {"status": "Delivered"}}}.
func NewHTTP(url, jsonPath string, opts ...HTTPOption) (*HTTP, error) {
	if url == "" {
		return nil, errors.New("url is required")
	}
	if strings.TrimSpace(jsonPath) == "" {
		return nil, errors.New("json path is required")
	}

	h := &HTTP{
		url:     url,
		path:    strings.Split(jsonPath, "."),
		headers: make(map[string]string),
		timeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.client == nil {
		h.client = NewClient()
	}
	return h, nil
}

// Read performs one request and returns the status text at the JSON path.
func (h *HTTP) Read(ctx context.Context) (string, error) {
	resp, err := h.client.Get(ctx, h.url, h.headers, h.timeout)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected HTTP status %d from %s", resp.StatusCode, h.url)
	}

	var data any
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return "", fmt.Errorf("invalid JSON from %s: %w", h.url, err)
	}

	value, ok := extractJSONPath(data, h.path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFieldMissing, strings.Join(h.path, "."))
	}
	return value, nil
}

// Accessor adapts the source to a [statuspoll.Accessor].
func (h *HTTP) Accessor() statuspoll.Accessor {
	return h.Read
}

// Close releases idle connections held by the source's client.
func (h *HTTP) Close() {
	h.client.Close()
}

// extractJSONPath walks a JSON structure using dot notation parts and
// returns the scalar found there as text.
func extractJSONPath(data any, parts []string) (string, bool) {
	current := data

	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current, ok = obj[part]
		if !ok {
			return "", false
		}
	}

	switch v := current.(type) {
	case string:
		return strings.TrimSpace(v), true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}
