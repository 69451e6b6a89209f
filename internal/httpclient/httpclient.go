// Package httpclient provides the shared HTTP helper used by every external
// adapter: one bounded-timeout client, bounded response reads, and a mapping
// from HTTP status codes to the adapter error taxonomy.
package httpclient

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

	"aria/internal/apierr"
	"aria/internal/logging"
)

const (
	// DefaultTimeout bounds every external call end to end.
	DefaultTimeout = 10 * time.Second
	// defaultMaxBody caps response bodies read into memory.
	defaultMaxBody = 1 << 20
)

// Client wraps http.Client with the adapter conventions.
type Client struct {
	http    *http.Client
	logger  logging.Logger
	maxBody int64
}

// New returns a Client with the given per-call timeout. A non-positive
// timeout falls back to DefaultTimeout.
func New(timeout time.Duration, logger logging.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		logger:  logging.OrNop(logger),
		maxBody: defaultMaxBody,
	}
}

// GetJSON performs a GET against base with the given query and headers and
// decodes a JSON response into out. Status codes outside 2xx are translated
// to the apierr taxonomy; network failures come back as TransportError.
func (c *Client) GetJSON(ctx context.Context, service, base string, query url.Values, headers map[string]string, out any) error {
	body, err := c.get(ctx, service, base, query, headers)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", service, err)
	}
	return nil
}

// PostJSON sends payload as a JSON body and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, service, base string, headers map[string]string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, val := range headers {
		req.Header.Set(key, val)
	}
	body, err := c.do(service, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", service, err)
	}
	return nil
}

// PostForm sends form as an application/x-www-form-urlencoded body and
// decodes the JSON response into out. OAuth token endpoints require this
// encoding for credential parameters.
func (c *Client) PostForm(ctx context.Context, service, base string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	body, err := c.do(service, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", service, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, service, base string, query url.Values, headers map[string]string) ([]byte, error) {
	target := base
	if len(query) > 0 {
		target = base + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", service, err)
	}
	for key, val := range headers {
		req.Header.Set(key, val)
	}
	return c.do(service, req)
}

func (c *Client) do(service string, req *http.Request) ([]byte, error) {
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.NewTransport(service, err)
	}
	defer resp.Body.Close()

	body, err := ReadAllWithLimit(resp.Body, c.maxBody)
	if err != nil {
		return nil, apierr.NewTransport(service, err)
	}

	c.logger.Debug("%s %s -> %d (%s)", req.Method, req.URL.Host, resp.StatusCode, time.Since(started).Round(time.Millisecond))

	if err := statusError(service, resp.StatusCode); err != nil {
		return nil, err
	}
	return body, nil
}

// statusError maps a non-2xx status to the adapter error taxonomy.
func statusError(service string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", service, apierr.ErrNotFound)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", service, apierr.ErrRateLimited)
	case status == http.StatusPaymentRequired, status == http.StatusForbidden:
		// Quota-metered APIs report exhaustion with 402/403.
		return fmt.Errorf("%s: %w", service, apierr.ErrQuotaExceeded)
	default:
		return apierr.NewTransport(service, fmt.Errorf("unexpected status %d", status))
	}
}

// ResponseTooLargeError reports that the response body exceeded the limit.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// ReadAllWithLimit reads the response body up to the provided limit.
// If limit <= 0, it behaves like io.ReadAll.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}
