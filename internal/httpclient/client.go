// Package httpclient provides the JSON-over-HTTP client shared by the
// weather and news modules.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"specter/internal/logger"
)

// DefaultTimeout applies when the caller passes a non-positive timeout.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// Client performs GET requests against a fixed base URL.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	headers map[string]string
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %s", e.Status)
	}
	return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
}

// New creates a client. headers are sent with every request.
func New(baseURL string, timeout time.Duration, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		headers: headers,
	}
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON requests baseURL/path with query and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	// query may carry API keys, so only the path is logged.
	logger.Debug("Starting HTTP request", "path", path, "timeout", c.timeout.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	logger.Debug("HTTP request completed", "path", path, "status_code", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
