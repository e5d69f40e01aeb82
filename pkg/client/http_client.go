package client

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
)

// HTTPClient represents an HTTP connection to the brightnessd API
type HTTPClient struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client
}

// NewHTTP creates a new HTTP client
func NewHTTP(logger *slog.Logger, baseURL string) *HTTPClient {
	// Ensure baseURL doesn't have trailing slash
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &HTTPClient{
		logger:  logger,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// request performs an HTTP request and decodes the JSON response
func (c *HTTPClient) request(method, path string, body any, resp any) error {
	target := c.baseURL + path
	c.logger.Debug("HTTP request", "method", method, "url", target)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")

	// Execute request
	httpResp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err)
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	// Read response body
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Check for error status codes
	if httpResp.StatusCode >= 400 {
		c.logger.Error("HTTP error response", "status", httpResp.StatusCode, "body", string(respBody))
		return fmt.Errorf("HTTP error %d: %s", httpResp.StatusCode, string(respBody))
	}

	// Decode response if needed
	if resp != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, resp); err != nil {
			c.logger.Error("Failed to decode response", "error", err, "body", string(respBody))
			return fmt.Errorf("failed to decode response: %w", err)
		}
		c.logger.Debug("Received response", "response", resp)
	}

	return nil
}

// Ping checks the health endpoint.
func (c *HTTPClient) Ping() error {
	return c.request("GET", "/api/v1/health", nil, nil)
}

// Version returns the daemon's build information.
func (c *HTTPClient) Version() (Version, error) {
	var resp Version
	err := c.request("GET", "/api/v1/version", nil, &resp)
	return resp, err
}

// Status returns the indicator state.
func (c *HTTPClient) Status() (Status, error) {
	var resp Status
	err := c.request("GET", "/api/v1/status", nil, &resp)
	return resp, err
}

// Refresh asks the indicator to resync with the brightness service.
func (c *HTTPClient) Refresh() error {
	return c.request("POST", "/api/v1/refresh", nil, nil)
}

// Scroll delivers a scroll event.
func (c *HTTPClient) Scroll(direction string) error {
	return c.request("POST", "/api/v1/scroll", map[string]any{"direction": direction}, nil)
}

// SetLevel moves the slider to level.
func (c *HTTPClient) SetLevel(level int) error {
	return c.request("PUT", "/api/v1/level", map[string]any{"level": level}, nil)
}

// Actions returns the registered key action names.
func (c *HTTPClient) Actions() ([]string, error) {
	var resp struct {
		Actions []string `json:"actions"`
	}
	if err := c.request("GET", "/api/v1/actions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Actions, nil
}

// Invoke runs a key action as if its key was pressed.
func (c *HTTPClient) Invoke(name string) error {
	return c.request("POST", "/api/v1/actions/"+url.PathEscape(name), nil, nil)
}

// SetLogLevel changes the daemon's log level.
func (c *HTTPClient) SetLogLevel(level string) error {
	return c.request("PUT", "/api/v1/logging/level", map[string]any{"level": level}, nil)
}

var _ ClientInterface = (*HTTPClient)(nil)
