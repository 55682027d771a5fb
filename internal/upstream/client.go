// Package upstream is the gateway's typed HTTP client for the backend
// service. Every piece of business logic (authentication, OTP checks,
// hashing, persistence, aggregation) lives behind these calls; the gateway
// only builds well-formed requests and interprets response shapes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client talks JSON-over-HTTP to the backend service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client for the given base URL. The timeout bounds every
// request; the original console configured none and hung indicators forever.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// statusEnvelope is the common upstream response wrapper. Failures arrive as
// success:false with the detail in either "message" or "error", depending on
// the endpoint.
type statusEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e statusEnvelope) failureMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return "request failed"
}

// do executes a request and decodes the JSON body into target (when target
// is non-nil). Non-2xx responses are returned as *APIError carrying whatever
// message the body held; transport failures come back wrapped so callers can
// tell the two apart with errors.As.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, target interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Best-effort decode: some failures (the login OTP challenge) carry
		// structured fields the caller still needs.
		if target != nil {
			_ = json.Unmarshal(raw, target)
		}
		var env statusEnvelope
		_ = json.Unmarshal(raw, &env)
		return &APIError{StatusCode: resp.StatusCode, Message: env.failureMessage()}
	}

	if target != nil {
		if err := json.Unmarshal(raw, target); err != nil {
			return fmt.Errorf("decode upstream response: %w", err)
		}
	}
	return nil
}
