// Package sheetapi wraps the spreadsheet-script endpoint that owns all
// dashboard data. The endpoint is a single POST URL; every operation is an
// action name plus parameters in the request body.
package sheetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// placeholderFragment marks an unreplaced setup value in the configured URL.
const placeholderFragment = "PASTE_YOUR_URL_HERE"

// maxResponseBytes caps how much of a response is read into memory.
const maxResponseBytes = 4 << 20

// Client wraps HTTP access to the sheet script web app.
type Client struct {
	webAppURL  string
	httpClient *http.Client
	userAgent  string
}

// Option mutates client configuration.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP timeout on the underlying client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent configures a custom user agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient constructs a client for the given web-app URL. The URL may be
// empty or a placeholder; that is reported the first time a call is made so
// the error can surface on the login screen rather than at startup.
func NewClient(webAppURL string, opts ...Option) *Client {
	client := &Client{
		webAppURL:  strings.TrimSpace(webAppURL),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "scdash",
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether a usable web-app URL is set.
func (c *Client) Configured() bool {
	return c.webAppURL != "" && !strings.Contains(c.webAppURL, placeholderFragment)
}

// envelope is the response wrapper returned by the sheet script.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// post issues one action request and decodes the data payload into out.
func (c *Client) post(ctx context.Context, body interface{}, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webAppURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled or timed out: %w", ctx.Err())
		}
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	// Read once; the same bytes feed both the envelope decode and the
	// error-body snippet.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, resp.Status, env.Message, raw)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "the server reported an unknown error"
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if len(env.Data) == 0 {
			return &APIError{
				StatusCode: resp.StatusCode,
				Message:    "server returned a successful response but the data object was missing",
			}
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data payload: %w", err)
		}
	}

	return nil
}
