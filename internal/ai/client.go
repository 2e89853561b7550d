// Package ai talks to the language-model backend behind the assistant. The
// backend owns the model itself; this package owns the request contract and
// the sanitising of whatever comes back into a well-formed Response.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotConfigured is returned when no assistant backend URL is set.
var ErrNotConfigured = errors.New("the assistant backend is not configured; set assist_url")

// Client wraps HTTP access to the assistant backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
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

// WithRateLimit bounds how many round-trips per second are allowed. Extra
// requests wait rather than fail so a fast talker never drops turns.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient constructs a client for the assistant backend.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 3),
		userAgent:  "scdash",
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether a backend URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

type assistRequest struct {
	Prompt  string  `json:"prompt"`
	System  string  `json:"system"`
	Context Context `json:"context"`
}

// rawResponse accepts whatever shape the backend produced; sanitising into
// a Response happens afterwards so a sloppy model never breaks dispatch.
type rawResponse struct {
	Reply    string          `json:"reply"`
	Language string          `json:"language"`
	Action   json.RawMessage `json:"action"`
}

// Generate submits the prompt plus context and returns a sanitised response.
func (c *Client) Generate(ctx context.Context, prompt string, appCtx Context) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for assistant rate limit: %w", err)
		}
	}

	system, err := SystemInstruction(appCtx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(assistRequest{Prompt: prompt, System: system, Context: appCtx})
	if err != nil {
		return nil, fmt.Errorf("encode assistant request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assist", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create assistant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("assistant request cancelled or timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to get a response from the AI assistant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("assistant backend returned %s", resp.Status)
	}

	var raw rawResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode assistant response: %w", err)
	}

	return sanitize(raw), nil
}

// sanitize enforces the response contract: a reply is always present, the
// language is en unless the model said exactly hi, and a malformed or
// missing action collapses to the null action.
func sanitize(raw rawResponse) *Response {
	out := &Response{
		Reply:    strings.TrimSpace(raw.Reply),
		Language: LangEnglish,
	}
	if out.Reply == "" {
		out.Reply = DefaultReply
	}
	if raw.Language == LangHindi {
		out.Language = LangHindi
	}

	if len(raw.Action) > 0 {
		var action Action
		if err := json.Unmarshal(raw.Action, &action); err == nil {
			out.Action = action
		}
	}
	return out
}
