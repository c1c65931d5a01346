// Package api is a typed HTTP client for the task service. It knows the
// routes and wire formats; policy (who may do what, what happens after a
// mutation) lives in the callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource hands out the bearer token for one request. The release
// function is called when the request has finished.
type TokenSource interface {
	Acquire() (token string, release func())
}

// Config holds the parameters for a Client.
type Config struct {
	// BaseURL is the service root, e.g. https://tasks.example.com/api.
	BaseURL string

	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration

	// Tokens supplies the bearer credential. Nil sends no credential.
	Tokens TokenSource

	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper

	// Logger receives one debug record per request. Nil discards.
	Logger *slog.Logger
}

// Client talks to the task service.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		base:       base,
		httpClient: &http.Client{Timeout: timeout, Transport: cfg.Transport},
		tokens:     cfg.Tokens,
		logger:     logger,
	}, nil
}

// do sends one request. The session lease is held from before the
// request is built until the response body has been consumed.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	token, release := "", func() {}
	if c.tokens != nil {
		token, release = c.tokens.Acquire()
	}
	defer release()

	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "request_id", requestID, "error", err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("request",
		"op", op,
		"request_id", requestID,
		"method", method,
		"path", u.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if err := decodeData(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// decodeData unwraps the service's {"data": ...} envelope when present
// and decodes the payload into out.
func decodeData(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return errors.New("empty body")
	}
	if trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			trimmed = envelope.Data
		}
	}
	return json.Unmarshal(trimmed, out)
}
