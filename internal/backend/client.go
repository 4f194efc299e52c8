// Package backend is the typed client for the brainboard backend HTTP service.
//
// Every endpoint goes through a single request path: encode the body, make
// exactly one HTTP call, classify the outcome, decode JSON and validate it with
// a schema. Nothing is retried or cached here; see package querycache for that.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starford/brainboard/internal/schema"
)

// Defaults applied by NewClient.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the backend client.
type Config struct {
	BaseURL    string        // default: http://localhost:8000
	Timeout    time.Duration // default: 60s, ignored when HTTPClient is set
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the backend. It holds no per-request state and is safe for
// concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a backend client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
	}
}

// BaseURL returns the address every endpoint path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Raw performs a request and returns the decoded JSON without any schema check.
// Callers must treat the result as untrusted.
func (c *Client) Raw(ctx context.Context, method, path string, body any) (any, error) {
	return c.do(ctx, method, path, body)
}

// request performs a request and validates the decoded response against s.
func request[T any](ctx context.Context, c *Client, method, path string, body any, s *schema.Schema[T]) (T, error) {
	var zero T
	value, err := c.do(ctx, method, path, body)
	if err != nil {
		return zero, err
	}
	out, err := s.Validate(value)
	if err != nil {
		c.logger.Warn("backend response failed validation",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("schema", s.Name()),
			slog.String("error", err.Error()))
		return zero, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (any, error) {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: failed to marshal %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, &NetworkError{Method: method, URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: url, Err: err}
	}

	c.logger.Debug("backend request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Method: method, URL: url, Status: resp.StatusCode, Body: string(data)}
	}

	value, err := decodeJSON(data)
	if err != nil {
		return nil, &MalformedResponseError{Method: method, URL: url, Status: resp.StatusCode, Err: err}
	}
	return value, nil
}

var errEmptyBody = errors.New("empty response body")

// decodeJSON decodes exactly one JSON value, keeping numbers as json.Number.
func decodeJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return value, nil
}
