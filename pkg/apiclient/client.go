// Package apiclient is the HTTP adapter for the platform's admin REST API.
// Every call resolves to a Result; expected failures are never returned as Go
// errors or panics.
package apiclient

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
	"github.com/noah-isme/wellness-admin-console/pkg/middleware/requestid"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "wellness-admin-console"
	maxResponseBytes = 8 << 20
	requestIDHeader  = "X-Request-ID"
)

// TokenSource resolves the bearer token attached to each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Observer receives one observation per completed round trip.
type Observer interface {
	ObserveUpstreamRequest(method, route string, status int, duration time.Duration)
}

// Config holds adapter configuration.
type Config struct {
	// BaseURL is the root of the platform API, for example https://api.example.com/api/v1.
	BaseURL string
	// Timeout bounds each request. Defaults to 15s.
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the transport; its Timeout is left untouched when set.
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *zap.Logger
	Metrics    Observer
}

// Request describes one round trip.
type Request struct {
	Method string
	Path   string
	// Route is the templated path used as a metrics label; defaults to Path.
	Route string
	Query url.Values
	Body  any
}

// Client performs requests against the platform API. It holds no per-call
// state and is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenSource
	logger    *zap.Logger
	metrics   Observer
	userAgent string
}

// New creates an API client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("apiclient: BaseURL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("apiclient: invalid BaseURL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:   baseURL,
		http:      httpClient,
		tokens:    cfg.Tokens,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		userAgent: cfg.UserAgent,
	}, nil
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Do performs one request and normalises the outcome.
func (c *Client) Do(ctx context.Context, req Request) Result[json.RawMessage] {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	route := req.Route
	if route == "" {
		route = req.Path
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return Fail[json.RawMessage](appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+withQuery(ensureLeadingSlash(req.Path), req.Query), body)
	if err != nil {
		return Fail[json.RawMessage](appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request"))
	}
	requestID := requestid.FromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(requestIDHeader, requestID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			appErr := appErrors.FromError(err)
			if appErr.Code == appErrors.ErrInternal.Code {
				appErr = appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "unable to resolve access token")
			}
			return Fail[json.RawMessage](appErr)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.observe(method, route, 0, time.Since(start), requestID)
		return Fail[json.RawMessage](appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, appErrors.ErrTransport.Message))
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.observe(method, route, resp.StatusCode, time.Since(start), requestID)
	if err != nil {
		return Fail[json.RawMessage](appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, appErrors.ErrTransport.Message))
	}
	return parseResponse(resp.StatusCode, raw)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) Result[json.RawMessage] {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) Result[json.RawMessage] {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) Result[json.RawMessage] {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with an optional JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) Result[json.RawMessage] {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) Result[json.RawMessage] {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) observe(method, route string, status int, duration time.Duration, requestID string) {
	c.logger.Debug("upstream_request",
		zap.String("method", method),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Duration("latency", duration),
		zap.String("request_id", requestID),
	)
	if c.metrics != nil {
		c.metrics.ObserveUpstreamRequest(method, route, status, duration)
	}
}

func ensureLeadingSlash(path string) string {
	if path == "" || strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
