// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent provides the HTTP client for the Medical Insight API.
//
// The API exposes a streaming chat endpoint that emits Server-Sent Events
// for each unit of agent progress (reasoning steps, tool results, chart
// payloads, the final answer), plus conversation history and health
// endpoints. This package implements the client and the stream
// interpreter that folds an event stream into one coherent turn.
package agent

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the Medical Insight API.
const (
	// DefaultBaseURL is the default address of the backend.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for
	// transient errors on non-streaming requests.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size for
	// non-streaming endpoints.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// requestsPerSecond caps outbound request rate. Turns are user-driven,
	// so the limiter only matters when scripted callers hammer the client.
	requestsPerSecond = 5
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared HTTP client for non-streaming requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests.
	// No timeout: stream lifetime is controlled via context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// Error variables for common client errors.
var (
	// ErrServerNotReachable indicates the backend could not be contacted.
	ErrServerNotReachable = errors.New("medical insight server not reachable")

	// ErrInvalidBaseURL indicates the configured base URL failed validation.
	ErrInvalidBaseURL = errors.New("invalid server URL")

	// ErrEmptyQuery indicates a request with no query text.
	ErrEmptyQuery = errors.New("query must not be empty")
)

// APIError represents an error response from the backend.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("server error (HTTP %d)", e.Status)
}

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// QueryRequest is the body of POST /chat/stream.
// ThreadID is a pointer so a fresh thread serializes as an explicit null.
type QueryRequest struct {
	Query    string  `json:"query"`
	ThreadID *string `json:"thread_id"`
}

// historyRequest is the body of POST /chat/history.
type historyRequest struct {
	ThreadID string `json:"thread_id"`
}

// HistoryMessage is one transcript entry returned by the history endpoint.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryResponse is the payload of POST /chat/history.
type HistoryResponse struct {
	Messages []HistoryMessage `json:"messages"`
	ThreadID string           `json:"thread_id"`
}

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status       string `json:"status"`
	Checkpointer string `json:"checkpointer"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client communicates with the Medical Insight API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	streamer   *http.Client
	maxRetries int
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for non-streaming requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.streamer = hc
	}
}

// WithMaxRetries overrides the retry count for non-streaming requests.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// NewClient creates a client for the given base URL.
// An empty baseURL falls back to DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: sharedHTTPClient,
		streamer:   sharedStreamingClient,
		maxRetries: DefaultMaxRetries,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// STREAMING TURN
// =============================================================================

// StreamQuery opens a streaming turn and folds the event stream into a
// turn accumulator. threadID may be empty for a fresh server-side thread.
//
// The optional callback observes every decoded event after it has been
// folded; it runs on the calling goroutine, strictly in arrival order.
func (c *Client) StreamQuery(ctx context.Context, query, threadID string, onEvent func(Event)) (*Accumulator, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := QueryRequest{Query: query}
	if threadID != "" {
		reqBody.ThreadID = &threadID
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/stream", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerNotReachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return nil, c.errorFromResponse(resp.StatusCode, body)
	}

	acc, err := Fold(resp.Body, onEvent)
	if err != nil {
		// Preserve whatever the fold captured before the read failed
		return acc, &StreamError{Partial: acc.Text(), Err: err}
	}
	return acc, nil
}

// StreamError represents a transport failure mid-stream, preserving the
// best answer text folded before the failure.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// HISTORY AND HEALTH
// =============================================================================

// History fetches the server-side transcript for a thread.
func (c *Client) History(ctx context.Context, threadID string) (*HistoryResponse, error) {
	body, err := json.Marshal(historyRequest{ThreadID: threadID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	data, err := c.doWithRetry(ctx, http.MethodPost, "/chat/history", body)
	if err != nil {
		return nil, err
	}

	var hist HistoryResponse
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}
	return &hist, nil
}

// DeleteHistory discards the server-side conversation context for a thread.
func (c *Client) DeleteHistory(ctx context.Context, threadID string) error {
	_, err := c.doWithRetry(ctx, http.MethodDelete, "/chat/history/"+url.PathEscape(threadID), nil)
	return err
}

// Health checks backend availability.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	data, err := c.doWithRetry(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var status HealthStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &status, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doWithRetry performs a non-streaming request with exponential backoff.
// Retries connection failures and 5xx responses; 4xx responses fail fast.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}

		data, retryable, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

// doOnce performs a single request attempt.
// The second return value reports whether the failure is retryable.
func (c *Client) doOnce(ctx context.Context, method, path string, body []byte) ([]byte, bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrServerNotReachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := c.errorFromResponse(resp.StatusCode, data)
		return nil, resp.StatusCode >= 500, apiErr
	}
	return data, false, nil
}

// errorFromResponse builds an APIError from a non-200 response body.
func (c *Client) errorFromResponse(status int, body []byte) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return &APIError{Status: status, Detail: payload.Detail}
	}
	return &APIError{Status: status, Detail: strings.TrimSpace(string(body))}
}

// backoffDelay computes the delay before the given retry attempt.
// Exponential backoff: 500ms, 1s, 2s, ... capped at retryMaxDelay.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay * (1 << (attempt - 1))
	if delay > retryMaxDelay {
		return retryMaxDelay
	}
	return delay
}
