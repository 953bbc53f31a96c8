// Package fetch implements the HTTP fetch collaborator spec §4.9 describes:
// a single call returning status, content-type, optional length, and body,
// with its own retry and rate-limiting concerns opaque to the engine.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default per-request timeout.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBodySize bounds how much of a response body is read.
	DefaultMaxBodySize = 2 * 1024 * 1024
	// DefaultUserAgent is sent on every request unless overridden.
	DefaultUserAgent = "siteclone/1.0"
	// DefaultMinSpacing is the minimum time between requests when no
	// explicit rate limit is configured.
	DefaultMinSpacing = 100 * time.Millisecond

	maxAttempts  = 3
	baseBackoff  = 100 * time.Millisecond
)

// FetchResult is the successful outcome of a fetch.
type FetchResult struct {
	StatusCode    int
	ContentType   string
	ContentLength *int64
	Body          []byte
	FinalURL      string
}

// HTTPError represents a non-2xx HTTP response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	switch {
	case e.StatusCode == 404:
		return "not found (404)"
	case e.StatusCode >= 300 && e.StatusCode < 400:
		return fmt.Sprintf("redirect not followed (%d)", e.StatusCode)
	case e.StatusCode >= 500:
		return fmt.Sprintf("server error (%d)", e.StatusCode)
	case e.StatusCode >= 400:
		return fmt.Sprintf("client error (%d)", e.StatusCode)
	default:
		return fmt.Sprintf("http error (%d)", e.StatusCode)
	}
}

// Category classifies the error for logging/backoff decisions.
func (e *HTTPError) Category() string {
	switch e.StatusCode {
	case 404:
		return "dead link"
	case 408, 504:
		return "timeout"
	}
	if e.StatusCode >= 500 {
		return "server error (retry-able)"
	}
	return "http error"
}

// Config configures a Client.
type Config struct {
	Timeout     time.Duration
	UserAgent   string
	MaxBodySize int64
	// MinSpacing is the minimum duration between outbound requests
	// (0 uses DefaultMinSpacing). Set to a negative value to disable spacing.
	MinSpacing time.Duration
	// Concurrency bounds the number of in-flight requests (0 = unbounded).
	Concurrency int
}

// Client is an HTTP client with timeout, rate limiting, retry-with-backoff,
// and body size limits. Safe for concurrent use by multiple goroutines.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	maxBodySize int64
	limiter     *rate.Limiter
	permits     chan struct{}
}

// New creates a Client from cfg, filling in defaults.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxBodySize,
	}

	spacing := cfg.MinSpacing
	if spacing == 0 {
		spacing = DefaultMinSpacing
	}
	if spacing > 0 {
		c.limiter = rate.NewLimiter(rate.Every(spacing), 1)
	}
	if cfg.Concurrency > 0 {
		c.permits = make(chan struct{}, cfg.Concurrency)
	}
	return c
}

// Fetch retrieves url, applying rate limiting, a concurrency permit, and
// up to three attempts with exponential backoff on transport errors and
// retry-able HTTP statuses (429 and any 5xx; the wait is doubled for 429
// and 503). Respects context cancellation.
func (c *Client) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	if c.permits != nil {
		select {
		case c.permits <- struct{}{}:
			defer func() { <-c.permits }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var lastErr error
	backoff := baseBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		result, err := c.do(ctx, url)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxAttempts {
			return nil, err
		}

		wait := backoff
		if httpErr, ok := err.(*HTTPError); ok && (httpErr.StatusCode == 429 || httpErr.StatusCode == 503) {
			wait *= 2
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, lastErr
}

func retryable(err error) bool {
	httpErr, ok := err.(*HTTPError)
	if !ok {
		// Transport-level errors (timeouts, connection resets) are retried.
		return true
	}
	return httpErr.StatusCode == 429 || httpErr.StatusCode == 503 || httpErr.StatusCode >= 500
}

func (c *Client) do(ctx context.Context, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize))
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var contentLength *int64
	if resp.ContentLength >= 0 {
		cl := resp.ContentLength
		contentLength = &cl
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &FetchResult{
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: contentLength,
		Body:          body,
		FinalURL:      finalURL,
	}, nil
}
