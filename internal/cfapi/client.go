// Package cfapi contains the HTTP plumbing shared by every Cloudflare service
// client in this repository: a retrying HTTP client with exponential backoff,
// the standard {success, errors, result} response envelope, and the error
// taxonomy the ingestion pipelines branch on.
//
// Design goals:
//
//   - Keep a tiny, explicit API (Get, Post, Put, Do).
//   - Handle transient failures (network errors, 5xx, 429) with backoff.
//   - Respect context cancellation during requests and backoff waits.
//   - Be easy to test by injecting a custom RoundTripper and sleep function.
package cfapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// BaseURL is the Cloudflare REST API root.
const BaseURL = "https://api.cloudflare.com/client/v4"

// AccountURL joins path onto the account-scoped API root.
func AccountURL(accountID, path string) string {
	return fmt.Sprintf("%s/accounts/%s/%s", BaseURL, accountID, path)
}

// Config configures the API client.
//
// Zero values are given sensible defaults:
//   - Timeout:        30s
//   - MaxRetries:     3
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	// APIToken, when non-empty, is sent as a bearer token on every request.
	// Leave empty for pre-signed endpoints such as staging upload targets.
	APIToken string

	// UserAgent identifies this tool to the remote service.
	UserAgent string

	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int

	// InitialBackoff is the base backoff for the first retry; each subsequent
	// retry doubles it up to MaxBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff duration.
	MaxBackoff time.Duration

	// Transport is an optional custom RoundTripper, mainly for tests.
	Transport http.RoundTripper
}

// Client wraps an http.Client with retry and backoff behavior and the base
// headers every Cloudflare request carries.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	baseHeaders    http.Header

	// sleep is injectable to make tests fast and deterministic. It must
	// honor ctx cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	hdr := http.Header{}
	if cfg.APIToken != "" {
		hdr.Set("Authorization", "Bearer "+cfg.APIToken)
	}
	if cfg.UserAgent != "" {
		hdr.Set("User-Agent", cfg.UserAgent)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		baseHeaders:    hdr,
		sleep:          sleepWithContext,
	}
}

// Do sends an HTTP request with the given method, URL, and optional body,
// applying retry and backoff on transient failures. The body is supplied as a
// byte slice so that it can be safely re-sent on retry.
//
// The returned *http.Response has a non-nil Body which the caller must close.
// When all attempts fail on a network error or retryable status, the returned
// error is a *TransientError. Non-retryable statuses are returned as a
// response for the caller (usually DecodeEnvelope) to interpret.
func (c *Client) Do(
	ctx context.Context,
	method, url string,
	body []byte,
	headers http.Header,
) (*http.Response, error) {
	if method == "" || url == "" {
		return nil, fmt.Errorf("cfapi: method and url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("cfapi: build request: %w", err)
		}

		// Base headers first, then per-request headers (which override).
		for k, vs := range c.baseHeaders {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}
		for k, vs := range headers {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			if !isRetryableStatus(resp.StatusCode) {
				return resp, nil
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("retryable status %d from %s %s", resp.StatusCode, method, url)
		}

		if attempt+1 >= attempts {
			return nil, &TransientError{Op: method + " " + url, Err: lastErr}
		}

		backoff := backoffDuration(c.initialBackoff, attempt, c.maxBackoff)
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, &TransientError{Op: method + " " + url, Err: lastErr}
}

// Get is a convenience wrapper over Do for HTTP GET.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, headers)
}

// Post is a convenience wrapper over Do for HTTP POST.
func (c *Client) Post(ctx context.Context, url string, body []byte, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, url, body, headers)
}

// Put is a convenience wrapper over Do for HTTP PUT.
func (c *Client) Put(ctx context.Context, url string, body []byte, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodPut, url, body, headers)
}

// isRetryableStatus reports whether the given HTTP status code should trigger
// a retry. Intentionally conservative: 5xx and 429 are treated as transient;
// everything else is considered final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the exponential backoff duration for the given
// attempt number (0-based retry index), clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	d := initial << attempt
	if d > max {
		return max
	}
	return d
}

// sleepWithContext sleeps for d, aborting early if ctx is canceled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
