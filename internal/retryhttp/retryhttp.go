// Package retryhttp wraps outbound HTTP calls with bounded retry and
// exponential backoff on transient failures.
package retryhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrRetriesExhausted wraps the last underlying cause once every attempt
// has failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// DefaultMaxAttempts bounds the number of tries per call.
const DefaultMaxAttempts = 5

// RequestFactory builds a fresh request for one attempt. Request bodies
// are not guaranteed reusable across retries, hence a factory rather than
// a request value.
type RequestFactory func() (*http.Request, error)

// Client retries transient failures (429/5xx/timeouts) with exponential
// backoff: 1s, 2s, 4s, 8s, 16s.
type Client struct {
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration
	logger      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMaxAttempts overrides the attempt cap.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoffBase overrides the base backoff delay. Tests shrink it.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoffBase = d
		}
	}
}

// New creates a retrying client around httpClient.
func New(httpClient *http.Client, logger zerolog.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		httpClient:  httpClient,
		maxAttempts: DefaultMaxAttempts,
		backoffBase: time.Second,
		logger:      logger.With().Str("component", "retryhttp").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatus reports whether a status code signals a transient
// provider failure.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryableError reports whether a transport error is a timeout not
// caused by the caller's own cancellation.
func retryableError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Do executes the request built by factory, retrying transient failures up
// to the attempt cap. Non-transient error statuses (4xx other than 429)
// are returned as-is so the caller can decide.
func (c *Client) Do(ctx context.Context, factory RequestFactory) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		req, err := factory()
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req = req.WithContext(ctx)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if !retryableError(ctx, err) {
				return nil, err
			}
			lastErr = err
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Int("maxAttempts", c.maxAttempts).
				Str("url", req.URL.String()).Msg("request timed out, will retry")
			continue
		}

		if retryableStatus(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			c.logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).
				Int("maxAttempts", c.maxAttempts).Str("url", req.URL.String()).
				Msg("transient status, will retry")
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.maxAttempts, lastErr)
}

// sleep waits 2^attempt backoff units, aborting early on cancellation.
func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.backoffBase << uint(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
