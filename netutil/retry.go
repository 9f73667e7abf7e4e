package netutil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// RetryTransport wraps an http.RoundTripper and retries transient failures:
// network errors and 429/502/503/504 responses. It backs off exponentially,
// honours Retry-After, and stops waiting when the request context is done.
// Certificate failures are returned immediately so callers can decide
// whether an insecure retry is allowed.
type RetryTransport struct {
	// Base is the underlying transport.
	// Default: http.DefaultTransport if nil.
	Base http.RoundTripper

	// OnRetry is called before each retry attempt with the 1-based attempt
	// number, the wait duration and the status code (0 for network errors).
	OnRetry func(attempt int, waitDuration time.Duration, statusCode int)

	// MaxRetries is the maximum number of retry attempts.
	// Default: 3 if zero. Negative disables retries.
	MaxRetries int

	// InitialBackoff is the initial backoff duration.
	// Default: 1s if zero.
	InitialBackoff time.Duration

	// MaxBackoff caps both backoff and Retry-After waits.
	// Default: 30s if zero.
	MaxBackoff time.Duration
}

// RoundTrip implements http.RoundTripper with retry logic.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	maxRetries := t.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = 3
	case maxRetries < 0:
		maxRetries = 0
	}

	initialBackoff := t.InitialBackoff
	if initialBackoff == 0 {
		initialBackoff = time.Second
	}

	maxBackoff := t.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := base.RoundTrip(attemptReq)
		if err != nil {
			if attempt >= maxRetries || !retryableError(ctx, err) {
				return nil, err
			}
			wait := t.calculateBackoff(attempt, initialBackoff, maxBackoff, nil)
			if t.OnRetry != nil {
				t.OnRetry(attempt+1, wait, 0)
			}
			if werr := sleep(ctx, wait); werr != nil {
				return nil, werr
			}
			continue
		}

		if !isRetryableStatus(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := t.calculateBackoff(attempt, initialBackoff, maxBackoff, resp)
		if t.OnRetry != nil {
			t.OnRetry(attempt+1, wait, resp.StatusCode)
		}
		_ = resp.Body.Close()
		if werr := sleep(ctx, wait); werr != nil {
			return nil, werr
		}
	}
}

func retryableError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !IsCertificateError(err)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateBackoff determines the wait duration for the given attempt.
// It respects Retry-After headers when present.
func (t *RetryTransport) calculateBackoff(attempt int, initial, maxDuration time.Duration, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				return min(time.Duration(seconds)*time.Second, maxDuration)
			}
			if at, err := http.ParseTime(retryAfter); err == nil {
				d := time.Until(at)
				if d < 0 {
					return initial
				}
				return min(d, maxDuration)
			}
		}
	}

	// initial * 2^attempt
	return min(initial*(1<<attempt), maxDuration)
}

// isRetryableStatus returns true if the status code indicates a transient error.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// IsRetryableStatus is exported for testing and external use.
func IsRetryableStatus(statusCode int) bool {
	return isRetryableStatus(statusCode)
}
