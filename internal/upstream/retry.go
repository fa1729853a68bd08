package upstream

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxAttempts is the total attempt budget, including the first.
	DefaultMaxAttempts = 3
	// RetryInitialInterval is the initial interval for exponential backoff.
	RetryInitialInterval = 500 * time.Millisecond
	// RetryMaxInterval is the maximum interval for exponential backoff.
	RetryMaxInterval = 10 * time.Second
)

// RetryPolicy configures how the client retries failed attempts. Immutable
// per client instance.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// 1 disables retrying entirely; NewBackoff is never invoked then.
	MaxAttempts int

	// NewBackoff builds a fresh back-off schedule for one call. It is
	// constructed lazily, at most once per call, and only when a retry
	// delay is actually needed.
	NewBackoff func() backoff.BackOff
}

// DefaultRetryPolicy returns the standard policy: exponential backoff with
// jitter to avoid thundering-herd retries against the documentation API.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		NewBackoff:  newDefaultBackoff,
	}
}

func newDefaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryInitialInterval
	b.MaxInterval = RetryMaxInterval
	b.MaxElapsedTime = 0 // attempts are bounded by MaxAttempts, not wall time
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return b
}

// retryable reports whether an HTTP status signals a transient condition.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryAfter extracts a server-supplied delay from a Retry-After header,
// accepting both delta-seconds and HTTP-date forms. Negative or unparseable
// values are ignored so the caller falls back to its own schedule.
func retryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		d := time.Until(at)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
