// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"io"
	"net/http"
	"slices"
	"time"
)

// Policy describes how a client retries a request. The zero Policy makes a
// single attempt.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// Backoff is the delay before the first retry. It doubles on each
	// further retry.
	Backoff time.Duration

	// RetryStatus lists the response codes that trigger a retry.
	RetryStatus []int
}

// DefaultRetryStatus returns the status codes retried when a Policy enables
// retries without naming any.
func DefaultRetryStatus() []int {
	return []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable}
}

func (p Policy) retries(code int) bool {
	codes := p.RetryStatus
	if len(codes) == 0 {
		codes = DefaultRetryStatus()
	}
	return slices.Contains(codes, code)
}

// delay returns the wait before retry number attempt (zero based).
func (p Policy) delay(attempt int) time.Duration {
	return p.Backoff << attempt
}

// DoWithRetry executes req and retries while the response status is one of
// policy.RetryStatus, waiting Backoff, 2*Backoff, 4*Backoff, ... between
// attempts. Transport errors are returned immediately.
//
// On each retried response the body is drained and closed before sleeping.
// If the context is cancelled during a wait the function returns ctx.Err().
// After exhausting retries the last response is returned so the caller can
// inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy Policy) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if attempt >= policy.MaxRetries || !policy.retries(resp.StatusCode) {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.delay(attempt)):
		}
	}
}
