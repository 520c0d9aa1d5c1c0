// Package docsource provides the shared HTTP plumbing for document-search
// API clients: token-bucket rate limiting and a client that retries
// transport-level failures with a fixed backoff.
package docsource

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket rate limiter for controlling request
// rates to external APIs. It is safe for concurrent use because the
// underlying rate.Limiter is goroutine-safe for all operations.
//
// Beyond request pacing, the harvester also uses a RateLimiter as the
// courtesy interval between result pages: a limiter with rate 1/interval
// and burst 1 turns Wait into a fixed spacing between calls.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
// ratePerSecond is the sustained rate of requests per second.
// burst is the maximum burst size (number of tokens that can be consumed at once).
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// NewIntervalLimiter creates a limiter that enforces a fixed interval
// between consecutive Wait calls.
func NewIntervalLimiter(intervalSeconds float64) *RateLimiter {
	if intervalSeconds <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return NewRateLimiter(1/intervalSeconds, 1)
}

// Wait blocks until a request is allowed or the context is canceled.
// It returns an error if the context is canceled or the deadline is exceeded.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow returns true if a request is allowed without waiting.
// It consumes one token if allowed, and returns false if no tokens are available.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
