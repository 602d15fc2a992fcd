package ratelimiter

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimiter budgets round-trips to a shared key-value backend using a
// token bucket. A single command consumes one token; a pipeline consumes one
// token per queued command, so a large batch cannot bypass the budget.
//
// A zero requestsPerSecond disables limiting.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerSecond sustained commands with a
// bucket of burst tokens. A burst lower than 1 is raised to 1 so that single
// commands can always make progress.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = 1
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Unlimited reports whether the limiter lets everything through.
func (r *RateLimiter) Unlimited() bool {
	return r.limiter.Limit() == rate.Inf
}

// Allow consumes one token without waiting.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until one token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.WaitN(ctx, 1)
}

// WaitN blocks until n tokens are available. Requests larger than the burst
// are split into burst-sized chunks instead of failing outright.
func (r *RateLimiter) WaitN(ctx context.Context, n int) error {
	if r.Unlimited() || n <= 0 {
		return ctx.Err()
	}

	burst := r.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := r.limiter.WaitN(ctx, chunk); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		n -= chunk
	}
	return nil
}

// Tokens returns the currently available tokens. Useful for debugging.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
