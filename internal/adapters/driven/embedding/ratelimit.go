package embedding

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration for a provider.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit. Zero disables the token bucket.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// RateLimiter throttles provider calls shared by every ingestion and query.
// It uses a token bucket plus a shared pause set after 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	r := &RateLimiter{}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.BurstSize
		if burst <= 0 {
			burst = int(cfg.RequestsPerSecond) + 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return r
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any pause set by RecordRateLimit.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

// RecordRateLimit pauses all callers for d. A shorter pause never
// overrides a longer one already in effect.
func (r *RateLimiter) RecordRateLimit(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if until := time.Now().Add(d); until.After(r.retryAt) {
		r.retryAt = until
	}
}
