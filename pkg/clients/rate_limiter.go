package clients

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting implementations.
type RateLimiter interface {
	// Allow checks if a request is allowed
	Allow() bool

	// Wait blocks until a request is allowed
	Wait(ctx context.Context) error

	// SetRate updates the rate limit
	SetRate(rate float64)

	// SetBurst updates the burst size
	SetBurst(burst int)

	// GetStats returns rate limiter statistics
	GetStats() RateLimiterStats
}

// RateLimiterStats provides statistics about rate limiter state
type RateLimiterStats struct {
	Rate            float64       `json:"rate"`
	Burst           int           `json:"burst"`
	AllowedRequests int64         `json:"allowed_requests"`
	BlockedRequests int64         `json:"blocked_requests"`
	CurrentTokens   float64       `json:"current_tokens"`
	TotalWait       time.Duration `json:"total_wait"`
}

// TokenBucketRateLimiter is a token bucket backed by golang.org/x/time/rate
type TokenBucketRateLimiter struct {
	limiter *rate.Limiter

	allowed   int64
	blocked   int64
	totalWait int64
}

// NewRateLimiter creates a new rate limiter with the specified rate (requests
// per second) and burst size.
func NewRateLimiter(rps int, burst int) RateLimiter {
	return NewTokenBucketRateLimiter(float64(rps), burst)
}

// NewTokenBucketRateLimiter creates a token bucket limiter. A burst below one
// is raised to one so Wait can ever succeed.
func NewTokenBucketRateLimiter(rps float64, burst int) *TokenBucketRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucketRateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Allow reports whether a request may happen now, consuming a token if so
func (tb *TokenBucketRateLimiter) Allow() bool {
	if tb.limiter.Allow() {
		atomic.AddInt64(&tb.allowed, 1)
		return true
	}
	atomic.AddInt64(&tb.blocked, 1)
	return false
}

// Wait blocks until a token is available or ctx is done
func (tb *TokenBucketRateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := tb.limiter.Wait(ctx); err != nil {
		atomic.AddInt64(&tb.blocked, 1)
		return err
	}
	atomic.AddInt64(&tb.totalWait, int64(time.Since(start)))
	atomic.AddInt64(&tb.allowed, 1)
	return nil
}

// SetRate updates the rate limit
func (tb *TokenBucketRateLimiter) SetRate(rps float64) {
	tb.limiter.SetLimit(rate.Limit(rps))
}

// SetBurst updates the burst size
func (tb *TokenBucketRateLimiter) SetBurst(burst int) {
	tb.limiter.SetBurst(burst)
}

// GetStats returns rate limiter statistics
func (tb *TokenBucketRateLimiter) GetStats() RateLimiterStats {
	return RateLimiterStats{
		Rate:            float64(tb.limiter.Limit()),
		Burst:           tb.limiter.Burst(),
		AllowedRequests: atomic.LoadInt64(&tb.allowed),
		BlockedRequests: atomic.LoadInt64(&tb.blocked),
		CurrentTokens:   tb.limiter.Tokens(),
		TotalWait:       time.Duration(atomic.LoadInt64(&tb.totalWait)),
	}
}
