package base

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines retry behavior
type RetryPolicy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	RandomizeFactor float64

	// OnRetry, when set, is called before each wait
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryPolicy creates a new retry policy with exponential backoff.
// maxAttempts counts the first call.
func NewRetryPolicy(maxAttempts int, initialDelay time.Duration) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialDelay:    initialDelay,
		MaxDelay:        30 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.25,
	}
}

// Execute runs fn, retrying on any error
func (rp *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	return rp.ExecuteWithCondition(ctx, fn, func(error) bool { return true })
}

// ExecuteWithCondition runs fn, retrying only errors shouldRetry accepts.
// A rejected error is returned unchanged.
func (rp *RetryPolicy) ExecuteWithCondition(ctx context.Context, fn func() error, shouldRetry func(error) bool) error {
	attempts := rp.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Don't wait after the last attempt
		if attempt == attempts-1 {
			break
		}

		delay := rp.calculateDelay(attempt)
		if rp.OnRetry != nil {
			rp.OnRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", lastErr)
		case <-timer.C:
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

func (rp *RetryPolicy) calculateDelay(attempt int) time.Duration {
	multiplier := rp.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(rp.InitialDelay) * math.Pow(multiplier, float64(attempt))

	if rp.MaxDelay > 0 && delay > float64(rp.MaxDelay) {
		delay = float64(rp.MaxDelay)
	}

	// Jitter
	if rp.RandomizeFactor > 0 {
		delta := delay * rp.RandomizeFactor
		delay = delay - delta + rand.Float64()*2*delta //nolint:gosec // jitter needs no crypto
	}

	return time.Duration(delay)
}

// GetDelay returns the delay for a specific attempt (for testing/preview)
func (rp *RetryPolicy) GetDelay(attempt int) time.Duration {
	return rp.calculateDelay(attempt)
}

// Clone creates a copy of the retry policy
func (rp *RetryPolicy) Clone() *RetryPolicy {
	c := *rp
	return &c
}

// WithMaxAttempts returns a new policy with updated max attempts
func (rp *RetryPolicy) WithMaxAttempts(attempts int) *RetryPolicy {
	policy := rp.Clone()
	policy.MaxAttempts = attempts
	return policy
}

// WithDelay returns a new policy with updated delays
func (rp *RetryPolicy) WithDelay(initial, max time.Duration) *RetryPolicy {
	policy := rp.Clone()
	policy.InitialDelay = initial
	policy.MaxDelay = max
	return policy
}

// DefaultRetryPolicy returns a sensible default retry policy
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     4,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.25,
	}
}

// NoRetryPolicy returns a policy that doesn't retry
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 1,
	}
}
