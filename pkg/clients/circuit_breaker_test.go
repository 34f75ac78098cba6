package clients

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCircuitBreakerLifecycle(t *testing.T) {
	cb := NewHTTPCircuitBreaker("lifecycle", CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          20 * time.Millisecond,
	}, zaptest.NewLogger(t))

	boom := errors.New("boom")
	assert.Equal(t, boom, cb.Execute(func() error { return boom }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, boom, cb.Execute(func() error { return boom }))
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewHTTPCircuitBreaker("half_open", CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          10 * time.Millisecond,
	}, zaptest.NewLogger(t))

	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.False(t, cb.Allow(), "only one trial request is allowed")

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerSingleFailureDoesNotTrip(t *testing.T) {
	cb := NewHTTPCircuitBreaker("single_failure", CircuitBreakerConfig{FailureThreshold: 5}, zaptest.NewLogger(t))
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State())

	state := cb.GetState()
	assert.Equal(t, "closed", state.State)
	assert.Equal(t, int64(1), state.FailedRequests)
	assert.Equal(t, float64(1), state.FailureRate)
}

func TestTokenBucketRateLimiter(t *testing.T) {
	rl := NewTokenBucketRateLimiter(1, 2)
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	stats := rl.GetStats()
	assert.Equal(t, int64(2), stats.AllowedRequests)
	assert.Equal(t, int64(1), stats.BlockedRequests)
	assert.Equal(t, 2, stats.Burst)

	rl.SetRate(5)
	assert.Equal(t, float64(5), rl.GetStats().Rate)
}
