package base

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

func fastPolicy(attempts int) *RetryPolicy {
	p := NewRetryPolicy(attempts, time.Millisecond)
	p.RandomizeFactor = 0
	return p
}

func TestRetryPolicyRetriesUntilSuccess(t *testing.T) {
	calls := 0
	var retried []int
	p := fastPolicy(3)
	p.OnRetry = func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) }

	err := p.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New(errors.ErrorTypeConnection, "flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryPolicyStopsOnNonRetryable(t *testing.T) {
	calls := 0
	authErr := errors.FromHTTPStatus(403, "")

	err := fastPolicy(5).ExecuteWithCondition(context.Background(), func() error {
		calls++
		return authErr
	}, errors.IsRetryable)

	assert.Equal(t, 1, calls)
	assert.Same(t, authErr, err)
}

func TestRetryPolicyExhaustionKeepsType(t *testing.T) {
	calls := 0
	err := fastPolicy(3).ExecuteWithCondition(context.Background(), func() error {
		calls++
		return errors.FromHTTPStatus(503, "")
	}, errors.IsRetryable)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	assert.Equal(t, 503, errors.StatusCode(err))
}

func TestRetryPolicySingleAttemptReturnsErrorUnwrapped(t *testing.T) {
	want := errors.New(errors.ErrorTypeTimeout, "slow")
	err := fastPolicy(0).Execute(context.Background(), func() error { return want })
	assert.Same(t, want, err)
}

func TestRetryPolicyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewRetryPolicy(5, time.Hour)

	calls := 0
	err := p.Execute(ctx, func() error {
		calls++
		cancel()
		return errors.New(errors.ErrorTypeConnection, "down")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "retry cancelled")
}

func TestRetryPolicyDelay(t *testing.T) {
	p := &RetryPolicy{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, p.GetDelay(0))
	assert.Equal(t, 200*time.Millisecond, p.GetDelay(1))
	assert.Equal(t, 300*time.Millisecond, p.GetDelay(2))

	jittered := p.Clone()
	jittered.RandomizeFactor = 0.5
	for i := 0; i < 20; i++ {
		d := jittered.GetDelay(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
