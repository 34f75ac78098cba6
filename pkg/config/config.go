package config

import (
	"time"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

// BaseConfig carries the settings every connector shares. Connectors embed it
// with the yaml inline tag.
type BaseConfig struct {
	// Timeouts define various timeout durations
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts"`

	// Reliability settings for error handling and resilience
	Reliability ReliabilityConfig `yaml:"reliability" json:"reliability"`
}

// TimeoutConfig contains all timeout-related settings.
// These prevent operations from hanging indefinitely.
type TimeoutConfig struct {
	// Request timeout for a single HTTP exchange, retries excluded
	Request time.Duration `yaml:"request" json:"request"`
	// Connection timeout for establishing connections
	Connection time.Duration `yaml:"connection" json:"connection"`
	// Idle timeout before closing inactive connections
	Idle time.Duration `yaml:"idle" json:"idle"`
}

// ReliabilityConfig contains reliability and error handling settings.
type ReliabilityConfig struct {
	// RetryAttempts sets maximum retry attempts for failed operations
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts"`
	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// RetryMultiplier increases delay exponentially
	RetryMultiplier float64 `yaml:"retry_multiplier" json:"retry_multiplier"`
	// MaxRetryDelay caps the maximum retry delay
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" json:"max_retry_delay"`
	// CircuitBreaker enables circuit breaker pattern
	CircuitBreaker bool `yaml:"circuit_breaker" json:"circuit_breaker"`
	// RateLimitPerSec limits requests per second (0 = unlimited)
	RateLimitPerSec int `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
}

// NewBaseConfig creates a new BaseConfig with defaults suited to a
// rate-limited public HTTP API.
func NewBaseConfig() *BaseConfig {
	return &BaseConfig{
		Timeouts: TimeoutConfig{
			Request:    30 * time.Second,
			Connection: 10 * time.Second,
			Idle:       90 * time.Second,
		},
		Reliability: ReliabilityConfig{
			RetryAttempts:   3,
			RetryDelay:      time.Second,
			RetryMultiplier: 2.0,
			MaxRetryDelay:   30 * time.Second,
			CircuitBreaker:  true,
			RateLimitPerSec: 10,
		},
	}
}

// Validate checks that values are within acceptable ranges.
func (bc *BaseConfig) Validate() error {
	if bc.Timeouts.Request <= 0 {
		return errors.New(errors.ErrorTypeValidation, "timeouts.request must be positive")
	}
	if bc.Timeouts.Connection < 0 {
		return errors.New(errors.ErrorTypeValidation, "timeouts.connection cannot be negative")
	}
	if bc.Reliability.RetryAttempts < 0 {
		return errors.New(errors.ErrorTypeValidation, "reliability.retry_attempts cannot be negative")
	}
	if bc.Reliability.RetryDelay < 0 {
		return errors.New(errors.ErrorTypeValidation, "reliability.retry_delay cannot be negative")
	}
	if bc.Reliability.RetryMultiplier != 0 && bc.Reliability.RetryMultiplier < 1 {
		return errors.New(errors.ErrorTypeValidation, "reliability.retry_multiplier must be at least 1")
	}
	if bc.Reliability.RateLimitPerSec < 0 {
		return errors.New(errors.ErrorTypeValidation, "reliability.rate_limit_per_sec cannot be negative")
	}
	return nil
}

// IsRateLimited returns true if rate limiting is enabled
func (r *ReliabilityConfig) IsRateLimited() bool {
	return r.RateLimitPerSec > 0
}
