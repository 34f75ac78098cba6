package clients

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/metrics"
)

// CircuitBreakerConfig is the configuration for circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold int           // Consecutive failures before opening
	SuccessThreshold int           // Consecutive half-open successes before closing
	Timeout          time.Duration // Time spent open before probing again
	MinRequests      int           // Window volume required before the failure rate counts
}

// HTTPCircuitBreaker implements the circuit breaker pattern for HTTP requests.
// Its state is mirrored in the source_coda_circuit_breaker_state gauge.
type HTTPCircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	logger *zap.Logger

	state           int32 // CircuitState
	lastStateChange time.Time
	nextRetryTime   time.Time

	consecutiveFailures  int32
	consecutiveSuccesses int32

	window          *SlidingWindow
	halfOpenLimit   int32
	halfOpenCounter int32

	mu sync.RWMutex
}

// CircuitState represents the state of a circuit breaker
type CircuitState int32

const (
	// StateClosed allows all requests to pass through
	StateClosed CircuitState = iota
	// StateHalfOpen allows a limited number of trial requests
	StateHalfOpen
	// StateOpen blocks all requests
	StateOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// SlidingWindow tracks requests and failures over a time window
type SlidingWindow struct {
	buckets        []int64
	failureBuckets []int64
	bucketSize     time.Duration
	currentBucket  int
	lastUpdate     time.Time
	mu             sync.RWMutex
}

// NewHTTPCircuitBreaker creates a closed circuit breaker.
func NewHTTPCircuitBreaker(name string, config CircuitBreakerConfig, logger *zap.Logger) *HTTPCircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MinRequests <= 0 {
		config.MinRequests = 10
	}

	cb := &HTTPCircuitBreaker{
		name:            name,
		config:          config,
		logger:          logger.With(zap.String("component", "circuit_breaker"), zap.String("breaker", name)),
		state:           int32(StateClosed),
		lastStateChange: time.Now(),
		halfOpenLimit:   int32(config.SuccessThreshold),
		// 1-minute window of 10-second buckets
		window: NewSlidingWindow(10*time.Second, 60*time.Second),
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(StateClosed))
	return cb
}

// Execute runs fn unless the circuit is open and records the outcome.
func (cb *HTTPCircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return errors.New(errors.ErrorTypeConnection, "circuit breaker is open").
			WithDetail("breaker", cb.name)
	}

	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}

	cb.RecordSuccess()
	return nil
}

// Allow reports whether a request may proceed.
func (cb *HTTPCircuitBreaker) Allow() bool {
	switch CircuitState(atomic.LoadInt32(&cb.state)) {
	case StateClosed:
		return true

	case StateOpen:
		cb.mu.RLock()
		shouldRetry := time.Now().After(cb.nextRetryTime)
		cb.mu.RUnlock()

		if shouldRetry {
			cb.transitionToHalfOpen()
			return cb.allowHalfOpen()
		}
		return false

	case StateHalfOpen:
		return cb.allowHalfOpen()

	default:
		return false
	}
}

// RecordSuccess records a successful request.
func (cb *HTTPCircuitBreaker) RecordSuccess() {
	cb.window.RecordRequest(true)

	switch CircuitState(atomic.LoadInt32(&cb.state)) {
	case StateClosed:
		atomic.StoreInt32(&cb.consecutiveFailures, 0)

	case StateHalfOpen:
		successes := atomic.AddInt32(&cb.consecutiveSuccesses, 1)
		if successes >= int32(cb.config.SuccessThreshold) {
			cb.transitionToClosed()
		}
	}
}

// RecordFailure records a failed request. In half-open state any failure
// reopens the circuit.
func (cb *HTTPCircuitBreaker) RecordFailure() {
	cb.window.RecordRequest(false)

	switch CircuitState(atomic.LoadInt32(&cb.state)) {
	case StateClosed:
		failures := atomic.AddInt32(&cb.consecutiveFailures, 1)

		stats := cb.window.GetStats()
		rateTripped := stats.TotalRequests >= int64(cb.config.MinRequests) && stats.FailureRate > 0.5

		if failures >= int32(cb.config.FailureThreshold) || rateTripped {
			cb.transitionToOpen()
		}

	case StateHalfOpen:
		cb.transitionToOpen()
	}
}

func (cb *HTTPCircuitBreaker) allowHalfOpen() bool {
	if atomic.AddInt32(&cb.halfOpenCounter, 1) > cb.halfOpenLimit {
		atomic.AddInt32(&cb.halfOpenCounter, -1)
		return false
	}
	return true
}

func (cb *HTTPCircuitBreaker) transitionToOpen() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	atomic.StoreInt32(&cb.state, int32(StateOpen))
	cb.lastStateChange = time.Now()
	cb.nextRetryTime = cb.lastStateChange.Add(cb.config.Timeout)
	atomic.StoreInt32(&cb.consecutiveSuccesses, 0)
	atomic.StoreInt32(&cb.halfOpenCounter, 0)
	metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(float64(StateOpen))

	cb.logger.Warn("circuit breaker opened",
		zap.Time("retry_after", cb.nextRetryTime),
		zap.Int32("consecutive_failures", atomic.LoadInt32(&cb.consecutiveFailures)))
}

func (cb *HTTPCircuitBreaker) transitionToHalfOpen() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if atomic.CompareAndSwapInt32(&cb.state, int32(StateOpen), int32(StateHalfOpen)) {
		cb.lastStateChange = time.Now()
		atomic.StoreInt32(&cb.consecutiveFailures, 0)
		atomic.StoreInt32(&cb.consecutiveSuccesses, 0)
		atomic.StoreInt32(&cb.halfOpenCounter, 0)
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(float64(StateHalfOpen))

		cb.logger.Info("circuit breaker half-open")
	}
}

func (cb *HTTPCircuitBreaker) transitionToClosed() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if atomic.CompareAndSwapInt32(&cb.state, int32(StateHalfOpen), int32(StateClosed)) {
		cb.lastStateChange = time.Now()
		atomic.StoreInt32(&cb.consecutiveFailures, 0)
		atomic.StoreInt32(&cb.halfOpenCounter, 0)
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(float64(StateClosed))

		cb.logger.Info("circuit breaker closed")
	}
}

// State returns the current state
func (cb *HTTPCircuitBreaker) State() CircuitState {
	return CircuitState(atomic.LoadInt32(&cb.state))
}

// GetState returns the current state along with window statistics.
func (cb *HTTPCircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	stats := cb.window.GetStats()

	return CircuitBreakerState{
		State:                cb.State().String(),
		LastStateChange:      cb.lastStateChange,
		ConsecutiveFailures:  atomic.LoadInt32(&cb.consecutiveFailures),
		ConsecutiveSuccesses: atomic.LoadInt32(&cb.consecutiveSuccesses),
		TotalRequests:        stats.TotalRequests,
		FailedRequests:       stats.FailedRequests,
		FailureRate:          stats.FailureRate,
		NextRetryTime:        cb.nextRetryTime,
	}
}

// NewSlidingWindow creates a window of windowSize split into bucketSize buckets.
func NewSlidingWindow(bucketSize, windowSize time.Duration) *SlidingWindow {
	numBuckets := int(windowSize / bucketSize)
	if numBuckets < 1 {
		numBuckets = 1
	}
	return &SlidingWindow{
		buckets:        make([]int64, numBuckets),
		failureBuckets: make([]int64, numBuckets),
		bucketSize:     bucketSize,
		lastUpdate:     time.Now(),
	}
}

// RecordRequest records a request result in the sliding window.
func (sw *SlidingWindow) RecordRequest(success bool) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.updateBuckets()

	sw.buckets[sw.currentBucket]++
	if !success {
		sw.failureBuckets[sw.currentBucket]++
	}
}

func (sw *SlidingWindow) updateBuckets() {
	now := time.Now()
	elapsed := now.Sub(sw.lastUpdate)

	if elapsed >= sw.bucketSize {
		advance := int(elapsed / sw.bucketSize)
		if advance > len(sw.buckets) {
			advance = len(sw.buckets)
		}

		for i := 0; i < advance; i++ {
			sw.currentBucket = (sw.currentBucket + 1) % len(sw.buckets)
			sw.buckets[sw.currentBucket] = 0
			sw.failureBuckets[sw.currentBucket] = 0
		}

		sw.lastUpdate = now
	}
}

// GetStats returns totals over the whole window.
func (sw *SlidingWindow) GetStats() WindowStats {
	sw.mu.RLock()
	defer sw.mu.RUnlock()

	var totalRequests, totalFailures int64
	for i := range sw.buckets {
		totalRequests += sw.buckets[i]
		totalFailures += sw.failureBuckets[i]
	}

	failureRate := float64(0)
	if totalRequests > 0 {
		failureRate = float64(totalFailures) / float64(totalRequests)
	}

	return WindowStats{
		TotalRequests:  totalRequests,
		FailedRequests: totalFailures,
		FailureRate:    failureRate,
	}
}

// CircuitBreakerState represents the current state and statistics of a circuit breaker
type CircuitBreakerState struct {
	State                string    `json:"state"`
	LastStateChange      time.Time `json:"last_state_change"`
	ConsecutiveFailures  int32     `json:"consecutive_failures"`
	ConsecutiveSuccesses int32     `json:"consecutive_successes"`
	TotalRequests        int64     `json:"total_requests"`
	FailedRequests       int64     `json:"failed_requests"`
	FailureRate          float64   `json:"failure_rate"`
	NextRetryTime        time.Time `json:"next_retry_time,omitempty"`
}

// WindowStats represents statistics collected over a sliding time window
type WindowStats struct {
	TotalRequests  int64   `json:"total_requests"`
	FailedRequests int64   `json:"failed_requests"`
	FailureRate    float64 `json:"failure_rate"`
}
