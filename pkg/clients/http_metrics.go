package clients

import (
	"sync"
	"sync/atomic"
	"time"
)

// HTTPMetrics keeps in-process request statistics for GetStats. Prometheus
// series are recorded by the API client, which knows the endpoint names.
type HTTPMetrics struct {
	totalRequests      int64
	successfulRequests int64
	failedRequests     int64

	mu             sync.RWMutex
	latencySamples []time.Duration
	sampleIndex    int
	sampleCount    int
	maxLatency     time.Duration
	errorsByHost   map[string]int64
}

// NewHTTPMetrics creates a tracker that keeps the last 256 latency samples
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		latencySamples: make([]time.Duration, 256),
		errorsByHost:   make(map[string]int64),
	}
}

// RecordRequest records one exchange
func (hm *HTTPMetrics) RecordRequest(method, host string, latency time.Duration, err error) {
	atomic.AddInt64(&hm.totalRequests, 1)
	if err != nil {
		atomic.AddInt64(&hm.failedRequests, 1)
	} else {
		atomic.AddInt64(&hm.successfulRequests, 1)
	}

	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.latencySamples[hm.sampleIndex] = latency
	hm.sampleIndex = (hm.sampleIndex + 1) % len(hm.latencySamples)
	if hm.sampleCount < len(hm.latencySamples) {
		hm.sampleCount++
	}
	if latency > hm.maxLatency {
		hm.maxLatency = latency
	}
	if err != nil {
		hm.errorsByHost[method+" "+host]++
	}
}

// GetAverageLatency returns the mean over the retained samples
func (hm *HTTPMetrics) GetAverageLatency() time.Duration {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	if hm.sampleCount == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < hm.sampleCount; i++ {
		total += hm.latencySamples[i]
	}
	return total / time.Duration(hm.sampleCount)
}

// GetMaxLatency returns the slowest exchange seen
func (hm *HTTPMetrics) GetMaxLatency() time.Duration {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return hm.maxLatency
}

// GetErrors returns transport failures keyed by "METHOD host"
func (hm *HTTPMetrics) GetErrors() map[string]int64 {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	out := make(map[string]int64, len(hm.errorsByHost))
	for k, v := range hm.errorsByHost {
		out[k] = v
	}
	return out
}

// Totals returns total, successful and failed request counts
func (hm *HTTPMetrics) Totals() (total, successful, failed int64) {
	return atomic.LoadInt64(&hm.totalRequests),
		atomic.LoadInt64(&hm.successfulRequests),
		atomic.LoadInt64(&hm.failedRequests)
}
