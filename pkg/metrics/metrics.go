// Package metrics provides Prometheus instrumentation for the Coda source.
//
// The connector is a short-lived process, so nothing is served over HTTP.
// Instead the default registry can be dumped in the node-exporter textfile
// format when the process exits:
//
//	defer metrics.WriteTextfile("/var/lib/node_exporter/source_coda.prom")
//
// # Basic Usage
//
//	timer := metrics.NewTimer("check")
//	err := runCheck(ctx)
//	metrics.ObserveOperation("check", timer.Stop(), err)
//
//	metrics.RecordsEmitted.WithLabelValues("CodaRows").Inc()
package metrics

import (
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/process"
)

// Collector records per-component operation outcomes. Each connector
// creates its own collector.
type Collector struct {
	name      string
	startTime time.Time

	mu     sync.RWMutex
	counts map[string]int64
}

// NewCollector creates a new metrics collector for a component.
// The name parameter identifies the component in metric labels.
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		startTime: time.Now(),
		counts:    make(map[string]int64),
	}
}

// Name returns the component name
func (c *Collector) Name() string {
	return c.name
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// RecordOperation observes a finished operation and keeps a local tally
// that GetAll reports.
func (c *Collector) RecordOperation(operation string, duration time.Duration, err error) {
	status := statusLabel(err)
	ComponentOperations.WithLabelValues(c.name, operation, status).Inc()
	OperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())

	c.mu.Lock()
	c.counts[operation+"."+status]++
	c.mu.Unlock()
}

// RecordCounter adds value to the tally for name without touching Prometheus.
func (c *Collector) RecordCounter(name string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name] += value
}

// GetAll returns all current metric values
func (c *Collector) GetAll() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := map[string]interface{}{
		"component":  c.name,
		"start_time": c.startTime,
		"uptime":     time.Since(c.startTime).Seconds(),
	}
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

var (
	// MessagesEmitted counts protocol envelopes written to stdout.
	// Labels: type (SPEC, LOG, CONNECTION_STATUS, CATALOG, RECORD, STATE)
	MessagesEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_coda_messages_emitted_total",
			Help: "Total number of protocol messages emitted",
		},
		[]string{"type"},
	)

	// RecordsEmitted counts RECORD envelopes per stream
	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_coda_records_emitted_total",
			Help: "Total number of records emitted",
		},
		[]string{"stream"},
	)

	// APIRequests counts Coda API exchanges.
	// Labels: endpoint (docs, tables, rows), code (HTTP status or "error")
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_coda_api_requests_total",
			Help: "Total number of Coda API requests",
		},
		[]string{"endpoint", "code"},
	)

	// APIRequestDuration tracks Coda API latency in seconds
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_coda_api_request_duration_seconds",
			Help:    "Coda API request latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	// APIRetries counts retried Coda API calls
	APIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_coda_api_retries_total",
			Help: "Total number of retried Coda API requests",
		},
		[]string{"endpoint"},
	)

	// OperationDuration tracks protocol operation wall time in seconds.
	// Labels: operation (spec, check, discover, read), status (success/failure)
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_coda_operation_duration_seconds",
			Help:    "Protocol operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	// ComponentOperations counts operations per component
	ComponentOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_coda_component_operations_total",
			Help: "Total number of operations per component",
		},
		[]string{"component", "operation", "status"},
	)

	// CircuitBreakerState tracks breaker state (0 closed, 1 half-open, 2 open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "source_coda_circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)

	// ProcessResidentMemory tracks the connector's RSS at sample time
	ProcessResidentMemory = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "source_coda_process_resident_memory_bytes",
			Help: "Resident set size of the connector process in bytes",
		},
	)
)

// ObserveOperation records a protocol operation outcome.
func ObserveOperation(operation string, duration time.Duration, err error) {
	OperationDuration.WithLabelValues(operation, statusLabel(err)).Observe(duration.Seconds())
}

// SampleProcessMemory stores the current RSS in ProcessResidentMemory and
// returns it.
func SampleProcessMemory() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	ProcessResidentMemory.Set(float64(info.RSS))
	return info.RSS, nil
}

// WriteTextfile writes every metric in the default registry to path in the
// Prometheus text format. The file is replaced atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func statusLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the label the timer was created with
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
