// Package base provides the BaseConnector that connectors embed. It wires the
// shared reliability plumbing: retry policy, error categorization, metrics
// collection and traversal progress reporting.
//
// # Usage
//
//	type MySource struct {
//	    *base.BaseConnector
//	}
//
//	func NewMySource() *MySource {
//	    return &MySource{
//	        BaseConnector: base.NewBaseConnector("my-source", core.ConnectorTypeSource, "1.0.0"),
//	    }
//	}
//
// Call Initialize with the loaded configuration before using the retry
// helpers.
package base

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/source-coda/pkg/config"
	"github.com/ajitpratap0/source-coda/pkg/connector/core"
	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/logger"
	"github.com/ajitpratap0/source-coda/pkg/metrics"
)

// BaseConnector provides common functionality for all connectors.
type BaseConnector struct {
	name          string
	connectorType core.ConnectorType
	version       string
	config        *config.BaseConfig
	logger        *zap.Logger

	closed     bool
	closeMutex sync.Mutex

	metricsCollector *metrics.Collector
	errorHandler     *ErrorHandler
	retryPolicy      *RetryPolicy
}

// NewBaseConnector creates a new base connector with the specified name, type, and version.
func NewBaseConnector(name string, connectorType core.ConnectorType, version string) *BaseConnector {
	l := logger.Get().With(zap.String("connector", name))
	return &BaseConnector{
		name:             name,
		connectorType:    connectorType,
		version:          version,
		logger:           l,
		metricsCollector: metrics.NewCollector(name),
		errorHandler:     NewErrorHandler(l),
		retryPolicy:      NoRetryPolicy(),
	}
}

// Initialize applies the shared configuration: the retry policy follows
// cfg.Reliability, where RetryAttempts counts retries after the first call.
func (bc *BaseConnector) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if cfg == nil {
		return errors.New(errors.ErrorTypeConfig, "configuration is required")
	}
	bc.config = cfg
	bc.logger = logger.WithContext(ctx).With(zap.String("connector", bc.name))
	bc.errorHandler = NewErrorHandler(bc.logger)

	policy := NewRetryPolicy(cfg.Reliability.RetryAttempts+1, cfg.Reliability.RetryDelay)
	if cfg.Reliability.RetryMultiplier >= 1 {
		policy.Multiplier = cfg.Reliability.RetryMultiplier
	}
	if cfg.Reliability.MaxRetryDelay > 0 {
		policy.MaxDelay = cfg.Reliability.MaxRetryDelay
	}
	bc.retryPolicy = policy

	bc.logger.Debug("connector initialized",
		zap.String("type", string(bc.connectorType)),
		zap.String("version", bc.version),
		zap.Int("max_attempts", policy.MaxAttempts))

	return nil
}

// Name returns the connector name
func (bc *BaseConnector) Name() string {
	return bc.name
}

// Type returns the connector type
func (bc *BaseConnector) Type() core.ConnectorType {
	return bc.connectorType
}

// Version returns the connector version
func (bc *BaseConnector) Version() string {
	return bc.version
}

// Metrics returns current metrics
func (bc *BaseConnector) Metrics() map[string]interface{} {
	m := bc.metricsCollector.GetAll()

	m["name"] = bc.name
	m["type"] = bc.connectorType
	m["version"] = bc.version
	m["errors"] = bc.errorHandler.GetErrorStats()

	return m
}

// Close shuts down the connector
func (bc *BaseConnector) Close(ctx context.Context) error {
	bc.closeMutex.Lock()
	defer bc.closeMutex.Unlock()

	if bc.closed {
		return nil
	}
	bc.closed = true
	bc.logger.Debug("connector closed")
	return nil
}

// ExecuteWithRetry runs fn under the retry policy. Only errors the error
// handler considers transient are retried; every failed attempt is logged
// and counted.
//
// Example:
//
//	err := connector.ExecuteWithRetry(ctx, "list_docs", func() error {
//	    return apiClient.Fetch(ctx)
//	})
func (bc *BaseConnector) ExecuteWithRetry(ctx context.Context, operation string, fn func() error) error {
	policy := bc.retryPolicy.Clone()
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.APIRetries.WithLabelValues(operation).Inc()
		bc.logger.Info("retrying operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	return policy.ExecuteWithCondition(ctx, func() error {
		err := fn()
		if err != nil {
			_ = bc.errorHandler.HandleError(ctx, err, map[string]interface{}{"operation": operation})
		}
		return err
	}, bc.errorHandler.ShouldRetry)
}

// RecordOperation records the outcome of a protocol operation
func (bc *BaseConnector) RecordOperation(operation string, start time.Time, err error) {
	bc.metricsCollector.RecordOperation(operation, time.Since(start), err)
}

// NewProgressReporter returns a reporter bound to this connector's logger
// and collector
func (bc *BaseConnector) NewProgressReporter() *ProgressReporter {
	return NewProgressReporter(bc.logger, bc.metricsCollector)
}

// ShouldRetry checks if an error should be retried
func (bc *BaseConnector) ShouldRetry(err error) bool {
	return bc.errorHandler.ShouldRetry(err)
}

// GetLogger returns the connector logger
func (bc *BaseConnector) GetLogger() *zap.Logger {
	return bc.logger
}

// GetConfig returns the connector configuration
func (bc *BaseConnector) GetConfig() *config.BaseConfig {
	return bc.config
}

// GetRetryPolicy returns the retry policy
func (bc *BaseConnector) GetRetryPolicy() *RetryPolicy {
	return bc.retryPolicy
}

// GetErrorHandler returns the error handler
func (bc *BaseConnector) GetErrorHandler() *ErrorHandler {
	return bc.errorHandler
}

// GetMetricsCollector returns the metrics collector
func (bc *BaseConnector) GetMetricsCollector() *metrics.Collector {
	return bc.metricsCollector
}
