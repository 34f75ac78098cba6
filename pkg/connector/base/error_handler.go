package base

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

// ErrorHandler categorizes errors, decides whether they are worth retrying
// and keeps per-category counts.
type ErrorHandler struct {
	logger        *zap.Logger
	errorCounts   map[string]int64
	errorMutex    sync.RWMutex
	totalErrors   int64
	retriedErrors int64
	fatalErrors   int64
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:      logger,
		errorCounts: make(map[string]int64),
	}
}

// HandleError logs and counts err. The error is returned unchanged so callers
// can keep inspecting its type.
func (eh *ErrorHandler) HandleError(ctx context.Context, err error, details map[string]interface{}) error {
	if err == nil {
		return nil
	}

	atomic.AddInt64(&eh.totalErrors, 1)

	category := eh.categorizeError(err)
	eh.incrementErrorCount(category)

	fields := []zap.Field{
		zap.Error(err),
		zap.String("error_type", category),
	}
	if code := errors.StatusCode(err); code != 0 {
		fields = append(fields, zap.Int("status_code", code))
	}
	for k, v := range details {
		fields = append(fields, zap.Any(k, v))
	}

	if eh.ShouldRetry(err) {
		atomic.AddInt64(&eh.retriedErrors, 1)
		eh.logger.Warn("retryable error occurred", fields...)
	} else {
		atomic.AddInt64(&eh.fatalErrors, 1)
		eh.logger.Error("non-retryable error occurred", fields...)
	}
	return err
}

// ShouldRetry reports whether err is transient. Typed errors decide by type;
// foreign errors fall back to message patterns.
func (eh *ErrorHandler) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var typed *errors.Error
	if errors.As(err, &typed) {
		return errors.IsRetryable(err)
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout",
		"connection refused",
		"connection reset",
		"broken pipe",
		"temporary failure",
		"service unavailable",
		"too many requests",
		"eof",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// GetErrorStats returns error statistics
func (eh *ErrorHandler) GetErrorStats() map[string]interface{} {
	eh.errorMutex.RLock()
	defer eh.errorMutex.RUnlock()

	errorCounts := make(map[string]int64, len(eh.errorCounts))
	for k, v := range eh.errorCounts {
		errorCounts[k] = v
	}

	return map[string]interface{}{
		"total_errors":   atomic.LoadInt64(&eh.totalErrors),
		"retried_errors": atomic.LoadInt64(&eh.retriedErrors),
		"fatal_errors":   atomic.LoadInt64(&eh.fatalErrors),
		"errors_by_type": errorCounts,
	}
}

// ResetStats resets error statistics
func (eh *ErrorHandler) ResetStats() {
	eh.errorMutex.Lock()
	defer eh.errorMutex.Unlock()

	atomic.StoreInt64(&eh.totalErrors, 0)
	atomic.StoreInt64(&eh.retriedErrors, 0)
	atomic.StoreInt64(&eh.fatalErrors, 0)

	eh.errorCounts = make(map[string]int64)
}

func (eh *ErrorHandler) categorizeError(err error) string {
	var typed *errors.Error
	if errors.As(err, &typed) {
		return string(typed.Type)
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return string(errors.ErrorTypeTimeout)
	case strings.Contains(errStr, "connection"):
		return string(errors.ErrorTypeConnection)
	case strings.Contains(errStr, "parse") || strings.Contains(errStr, "unmarshal"):
		return string(errors.ErrorTypeData)
	default:
		return "unknown"
	}
}

func (eh *ErrorHandler) incrementErrorCount(category string) {
	eh.errorMutex.Lock()
	defer eh.errorMutex.Unlock()
	eh.errorCounts[category]++
}
