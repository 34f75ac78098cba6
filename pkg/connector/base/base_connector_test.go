package base

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/source-coda/pkg/config"
	"github.com/ajitpratap0/source-coda/pkg/connector/core"
	"github.com/ajitpratap0/source-coda/pkg/errors"
)

func TestBaseConnectorInitializeBuildsRetryPolicy(t *testing.T) {
	bc := NewBaseConnector("test", core.ConnectorTypeSource, "0.1.0")
	assert.Equal(t, 1, bc.GetRetryPolicy().MaxAttempts)

	cfg := config.NewBaseConfig()
	cfg.Reliability.RetryAttempts = 2
	cfg.Reliability.RetryDelay = time.Millisecond
	cfg.Reliability.MaxRetryDelay = 5 * time.Millisecond
	require.NoError(t, bc.Initialize(context.Background(), cfg))

	policy := bc.GetRetryPolicy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, time.Millisecond, policy.InitialDelay)
	assert.Equal(t, 5*time.Millisecond, policy.MaxDelay)
	assert.Same(t, cfg, bc.GetConfig())

	assert.Error(t, bc.Initialize(context.Background(), nil))
}

func TestBaseConnectorExecuteWithRetry(t *testing.T) {
	bc := NewBaseConnector("test", core.ConnectorTypeSource, "0.1.0")
	cfg := config.NewBaseConfig()
	cfg.Reliability.RetryAttempts = 2
	cfg.Reliability.RetryDelay = time.Millisecond
	require.NoError(t, bc.Initialize(context.Background(), cfg))

	calls := 0
	err := bc.ExecuteWithRetry(context.Background(), "list_docs", func() error {
		calls++
		return errors.FromHTTPStatus(500, "")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = bc.ExecuteWithRetry(context.Background(), "list_docs", func() error {
		calls++
		return errors.FromHTTPStatus(403, "")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))

	m := bc.Metrics()
	assert.Equal(t, "test", m["name"])
	assert.Equal(t, int64(4), m["errors"].(map[string]interface{})["total_errors"])
}

func TestBaseConnectorRecordOperationAndClose(t *testing.T) {
	bc := NewBaseConnector("ops", core.ConnectorTypeSource, "0.1.0")
	bc.RecordOperation("check", time.Now(), nil)

	assert.Equal(t, int64(1), bc.Metrics()["check.success"])
	require.NoError(t, bc.Close(context.Background()))
	require.NoError(t, bc.Close(context.Background()))
}

func TestProgressReporter(t *testing.T) {
	bc := NewBaseConnector("progress", core.ConnectorTypeSource, "0.1.0")
	pr := bc.NewProgressReporter()
	pr.SetReportInterval(time.Millisecond)
	pr.Start()

	pr.AddDocuments(2)
	pr.AddTables(3)
	pr.AddPages(3)
	pr.AddRecords(1)
	time.Sleep(5 * time.Millisecond)
	pr.Stop()
	pr.Stop()

	s := pr.GetSnapshot()
	assert.Equal(t, int64(2), s.Documents)
	assert.Equal(t, int64(3), s.Tables)
	assert.Equal(t, int64(3), s.Pages)
	assert.Equal(t, int64(1), s.Records)
	assert.Equal(t, int64(2), bc.Metrics()["documents_visited"])
	assert.Equal(t, int64(3), bc.Metrics()["pages_fetched"])
}
