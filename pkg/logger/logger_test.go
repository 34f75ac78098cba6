package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewWithCoreAppliesLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	l, err := New(Config{Level: "warn", Core: core})
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestNewWriterCore(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Core: NewWriterCore("json", &buf)})
	require.NoError(t, err)

	l.Debug("dropped")
	l.Info("kept", zap.String("doc", "d1"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"message":"kept"`)
	assert.Contains(t, lines[0], `"doc":"d1"`)
	assert.Contains(t, lines[0], `"level":"info"`)
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	ctx := context.WithValue(context.Background(), JobIDKey, "job-1")
	ctx = context.WithValue(ctx, OperationKey, "check")
	WithContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "job-1", fields["job_id"])
	assert.Equal(t, "check", fields["operation"])
	assert.NotContains(t, fields, "connector")
}

func TestGetDefaultsWhenUnset(t *testing.T) {
	Set(nil)
	assert.NotNil(t, Get())
}
