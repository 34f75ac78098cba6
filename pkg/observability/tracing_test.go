package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTraceRecordsStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	boom := errors.New("boom")

	err := Trace(context.Background(), "coda.list_docs", func(ctx context.Context) error {
		return nil
	}, attribute.String("endpoint", "docs"))
	require.NoError(t, err)

	err = Trace(context.Background(), "coda.list_tables", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "coda.list_docs", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("endpoint", "docs"))

	assert.Equal(t, "coda.list_tables", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
}

func TestInitTracingExportsToWriter(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Writer = &buf

	ctx := context.Background()
	require.NoError(t, InitTracing(ctx, cfg))

	_, span := StartSpan(ctx, "source.check")
	EndSpan(span, nil)

	require.NoError(t, Shutdown(ctx))
	assert.Contains(t, buf.String(), "source.check")
	assert.Contains(t, buf.String(), "source-coda")

	// second shutdown is a no-op
	assert.NoError(t, Shutdown(ctx))
}
