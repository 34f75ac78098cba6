// Package observability wires OpenTelemetry tracing for the Coda source.
//
// Tracing is off unless InitTracing is called; until then every span comes
// from the global no-op provider. Spans are exported as JSON to stderr so
// they never mix with the protocol stream on stdout.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/source-coda"

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64
	BatchTimeout   time.Duration
	PrettyPrint    bool

	// Writer receives exported spans; nil means os.Stderr
	Writer io.Writer
}

// DefaultTracingConfig returns a configuration that samples every span
func DefaultTracingConfig() TracingConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "production"
	}
	return TracingConfig{
		ServiceName:    "source-coda",
		ServiceVersion: "dev",
		Environment:    env,
		SamplingRate:   1.0,
		BatchTimeout:   time.Second,
	}
}

// InitTracing installs an SDK tracer provider with a stdout exporter as the
// global provider. Calling it again replaces the previous provider after
// shutting it down.
func InitTracing(ctx context.Context, config TracingConfig) error {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	w := config.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if config.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case config.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	batchTimeout := config.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
	)

	mu.Lock()
	previous := provider
	provider = tp
	mu.Unlock()

	otel.SetTracerProvider(tp)

	if previous != nil {
		return previous.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the connector's tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSpan starts a span named name as a child of any span in ctx
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Trace runs fn inside a span named name
func Trace(ctx context.Context, name string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := StartSpan(ctx, name, attrs...)
	err := fn(ctx)
	EndSpan(span, err)
	return err
}

// Shutdown flushes pending spans and stops the provider installed by
// InitTracing. It is a no-op when tracing was never initialized.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	mu.Unlock()

	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer: %w", err)
	}
	return nil
}
