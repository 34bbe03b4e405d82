package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
)

const instrumentationName = "github.com/vercel/v0-sdk-sub002"

// TracingConfig holds the configuration for tracing
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRatio  float64

	// Exporter receives finished spans. When nil the globally registered
	// TracerProvider is used instead of building one.
	Exporter sdktrace.SpanExporter
	// Synchronous exports each span as it ends instead of batching.
	Synchronous bool
}

// Tracer wraps an OpenTelemetry tracer with SDK-specific helpers
type Tracer struct {
	tracer     trace.Tracer
	provider   trace.TracerProvider
	sdk        *sdktrace.TracerProvider
	propagator propagation.TextMapPropagator
	enabled    bool
}

// NewTracer creates a new tracer instance
func NewTracer(cfg TracingConfig) (*Tracer, error) {
	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)

	if !cfg.Enabled {
		provider := noop.NewTracerProvider()
		return &Tracer{
			tracer:     provider.Tracer(instrumentationName),
			provider:   provider,
			propagator: propagator,
		}, nil
	}

	if cfg.Exporter == nil {
		provider := otel.GetTracerProvider()
		return &Tracer{
			tracer:     provider.Tracer(instrumentationName),
			provider:   provider,
			propagator: propagator,
			enabled:    true,
		}, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	)

	samplingRatio := cfg.SamplingRatio
	if samplingRatio <= 0 || samplingRatio > 1 {
		samplingRatio = 1.0
	}

	var export sdktrace.TracerProviderOption
	if cfg.Synchronous {
		export = sdktrace.WithSyncer(cfg.Exporter)
	} else {
		export = sdktrace.WithBatcher(cfg.Exporter)
	}

	tp := sdktrace.NewTracerProvider(
		export,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(samplingRatio))),
	)

	return &Tracer{
		tracer:     tp.Tracer(instrumentationName),
		provider:   tp,
		sdk:        tp,
		propagator: propagator,
		enabled:    true,
	}, nil
}

// Provider returns the provider spans are created from.
func (t *Tracer) Provider() trace.TracerProvider { return t.provider }

// Propagator returns the W3C trace-context and baggage propagator.
func (t *Tracer) Propagator() propagation.TextMapPropagator { return t.propagator }

// Enabled reports whether spans are being recorded.
func (t *Tracer) Enabled() bool { return t.enabled }

// StartSpan starts a new span with the given name and options
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// StartHTTPClientSpan starts a span for an HTTP client request
func (t *Tracer) StartHTTPClientSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("HTTP %s", method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
			attribute.String("component", "http_client"),
		),
	)
}

// RecordHTTPResponse records HTTP response information
func (t *Tracer) RecordHTTPResponse(span trace.Span, statusCode int, responseSize int64) {
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Int64("http.response_content_length", responseSize),
	)
}

// RecordError records an error on the span and marks it failed. API
// errors also contribute their kind and request ID.
func (t *Tracer) RecordError(span trace.Span, err error, description string) {
	if err == nil {
		return
	}
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		span.SetAttributes(
			attribute.String("v0.error.kind", apiErr.Kind.String()),
			attribute.Int("http.status_code", apiErr.StatusCode),
		)
		if apiErr.RequestID != "" {
			span.SetAttributes(attribute.String("v0.request_id", apiErr.RequestID))
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, description)
}

// Close flushes and shuts down a provider owned by this tracer.
func (t *Tracer) Close(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}
	return t.sdk.Shutdown(ctx)
}
