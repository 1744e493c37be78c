package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Operation describes one cache operation for telemetry purposes.
type Operation struct {
	Name      string // resolve|fetch|transform
	PayloadID string // derived identifier, may be empty before derivation
}

// SpanName returns the deterministic span name for this operation.
// Format: cache.<name>
func (o Operation) SpanName() string {
	return "cache." + o.Name
}

// Tracer wraps OpenTelemetry tracing with cache-operation span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a cache operation.
	StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// NopTracer returns a Tracer that records nothing.
func NopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}

// StartSpan starts a new span with operation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("cache.operation", op.Name),
	}
	if op.PayloadID != "" {
		attrs = append(attrs, attribute.String("payload.id", op.PayloadID))
	}

	return t.tracer.Start(ctx, op.SpanName(), trace.WithAttributes(attrs...))
}

// EndSpan ends the span, marking status from the error.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Ensure tracerImpl implements Tracer
var _ Tracer = (*tracerImpl)(nil)
