package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Resolve and fetch outcomes recorded as metric attributes.
const (
	OutcomeHitFast   = "hit_fast"   // served from the fast tier
	OutcomeHitStore  = "hit_store"  // served from the durable store
	OutcomeComputed  = "computed"   // this caller ran the transform
	OutcomeCoalesced = "coalesced"  // waited on another caller's computation
	OutcomeMiss      = "miss"       // fetch for an unknown id
	OutcomeTimeout   = "timeout"    // waiter exceeded the bounded wait
	OutcomeError     = "error"      // operation failed
)

// Metrics records cache operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordResolve records one resolve call with its outcome.
	RecordResolve(ctx context.Context, outcome string, duration time.Duration)

	// RecordFetch records one fetch call with its outcome.
	RecordFetch(ctx context.Context, outcome string, duration time.Duration)

	// RecordTransform records one transform invocation.
	RecordTransform(ctx context.Context, duration time.Duration, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	resolveTotal      metric.Int64Counter
	resolveDuration   metric.Float64Histogram
	fetchTotal        metric.Int64Counter
	fetchDuration     metric.Float64Histogram
	transformTotal    metric.Int64Counter
	transformErrors   metric.Int64Counter
	transformDuration metric.Float64Histogram
}

// NewMetrics creates a Metrics instance on the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	resolveTotal, err := meter.Int64Counter(
		"cache.resolve.total",
		metric.WithDescription("Total number of resolve calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	resolveDuration, err := meter.Float64Histogram(
		"cache.resolve.duration_ms",
		metric.WithDescription("Resolve duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	fetchTotal, err := meter.Int64Counter(
		"cache.fetch.total",
		metric.WithDescription("Total number of fetch calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"cache.fetch.duration_ms",
		metric.WithDescription("Fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	transformTotal, err := meter.Int64Counter(
		"cache.transform.total",
		metric.WithDescription("Total number of transform invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	transformErrors, err := meter.Int64Counter(
		"cache.transform.errors",
		metric.WithDescription("Total number of transform failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	transformDuration, err := meter.Float64Histogram(
		"cache.transform.duration_ms",
		metric.WithDescription("Transform duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		resolveTotal:      resolveTotal,
		resolveDuration:   resolveDuration,
		fetchTotal:        fetchTotal,
		fetchDuration:     fetchDuration,
		transformTotal:    transformTotal,
		transformErrors:   transformErrors,
		transformDuration: transformDuration,
	}, nil
}

func (m *metricsImpl) RecordResolve(ctx context.Context, outcome string, duration time.Duration) {
	opt := metric.WithAttributes(attribute.String("cache.outcome", outcome))
	m.resolveTotal.Add(ctx, 1, opt)
	m.resolveDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordFetch(ctx context.Context, outcome string, duration time.Duration) {
	opt := metric.WithAttributes(attribute.String("cache.outcome", outcome))
	m.fetchTotal.Add(ctx, 1, opt)
	m.fetchDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordTransform(ctx context.Context, duration time.Duration, err error) {
	m.transformTotal.Add(ctx, 1)
	if err != nil {
		m.transformErrors.Add(ctx, 1)
	}
	m.transformDuration.Record(ctx, float64(duration.Milliseconds()))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordResolve(ctx context.Context, outcome string, duration time.Duration) {}
func (m *noopMetrics) RecordFetch(ctx context.Context, outcome string, duration time.Duration)   {}
func (m *noopMetrics) RecordTransform(ctx context.Context, duration time.Duration, err error)    {}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return &noopMetrics{}
}

// Ensure implementations satisfy Metrics
var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = (*noopMetrics)(nil)
)
