package observe

import (
	"context"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"minimal", Config{ServiceName: "cachingsvc"}, false},
		{"missing service name", Config{}, true},
		{
			"valid tracing",
			Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 0.5}},
			false,
		},
		{
			"unknown tracing exporter",
			Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "zipkin"}},
			true,
		},
		{
			"sample pct out of range",
			Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.5}},
			true,
		},
		{
			"unknown metrics exporter",
			Config{ServiceName: "s", Metrics: MetricsConfig{Enabled: true, Exporter: "statsd"}},
			true,
		},
		{
			"unknown log level",
			Config{ServiceName: "s", Logging: LoggingConfig{Enabled: true, Level: "trace"}},
			true,
		},
		{
			"disabled subsystems skip validation",
			Config{ServiceName: "s", Tracing: TracingConfig{Exporter: "zipkin"}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	ctx := context.Background()

	obs, err := NewObserver(ctx, Config{ServiceName: "cachingsvc"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	// Noop primitives must be usable without panicking.
	_, span := obs.Tracer().Start(ctx, "test")
	span.End()
	obs.Logger().Info(ctx, "noop")

	if err := obs.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNopMetrics_DoesNotPanic(t *testing.T) {
	m := NopMetrics()
	ctx := context.Background()

	m.RecordResolve(ctx, OutcomeHitFast, time.Millisecond)
	m.RecordFetch(ctx, OutcomeMiss, time.Millisecond)
	m.RecordTransform(ctx, time.Millisecond, nil)
}

func TestOperation_SpanName(t *testing.T) {
	op := Operation{Name: "resolve", PayloadID: "abc"}
	if got := op.SpanName(); got != "cache.resolve" {
		t.Errorf("SpanName() = %q, want %q", got, "cache.resolve")
	}
}
