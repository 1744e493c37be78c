// Package observe provides observability primitives for the caching
// service: a structured JSON logger, OpenTelemetry tracing, and cache
// domain metrics.
//
// It is a pure instrumentation library: no transport and no I/O beyond
// exporter setup. The controller and HTTP layer wire the observer in.
package observe
