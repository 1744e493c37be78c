// Package health provides liveness and readiness checks for the caching
// service: a Checker interface, probes for the durable store and the
// fast tier, an aggregator, and net/http handlers.
package health
