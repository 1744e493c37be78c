// Package controller orchestrates the cache core: identifier derivation,
// two-tier lookup, single-flight computation, and persistence.
//
// It exposes the two public operations of the service: Resolve, the write
// path returning a deterministic payload id, and Fetch, the read-through
// path returning a previously computed output.
package controller
