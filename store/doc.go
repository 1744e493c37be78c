// Package store provides durable persistence of computed cache entries.
//
// The DurableStore is the system of record: one write-once entry per
// payload identifier, holding both the input payload and its computed
// output. Two implementations are provided: an in-memory store for tests
// and single-process use, and a file-backed store with atomic writes.
package store
