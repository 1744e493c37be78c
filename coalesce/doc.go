// Package coalesce provides single-flight request coalescing per payload
// identifier.
//
// At most one computation runs per id: in-process duplicates collapse onto
// one leader via singleflight, and cross-process ownership is decided by
// the fast cache's atomic in-flight mark. Callers that lose the ownership
// race wait, bounded by a configurable maximum, for the owner's result to
// appear in the fast tier. A bounded lease on the in-flight mark lets a
// waiter take over after a crashed owner.
package coalesce
