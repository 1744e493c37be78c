// Package cache provides the fast lookup tier for payload outputs.
//
// It exposes a FastCache interface with an in-memory implementation,
// covering output lookup/population and the atomic in-flight marking
// primitive that single-flight coalescing is built on. The interface is
// an abstraction over the capability set, not over a concrete backend:
// a networked shared tier can be substituted without touching callers.
package cache
