// Package api exposes the caching service over HTTP.
//
// Two endpoints map onto the controller operations: POST /payload invokes
// Resolve and returns the deterministic payload id, GET /payload/{id}
// invokes Fetch and returns the cached output or 404. Structural request
// validation happens here, before anything reaches the cache core.
package api
