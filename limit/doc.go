// Package limit provides admission control for the HTTP API: a token
// bucket bounding request rate and a concurrency cap bounding requests
// in flight. Both protect the cache core from overload; neither retries
// or queues beyond its configured wait.
package limit
