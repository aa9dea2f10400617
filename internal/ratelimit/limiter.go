// Package ratelimit provides per-client rate limiting for HTTP requests. Two
// policies are implemented: a sliding-window timestamp log used by the contact
// form (exact "N requests per rolling window" semantics) and a token bucket
// used by the image proxy. Both are keyed by client identity and include HTTP
// middleware that sets standard rate limit response headers.
package ratelimit

import "time"

// Limiter defines the rate limiting contract. Implementations must be safe
// for concurrent use.
type Limiter interface {
	// Allow checks whether a request identified by key should be admitted.
	// Returns whether the request is admitted and rate information for
	// populating response headers.
	Allow(key string) (allowed bool, info Info)

	// Close stops background goroutines and releases resources.
	Close()
}

// Info contains rate limit state for populating response headers.
type Info struct {
	Limit      int           // Maximum requests per window
	Remaining  int           // Requests left in the current window
	ResetAt    time.Time     // When capacity is fully restored
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}
