package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucketEntry holds a token bucket and its last access time for cleanup.
type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// BucketLimiter is an in-memory token-bucket limiter backed by
// golang.org/x/time/rate. Each unique key gets its own bucket. It guards the
// image proxy, where a smooth refill suits bursty page loads better than the
// contact form's hard sliding window. A background goroutine periodically
// evicts entries that have not been accessed within 2x the cleanup interval.
type BucketLimiter struct {
	rate            rate.Limit
	burst           int
	limit           int // requests per minute, for Info.Limit
	cleanupInterval time.Duration

	mu      sync.Mutex
	entries map[string]*bucketEntry
	done    chan struct{}
	closed  bool
}

// NewBucketLimiter creates a token-bucket limiter with the given
// requests-per-minute rate, burst size, and cleanup interval. It starts a
// background goroutine for eviction.
func NewBucketLimiter(requestsPerMinute int, burst int, cleanupInterval time.Duration) *BucketLimiter {
	b := &BucketLimiter{
		rate:            rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:           burst,
		limit:           requestsPerMinute,
		cleanupInterval: cleanupInterval,
		entries:         make(map[string]*bucketEntry),
		done:            make(chan struct{}),
	}
	go b.cleanup()
	return b
}

// Allow checks whether a request from the given key should be admitted.
func (b *BucketLimiter) Allow(key string) (bool, Info) {
	b.mu.Lock()
	e, exists := b.entries[key]
	if !exists {
		e = &bucketEntry{
			limiter: rate.NewLimiter(b.rate, b.burst),
		}
		b.entries[key] = e
	}
	e.lastSeen = time.Now()
	b.mu.Unlock()

	allowed := e.limiter.Allow()

	now := time.Now()
	tokens := e.limiter.TokensAt(now)
	remaining := int(math.Max(0, math.Floor(tokens)))

	// Reset time: how long until the bucket is full again.
	tokensNeeded := float64(b.burst) - tokens
	resetAt := now
	if tokensNeeded > 0 {
		resetAt = now.Add(time.Duration(tokensNeeded / float64(b.rate) * float64(time.Second)))
	}

	info := Info{
		Limit:     b.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}

	if !allowed {
		// Retry-after: time until the next token is available.
		reservation := e.limiter.Reserve()
		info.RetryAfter = reservation.Delay()
		reservation.Cancel()
	}

	return allowed, info
}

// Close stops the background cleanup goroutine.
func (b *BucketLimiter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
}

func (b *BucketLimiter) cleanup() {
	ticker := time.NewTicker(b.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.evictStale()
		}
	}
}

func (b *BucketLimiter) evictStale() {
	cutoff := time.Now().Add(-2 * b.cleanupInterval)
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, e := range b.entries {
		if e.lastSeen.Before(cutoff) {
			delete(b.entries, key)
		}
	}
}
