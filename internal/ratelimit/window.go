package ratelimit

import (
	"sync"
	"time"
)

// WindowLimiter is a sliding-window rate limiter. Each key holds the
// timestamps of its admitted requests within the trailing window; a request
// is admitted only while fewer than limit timestamps survive pruning. Denied
// requests are not recorded, so hammering a limited client does not extend
// its lockout.
//
// The prune-check-append sequence for a key runs as one critical section:
// two simultaneous requests from the same client at the limit boundary can
// never both be admitted. A background goroutine evicts keys that have been
// idle longer than 2x the cleanup interval so the key map does not grow with
// every client the process has ever seen.
type WindowLimiter struct {
	limit           int
	window          time.Duration
	cleanupInterval time.Duration

	mu      sync.Mutex
	windows map[string][]time.Time
	done    chan struct{}
	closed  bool
}

// NewWindowLimiter creates a sliding-window limiter admitting at most limit
// requests per key within the given window. It starts a background goroutine
// for eviction.
func NewWindowLimiter(limit int, window time.Duration, cleanupInterval time.Duration) *WindowLimiter {
	w := &WindowLimiter{
		limit:           limit,
		window:          window,
		cleanupInterval: cleanupInterval,
		windows:         make(map[string][]time.Time),
		done:            make(chan struct{}),
	}
	go w.cleanup()
	return w
}

// Allow checks whether a request from the given key should be admitted.
func (w *WindowLimiter) Allow(key string) (bool, Info) {
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	recent := pruneBefore(w.windows[key], now.Add(-w.window))

	info := Info{
		Limit:     w.limit,
		Remaining: w.limit - len(recent),
		ResetAt:   now,
	}
	if len(recent) > 0 {
		info.ResetAt = recent[0].Add(w.window)
	}

	if len(recent) >= w.limit {
		info.Remaining = 0
		info.RetryAfter = recent[0].Add(w.window).Sub(now)
		w.windows[key] = recent
		return false, info
	}

	recent = append(recent, now)
	w.windows[key] = recent
	info.Remaining = w.limit - len(recent)
	return true, info
}

// Close stops the background cleanup goroutine.
func (w *WindowLimiter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.done)
	}
}

// pruneBefore drops timestamps older than the cutoff. Timestamps are stored
// in admission order, so the survivors are a suffix of the slice.
func pruneBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(timestamps) && !timestamps[i].After(cutoff) {
		i++
	}
	return timestamps[i:]
}

// cleanup periodically evicts keys whose newest timestamp is older than both
// the window and 2x the cleanup interval.
func (w *WindowLimiter) cleanup() {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.evictStale()
		}
	}
}

func (w *WindowLimiter) evictStale() {
	idle := 2 * w.cleanupInterval
	if w.window > idle {
		idle = w.window
	}
	cutoff := time.Now().Add(-idle)

	w.mu.Lock()
	defer w.mu.Unlock()
	for key, timestamps := range w.windows {
		if len(timestamps) == 0 || timestamps[len(timestamps)-1].Before(cutoff) {
			delete(w.windows, key)
		}
	}
}
