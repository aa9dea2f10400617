package ratelimit

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// DenyHandler writes the response body for a rate-limited request. The
// middleware has already written the rate limit headers and the 429 status is
// written by the handler so each endpoint keeps its own error envelope.
type DenyHandler func(w http.ResponseWriter, r *http.Request, info Info)

// Middleware returns HTTP middleware that enforces the given limiter, keyed
// by client identity. Standard X-RateLimit-* headers are set on every
// response; denied requests additionally get Retry-After and are answered by
// the deny handler.
func Middleware(limiter Limiter, deny DenyHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientIdentity(r)

			allowed, info := limiter.Allow(key)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetAt.Unix()))

			if !allowed {
				retryAfterSecs := int(info.RetryAfter.Seconds()) + 1
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))

				slog.Warn("Rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
					"limit", info.Limit,
					"retry_after", retryAfterSecs,
				)

				deny(w, r, info)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIdentity derives the rate limiting key from request origin metadata:
// the first element of the X-Forwarded-For chain, else X-Real-IP, else the
// peer address, else the "unknown" sentinel. The sentinel is a deliberate
// fallback, not an error: identity-less clients share one bucket.
func ClientIdentity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if ip := strings.TrimSpace(ips[0]); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return "unknown"
}
