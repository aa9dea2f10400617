package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func jsonDeny(w http.ResponseWriter, r *http.Request, _ Info) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "rate limited"})
}

func TestMiddleware_AllowedRequest(t *testing.T) {
	limiter := NewWindowLimiter(5, 10*time.Minute, 5*time.Minute)
	defer limiter.Close()

	handler := Middleware(limiter, jsonDeny)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("POST", "/api/v1/contact", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Reset"))
}

func TestMiddleware_DeniedRequest(t *testing.T) {
	limiter := NewWindowLimiter(2, 10*time.Minute, 5*time.Minute)
	defer limiter.Close()

	handler := Middleware(limiter, jsonDeny)(http.HandlerFunc(okHandler))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/v1/contact", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	// Third request should be denied by the deny handler
	req := httptest.NewRequest("POST", "/api/v1/contact", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))

	var errResp map[string]interface{}
	err := json.NewDecoder(rr.Body).Decode(&errResp)
	require.NoError(t, err)
	assert.Equal(t, false, errResp["ok"])
}

func TestMiddleware_SeparateClientsSeparateBudgets(t *testing.T) {
	limiter := NewWindowLimiter(1, 10*time.Minute, 5*time.Minute)
	defer limiter.Close()

	handler := Middleware(limiter, jsonDeny)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("POST", "/api/v1/contact", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest("POST", "/api/v1/contact", nil)
	req.RemoteAddr = "192.168.1.2:12345"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "a different client has its own budget")
}

func TestClientIdentity(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xRealIP    string
		remoteAddr string
		expected   string
	}{
		{
			name:       "forwarded chain takes first element",
			xff:        "203.0.113.7, 10.0.0.1, 10.0.0.2",
			xRealIP:    "198.51.100.1",
			remoteAddr: "10.0.0.3:443",
			expected:   "203.0.113.7",
		},
		{
			name:       "forwarded single value",
			xff:        "203.0.113.7",
			remoteAddr: "10.0.0.3:443",
			expected:   "203.0.113.7",
		},
		{
			name:       "real ip wins over peer address",
			xRealIP:    "198.51.100.1",
			remoteAddr: "10.0.0.3:443",
			expected:   "198.51.100.1",
		},
		{
			name:       "peer address with port stripped",
			remoteAddr: "10.0.0.3:443",
			expected:   "10.0.0.3",
		},
		{
			name:       "peer address without port",
			remoteAddr: "10.0.0.3",
			expected:   "10.0.0.3",
		},
		{
			name:     "no origin metadata falls back to sentinel",
			expected: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			assert.Equal(t, tt.expected, ClientIdentity(req))
		})
	}
}
