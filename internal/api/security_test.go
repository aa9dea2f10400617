package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"siteapi/internal/mail"
	"siteapi/internal/models"
	"siteapi/internal/ratelimit"
)

func postContact(t *testing.T, router http.Handler, remoteAddr string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/contact", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestContactRateLimit_EndToEnd(t *testing.T) {
	mockDispatcher := &MockDispatcher{}
	mockDispatcher.On("Send", mock.Anything, mock.Anything).Return(nil)

	limiter := ratelimit.NewWindowLimiter(5, 10*time.Minute, 5*time.Minute)
	defer limiter.Close()

	handlers := newTestHandlers(mockDispatcher, "hizliresim.com")
	router := SetupRoutes(handlers, models.NewDefaultConfig(),
		WithContactRateLimiter(limiter))

	// First five submissions from one client go through
	for i := 0; i < 5; i++ {
		rr := postContact(t, router, "203.0.113.7:12345", validContactBody())
		require.Equal(t, http.StatusOK, rr.Code, "submission %d", i+1)
	}

	// The sixth is throttled, in the contact envelope
	rr := postContact(t, router, "203.0.113.7:12345", validContactBody())
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	var resp models.ContactResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp.OK)
	assert.Equal(t, models.MsgRateLimited, resp.Error)

	// A throttled submission never reaches the dispatcher
	mockDispatcher.AssertNumberOfCalls(t, "Send", 5)
}

func TestContactRateLimit_PerClient(t *testing.T) {
	mockDispatcher := &MockDispatcher{}
	mockDispatcher.On("Send", mock.Anything, mock.Anything).Return(nil)

	limiter := ratelimit.NewWindowLimiter(1, 10*time.Minute, 5*time.Minute)
	defer limiter.Close()

	handlers := newTestHandlers(mockDispatcher, "hizliresim.com")
	router := SetupRoutes(handlers, models.NewDefaultConfig(),
		WithContactRateLimiter(limiter))

	rr := postContact(t, router, "203.0.113.7:12345", validContactBody())
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postContact(t, router, "203.0.113.7:12345", validContactBody())
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Another client still has its full budget
	rr = postContact(t, router, "198.51.100.1:12345", validContactBody())
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestContactRateLimit_RejectedSubmissionsStillConsumeBudget(t *testing.T) {
	mockDispatcher := &MockDispatcher{}

	limiter := ratelimit.NewWindowLimiter(2, 10*time.Minute, 5*time.Minute)
	defer limiter.Close()

	handlers := newTestHandlers(mockDispatcher, "hizliresim.com")
	router := SetupRoutes(handlers, models.NewDefaultConfig(),
		WithContactRateLimiter(limiter))

	// Invalid submissions pass the limiter first, so they consume budget even
	// though they never reach the dispatcher
	invalid := []byte(`{"name":"","email":"","subject":"","message":""}`)
	for i := 0; i < 2; i++ {
		rr := postContact(t, router, "203.0.113.7:12345", invalid)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}

	rr := postContact(t, router, "203.0.113.7:12345", validContactBody())
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	mockDispatcher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestProxyRateLimit_EndToEnd(t *testing.T) {
	handlers := newTestHandlers(&MockDispatcher{}, "hizliresim.com")

	// Tiny burst so the limit is hit immediately
	limiter := ratelimit.NewBucketLimiter(60, 2, 5*time.Minute)
	defer limiter.Close()

	router := SetupRoutes(handlers, models.NewDefaultConfig(),
		WithProxyRateLimiter(limiter))

	target := url.QueryEscape("https://evil.example.com/img.png")
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/api/v1/proxy-image?url="+target, nil)
		req.RemoteAddr = "203.0.113.7:12345"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/proxy-image?url="+target, nil)
	req.RemoteAddr = "203.0.113.7:12345"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Too many requests", resp.Error)
}

func TestContactSubmission_MarkupNeverReachesRelayUnescaped(t *testing.T) {
	mockDispatcher := &MockDispatcher{}
	var sent *mail.Message
	mockDispatcher.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(*mail.Message)
		}).Return(nil)

	handlers := newTestHandlers(mockDispatcher, "hizliresim.com")
	router := SetupRoutes(handlers, models.NewDefaultConfig())

	submission := models.ContactRequest{
		Name:    `<script>alert("x")</script>`,
		Email:   "attacker@example.com",
		Subject: "Deneme",
		Message: `<img src=x onerror=alert(1)> uzun bir mesaj`,
	}
	body, _ := json.Marshal(submission)

	rr := postContact(t, router, "203.0.113.7:12345", body)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NotNil(t, sent)
	assert.NotContains(t, sent.HTMLBody, "<script>")
	assert.NotContains(t, sent.HTMLBody, "<img")
	assert.Contains(t, sent.HTMLBody, "&lt;script&gt;")
}

func TestContactSubmission_HeaderInjectionBlocked(t *testing.T) {
	mockDispatcher := &MockDispatcher{}
	var sent *mail.Message
	mockDispatcher.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(*mail.Message)
		}).Return(nil)

	handlers := newTestHandlers(mockDispatcher, "hizliresim.com")
	router := SetupRoutes(handlers, models.NewDefaultConfig())

	submission := models.ContactRequest{
		Name:    "Saldırgan",
		Email:   "attacker@example.com",
		Subject: "Konu\r\nBcc: victim@example.com",
		Message: "yeterince uzun bir mesaj gövdesi",
	}
	body, _ := json.Marshal(submission)

	rr := postContact(t, router, "203.0.113.7:12345", body)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NotNil(t, sent)
	assert.NotContains(t, sent.Subject, "\r")
	assert.NotContains(t, sent.Subject, "\n")
}

func TestProxyImage_SSRFTargetsRejected(t *testing.T) {
	handlers := newTestHandlers(&MockDispatcher{}, "hizliresim.com", "i.hizliresim.com")
	router := SetupRoutes(handlers, models.NewDefaultConfig())

	targets := []string{
		"http://169.254.169.254/latest/meta-data/",
		"http://localhost:8080/health",
		"http://127.0.0.1/admin",
		"https://hizliresim.com.evil.example.com/img.png",
		"https://cdn.hizliresim.com/img.png",
	}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/proxy-image?url="+url.QueryEscape(target), nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "Host not allowed", resp.Error)
		})
	}
}

func TestRecoveryMiddleware_PanicBecomesGeneric500(t *testing.T) {
	router := SetupRoutes(newTestHandlers(&MockDispatcher{}), models.NewDefaultConfig())
	router.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("sensitive internal detail")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "sensitive internal detail")
}
