package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"siteapi/internal/mail"
	"siteapi/internal/models"
	"siteapi/internal/observability"
	"siteapi/internal/proxy"
	"siteapi/internal/ratelimit"
	"siteapi/internal/version"
)

// Caching directives for successfully proxied images. The proxy itself never
// caches; browsers and CDNs in front of it may.
const proxyCacheControl = "public, max-age=3600, stale-while-revalidate=86400"

// Handlers contains the HTTP handlers for the siteapi endpoints.
type Handlers struct {
	dispatcher  mail.Dispatcher
	allowlist   *proxy.Allowlist
	fetcher     *proxy.Fetcher
	instruments *observability.Instruments
	startTime   time.Time
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handlers)

// WithInstruments attaches domain metrics counters to the handlers.
func WithInstruments(instruments *observability.Instruments) HandlerOption {
	return func(h *Handlers) {
		h.instruments = instruments
	}
}

// NewHandlers creates a new handlers instance.
func NewHandlers(dispatcher mail.Dispatcher, allowlist *proxy.Allowlist, fetcher *proxy.Fetcher, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		dispatcher: dispatcher,
		allowlist:  allowlist,
		fetcher:    fetcher,
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SubmitContact handles contact form submissions.
// POST /api/v1/contact
//
// The pipeline is: rate limit (middleware, before this handler runs) -> body
// parse -> validation -> message formatting -> dispatch. A submission that
// fails any validation rule never reaches the dispatcher, and dispatch
// failures reach the caller only as generic messages.
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	identity := ratelimit.ClientIdentity(r)

	var req models.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.instruments.RecordContact(r.Context(), observability.OutcomeInvalid)
		h.writeContactError(w, http.StatusBadRequest, models.MsgMalformedBody)
		return
	}

	if fieldErr := req.Validate(); fieldErr != nil {
		slog.Debug("Contact submission rejected",
			"field", fieldErr.Field,
			"client", identity,
		)
		h.instruments.RecordContact(r.Context(), observability.OutcomeInvalid)
		h.writeContactError(w, http.StatusBadRequest, fieldErr.Reason)
		return
	}

	msg := mail.NewMessage(&req, identity, time.Now())

	if err := h.dispatcher.Send(r.Context(), msg); err != nil {
		h.instruments.RecordContact(r.Context(), observability.OutcomeFailed)

		var dispatchErr *mail.DispatchError
		if errors.As(err, &dispatchErr) {
			h.writeContactError(w, dispatchErr.StatusCode, dispatchErr.UserMessage)
			return
		}

		slog.Error("Unexpected dispatch failure", "error", err, "client", identity)
		h.writeContactError(w, http.StatusInternalServerError, models.MsgServerError)
		return
	}

	slog.Info("Contact submission delivered", "client", identity)
	h.instruments.RecordContact(r.Context(), observability.OutcomeAccepted)
	h.writeJSON(w, http.StatusOK, models.NewContactOK())
}

// ProxyImage handles image proxy requests.
// GET /api/v1/proxy-image?url=...
//
// The url parameter must parse as an absolute http(s) URL whose hostname is
// on the allowlist; that check is the sole boundary keeping this endpoint
// from acting as an open relay. Upstream bytes are streamed back unchanged on
// success; upstream error bodies are never reflected.
func (h *Handlers) ProxyImage(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.instruments.RecordProxyFetch(r.Context(), observability.OutcomeInvalid)
		h.writeProxyError(w, http.StatusBadRequest, "Missing url")
		return
	}

	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() || target.Hostname() == "" ||
		(target.Scheme != "http" && target.Scheme != "https") {
		h.instruments.RecordProxyFetch(r.Context(), observability.OutcomeInvalid)
		h.writeProxyError(w, http.StatusBadRequest, "Bad url")
		return
	}

	if !h.allowlist.IsAllowed(target.Hostname()) {
		slog.Warn("Proxy request for non-allowlisted host",
			"host", target.Hostname(),
			"client", ratelimit.ClientIdentity(r),
		)
		h.instruments.RecordProxyFetch(r.Context(), observability.OutcomeDenied)
		h.writeProxyError(w, http.StatusBadRequest, "Host not allowed")
		return
	}

	result, err := h.fetcher.Fetch(r.Context(), target)
	if err != nil {
		slog.Error("Upstream fetch failed", "host", target.Hostname(), "error", err)
		h.instruments.RecordProxyFetch(r.Context(), observability.OutcomeUpstreamErr)
		h.writeProxyError(w, http.StatusBadGateway, "Upstream fetch failed")
		return
	}
	defer result.Body.Close()

	if result.StatusCode < 200 || result.StatusCode >= 300 {
		// Mirror the upstream status but never its body.
		h.instruments.RecordProxyFetch(r.Context(), observability.OutcomeUpstreamErr)
		h.writeProxyError(w, result.StatusCode,
			fmt.Sprintf("Upstream fetch failed (%d)", result.StatusCode))
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Cache-Control", proxyCacheControl)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, result.Body); err != nil {
		// Headers are already out; nothing left to do but log.
		slog.Debug("Proxy stream interrupted", "host", target.Hostname(), "error", err)
		return
	}

	h.instruments.RecordProxyFetch(r.Context(), observability.OutcomeAccepted)
}

// HealthCheck handles liveness probes.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := &models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   version.GetInfo().Version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Handlers) writeContactError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, models.NewContactError(message))
}

func (h *Handlers) writeProxyError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, models.NewErrorResponse(message))
}
