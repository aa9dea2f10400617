package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"siteapi/internal/models"
	"siteapi/internal/ratelimit"
)

// routeOptions collects optional router behavior configured by RouteOption.
type routeOptions struct {
	routerMW  []mux.MiddlewareFunc
	contactMW []mux.MiddlewareFunc
	proxyMW   []mux.MiddlewareFunc
}

// RouteOption configures optional route behavior.
type RouteOption func(*routeOptions)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(o *routeOptions) {
		o.routerMW = append(o.routerMW, otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" &&
					r.URL.Path != "/api/v1/health" &&
					r.URL.Path != "/metrics"
			}),
		))
	}
}

// WithContactRateLimiter rate-limits the contact endpoint. Denials answer in
// the contact envelope so the form client can display the message directly.
func WithContactRateLimiter(limiter ratelimit.Limiter) RouteOption {
	return func(o *routeOptions) {
		o.contactMW = append(o.contactMW,
			ratelimit.Middleware(limiter, contactRateLimitDeny))
	}
}

// WithProxyRateLimiter rate-limits the image proxy endpoint.
func WithProxyRateLimiter(limiter ratelimit.Limiter) RouteOption {
	return func(o *routeOptions) {
		o.proxyMW = append(o.proxyMW,
			ratelimit.Middleware(limiter, proxyRateLimitDeny))
	}
}

// SetupRoutes configures the HTTP routes for the service.
func SetupRoutes(handlers *Handlers, config *models.Config, opts ...RouteOption) *mux.Router {
	options := &routeOptions{}
	for _, opt := range opts {
		opt(options)
	}

	router := mux.NewRouter()
	for _, mw := range options.routerMW {
		router.Use(mw)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	contactAPI := api.PathPrefix("/contact").Subrouter()
	for _, mw := range options.contactMW {
		contactAPI.Use(mw)
	}
	contactAPI.HandleFunc("", handlers.SubmitContact).Methods("POST")

	proxyAPI := api.PathPrefix("/proxy-image").Subrouter()
	for _, mw := range options.proxyMW {
		proxyAPI.Use(mw)
	}
	proxyAPI.HandleFunc("", handlers.ProxyImage).Methods("GET")

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	router.HandleFunc("/api/v1/health", handlers.HealthCheck).Methods("GET")

	api.PathPrefix("").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}).Methods("OPTIONS")

	if config.Server.CORS.Enabled {
		router.Use(corsMiddleware(config.Server.CORS))
	}

	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(models.NewErrorResponse("Method not allowed"))
	})

	return router
}

// contactRateLimitDeny answers a throttled contact submission in the contact
// envelope with the site's Turkish back-off message.
func contactRateLimitDeny(w http.ResponseWriter, r *http.Request, _ ratelimit.Info) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(models.NewContactError(models.MsgRateLimited))
}

// proxyRateLimitDeny answers a throttled proxy fetch in the proxy envelope.
func proxyRateLimitDeny(w http.ResponseWriter, r *http.Request, _ ratelimit.Info) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(models.NewErrorResponse("Too many requests"))
}

// corsMiddleware handles Cross-Origin Resource Sharing.
func corsMiddleware(corsConfig models.CORSConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(corsConfig.AllowedOrigins) > 0 {
				origin := r.Header.Get("Origin")
				if origin != "" && (contains(corsConfig.AllowedOrigins, "*") || contains(corsConfig.AllowedOrigins, origin)) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			if len(corsConfig.AllowedMethods) > 0 {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(corsConfig.AllowedMethods, ", "))
			}
			if len(corsConfig.AllowedHeaders) > 0 {
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(corsConfig.AllowedHeaders, ", "))
			}
			if corsConfig.MaxAge > 0 {
				w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", corsConfig.MaxAge))
			}
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware converts panics into a generic 500 so no internal error
// text ever reaches the caller.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered", "error", err, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(models.NewContactError(models.MsgServerError))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
