package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"siteapi/internal/api"
	"siteapi/internal/config"
	"siteapi/internal/logger"
	"siteapi/internal/mail"
	"siteapi/internal/observability"
	"siteapi/internal/proxy"
	"siteapi/internal/ratelimit"
	"siteapi/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ver := version.GetInfo()

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	if !cfg.SMTP.DispatchReady() {
		slog.Warn("SMTP relay not fully configured; contact submissions will fail until it is")
	}

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Contact pipeline and image proxy components
	dispatcher := mail.NewSMTPDispatcher(cfg.SMTP)
	allowlist := proxy.NewAllowlist(cfg.Proxy.AllowedHosts)
	fetcher := proxy.NewFetcher(cfg.Proxy)

	slog.Info("Image proxy allowlist initialized", "hosts", allowlist.Hosts())

	handlerOpts := []api.HandlerOption{}
	if cfg.Metrics.Enabled {
		instruments, err := observability.NewInstruments()
		if err != nil {
			slog.Error("Failed to create instruments", "error", err)
			os.Exit(1)
		}
		handlerOpts = append(handlerOpts, api.WithInstruments(instruments))
	}

	handlers := api.NewHandlers(dispatcher, allowlist, fetcher, handlerOpts...)

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	if cfg.Security.RateLimit.Enabled {
		rlCfg := cfg.Security.RateLimit

		contactLimiter := ratelimit.NewWindowLimiter(rlCfg.ContactLimit, rlCfg.ContactWindow, rlCfg.CleanupInterval)
		defer contactLimiter.Close()
		routeOpts = append(routeOpts, api.WithContactRateLimiter(contactLimiter))

		if rlCfg.ProxyRequestsPerMinute > 0 {
			proxyLimiter := ratelimit.NewBucketLimiter(rlCfg.ProxyRequestsPerMinute, rlCfg.ProxyBurst, rlCfg.CleanupInterval)
			defer proxyLimiter.Close()
			routeOpts = append(routeOpts, api.WithProxyRateLimiter(proxyLimiter))
		}
	}

	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "addr", server.Addr)

		var err error
		if cfg.Server.TLSEnabled {
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}
