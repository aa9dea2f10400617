// Package models - service configuration and operational settings.
// This file defines the configuration structures for all service components.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, smtp, proxy, etc.)
// - Environment-friendly defaults that work out of the box
// - Comprehensive validation to catch misconfigurations early
// - Secrets (SMTP credentials) come from the environment, never from defaults
package models

import (
	"errors"
	"fmt"
	"time"
)

// Config is the root configuration structure containing all service settings.
//
// Configuration Structure:
// - Server: HTTP server and network settings
// - SMTP: outbound mail relay for the contact form
// - Proxy: image proxy allowlist and upstream fetch settings
// - Security: rate limiting
// - Logging: structured logging and output configuration
// - Metrics: monitoring and observability
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	SMTP          SMTPConfig          `yaml:"smtp" json:"smtp"`
	Proxy         ProxyConfig         `yaml:"proxy" json:"proxy"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
	CORS         CORSConfig    `yaml:"cors" json:"cors"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

// SMTPConfig configures the outbound mail relay used by the contact form.
// Host, Port, Username and Password are all required for dispatch; they have
// no defaults and are expected to come from the environment.
type SMTPConfig struct {
	Host      string        `yaml:"host" json:"host"`
	Port      int           `yaml:"port" json:"port"`
	Username  string        `yaml:"username" json:"username"`
	Password  string        `yaml:"password" json:"-"`
	Recipient string        `yaml:"recipient" json:"recipient"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// ProxyConfig configures the image proxy. AllowedHosts is the exact-match
// hostname allowlist; it is the sole boundary preventing the proxy from
// being used as an open relay, so there is no wildcard or suffix matching.
type ProxyConfig struct {
	AllowedHosts []string      `yaml:"allowed_hosts" json:"allowed_hosts"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	Referer      string        `yaml:"referer" json:"referer"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig holds both limiter policies: the sliding-window limit on
// contact submissions and the token-bucket limit on proxy fetches.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Contact form: at most ContactLimit submissions per ContactWindow per client.
	ContactLimit  int           `yaml:"contact_limit" json:"contact_limit"`
	ContactWindow time.Duration `yaml:"contact_window" json:"contact_window"`

	// Image proxy: token bucket refilled at ProxyRequestsPerMinute with ProxyBurst capacity.
	ProxyRequestsPerMinute int `yaml:"proxy_requests_per_minute" json:"proxy_requests_per_minute"`
	ProxyBurst             int `yaml:"proxy_burst" json:"proxy_burst"`

	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // "stdout" or "otlp"
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// DefaultRecipient receives contact submissions when no recipient is configured.
const DefaultRecipient = "info@lunvera.com.tr"

// Default hotlink headers for the image proxy. Some image hosts only serve
// hotlinked content when the request carries a browser-looking identity.
const (
	DefaultProxyReferer   = "https://hizliresim.com/"
	DefaultProxyUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// Default Values Rationale:
// - Port 8080: standard non-privileged HTTP port
// - 30-second server timeouts: balance between user experience and resource protection
// - Contact limit 5 per 10 minutes: matches the abuse profile of a contact form
// - 8-second SMTP timeout / 5-second fetch timeout: bound the only two
//   operations that wait on external I/O so a slow upstream cannot pin
//   request slots indefinitely
// - Rate limiting enabled: prevent abuse from the start
// - Structured JSON logging: better for log aggregation and analysis
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
			CORS: CORSConfig{
				Enabled:        false,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         86400,
			},
		},
		SMTP: SMTPConfig{
			Recipient: DefaultRecipient,
			Timeout:   8 * time.Second,
		},
		Proxy: ProxyConfig{
			AllowedHosts: []string{
				"hizliresim.com",
				"www.hizliresim.com",
				"i.hizliresim.com",
			},
			FetchTimeout: 5 * time.Second,
			Referer:      DefaultProxyReferer,
			UserAgent:    DefaultProxyUserAgent,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:                true,
				ContactLimit:           5,
				ContactWindow:          10 * time.Minute,
				ProxyRequestsPerMinute: 120,
				ProxyBurst:             30,
				CleanupInterval:        5 * time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "siteapi",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.SMTP.Validate(); err != nil {
		return fmt.Errorf("invalid smtp config: %w", err)
	}

	if err := c.Proxy.Validate(); err != nil {
		return fmt.Errorf("invalid proxy config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

// Validate checks SMTP settings for structural problems. Missing relay
// credentials are intentionally NOT a validation error: the service starts
// without them and the dispatcher reports a configuration error per request,
// so a misconfigured mail relay does not take the image proxy down with it.
func (sc *SMTPConfig) Validate() error {
	if sc.Port < 0 || sc.Port > 65535 {
		return errors.New("smtp port must be between 0 and 65535")
	}

	if sc.Timeout < 0 {
		return errors.New("smtp timeout cannot be negative")
	}

	return nil
}

// DispatchReady reports whether all required relay settings are present.
// The recipient is excluded: it has a hardcoded fallback.
func (sc *SMTPConfig) DispatchReady() bool {
	return sc.Host != "" && sc.Port != 0 && sc.Username != "" && sc.Password != ""
}

func (pc *ProxyConfig) Validate() error {
	if len(pc.AllowedHosts) == 0 {
		return errors.New("at least one allowed host is required")
	}

	for _, h := range pc.AllowedHosts {
		if h == "" {
			return errors.New("allowed host cannot be empty")
		}
	}

	if pc.FetchTimeout < 0 {
		return errors.New("fetch timeout cannot be negative")
	}

	return nil
}

func (sec *SecurityConfig) Validate() error {
	rl := sec.RateLimit
	if !rl.Enabled {
		return nil
	}

	if rl.ContactLimit <= 0 {
		return errors.New("contact limit must be positive")
	}
	if rl.ContactWindow <= 0 {
		return errors.New("contact window must be positive")
	}
	if rl.ProxyRequestsPerMinute < 0 {
		return errors.New("proxy requests per minute cannot be negative")
	}
	if rl.ProxyBurst < 0 {
		return errors.New("proxy burst cannot be negative")
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	found := false
	for _, vl := range validLevels {
		if lc.Level == vl {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	validFormats := []string{"json", "text"}
	found = false
	for _, vf := range validFormats {
		if lc.Format == vf {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := []string{"stdout", "stderr", "file"}
	found = false
	for _, vo := range validOutputs {
		if lc.Output == vo {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}
