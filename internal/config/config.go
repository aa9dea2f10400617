package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"siteapi/internal/models"
)

// Load loads configuration from file and environment variables. Defaults are
// applied first, then the YAML file (if any), then SITEAPI_* environment
// variables; the result is validated before use.
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables. SMTP
// credentials in particular are expected to arrive this way rather than
// sitting in a config file.
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("SITEAPI_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("SITEAPI_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("SITEAPI_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("SITEAPI_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("SITEAPI_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if tls := os.Getenv("SITEAPI_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}

	if certFile := os.Getenv("SITEAPI_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("SITEAPI_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// SMTP relay configuration
	if host := os.Getenv("SITEAPI_SMTP_HOST"); host != "" {
		config.SMTP.Host = host
	}

	if port := os.Getenv("SITEAPI_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.SMTP.Port = p
		}
	}

	if user := os.Getenv("SITEAPI_SMTP_USER"); user != "" {
		config.SMTP.Username = user
	}

	if pass := os.Getenv("SITEAPI_SMTP_PASS"); pass != "" {
		config.SMTP.Password = pass
	}

	if recipient := os.Getenv("SITEAPI_CONTACT_TO"); recipient != "" {
		config.SMTP.Recipient = recipient
	}

	if timeout := os.Getenv("SITEAPI_SMTP_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.SMTP.Timeout = d
		}
	}

	// Image proxy configuration
	if hosts := os.Getenv("SITEAPI_PROXY_ALLOWED_HOSTS"); hosts != "" {
		config.Proxy.AllowedHosts = splitAndTrim(hosts, ",")
	}

	if timeout := os.Getenv("SITEAPI_PROXY_FETCH_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Proxy.FetchTimeout = d
		}
	}

	if referer := os.Getenv("SITEAPI_PROXY_REFERER"); referer != "" {
		config.Proxy.Referer = referer
	}

	if ua := os.Getenv("SITEAPI_PROXY_USER_AGENT"); ua != "" {
		config.Proxy.UserAgent = ua
	}

	// Rate limiting configuration
	if enabled := os.Getenv("SITEAPI_RATE_LIMIT_ENABLED"); enabled != "" {
		config.Security.RateLimit.Enabled = strings.ToLower(enabled) == "true"
	}

	if limit := os.Getenv("SITEAPI_CONTACT_RATE_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			config.Security.RateLimit.ContactLimit = n
		}
	}

	if window := os.Getenv("SITEAPI_CONTACT_RATE_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			config.Security.RateLimit.ContactWindow = d
		}
	}

	if rpm := os.Getenv("SITEAPI_PROXY_RATE_LIMIT_RPM"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			config.Security.RateLimit.ProxyRequestsPerMinute = n
		}
	}

	if burst := os.Getenv("SITEAPI_PROXY_RATE_LIMIT_BURST"); burst != "" {
		if n, err := strconv.Atoi(burst); err == nil {
			config.Security.RateLimit.ProxyBurst = n
		}
	}

	if cleanup := os.Getenv("SITEAPI_RATE_LIMIT_CLEANUP_INTERVAL"); cleanup != "" {
		if d, err := time.ParseDuration(cleanup); err == nil {
			config.Security.RateLimit.CleanupInterval = d
		}
	}

	// Logging configuration
	if level := os.Getenv("SITEAPI_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("SITEAPI_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("SITEAPI_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("SITEAPI_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("SITEAPI_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("SITEAPI_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("SITEAPI_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Observability configuration
	if name := os.Getenv("SITEAPI_SERVICE_NAME"); name != "" {
		config.Observability.ServiceName = name
	}

	if tracing := os.Getenv("SITEAPI_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("SITEAPI_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("SITEAPI_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
