// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, channel transports, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-bot-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AgentConfig defines how bots reach their conversational agents.
type AgentConfig struct {
	Endpoint string        // AGENT_ENDPOINT, URL template with a {bot} placeholder
	Timeout  time.Duration // AGENT_TIMEOUT
	CacheTTL time.Duration // AGENT_CACHE_TTL, 0 keeps agents until invalidated
}

// WhatsAppConfig defines the outbound WhatsApp transports and webhook limits.
type WhatsAppConfig struct {
	APIBase          string        // WHATSAPP_API_BASE (Meta Graph API)
	APIVersion       string        // WHATSAPP_API_VERSION
	Dialog360Base    string        // DIALOG360_API_BASE
	SendRPS          float64       // WHATSAPP_SEND_RPS per business number, 0 disables
	MaxBodyBytes     int64         // WEBHOOK_MAX_BODY_BYTES
	DeliveryReceipts time.Duration // DELIVERY_RECEIPT_TTL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath            string // SQLite path
	DefaultConfigPath string // optional YAML replacing the built-in training config
	SearchTopK        int    // default result cap of training-example search

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Channels
	Agent    AgentConfig
	WhatsApp WhatsAppConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:            getenv("DB_PATH", "bots.db"),
		DefaultConfigPath: getenv("DEFAULT_CONFIG_PATH", ""),
		SearchTopK:        getint("SEARCH_TOP_K", 10),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Channels
		Agent: AgentConfig{
			Endpoint: getenv("AGENT_ENDPOINT", "http://localhost:5005/bots/{bot}/webhooks/rest/webhook"),
			Timeout:  getdur("AGENT_TIMEOUT", 30*time.Second),
			CacheTTL: getdur("AGENT_CACHE_TTL", time.Hour),
		},
		WhatsApp: WhatsAppConfig{
			APIBase:          getenv("WHATSAPP_API_BASE", "https://graph.facebook.com"),
			APIVersion:       getenv("WHATSAPP_API_VERSION", "v19.0"),
			Dialog360Base:    getenv("DIALOG360_API_BASE", "https://waba.360dialog.io"),
			SendRPS:          getfloat("WHATSAPP_SEND_RPS", 20),
			MaxBodyBytes:     int64(getint("WEBHOOK_MAX_BODY_BYTES", 1<<20)),
			DeliveryReceipts: getdur("DELIVERY_RECEIPT_TTL", 24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-bot-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, cfg.validate()
}

// validate reports every violated constraint at once.
func (c Config) validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}

	// Server
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")

	// App and HTTP protection
	check(strings.TrimSpace(c.DBPath) != "", "DB_PATH must not be empty")
	check(c.SearchTopK >= 1, "SEARCH_TOP_K must be >= 1")
	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")

	// Channels
	check(strings.Contains(c.Agent.Endpoint, "{bot}"), "AGENT_ENDPOINT must contain a {bot} placeholder")
	check(c.Agent.Timeout > 0, "AGENT_TIMEOUT must be > 0")
	check(c.Agent.CacheTTL >= 0, "AGENT_CACHE_TTL must be >= 0")
	check(strings.TrimSpace(c.WhatsApp.APIBase) != "" && strings.TrimSpace(c.WhatsApp.Dialog360Base) != "",
		"WHATSAPP_API_BASE and DIALOG360_API_BASE must not be empty")
	check(c.WhatsApp.SendRPS >= 0, "WHATSAPP_SEND_RPS must be >= 0")
	check(c.WhatsApp.MaxBodyBytes > 0, "WEBHOOK_MAX_BODY_BYTES must be > 0")
	check(c.WhatsApp.DeliveryReceipts > 0, "DELIVERY_RECEIPT_TTL must be > 0")

	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

// Environment readers. Unset, empty or unparsable values select def.

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
