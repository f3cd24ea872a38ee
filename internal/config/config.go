// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the database path, the change-feed
// runner, the push gateway, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported push gateway drivers.
const (
	PushDriverLog   = "log"
	PushDriverHTTP  = "http"
	PushDriverKafka = "kafka"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS"  envDefault:"false"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" envDefault:"4320h"`
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED"                envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME"           envDefault:"go-notify-backend"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG"     envDefault:"1.0"`
}

// TriggerConfig tunes the change-feed runner that invokes the watchers and
// the dispatcher.
type TriggerConfig struct {
	PollInterval time.Duration `env:"TRIGGER_POLL_INTERVAL" envDefault:"500ms"`
	LeaseTTL     time.Duration `env:"TRIGGER_LEASE_TTL"     envDefault:"30s"`
	BatchSize    int           `env:"TRIGGER_BATCH_SIZE"    envDefault:"50"`
	Workers      int           `env:"TRIGGER_WORKERS"       envDefault:"8"`
	MaxAttempts  int           `env:"TRIGGER_MAX_ATTEMPTS"  envDefault:"5"`
}

// PushConfig selects and configures the push gateway.
type PushConfig struct {
	Driver         string        `env:"PUSH_DRIVER"          envDefault:"log"`
	Endpoint       string        `env:"PUSH_ENDPOINT"        envDefault:"https://fcm.googleapis.com"`
	ProjectID      string        `env:"PUSH_PROJECT_ID"`
	AccessToken    string        `env:"PUSH_ACCESS_TOKEN"`
	Timeout        time.Duration `env:"PUSH_TIMEOUT"         envDefault:"10s"`
	AndroidChannel string        `env:"PUSH_ANDROID_CHANNEL" envDefault:"climetry_channel"`
	KafkaBrokers   []string      `env:"PUSH_KAFKA_BROKERS"   envSeparator:","`
	KafkaTopic     string        `env:"PUSH_KAFKA_TOPIC"     envDefault:"push-commands"`
	Locale         string        `env:"PUSH_LOCALE"          envDefault:"pt-BR"`
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `env:"PORT"                envDefault:"8080"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT"        envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT"       envDefault:"20s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT"        envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"    envDefault:"15s"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES"    envDefault:"1048576"`
	GinMode           string        `env:"GIN_MODE"            envDefault:"release"`

	// Logging / Docs
	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
	LogPretty      bool   `env:"LOG_PRETTY"      envDefault:"false"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED" envDefault:"false"`
	APIBasePath    string `env:"API_BASE_PATH"   envDefault:"/api/v1"`

	// App
	DBPath         string `env:"DB_PATH"           envDefault:"notify.db"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`

	// FriendRequestMarker makes the friend request watcher write a processed
	// marker like every other single-recipient watcher. Disable to keep the
	// marker-less behaviour (duplicate deliveries then enqueue twice).
	FriendRequestMarker bool `env:"FRIEND_REQUEST_MARKER" envDefault:"true"`

	// Pipeline
	Trigger TriggerConfig
	Push    PushConfig

	// Rate limiting
	RateRPS   float64 `env:"RATE_RPS"   envDefault:"5"`
	RateBurst int     `env:"RATE_BURST" envDefault:"10"`

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

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
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	// --- normalization ---
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.GinMode = strings.ToLower(strings.TrimSpace(cfg.GinMode))
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.APIBasePath = normalizeBasePath(cfg.APIBasePath)
	cfg.CORS.AllowedOrigins = cleanList(cfg.CORS.AllowedOrigins)
	cfg.Push.KafkaBrokers = cleanList(cfg.Push.KafkaBrokers)
	cfg.Push.Driver = strings.ToLower(strings.TrimSpace(cfg.Push.Driver))
	cfg.Push.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Push.Endpoint), "/")

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.DBMaxOpenConns < 1 {
		return cfg, errors.New("DB_MAX_OPEN_CONNS must be >= 1")
	}
	if err := cfg.Trigger.validate(); err != nil {
		return cfg, err
	}
	if err := cfg.Push.validate(); err != nil {
		return cfg, err
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

func (t TriggerConfig) validate() error {
	if t.PollInterval <= 0 || t.LeaseTTL <= 0 {
		return errors.New("TRIGGER_POLL_INTERVAL and TRIGGER_LEASE_TTL must be positive durations")
	}
	if t.BatchSize < 1 {
		return errors.New("TRIGGER_BATCH_SIZE must be >= 1")
	}
	if t.Workers < 1 {
		return errors.New("TRIGGER_WORKERS must be >= 1")
	}
	if t.MaxAttempts < 1 {
		return errors.New("TRIGGER_MAX_ATTEMPTS must be >= 1")
	}
	return nil
}

func (p PushConfig) validate() error {
	if p.Timeout <= 0 {
		return errors.New("PUSH_TIMEOUT must be a positive duration")
	}
	if strings.TrimSpace(p.AndroidChannel) == "" {
		return errors.New("PUSH_ANDROID_CHANNEL must not be empty")
	}
	switch p.Driver {
	case PushDriverLog:
	case PushDriverHTTP:
		if p.Endpoint == "" || strings.TrimSpace(p.ProjectID) == "" {
			return errors.New("PUSH_ENDPOINT and PUSH_PROJECT_ID are required for the http driver")
		}
	case PushDriverKafka:
		if len(p.KafkaBrokers) == 0 || strings.TrimSpace(p.KafkaTopic) == "" {
			return errors.New("PUSH_KAFKA_BROKERS and PUSH_KAFKA_TOPIC are required for the kafka driver")
		}
	default:
		return errors.New("PUSH_DRIVER must be one of: log, http, kafka")
	}
	return nil
}

// cleanList trims entries and drops empty ones.
func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
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
