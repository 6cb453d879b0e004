package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all environment backed configuration for chat-api.
type Config struct {
	// HTTP Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9091"`
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	// Auth
	AuthResolveURL     string        `env:"AUTH_RESOLVE_URL,notEmpty"`
	AuthServiceKey     string        `env:"AUTH_SERVICE_KEY"`
	AuthResolveTimeout time.Duration `env:"AUTH_RESOLVE_TIMEOUT" envDefault:"5s"`

	// Inference upstream
	InferenceBaseURL string        `env:"INFERENCE_BASE_URL" envDefault:"http://localhost:8001/v1"`
	InferenceAPIKey  string        `env:"INFERENCE_API_KEY" envDefault:"changeme"`
	InferenceModel   string        `env:"INFERENCE_MODEL" envDefault:"gpt-4o-mini"`
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	// Branching
	StrictForkValidation  bool `env:"STRICT_FORK_VALIDATION" envDefault:"false"`
	BranchTokenMaxRetries int  `env:"BRANCH_TOKEN_MAX_RETRIES" envDefault:"5"`

	// Observability / Logging
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders      string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName      string `env:"SERVICE_NAME" envDefault:"chat-api"`
	ServiceNamespace string `env:"SERVICE_NAMESPACE" envDefault:"arbor"`
	Environment      string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"console"`

	// Features
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.AuthResolveURL); err != nil {
		return nil, fmt.Errorf("invalid AUTH_RESOLVE_URL: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.InferenceBaseURL); err != nil {
		return nil, fmt.Errorf("invalid INFERENCE_BASE_URL: %w", err)
	}

	if cfg.BranchTokenMaxRetries < 1 {
		return nil, fmt.Errorf("BRANCH_TOKEN_MAX_RETRIES must be at least 1, got %d", cfg.BranchTokenMaxRetries)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	return cfg, nil
}

var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
