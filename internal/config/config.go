// Package config loads sketchbook settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/abhisek/sketchbook/internal/evaluator"
	"github.com/abhisek/sketchbook/internal/telemetry"
)

// DefaultEnvFile is read, when present, before the environment is parsed.
const DefaultEnvFile = ".env"

// Config holds every environment-driven setting.
type Config struct {
	ServerURL      string        `env:"SKETCHBOOK_SERVER_URL" envDefault:"http://localhost:8000"`
	DBPath         string        `env:"SKETCHBOOK_DB"`
	LogFile        string        `env:"SKETCHBOOK_LOG"`
	RequestTimeout time.Duration `env:"SKETCHBOOK_REQUEST_TIMEOUT" envDefault:"10s"`

	Retry RetryConfig `envPrefix:"SKETCHBOOK_RETRY_"`
	OTel  OTelConfig  `envPrefix:"SKETCHBOOK_OTEL_"`
}

// RetryConfig mirrors evaluator.RetryConfig.
type RetryConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	InitialWait time.Duration `env:"INITIAL_WAIT" envDefault:"250ms"`
	MaxWait     time.Duration `env:"MAX_WAIT" envDefault:"2s"`
	Multiplier  float64       `env:"MULTIPLIER" envDefault:"2"`
}

// OTelConfig controls trace export. Tracing is off unless Endpoint is set.
type OTelConfig struct {
	Endpoint string `env:"ENDPOINT"`
	Enabled  bool   `env:"ENABLED" envDefault:"true"`
}

// Load reads the given dotenv files (DefaultEnvFile when none are given),
// skipping missing ones, and parses the environment. Variables already set
// in the environment win over dotenv values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("SKETCHBOOK_SERVER_URL must not be empty")
	}
	return &cfg, nil
}

// Evaluator returns the evaluation client settings, authenticated with
// accessToken when it is non-empty.
func (c *Config) Evaluator(accessToken string) evaluator.Config {
	return evaluator.Config{
		HTTP: evaluator.HTTPConfig{
			BaseURL:     c.ServerURL,
			AccessToken: accessToken,
			Timeout:     c.RequestTimeout,
		},
		Retry: evaluator.RetryConfig{
			MaxAttempts: c.Retry.MaxAttempts,
			InitialWait: c.Retry.InitialWait,
			MaxWait:     c.Retry.MaxWait,
			Multiplier:  c.Retry.Multiplier,
		},
	}
}

// Telemetry returns the tracing settings for serviceName.
func (c *Config) Telemetry(serviceName string) telemetry.Options {
	return telemetry.Options{
		ServiceName: serviceName,
		Endpoint:    c.OTel.Endpoint,
		Enabled:     c.OTel.Enabled,
	}
}
