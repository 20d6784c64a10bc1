package classifier

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds classifier client configuration.
type Config struct {
	// Endpoint is the classifier's analyze URL.
	Endpoint string

	// UserID and ChannelID identify the synthetic evaluation caller
	// in classifier request payloads.
	UserID    string
	ChannelID string

	// Timeout is the per-call connect/read timeout. Default: 10s.
	Timeout time.Duration

	// RequestsPerSecond caps the outbound request rate across all
	// workers. Zero disables throttling.
	RequestsPerSecond float64

	Retry RetryConfig
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with conservative defaults.
func DefaultConfig() Config {
	return Config{
		UserID:    "crisiseval",
		ChannelID: "evaluation",
		Timeout:   10 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("CRISISEVAL_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("CRISISEVAL_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("CRISISEVAL_CHANNEL_ID"); v != "" {
		cfg.ChannelID = v
	}
	if v := os.Getenv("CRISISEVAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("CRISISEVAL_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("CRISISEVAL_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}

	return cfg
}

// Validate checks that the configuration can produce a working client.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("CRISISEVAL_ENDPOINT (or --endpoint) is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// New creates a Client from configuration, wrapped with rate limiting
// and retry middleware: caller → retry → rate limit → HTTP.
func New(cfg Config) (Client, error) {
	base, err := NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	limited := WithRateLimit(base, cfg.RequestsPerSecond)
	return WithRetry(limited, cfg.Retry), nil
}
