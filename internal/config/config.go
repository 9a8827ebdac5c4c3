// Package config provides configuration loading for adaptd.
package config

import (
	"fmt"
	"time"
)

// Config is the adaptd daemon configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Loop       LoopConfig       `koanf:"loop"`
	Recognizer RecognizerConfig `koanf:"recognizer"`
	Engine     EngineConfig     `koanf:"engine"`
	Governance GovernanceConfig `koanf:"governance"`
	Ingest     IngestConfig     `koanf:"ingest"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`
}

// LoopConfig holds meta-learning controller settings.
type LoopConfig struct {
	// Interval between scheduled cycles. Zero disables the scheduler.
	Interval time.Duration `koanf:"interval"`

	// MinFeedback is the minimum batch size for a cycle to run.
	MinFeedback int `koanf:"min_feedback"`

	// RecentLimit caps feedback collected per cycle.
	RecentLimit int `koanf:"recent_limit"`

	// InitialLearningRate seeds the controller's learning rate.
	InitialLearningRate float64 `koanf:"initial_learning_rate"`

	// MaxLearningRate caps learning-rate escalation.
	MaxLearningRate float64 `koanf:"max_learning_rate"`

	// DeclineWindow is the declining-performance window that triggers
	// exploration.
	DeclineWindow int `koanf:"decline_window"`
}

// RecognizerConfig holds pattern detection thresholds.
type RecognizerConfig struct {
	SignificanceThreshold float64 `koanf:"significance_threshold"`
	MinBucketSize         int     `koanf:"min_bucket_size"`
	MinTrendPoints        int     `koanf:"min_trend_points"`
	TrendConsistency      float64 `koanf:"trend_consistency"`
}

// EngineConfig holds adaptation engine settings.
type EngineConfig struct {
	// GenerationThreshold is the minimum pattern confidence for
	// candidate generation.
	GenerationThreshold float64 `koanf:"generation_threshold"`
}

// GovernanceConfig holds the verification service endpoint and the
// governance identity stamped onto adaptations.
type GovernanceConfig struct {
	// VerifierURL is the base URL of the verification services.
	VerifierURL string `koanf:"verifier_url"`

	// CallTimeout bounds each verification call.
	CallTimeout time.Duration `koanf:"call_timeout"`

	// ConstitutionHash identifies the active constitution.
	ConstitutionHash string `koanf:"constitution_hash"`

	// ComplianceLevel is the governance compliance tier.
	ComplianceLevel string `koanf:"compliance_level"`
}

// IngestConfig holds feedback ingestion settings.
type IngestConfig struct {
	// NATSURL enables the NATS subscriber when non-empty.
	NATSURL string `koanf:"nats_url"`

	// Subject is the NATS subject to subscribe on.
	Subject string `koanf:"subject"`

	// RatePerSecond bounds ingestion; zero disables limiting.
	RatePerSecond float64 `koanf:"rate_per_second"`

	// Burst is the rate limiter burst size.
	Burst int `koanf:"burst"`
}

// TelemetryConfig holds metrics settings.
type TelemetryConfig struct {
	// Enabled exports loop metrics on /metrics. Disabling leaves the
	// endpoint serving only process and Go runtime metrics.
	Enabled bool `koanf:"enabled"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8086,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Loop: LoopConfig{
			Interval:            0,
			MinFeedback:         5,
			RecentLimit:         100,
			InitialLearningRate: 0.1,
			MaxLearningRate:     0.5,
			DeclineWindow:       3,
		},
		Recognizer: RecognizerConfig{
			SignificanceThreshold: 0.5,
			MinBucketSize:         3,
			MinTrendPoints:        15,
			TrendConsistency:      0.8,
		},
		Engine: EngineConfig{
			GenerationThreshold: 0.6,
		},
		Governance: GovernanceConfig{
			CallTimeout:     5 * time.Second,
			ComplianceLevel: "standard",
		},
		Ingest: IngestConfig{
			Subject: "feedback.>",
			Burst:   10,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in 1-65535, got %d", c.Server.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}
	if c.Loop.Interval < 0 {
		return fmt.Errorf("loop interval cannot be negative")
	}
	if c.Loop.MinFeedback <= 0 {
		return fmt.Errorf("loop min_feedback must be positive")
	}
	if t := c.Recognizer.SignificanceThreshold; t < 0 || t >= 1 {
		return fmt.Errorf("significance threshold must be in [0,1), got %v", t)
	}
	if t := c.Engine.GenerationThreshold; t < 0 || t > 1 {
		return fmt.Errorf("generation threshold must be in [0,1], got %v", t)
	}
	if c.Governance.ConstitutionHash == "" {
		return fmt.Errorf("governance constitution_hash is required")
	}
	if c.Governance.VerifierURL == "" {
		return fmt.Errorf("governance verifier_url is required")
	}
	return nil
}
