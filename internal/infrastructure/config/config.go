// Package config provides configuration structs and utilities for mcptap.
package config

import (
	"fmt"
	"time"
)

// Config represents the root configuration for mcptap.
type Config struct {
	DefaultTarget string        `yaml:"default_target"`
	Timeout       time.Duration `yaml:"timeout"`
	Logging       LoggingConfig `yaml:"logging"`
	History       HistoryConfig `yaml:"history"`
	Tracing       TracingConfig `yaml:"tracing"`
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// HistoryConfig holds configuration for the local invocation history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
	ServiceName  string  `yaml:"service_name"`
}

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultLogFormat   = "text"
	DefaultHistoryPath = "~/.mcptap/history.db"
	DefaultServiceName = "mcptap"
)

// NewDefaultConfig returns a Config populated with defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Timeout: DefaultTimeout,
		Logging: LoggingConfig{
			Format: DefaultLogFormat,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			ExporterType: "stdout",
			SampleRate:   1.0,
			ServiceName:  DefaultServiceName,
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing sample_rate must be in [0, 1], got %v", c.Tracing.SampleRate)
	}
	switch c.Tracing.ExporterType {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("unknown tracing exporter_type: %s", c.Tracing.ExporterType)
	}
	return nil
}
