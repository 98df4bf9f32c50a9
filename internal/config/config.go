// Package config loads and validates the YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	API       APIConfig       `yaml:"api"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Generator GeneratorConfig `yaml:"generator"`
	Publisher PublisherConfig `yaml:"publisher"`
}

// APIConfig contains HTTP API server settings
type APIConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	APIKey       string        `yaml:"api_key"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// SchedulerConfig contains executor and retention settings
type SchedulerConfig struct {
	Workers        int             `yaml:"workers"`
	PollInterval   time.Duration   `yaml:"poll_interval"`
	PublishTimeout time.Duration   `yaml:"publish_timeout"`
	Retention      RetentionConfig `yaml:"retention"`
}

// RetentionConfig controls cleanup of finished jobs
type RetentionConfig struct {
	MaxAge          time.Duration `yaml:"max_age"`          // Delete finished jobs older than this (0 = keep forever)
	CleanupSchedule string        `yaml:"cleanup_schedule"` // Cron spec, default @hourly
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	ListenAddr    string        `yaml:"listen_addr"`    // Default: :9090
	Path          string        `yaml:"path"`           // Default: /metrics
	FlushInterval time.Duration `yaml:"flush_interval"` // Default: 10s
}

// GeneratorConfig contains content generation settings
type GeneratorConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"` // Falls back to ANTHROPIC_API_KEY
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// PublisherConfig contains publisher settings
type PublisherConfig struct {
	Mock bool `yaml:"mock"` // Use mock publishers for every platform
}

// Load reads the configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.API.ReadTimeout == 0 {
		c.API.ReadTimeout = 30 * time.Second
	}
	if c.API.WriteTimeout == 0 {
		c.API.WriteTimeout = 30 * time.Second
	}
	if c.API.IdleTimeout == 0 {
		c.API.IdleTimeout = 60 * time.Second
	}

	if c.Scheduler.Workers == 0 {
		c.Scheduler.Workers = 4
	}
	if c.Scheduler.PollInterval == 0 {
		c.Scheduler.PollInterval = time.Second
	}
	if c.Scheduler.PublishTimeout == 0 {
		c.Scheduler.PublishTimeout = 60 * time.Second
	}
	if c.Scheduler.Retention.MaxAge == 0 {
		c.Scheduler.Retention.MaxAge = 720 * time.Hour // 30 days
	}
	if c.Scheduler.Retention.CleanupSchedule == "" {
		c.Scheduler.Retention.CleanupSchedule = "@hourly"
	}

	if c.Storage.Path == "" {
		c.Storage.Path = "./data/crier.db"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.FlushInterval == 0 {
		c.Metrics.FlushInterval = 10 * time.Second
	}

	if c.Generator.BaseURL == "" {
		c.Generator.BaseURL = "https://api.anthropic.com"
	}
	if c.Generator.APIKey == "" {
		c.Generator.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.Generator.Timeout == 0 {
		c.Generator.Timeout = 45 * time.Second
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	if c.Scheduler.Workers < 0 {
		return fmt.Errorf("scheduler.workers must not be negative")
	}
	if c.Scheduler.PollInterval < 0 {
		return fmt.Errorf("scheduler.poll_interval must not be negative")
	}

	if c.Generator.Enabled && c.Generator.APIKey == "" {
		return fmt.Errorf("generator.api_key (or ANTHROPIC_API_KEY) is required when the generator is enabled")
	}

	return nil
}
