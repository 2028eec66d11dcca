package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the spendwise core.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithName("spendwise"),
//	    WithMemoryProvider("pebble"),
//	    WithPebblePath("/var/lib/spendwise"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// Core configuration
	Name string `json:"name" yaml:"name" env:"SPENDWISE_NAME"`
	ID   string `json:"id" yaml:"id" env:"SPENDWISE_ID"`

	// Memory configuration (persisted key-value store)
	Memory MemoryConfig `json:"memory" yaml:"memory"`

	// Archive configuration (remote past-list / purchase store)
	Archive ArchiveConfig `json:"archive" yaml:"archive"`

	// Telemetry configuration (optional module)
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// MemoryConfig contains persisted state storage configuration.
// Providers:
//   - "inmemory": volatile, for tests and embedding hosts that persist elsewhere
//   - "pebble":   durable local storage, one slot per namespace (single device)
//   - "redis":    shared storage for cross-device persistence of the same principal
type MemoryConfig struct {
	Provider   string        `json:"provider" yaml:"provider" env:"SPENDWISE_MEMORY_PROVIDER" default:"inmemory"`
	RedisURL   string        `json:"redis_url" yaml:"redis_url" env:"SPENDWISE_MEMORY_REDIS_URL,REDIS_URL"`
	PebblePath string        `json:"pebble_path" yaml:"pebble_path" env:"SPENDWISE_MEMORY_PEBBLE_PATH"`
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" env:"SPENDWISE_MEMORY_DEFAULT_TTL" default:"0"`
}

// ArchiveConfig contains configuration for the remote archive store holding
// immutable past shopping lists and purchase history.
type ArchiveConfig struct {
	Provider string `json:"provider" yaml:"provider" env:"SPENDWISE_ARCHIVE_PROVIDER" default:"inmemory"`
	RedisURL string `json:"redis_url" yaml:"redis_url" env:"SPENDWISE_ARCHIVE_REDIS_URL,REDIS_URL"`
}

// TelemetryConfig contains observability configuration for metrics and
// distributed tracing. This is an optional module - telemetry is only
// initialized when Enabled=true. Supports OpenTelemetry (OTEL) protocol.
type TelemetryConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled" env:"SPENDWISE_TELEMETRY_ENABLED" default:"false"`
	Endpoint       string `json:"endpoint" yaml:"endpoint" env:"SPENDWISE_TELEMETRY_ENDPOINT,OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName    string `json:"service_name" yaml:"service_name" env:"SPENDWISE_TELEMETRY_SERVICE_NAME,OTEL_SERVICE_NAME"`
	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled" env:"SPENDWISE_TELEMETRY_METRICS" default:"true"`
	TracingEnabled bool   `json:"tracing_enabled" yaml:"tracing_enabled" env:"SPENDWISE_TELEMETRY_TRACING" default:"true"`
	Insecure       bool   `json:"insecure" yaml:"insecure" env:"SPENDWISE_TELEMETRY_INSECURE" default:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"SPENDWISE_LOG_LEVEL" default:"info"`
	Format string `json:"format" yaml:"format" env:"SPENDWISE_LOG_FORMAT" default:"text"`
}

// Option is a functional option for configuring the core
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Name: "spendwise",
		Memory: MemoryConfig{
			Provider:   "inmemory",
			DefaultTTL: 0,
		},
		Archive: ArchiveConfig{
			Provider: "inmemory",
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			MetricsEnabled: true,
			TracingEnabled: true,
			Insecure:       true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromEnv populates configuration from environment variables.
// Environment variables override defaults but not functional options.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SPENDWISE_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("SPENDWISE_ID"); v != "" {
		c.ID = v
	}

	// Memory settings
	if v := os.Getenv("SPENDWISE_MEMORY_PROVIDER"); v != "" {
		c.Memory.Provider = v
	}
	if v := os.Getenv("SPENDWISE_MEMORY_REDIS_URL"); v != "" {
		c.Memory.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.Memory.RedisURL = v
		if c.Archive.RedisURL == "" {
			c.Archive.RedisURL = v
		}
	}
	if v := os.Getenv("SPENDWISE_MEMORY_PEBBLE_PATH"); v != "" {
		c.Memory.PebblePath = v
	}
	if v := os.Getenv("SPENDWISE_MEMORY_DEFAULT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Memory.DefaultTTL = d
		}
	}

	// Archive settings
	if v := os.Getenv("SPENDWISE_ARCHIVE_PROVIDER"); v != "" {
		c.Archive.Provider = v
	}
	if v := os.Getenv("SPENDWISE_ARCHIVE_REDIS_URL"); v != "" {
		c.Archive.RedisURL = v
	}

	// Telemetry settings
	if v := os.Getenv("SPENDWISE_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("SPENDWISE_TELEMETRY_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	} else if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("SPENDWISE_TELEMETRY_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	} else if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	}
	if v := os.Getenv("SPENDWISE_TELEMETRY_METRICS"); v != "" {
		c.Telemetry.MetricsEnabled = parseBool(v)
	}
	if v := os.Getenv("SPENDWISE_TELEMETRY_TRACING"); v != "" {
		c.Telemetry.TracingEnabled = parseBool(v)
	}
	if v := os.Getenv("SPENDWISE_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = parseBool(v)
	}

	// Logging settings
	if v := os.Getenv("SPENDWISE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SPENDWISE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file.
// Values from the file override whatever is currently set, so callers
// normally apply it before environment variables and options.
func (c *Config) LoadFromFile(path string) error {
	cleanPath := filepath.Clean(path)

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config file extension %s: %w", ext, ErrInvalidConfiguration)
	}

	if !filepath.IsAbs(cleanPath) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		cleanPath = filepath.Join(wd, cleanPath)
	}

	data, err := os.ReadFile(filepath.Clean(cleanPath))
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config file: %w", ErrInvalidConfiguration)
	}

	return nil
}

// Validate checks if the configuration is valid and returns an error if not.
//
// Validation rules:
//   - Name is required
//   - Redis URL is required when a redis provider is selected
//   - Pebble path is required for the pebble memory provider
//   - Telemetry endpoint is required when telemetry is enabled
func (c *Config) Validate() error {
	if c.Name == "" {
		return &StateError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: "name is required",
			Err:     ErrMissingConfiguration,
		}
	}

	switch c.Memory.Provider {
	case "inmemory":
	case "redis":
		if c.Memory.RedisURL == "" {
			return &StateError{
				Op:      "Config.Validate",
				Kind:    "config",
				Message: "redis URL is required for the redis memory provider",
				Err:     ErrMissingConfiguration,
			}
		}
	case "pebble":
		if c.Memory.PebblePath == "" {
			return &StateError{
				Op:      "Config.Validate",
				Kind:    "config",
				Message: "pebble path is required for the pebble memory provider",
				Err:     ErrMissingConfiguration,
			}
		}
	default:
		return &StateError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: fmt.Sprintf("unknown memory provider: %s", c.Memory.Provider),
			Err:     ErrInvalidConfiguration,
		}
	}

	switch c.Archive.Provider {
	case "inmemory":
	case "redis":
		if c.Archive.RedisURL == "" {
			return &StateError{
				Op:      "Config.Validate",
				Kind:    "config",
				Message: "redis URL is required for the redis archive provider",
				Err:     ErrMissingConfiguration,
			}
		}
	default:
		return &StateError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: fmt.Sprintf("unknown archive provider: %s", c.Archive.Provider),
			Err:     ErrInvalidConfiguration,
		}
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return &StateError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: "telemetry endpoint is required when telemetry is enabled",
			Err:     ErrMissingConfiguration,
		}
	}

	return nil
}

// parseBool parses a boolean environment value, accepting 1/true/yes/on.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return false
}

// WithName sets the instance name
func WithName(name string) Option {
	return func(c *Config) error {
		c.Name = name
		return nil
	}
}

// WithMemoryProvider sets the persisted state provider ("inmemory", "pebble", "redis")
func WithMemoryProvider(provider string) Option {
	return func(c *Config) error {
		c.Memory.Provider = provider
		return nil
	}
}

// WithRedisURL sets the Redis connection URL for both memory and archive
// providers. Use WithArchiveRedisURL to point the archive elsewhere.
func WithRedisURL(url string) Option {
	return func(c *Config) error {
		c.Memory.RedisURL = url
		if c.Archive.RedisURL == "" {
			c.Archive.RedisURL = url
		}
		return nil
	}
}

// WithPebblePath sets the directory for the pebble memory provider
func WithPebblePath(path string) Option {
	return func(c *Config) error {
		c.Memory.PebblePath = path
		return nil
	}
}

// WithMemoryTTL sets the default TTL applied to persisted snapshots.
// Zero means snapshots never expire.
func WithMemoryTTL(ttl time.Duration) Option {
	return func(c *Config) error {
		c.Memory.DefaultTTL = ttl
		return nil
	}
}

// WithArchiveProvider sets the archive provider ("inmemory", "redis")
func WithArchiveProvider(provider string) Option {
	return func(c *Config) error {
		c.Archive.Provider = provider
		return nil
	}
}

// WithArchiveRedisURL sets the Redis connection URL for the archive store
func WithArchiveRedisURL(url string) Option {
	return func(c *Config) error {
		c.Archive.RedisURL = url
		return nil
	}
}

// WithTelemetry enables telemetry with the given OTLP endpoint
func WithTelemetry(enabled bool, endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = enabled
		if endpoint != "" {
			c.Telemetry.Endpoint = endpoint
		}
		return nil
	}
}

// WithLogLevel sets the logging level (debug, info, warn, error)
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logging.Level = level
		return nil
	}
}

// WithLogFormat sets the logging format (text, json)
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = format
		return nil
	}
}

// WithConfigFile loads configuration from a YAML file before the remaining
// options are applied.
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		return c.LoadFromFile(path)
	}
}

// NewConfig creates a new configuration with the given options.
// Priority order: defaults < environment variables < functional options.
//
// Example:
//
//	cfg, err := NewConfig(
//	    WithName("spendwise"),
//	    WithMemoryProvider("redis"),
//	    WithRedisURL("redis://localhost:6379"),
//	)
//	if err != nil {
//	    return err
//	}
func NewConfig(opts ...Option) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Load from environment first
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	// Apply functional options (these override env vars)
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("%s-%s", cfg.Name, uuid.New().String()[:8])
	}

	return cfg, nil
}
