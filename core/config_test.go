package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "spendwise", cfg.Name)
	assert.Equal(t, "inmemory", cfg.Memory.Provider)
	assert.Equal(t, time.Duration(0), cfg.Memory.DefaultTTL)
	assert.Equal(t, "inmemory", cfg.Archive.Provider)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	assert.NoError(t, cfg.Validate())
}

func TestNewConfig_Options(t *testing.T) {
	cfg, err := NewConfig(
		WithName("test-instance"),
		WithMemoryProvider("redis"),
		WithRedisURL("redis://localhost:6379"),
		WithMemoryTTL(30*time.Minute),
		WithArchiveProvider("redis"),
		WithTelemetry(true, "otel-collector:4317"),
		WithLogLevel("debug"),
		WithLogFormat("json"),
	)
	require.NoError(t, err)

	assert.Equal(t, "test-instance", cfg.Name)
	assert.Contains(t, cfg.ID, "test-instance-")
	assert.Equal(t, "redis", cfg.Memory.Provider)
	assert.Equal(t, "redis://localhost:6379", cfg.Memory.RedisURL)
	assert.Equal(t, 30*time.Minute, cfg.Memory.DefaultTTL)
	// WithRedisURL flows through to the archive unless overridden.
	assert.Equal(t, "redis://localhost:6379", cfg.Archive.RedisURL)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "otel-collector:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestNewConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("SPENDWISE_NAME", "from-env")
	t.Setenv("SPENDWISE_LOG_LEVEL", "warn")
	t.Setenv("SPENDWISE_MEMORY_DEFAULT_TTL", "45m")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 45*time.Minute, cfg.Memory.DefaultTTL)
}

func TestNewConfig_OptionsOverrideEnv(t *testing.T) {
	t.Setenv("SPENDWISE_NAME", "from-env")

	cfg, err := NewConfig(WithName("from-option"))
	require.NoError(t, err)
	assert.Equal(t, "from-option", cfg.Name)
}

func TestConfig_ValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{
			name:   "missing name",
			mutate: func(c *Config) { c.Name = "" },
			want:   ErrMissingConfiguration,
		},
		{
			name:   "redis memory without url",
			mutate: func(c *Config) { c.Memory.Provider = "redis" },
			want:   ErrMissingConfiguration,
		},
		{
			name:   "pebble without path",
			mutate: func(c *Config) { c.Memory.Provider = "pebble" },
			want:   ErrMissingConfiguration,
		},
		{
			name:   "unknown memory provider",
			mutate: func(c *Config) { c.Memory.Provider = "etcd" },
			want:   ErrInvalidConfiguration,
		},
		{
			name:   "redis archive without url",
			mutate: func(c *Config) { c.Archive.Provider = "redis" },
			want:   ErrMissingConfiguration,
		},
		{
			name:   "unknown archive provider",
			mutate: func(c *Config) { c.Archive.Provider = "s3" },
			want:   ErrInvalidConfiguration,
		},
		{
			name:   "telemetry enabled without endpoint",
			mutate: func(c *Config) { c.Telemetry.Enabled = true },
			want:   ErrMissingConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.True(t, IsConfigurationError(err))
		})
	}
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
name: from-file
memory:
  provider: pebble
  pebble_path: /var/lib/spendwise
logging:
  level: error
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "from-file", cfg.Name)
	assert.Equal(t, "pebble", cfg.Memory.Provider)
	assert.Equal(t, "/var/lib/spendwise", cfg.Memory.PebblePath)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoadFromFileRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = 'x'"), 0o600))

	cfg := DefaultConfig()
	err := cfg.LoadFromFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("1"))
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool("Yes"))
	assert.True(t, parseBool("on"))
	assert.False(t, parseBool("0"))
	assert.False(t, parseBool("off"))
	assert.False(t, parseBool("garbage"))
}
