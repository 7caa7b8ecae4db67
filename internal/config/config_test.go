package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minewatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: redis
  key_prefix: "device-42:"
  redis:
    addr: redis:6379
telemetry:
  provider: inventory
  inventory_file: apps.yaml
  timeout: 3s
scan:
  workers: 8
min_risk: HIGH
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "device-42:", cfg.Store.KeyPrefix)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 3*time.Second, cfg.Telemetry.Timeout)
	assert.Equal(t, 8, cfg.Scan.Workers)
	// untouched sections keep their defaults
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "kv_store", cfg.Store.Postgres.Table)
}

func TestLoadConfigWithoutPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "file", cfg.Store.Backend)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"output format", func(c *Config) { c.OutputFormat = "xml" }},
		{"min risk", func(c *Config) { c.MinRisk = "CRITICAL" }},
		{"backend", func(c *Config) { c.Store.Backend = "etcd" }},
		{"postgres dsn", func(c *Config) { c.Store.Backend = "postgres" }},
		{"minio endpoint", func(c *Config) { c.Store.Backend = "minio" }},
		{"provider", func(c *Config) { c.Telemetry.Provider = "adb" }},
		{"inventory file", func(c *Config) { c.Telemetry.Provider = "inventory" }},
		{"ssm instance", func(c *Config) { c.Telemetry.Provider = "ssm" }},
		{"timeout", func(c *Config) { c.Telemetry.Timeout = 0 }},
		{"workers", func(c *Config) { c.Scan.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExampleConfigIsValid(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "minewatch.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "inventory", cfg.Telemetry.Provider)
	assert.Equal(t, 10*time.Second, cfg.Telemetry.Timeout)
}
