package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "modelflow", cfg.Telemetry.ServiceName)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)

	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.Empty(t, cfg.Cache.RedisAddr)

	assert.False(t, cfg.UsageLog.Enabled)
	assert.Equal(t, 0, cfg.Limits.RequestsPerMinute)

	assert.Equal(t, "openrouter", cfg.Providers.Default)
	assert.Equal(t, 30*time.Second, cfg.Providers.OpenRouter.Timeout)
	assert.False(t, cfg.Providers.OpenRouter.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelflow.yaml")
	data := `
log:
  level: debug
  format: json
cache:
  enabled: true
  ttl: 90s
  redis_addr: "localhost:6379"
limits:
  requests_per_minute: 120
  burst: 10
providers:
  default: deepseek
  deepseek:
    enabled: true
    api_key: sk-test
    model: deepseek-chat
  openrouter:
    site_url: https://example.com
    site_name: Example
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 120, cfg.Limits.RequestsPerMinute)
	assert.Equal(t, "deepseek", cfg.Providers.Default)
	assert.True(t, cfg.Providers.DeepSeek.Enabled)
	assert.Equal(t, "sk-test", cfg.Providers.DeepSeek.APIKey)
	assert.Equal(t, "https://example.com", cfg.Providers.OpenRouter.SiteURL)

	// File left sections untouched keep their defaults.
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.Equal(t, 30*time.Second, cfg.Providers.DeepSeek.Timeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))

	t.Setenv("MODELFLOW_LOG_LEVEL", "error")
	t.Setenv("MODELFLOW_LIMITS_REQUESTS_PER_MINUTE", "60")
	t.Setenv("MODELFLOW_CACHE_TTL", "2m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 60, cfg.Limits.RequestsPerMinute)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
}

func TestWellKnownProviderKeyEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("DEEPSEEK_API_KEY", "ds-key")
	t.Setenv("XAI_API_KEY", "xai-key")
	t.Setenv("MODELFLOW_REDIS_ADDR", "redis:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "or-key", cfg.Providers.OpenRouter.APIKey)
	assert.Equal(t, "ds-key", cfg.Providers.DeepSeek.APIKey)
	assert.Equal(t, "xai-key", cfg.Providers.Grok.APIKey)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "unknown log level",
		},
		{
			name:    "telemetry without endpoint",
			mutate:  func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.OTLPEndpoint = "" },
			wantErr: "telemetry enabled without an endpoint",
		},
		{
			name:    "sample ratio out of range",
			mutate:  func(c *Config) { c.Telemetry.SampleRate = 1.5 },
			wantErr: "sample_ratio",
		},
		{
			name:    "rate limit without burst",
			mutate:  func(c *Config) { c.Limits.RequestsPerMinute = 10; c.Limits.Burst = 0 },
			wantErr: "limits.burst",
		},
		{
			name:    "usage log without path",
			mutate:  func(c *Config) { c.UsageLog.Enabled = true; c.UsageLog.Path = "" },
			wantErr: "usage_log enabled without a path",
		},
		{
			name:    "enabled provider without key",
			mutate:  func(c *Config) { c.Providers.OpenRouter.Enabled = true },
			wantErr: "openrouter enabled without an API key",
		},
		{
			name:    "unknown default provider",
			mutate:  func(c *Config) { c.Providers.Default = "openai" },
			wantErr: "unknown default provider",
		},
		{
			name: "enabled provider with key passes",
			mutate: func(c *Config) {
				c.Providers.Grok.Enabled = true
				c.Providers.Grok.APIKey = "xai-key"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoaderValidatorHook(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	require.NoError(t, err)
}
