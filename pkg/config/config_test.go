package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.v0.dev/v1", cfg.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.True(t, cfg.CircuitBreakerEnabled)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "v0-go-sdk/"+Version, cfg.UserAgent)
	assert.NotNil(t, cfg.CustomHeaders)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("V0_API_KEY", "test-api-key")
	t.Setenv("V0_BASE_URL", "https://test.api.com/v1/")
	t.Setenv("V0_TIMEOUT", "15s")
	t.Setenv("V0_MAX_RETRIES", "5")
	t.Setenv("V0_ENABLE_METRICS", "true")
	t.Setenv("V0_LOG_LEVEL", "DEBUG")
	t.Setenv("V0_RATE_LIMIT", "2.5")

	cfg, err := LoadConfigFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "test-api-key", cfg.APIKey)
	assert.Equal(t, "https://test.api.com/v1", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 2.5, cfg.RateLimit, 0.0001)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("V0_API_KEY", "")
	t.Setenv("V0_TIMEOUT", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "v0.yaml")
	err := os.WriteFile(path, []byte(`
api_key: file-key
timeout: 5s
cache_ttl: 0s
custom_headers:
  x-team: platform
`), 0o600)
	require.NoError(t, err)

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadConfigFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, time.Duration(0), cfg.CacheTTL)
	assert.Equal(t, "platform", cfg.CustomHeaders["x-team"])

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("V0_API_KEY", "env-key")
		v := viper.New()
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := LoadConfigFrom(v)
		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.APIKey)
	})
}

func TestLoadConfigMissingKey(t *testing.T) {
	t.Setenv("V0_API_KEY", "")

	_, err := LoadConfigFrom(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")

	cfg, err := LoadConfigUnvalidated(viper.New())
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing api key", func(c *Config) { c.APIKey = "" }, "API key is required"},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, "base URL is required"},
		{"relative base url", func(c *Config) { c.BaseURL = "/v1" }, "absolute http(s) URL"},
		{"ftp base url", func(c *Config) { c.BaseURL = "ftp://api.v0.dev" }, "absolute http(s) URL"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be positive"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max retries cannot be negative"},
		{"zero breaker threshold", func(c *Config) { c.CircuitBreakerFailureThreshold = 0 }, "failure threshold"},
		{"breaker disabled ignores threshold", func(c *Config) {
			c.CircuitBreakerEnabled = false
			c.CircuitBreakerFailureThreshold = 0
		}, ""},
		{"rate limit without rate", func(c *Config) {
			c.EnableRateLimit = true
			c.RateLimit = 0
		}, "rate limit and burst"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.APIKey = "key"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSDKInfo(t *testing.T) {
	info := SDKInfo()
	assert.Equal(t, Version, info["version"])
	assert.Equal(t, DefaultBaseURL, info["base_url"])
}
