package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Version is the SDK version reported in the User-Agent and SDKInfo.
const Version = "0.4.0"

// DefaultBaseURL is the public v0 Platform API endpoint.
const DefaultBaseURL = "https://api.v0.dev/v1"

// Config holds the configuration for the v0 client
type Config struct {
	// Authentication
	APIKey string `mapstructure:"api_key" json:"-"`

	// Connection settings
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`

	// Retry configuration
	MaxRetries       int           `mapstructure:"max_retries" json:"max_retries"`
	RetryWaitTime    time.Duration `mapstructure:"retry_wait_time" json:"retry_wait_time"`
	RetryMaxWaitTime time.Duration `mapstructure:"retry_max_wait_time" json:"retry_max_wait_time"`

	// Circuit breaker configuration
	CircuitBreakerEnabled          bool          `mapstructure:"circuit_breaker_enabled" json:"circuit_breaker_enabled"`
	CircuitBreakerFailureThreshold uint32        `mapstructure:"circuit_breaker_failure_threshold" json:"circuit_breaker_failure_threshold"`
	CircuitBreakerTimeout          time.Duration `mapstructure:"circuit_breaker_timeout" json:"circuit_breaker_timeout"`
	CircuitBreakerMaxRequests      uint32        `mapstructure:"circuit_breaker_max_requests" json:"circuit_breaker_max_requests"`

	// Observability
	EnableMetrics  bool   `mapstructure:"enable_metrics" json:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing" json:"enable_tracing"`
	EnableLogging  bool   `mapstructure:"enable_logging" json:"enable_logging"`
	LogLevel       string `mapstructure:"log_level" json:"log_level"`
	LogFormat      string `mapstructure:"log_format" json:"log_format"` // json or text
	ServiceName    string `mapstructure:"service_name" json:"service_name"`
	ServiceVersion string `mapstructure:"service_version" json:"service_version"`

	// HTTP Client configuration
	MaxIdleConns        int           `mapstructure:"max_idle_conns" json:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host" json:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout" json:"idle_conn_timeout"`

	// Rate limiting (client-side)
	EnableRateLimit bool    `mapstructure:"enable_rate_limit" json:"enable_rate_limit"`
	RateLimit       float64 `mapstructure:"rate_limit" json:"rate_limit"` // requests per second
	RateBurst       int     `mapstructure:"rate_burst" json:"rate_burst"`

	// Read-through cache for user, plan and scope lookups. Zero disables it.
	CacheTTL time.Duration `mapstructure:"cache_ttl" json:"cache_ttl"`

	UserAgent     string            `mapstructure:"user_agent" json:"user_agent"`
	CustomHeaders map[string]string `mapstructure:"custom_headers" json:"custom_headers"`

	Debug bool `mapstructure:"debug" json:"debug"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BaseURL:                        DefaultBaseURL,
		Timeout:                        60 * time.Second,
		MaxRetries:                     2,
		RetryWaitTime:                  500 * time.Millisecond,
		RetryMaxWaitTime:               10 * time.Second,
		CircuitBreakerEnabled:          true,
		CircuitBreakerFailureThreshold: 5,
		CircuitBreakerTimeout:          30 * time.Second,
		CircuitBreakerMaxRequests:      1,
		EnableMetrics:                  false,
		EnableTracing:                  false,
		EnableLogging:                  true,
		LogLevel:                       "info",
		LogFormat:                      "text",
		ServiceName:                    "v0-go-sdk",
		ServiceVersion:                 Version,
		MaxIdleConns:                   100,
		MaxIdleConnsPerHost:            10,
		IdleConnTimeout:                90 * time.Second,
		EnableRateLimit:                false,
		RateLimit:                      10,
		RateBurst:                      20,
		CacheTTL:                       time.Minute,
		UserAgent:                      "v0-go-sdk/" + Version,
		CustomHeaders:                  make(map[string]string),
	}
}

// LoadConfig loads configuration from defaults, an optional v0.yaml file
// and V0_* environment variables, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("v0")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.v0")
	v.AddConfigPath("/etc/v0")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return LoadConfigFrom(v)
}

// LoadConfigFrom builds a validated Config from an existing viper
// instance. Environment variables prefixed with V0_ override values held
// by v.
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfigUnvalidated is LoadConfigFrom without validation, for callers
// that fill in missing values (an API key from a flag, say) afterwards.
func LoadConfigUnvalidated(v *viper.Viper) (*Config, error) {
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	v.SetEnvPrefix("V0")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.CustomHeaders == nil {
		cfg.CustomHeaders = make(map[string]string)
	}
	return cfg, nil
}

// setDefaults registers every key with viper so AutomaticEnv can resolve
// it during Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api_key", cfg.APIKey)
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("max_retries", cfg.MaxRetries)
	v.SetDefault("retry_wait_time", cfg.RetryWaitTime)
	v.SetDefault("retry_max_wait_time", cfg.RetryMaxWaitTime)
	v.SetDefault("circuit_breaker_enabled", cfg.CircuitBreakerEnabled)
	v.SetDefault("circuit_breaker_failure_threshold", cfg.CircuitBreakerFailureThreshold)
	v.SetDefault("circuit_breaker_timeout", cfg.CircuitBreakerTimeout)
	v.SetDefault("circuit_breaker_max_requests", cfg.CircuitBreakerMaxRequests)
	v.SetDefault("enable_metrics", cfg.EnableMetrics)
	v.SetDefault("enable_tracing", cfg.EnableTracing)
	v.SetDefault("enable_logging", cfg.EnableLogging)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("service_name", cfg.ServiceName)
	v.SetDefault("service_version", cfg.ServiceVersion)
	v.SetDefault("max_idle_conns", cfg.MaxIdleConns)
	v.SetDefault("max_idle_conns_per_host", cfg.MaxIdleConnsPerHost)
	v.SetDefault("idle_conn_timeout", cfg.IdleConnTimeout)
	v.SetDefault("enable_rate_limit", cfg.EnableRateLimit)
	v.SetDefault("rate_limit", cfg.RateLimit)
	v.SetDefault("rate_burst", cfg.RateBurst)
	v.SetDefault("cache_ttl", cfg.CacheTTL)
	v.SetDefault("user_agent", cfg.UserAgent)
	v.SetDefault("custom_headers", cfg.CustomHeaders)
	v.SetDefault("debug", cfg.Debug)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required (set V0_API_KEY)")
	}

	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("base URL %q must be an absolute http(s) URL", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if c.CircuitBreakerEnabled && c.CircuitBreakerFailureThreshold == 0 {
		return fmt.Errorf("circuit breaker failure threshold must be positive")
	}

	if c.EnableRateLimit && (c.RateLimit <= 0 || c.RateBurst <= 0) {
		return fmt.Errorf("rate limit and burst must be positive when rate limiting is enabled")
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log format must be json or text, got %q", c.LogFormat)
	}

	return nil
}

// SDKInfo returns SDK information for debugging and support
func SDKInfo() map[string]interface{} {
	return map[string]interface{}{
		"name":          "v0 Go SDK",
		"version":       Version,
		"description":   "Go client for the v0 Platform API",
		"documentation": "https://v0.dev/docs/api/platform",
		"base_url":      DefaultBaseURL,
		"features": []string{
			"Typed API errors",
			"Retries with circuit breaker",
			"Client-side rate limiting",
			"Metrics, tracing and structured logging",
			"OpenAI-compatible tool definitions",
		},
	}
}
