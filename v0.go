// Package v0 provides a client for the v0 Platform API.
//
// The client in this package is a thin constructor over pkg/client for
// the common case of an API key and a few options:
//
//	c, err := v0.NewClient(os.Getenv("V0_API_KEY"), v0.WithTimeout(2*time.Minute))
//	if err != nil { ... }
//	defer c.Close()
//	chat, err := c.Chats.Create(ctx, &models.ChatCreateRequest{Message: "A todo app"})
//
// Services that need the full configuration surface use pkg/config and
// pkg/client directly.
package v0

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/config"
	httpClient "github.com/vercel/v0-sdk-sub002/pkg/http"
	"github.com/vercel/v0-sdk-sub002/pkg/observability"
)

// Version is the SDK version.
const Version = config.Version

// Client is the v0 Platform API client.
type Client = client.Client

type settings struct {
	cfg        *config.Config
	clientOpts []client.Option
}

// Option configures the Client.
type Option func(*settings)

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) { s.cfg.BaseURL = strings.TrimRight(baseURL, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.cfg.Timeout = d }
}

// WithMaxRetries sets how often a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(s *settings) { s.cfg.MaxRetries = n }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(s *settings) { s.cfg.CustomHeaders[key] = value }
}

// WithRateLimit throttles outgoing requests client-side.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *settings) {
		s.cfg.EnableRateLimit = true
		s.cfg.RateLimit = perSecond
		s.cfg.RateBurst = burst
	}
}

// WithoutCircuitBreaker disables the circuit breaker.
func WithoutCircuitBreaker() Option {
	return func(s *settings) { s.cfg.CircuitBreakerEnabled = false }
}

// WithCacheTTL sets how long account lookups are cached. Zero disables
// caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *settings) { s.cfg.CacheTTL = ttl }
}

// WithHTTPTransport replaces the underlying round tripper.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(s *settings) {
		s.clientOpts = append(s.clientOpts, client.WithHTTPOptions(httpClient.WithHTTPTransport(rt)))
	}
}

// WithLogger sets the logger.
func WithLogger(logger *observability.Logger) Option {
	return func(s *settings) { s.clientOpts = append(s.clientOpts, client.WithLogger(logger)) }
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics *observability.MetricsCollector) Option {
	return func(s *settings) { s.clientOpts = append(s.clientOpts, client.WithMetrics(metrics)) }
}

// WithTracer sets the tracer.
func WithTracer(tracer *observability.Tracer) Option {
	return func(s *settings) { s.clientOpts = append(s.clientOpts, client.WithTracer(tracer)) }
}

// NewClient creates a client for apiKey. Logging is off unless a logger
// is supplied.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("v0: API key is required")
	}

	cfg := config.DefaultConfig()
	cfg.APIKey = apiKey
	cfg.EnableLogging = false

	s := &settings{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return client.NewClient(s.cfg, s.clientOpts...)
}

// NewClientFromEnv creates a client from V0_* environment variables and
// an optional v0.yaml file.
func NewClientFromEnv(opts ...client.Option) (*Client, error) {
	return client.NewClient(nil, opts...)
}
