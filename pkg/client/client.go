package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/config"
	httpClient "github.com/vercel/v0-sdk-sub002/pkg/http"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
	"github.com/vercel/v0-sdk-sub002/pkg/observability"
)

// ErrClientClosed is returned by every call made after Close.
var ErrClientClosed = errors.New("v0: client is closed")

// Client is the main v0 Platform API client
type Client struct {
	config     *config.Config
	httpClient *httpClient.Client
	logger     *observability.Logger
	metrics    *observability.MetricsCollector
	tracer     *observability.Tracer

	// API clients
	Chats        *ChatsClient
	Projects     *ProjectsClient
	Deployments  *DeploymentsClient
	Hooks        *HooksClient
	User         *UserClient
	Integrations *IntegrationsClient
	RateLimits   *RateLimitsClient
	Reports      *ReportsClient

	// Health checks
	healthChecks map[string]func(context.Context) error
	healthMu     sync.RWMutex

	// Lifecycle
	closed bool
	mu     sync.RWMutex
}

// Option customises a Client beyond what Config expresses.
type Option func(*clientOptions)

type clientOptions struct {
	logger      *observability.Logger
	metrics     *observability.MetricsCollector
	tracer      *observability.Tracer
	httpOptions []httpClient.Option
}

// WithLogger uses logger instead of one built from the config.
func WithLogger(logger *observability.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithMetrics uses metrics instead of one built from the config.
func WithMetrics(metrics *observability.MetricsCollector) Option {
	return func(o *clientOptions) { o.metrics = metrics }
}

// WithTracer uses tracer instead of one built from the config.
func WithTracer(tracer *observability.Tracer) Option {
	return func(o *clientOptions) { o.tracer = tracer }
}

// WithHTTPOptions passes options through to the transport.
func WithHTTPOptions(opts ...httpClient.Option) Option {
	return func(o *clientOptions) { o.httpOptions = append(o.httpOptions, opts...) }
}

// NewClient creates a new v0 client. A nil cfg is loaded from the
// environment and v0.yaml.
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	// Initialize logger
	logger := o.logger
	if logger == nil {
		logger = observability.NewLogger(cfg.ServiceName, cfg.ServiceVersion, cfg.LogLevel, cfg.LogFormat, cfg.EnableLogging)
	}

	// Initialize metrics collector
	metrics := o.metrics
	if metrics == nil {
		metrics = observability.NewMetricsCollector(cfg.ServiceName, cfg.EnableMetrics)
	}

	// Initialize tracer
	tracer := o.tracer
	if tracer == nil {
		var err error
		tracer, err = observability.NewTracer(observability.TracingConfig{
			Enabled:        cfg.EnableTracing,
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.ServiceVersion,
			SamplingRatio:  1.0,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
	}

	httpOpts := []httpClient.Option{
		httpClient.WithLogger(logger.Logger),
		httpClient.WithBreakerStateHook(func(name string, from, to gobreaker.State) {
			logger.LogCircuitBreakerEvent(name, from.String(), to.String())
			metrics.RecordCircuitBreakerState(name, int(to))
		}),
		httpClient.WithRetryHook(func(req *httpClient.Request, attempt int, err error) {
			logger.LogRetryAttempt(context.Background(), req.Method+" "+req.Path, attempt, cfg.MaxRetries+1, err)
			metrics.RecordRetry(req.Path)
		}),
	}
	if tracer.Enabled() {
		httpOpts = append(httpOpts, httpClient.WithTracerProvider(tracer.Provider(), tracer.Propagator()))
	}
	httpOpts = append(httpOpts, o.httpOptions...)

	// Initialize HTTP client
	hc, err := httpClient.NewClient(cfg, httpOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	client := &Client{
		config:       cfg,
		httpClient:   hc,
		logger:       logger,
		metrics:      metrics,
		tracer:       tracer,
		healthChecks: make(map[string]func(context.Context) error),
	}

	// Initialize API clients
	client.Chats = NewChatsClient(client)
	client.Projects = NewProjectsClient(client)
	client.Deployments = NewDeploymentsClient(client)
	client.Hooks = NewHooksClient(client)
	client.User = NewUserClient(client, cfg.CacheTTL)
	client.Integrations = NewIntegrationsClient(client)
	client.RateLimits = NewRateLimitsClient(client)
	client.Reports = NewReportsClient(client)

	// Add default health checks
	client.addDefaultHealthChecks()

	logger.WithFields(map[string]interface{}{
		"base_url":        cfg.BaseURL,
		"metrics_enabled": cfg.EnableMetrics,
		"tracing_enabled": tracer.Enabled(),
		"cache_ttl":       cfg.CacheTTL.String(),
	}).Debug("v0 client initialized")

	return client, nil
}

// call describes one API operation. Route is the path template used for
// span and metric labels so IDs do not explode label cardinality.
type call struct {
	op     string
	method string
	route  string
	path   string
	query  url.Values
	body   interface{}
}

// invoke executes c and decodes the JSON response into out (if non-nil).
// Every error it returns is an *apierror.Error or ErrClientClosed.
func (c *Client) invoke(ctx context.Context, cl call, out interface{}) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClientClosed
	}

	// Start tracing
	ctx, span := c.tracer.StartSpan(ctx, cl.op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", cl.method),
		attribute.String("http.route", cl.route),
	)

	// Record request metrics
	c.metrics.RecordRequestInFlight(cl.method, cl.route, 1)
	defer c.metrics.RecordRequestInFlight(cl.method, cl.route, -1)

	start := time.Now()
	resp, err := c.httpClient.Do(ctx, &httpClient.Request{
		Method: cl.method,
		Path:   cl.path,
		Query:  cl.query,
		Body:   cl.body,
	})
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
		c.tracer.RecordHTTPResponse(span, resp.StatusCode, int64(len(resp.Body)))
	} else {
		statusCode = apierror.KindOf(err).StatusCode()
	}

	c.metrics.RecordHTTPRequest(cl.method, cl.route, statusCode, duration)
	c.logger.LogAPICall(ctx, cl.method, cl.route, statusCode, float64(duration.Microseconds())/1000, err)

	if err != nil {
		c.tracer.RecordError(span, err, "API request failed")
		c.metrics.RecordError(err, "http_client")
		return err
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		apiErr := apierror.New(apierror.KindUnexpected, "failed to parse response")
		apiErr.StatusCode = resp.StatusCode
		apiErr.Body = resp.Body
		apiErr.Err = err
		c.tracer.RecordError(span, apiErr, "Failed to parse response")
		c.metrics.RecordError(apiErr, "decoder")
		return apiErr
	}
	return nil
}

// requireID fails with a bad-request error when value is empty.
func requireID(name, value string) error {
	if value == "" {
		return apierror.New(apierror.KindBadRequest, name+" is required")
	}
	return nil
}

func escape(segment string) string { return url.PathEscape(segment) }

// HealthCheck serves the result of all registered health checks as JSON
func (c *Client) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Start tracing
	ctx, span := c.tracer.StartSpan(ctx, "health_check")
	defer span.End()

	healthStatus := &models.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   config.Version,
		Checks:    make(map[string]models.HealthCheck),
	}

	c.healthMu.RLock()
	checks := make(map[string]func(context.Context) error, len(c.healthChecks))
	for name, check := range c.healthChecks {
		checks[name] = check
	}
	c.healthMu.RUnlock()

	// Run health checks
	overallHealthy := true
	for name, check := range checks {
		start := time.Now()
		err := check(ctx)
		result := models.HealthCheck{
			Status:     "healthy",
			DurationMs: float64(time.Since(start).Microseconds()) / 1000,
		}
		if err != nil {
			result.Status = "unhealthy"
			result.Error = err.Error()
			result.ErrorKind = apierror.KindOf(err).String()
			overallHealthy = false
		}
		healthStatus.Checks[name] = result
	}

	if !overallHealthy {
		healthStatus.Status = "unhealthy"
	}
	span.SetAttributes(
		attribute.Bool("healthy", overallHealthy),
		attribute.Int("check_count", len(checks)),
	)

	// Set response
	w.Header().Set("Content-Type", "application/json")
	if overallHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(healthStatus)
}

// AddHealthCheck adds a custom health check
func (c *Client) AddHealthCheck(name string, check func(context.Context) error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	c.healthChecks[name] = check
}

// addDefaultHealthChecks adds default health checks
func (c *Client) addDefaultHealthChecks() {
	// API connectivity and credentials, bypassing the user cache
	c.AddHealthCheck("api_connectivity", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return c.invoke(ctx, call{
			op:     "health.user",
			method: http.MethodGet,
			route:  "/user",
			path:   "/user",
		}, nil)
	})

	c.AddHealthCheck("circuit_breaker", func(context.Context) error {
		if c.httpClient.BreakerState() == gobreaker.StateOpen {
			return apierror.New(apierror.KindServiceUnavailable, "circuit breaker is open")
		}
		return nil
	})
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger instance
func (c *Client) GetLogger() *observability.Logger {
	return c.logger
}

// GetMetrics returns the metrics collector
func (c *Client) GetMetrics() *observability.MetricsCollector {
	return c.metrics
}

// GetTracer returns the tracer instance
func (c *Client) GetTracer() *observability.Tracer {
	return c.tracer
}

// Close closes the client and cleans up resources
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.httpClient.Close(); err != nil {
		c.logger.WithError(err).Error("Failed to close HTTP client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.tracer.Close(ctx); err != nil {
		c.logger.WithError(err).Error("Failed to close tracer")
		return fmt.Errorf("failed to close tracer: %w", err)
	}

	c.logger.Debug("v0 client closed")
	return nil
}
