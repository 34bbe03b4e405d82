package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/config"
)

const breakerName = "v0-api"

// Client is a resilient HTTP client with observability features
type Client struct {
	client         *resty.Client
	config         *config.Config
	circuitBreaker *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
}

// Request describes one call against the v0 API. Path is relative to the
// configured base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
}

// Response represents an API response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Option configures optional client behaviour.
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
	propagator     propagation.TextMapPropagator
	transport      http.RoundTripper
	breakerHook    func(name string, from, to gobreaker.State)
	retryHook      func(req *Request, attempt int, err error)
	logger         resty.Logger
}

// WithTracerProvider instruments the transport with otelhttp using tp and
// propagator. A nil propagator falls back to the global one.
func WithTracerProvider(tp trace.TracerProvider, propagator propagation.TextMapPropagator) Option {
	return func(o *options) {
		o.tracerProvider = tp
		o.propagator = propagator
	}
}

// WithHTTPTransport replaces the pooled default transport.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithBreakerStateHook is called on every circuit breaker state change.
func WithBreakerStateHook(fn func(name string, from, to gobreaker.State)) Option {
	return func(o *options) { o.breakerHook = fn }
}

// WithRetryHook is called before each retry with the failure that caused it.
func WithRetryHook(fn func(req *Request, attempt int, err error)) Option {
	return func(o *options) { o.retryHook = fn }
}

// WithLogger routes resty's internal warnings to l.
func WithLogger(l resty.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewClient creates a new HTTP client with the given configuration
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	client := resty.New()

	// Configure basic settings
	client.SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetRetryCount(cfg.MaxRetries)
	client.SetRetryWaitTime(cfg.RetryWaitTime)
	client.SetRetryMaxWaitTime(cfg.RetryMaxWaitTime)
	client.SetAuthToken(cfg.APIKey)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept", "application/json")
	for key, value := range cfg.CustomHeaders {
		client.SetHeader(key, value)
	}
	if o.logger != nil {
		client.SetLogger(o.logger)
	}

	client.AddRetryCondition(shouldRetry)
	client.SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
		if r == nil || r.RawResponse == nil {
			return 0, nil
		}
		return apierror.FromResponse(r.StatusCode(), r.Header(), nil).RetryAfter, nil
	})
	if o.retryHook != nil {
		client.AddRetryHook(func(r *resty.Response, err error) {
			if r == nil || r.Request == nil {
				return
			}
			req := &Request{Method: r.Request.Method, Path: r.Request.URL}
			o.retryHook(req, r.Request.Attempt, classify(r, err))
		})
	}

	// Configure HTTP transport
	var transport http.RoundTripper = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}
	if o.transport != nil {
		transport = o.transport
	}

	// Add OpenTelemetry instrumentation if tracing is enabled
	if cfg.EnableTracing || o.tracerProvider != nil {
		tp := o.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		propagator := o.propagator
		if propagator == nil {
			propagator = otel.GetTextMapPropagator()
		}
		transport = otelhttp.NewTransport(transport,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithPropagators(propagator),
		)
	}
	client.SetTransport(transport)

	// Setup circuit breaker if enabled
	var cb *gobreaker.CircuitBreaker
	if cfg.CircuitBreakerEnabled {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: cfg.CircuitBreakerMaxRequests,
			Interval:    cfg.CircuitBreakerTimeout,
			Timeout:     cfg.CircuitBreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.CircuitBreakerFailureThreshold
			},
			// Client mistakes (bad request, auth, not found) say nothing
			// about the health of the API.
			IsSuccessful: func(err error) bool {
				return err == nil || !apierror.IsRetryable(err)
			},
			OnStateChange: o.breakerHook,
		})
	}

	// Setup rate limiter if enabled
	var rl *rate.Limiter
	if cfg.EnableRateLimit {
		rl = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	return &Client{
		client:         client,
		config:         cfg,
		circuitBreaker: cb,
		rateLimiter:    rl,
	}, nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Patch performs a PATCH request
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// Do executes req through the rate limiter, circuit breaker and retry
// policy. Every failure is an *apierror.Error; for API errors the
// response is returned alongside it.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, apierror.New(apierror.KindBadRequest, "request is required")
	}

	// Apply rate limiting if enabled
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, apierror.FromTransportError(fmt.Errorf("rate limit wait failed: %w", err))
		}
	}

	if c.circuitBreaker == nil {
		return c.execute(ctx, req)
	}

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.execute(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		e := apierror.New(apierror.KindServiceUnavailable, "The v0 API is failing repeatedly; requests are paused. Please try again shortly.")
		e.Err = err
		return nil, e
	}
	resp, _ := result.(*Response)
	return resp, err
}

// execute performs a single request, resty retries included
func (c *Client) execute(ctx context.Context, req *Request) (*Response, error) {
	requestID := uuid.NewString()

	r := c.client.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", requestID)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, buildPath(req.Path))
	if err != nil {
		return nil, apierror.FromTransportError(err)
	}

	response := &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Headers:    resp.Header(),
	}

	if resp.StatusCode() >= 400 {
		apiErr := apierror.FromResponse(resp.StatusCode(), resp.Header(), resp.Body())
		if apiErr.RequestID == "" {
			apiErr.RequestID = requestID
		}
		return response, apiErr
	}

	return response, nil
}

// BreakerState reports the circuit breaker state; closed when disabled.
func (c *Client) BreakerState() gobreaker.State {
	if c.circuitBreaker == nil {
		return gobreaker.StateClosed
	}
	return c.circuitBreaker.State()
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string { return c.client.BaseURL }

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

func shouldRetry(r *resty.Response, err error) bool {
	if r != nil && r.Request != nil && r.Request.Context().Err() != nil {
		return false
	}
	return apierror.IsRetryable(classify(r, err))
}

func classify(r *resty.Response, err error) error {
	if err != nil {
		return apierror.FromTransportError(err)
	}
	if r == nil || r.StatusCode() < 400 {
		return nil
	}
	return apierror.FromResponse(r.StatusCode(), r.Header(), r.Body())
}

// buildPath normalises path to start with a slash
func buildPath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
