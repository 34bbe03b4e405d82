package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
)

// MetricsCollector handles metrics collection for the SDK. Each collector
// owns its registry so several clients can live in one process.
type MetricsCollector struct {
	enabled     bool
	serviceName string
	registry    *prometheus.Registry

	requestCounter      *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	requestsInFlight    *prometheus.GaugeVec
	errorCounter        *prometheus.CounterVec
	circuitBreakerState *prometheus.GaugeVec
	retryCounter        *prometheus.CounterVec
	cacheOps            *prometheus.CounterVec
	toolCalls           *prometheus.CounterVec
	rateLimitHits       *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string, enabled bool) *MetricsCollector {
	if !enabled {
		return &MetricsCollector{
			enabled:     false,
			serviceName: serviceName,
		}
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"service": serviceName}

	return &MetricsCollector{
		enabled:     true,
		serviceName: serviceName,
		registry:    reg,
		requestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "v0_requests_total",
			Help:        "Total number of HTTP requests made to the v0 API",
			ConstLabels: constLabels,
		}, []string{"method", "endpoint", "status_code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "v0_request_duration_seconds",
			Help:        "Duration of HTTP requests to the v0 API",
			Buckets:     []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			ConstLabels: constLabels,
		}, []string{"method", "endpoint"}),
		requestsInFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "v0_requests_in_flight",
			Help:        "Number of HTTP requests currently in flight",
			ConstLabels: constLabels,
		}, []string{"method", "endpoint"}),
		errorCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "v0_errors_total",
			Help:        "Total number of API errors by kind",
			ConstLabels: constLabels,
		}, []string{"kind", "component"}),
		circuitBreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "v0_circuit_breaker_state",
			Help:        "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			ConstLabels: constLabels,
		}, []string{"name"}),
		retryCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "v0_retries_total",
			Help:        "Total number of retry attempts",
			ConstLabels: constLabels,
		}, []string{"endpoint"}),
		cacheOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "v0_cache_operations_total",
			Help:        "Total number of cache lookups",
			ConstLabels: constLabels,
		}, []string{"cache", "hit"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "v0_tool_calls_total",
			Help:        "Total number of AI tool invocations",
			ConstLabels: constLabels,
		}, []string{"tool", "outcome"}),
		rateLimitHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "v0_rate_limit_decisions_total",
			Help:        "Rate limiter decisions",
			ConstLabels: constLabels,
		}, []string{"limiter", "allowed"}),
	}
}

// Enabled reports whether metrics are being recorded.
func (m *MetricsCollector) Enabled() bool { return m.enabled }

// Registry returns the collector's registry, nil when disabled.
func (m *MetricsCollector) Registry() *prometheus.Registry { return m.registry }

// Handler serves the collector's metrics in the Prometheus text format.
func (m *MetricsCollector) Handler() http.Handler {
	if !m.enabled {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.requestCounter.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRequestInFlight adjusts the in-flight gauge by delta
func (m *MetricsCollector) RecordRequestInFlight(method, endpoint string, delta float64) {
	if !m.enabled {
		return
	}
	m.requestsInFlight.WithLabelValues(method, endpoint).Add(delta)
}

// RecordError counts err under its API error kind
func (m *MetricsCollector) RecordError(err error, component string) {
	if !m.enabled || err == nil {
		return
	}
	kind := apierror.KindUnexpected
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		kind = apiErr.Kind
	}
	m.errorCounter.WithLabelValues(kind.String(), component).Inc()
}

// RecordCircuitBreakerState records the breaker state (0 closed, 1 half-open, 2 open)
func (m *MetricsCollector) RecordCircuitBreakerState(name string, state int) {
	if !m.enabled {
		return
	}
	m.circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordRetry counts a retry attempt
func (m *MetricsCollector) RecordRetry(endpoint string) {
	if !m.enabled {
		return
	}
	m.retryCounter.WithLabelValues(endpoint).Inc()
}

// RecordCacheLookup counts a cache hit or miss
func (m *MetricsCollector) RecordCacheLookup(cache string, hit bool) {
	if !m.enabled {
		return
	}
	m.cacheOps.WithLabelValues(cache, strconv.FormatBool(hit)).Inc()
}

// RecordToolCall counts a tool invocation by outcome ("ok" or an error kind)
func (m *MetricsCollector) RecordToolCall(tool, outcome string) {
	if !m.enabled {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// RecordRateLimit counts a rate limiter decision
func (m *MetricsCollector) RecordRateLimit(limiter string, allowed bool) {
	if !m.enabled {
		return
	}
	m.rateLimitHits.WithLabelValues(limiter, strconv.FormatBool(allowed)).Inc()
}
