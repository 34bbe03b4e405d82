package observability

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
)

// Logger wraps logrus with additional functionality for the SDK
type Logger struct {
	*logrus.Logger
	serviceName    string
	serviceVersion string
}

// NewLogger creates a new logger instance. A disabled logger discards all
// output but stays safe to call.
func NewLogger(serviceName, serviceVersion, level, format string, enabled bool) *Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	if enabled {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(io.Discard)
	}

	return &Logger{
		Logger:         logger,
		serviceName:    serviceName,
		serviceVersion: serviceVersion,
	}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return NewLogger("", "", "panic", "text", false)
}

// SetOutput sets the logger output
func (l *Logger) SetOutput(out io.Writer) {
	l.Logger.SetOutput(out)
}

// WithContext adds service and trace information to log entries
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.WithFields(nil)

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		entry = entry.WithFields(logrus.Fields{
			"trace_id": spanCtx.TraceID().String(),
			"span_id":  spanCtx.SpanID().String(),
		})
	}

	return entry
}

// WithFields adds custom fields to log entries
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	logrusFields := make(logrus.Fields, len(fields)+2)
	for k, v := range fields {
		logrusFields[k] = v
	}
	logrusFields["service_name"] = l.serviceName
	logrusFields["service_version"] = l.serviceVersion

	return l.Logger.WithFields(logrusFields)
}

// WithComponent adds component information to log entries
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithFields(map[string]interface{}{
		"component": component,
	})
}

// LogAPICall logs an API call. API errors are logged with their kind and
// request ID so failures can be correlated with the server side.
func (l *Logger) LogAPICall(ctx context.Context, method, path string, statusCode int, durationMs float64, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"http_method":      method,
		"http_path":        path,
		"http_status_code": statusCode,
		"http_duration_ms": durationMs,
		"component":        "http_client",
	})

	if err == nil {
		entry.Debug("API call completed")
		return
	}

	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		entry = entry.WithFields(logrus.Fields{
			"error_kind": apiErr.Kind.String(),
			"request_id": apiErr.RequestID,
		})
		if apiErr.Retryable() {
			entry.WithError(err).Warn("API call failed")
			return
		}
	}
	entry.WithError(err).Error("API call failed")
}

// LogRetryAttempt logs retry attempts
func (l *Logger) LogRetryAttempt(ctx context.Context, operation string, attempt int, maxAttempts int, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"operation":    operation,
		"attempt":      attempt,
		"max_attempts": maxAttempts,
		"component":    "retry_handler",
	})

	if err != nil {
		entry.WithError(err).Warn("Retry attempt failed")
	} else {
		entry.Info("Retry attempt succeeded")
	}
}

// LogCircuitBreakerEvent logs circuit breaker state changes
func (l *Logger) LogCircuitBreakerEvent(name string, from, to string) {
	l.WithFields(map[string]interface{}{
		"circuit_breaker_name": name,
		"from_state":           from,
		"to_state":             to,
		"component":            "circuit_breaker",
	}).Warn("Circuit breaker state changed")
}

// LogRateLimit logs rate limiting events
func (l *Logger) LogRateLimit(ctx context.Context, key string, allowed bool, remaining int) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"rate_limit_key":       key,
		"rate_limit_allowed":   allowed,
		"rate_limit_remaining": remaining,
		"component":            "rate_limiter",
	})

	if allowed {
		entry.Debug("Rate limit check passed")
	} else {
		entry.Warn("Rate limit exceeded")
	}
}

// LogCacheEvent logs cache events
func (l *Logger) LogCacheEvent(ctx context.Context, operation, key string, hit bool) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"cache_operation": operation,
		"cache_key":       key,
		"cache_hit":       hit,
		"component":       "cache",
	}).Debug("Cache event")
}

// LogToolCall logs an AI tool invocation
func (l *Logger) LogToolCall(ctx context.Context, tool, callID string, durationMs float64, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"tool_name":        tool,
		"tool_call_id":     callID,
		"tool_duration_ms": durationMs,
		"component":        "tools",
	})
	if err != nil {
		entry.WithError(err).Warn("Tool call failed")
		return
	}
	entry.Info("Tool call completed")
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level string) error {
	logLevel, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	l.Logger.SetLevel(logLevel)
	return nil
}

// IsDebugEnabled checks if debug logging is enabled
func (l *Logger) IsDebugEnabled() bool {
	return l.Logger.IsLevelEnabled(logrus.DebugLevel)
}
