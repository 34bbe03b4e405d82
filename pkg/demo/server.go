// Package demo serves a small public v0 playground backed by the SDK.
// Visitors are rate limited per client IP and can only read back the
// chats they created.
package demo

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
	"github.com/vercel/v0-sdk-sub002/pkg/observability"
)

// maxMessageLength is counted in characters, not bytes.
const maxMessageLength = 4000

// ChatService is the part of the SDK the demo needs.
type ChatService interface {
	Create(ctx context.Context, req *models.ChatCreateRequest) (*models.Chat, error)
	SendMessage(ctx context.Context, chatID string, req *models.MessageCreateRequest) (*models.Chat, error)
	Get(ctx context.Context, chatID string) (*models.Chat, error)
}

var _ ChatService = (*client.ChatsClient)(nil)

// Config holds the demo server settings.
type Config struct {
	Addr              string
	RequestsPerMinute float64
	Burst             int
	DailyLimit        int
	ChatPrivacy       models.Privacy
	RequestTimeout    time.Duration
}

// DefaultConfig returns the settings used by `v0 serve`.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		RequestsPerMinute: 10,
		Burst:             3,
		DailyLimit:        50,
		ChatPrivacy:       models.PrivacyUnlisted,
		RequestTimeout:    2 * time.Minute,
	}
}

// Server is the demo HTTP server.
type Server struct {
	engine  *gin.Engine
	srv     *http.Server
	cfg     Config
	chats   ChatService
	logger  *observability.Logger
	metrics *observability.MetricsCollector
	limiter *visitorLimiter

	mu     sync.RWMutex
	owners map[string]string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for access logs and errors.
func WithLogger(logger *observability.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics records limiter decisions and exposes /metrics.
func WithMetrics(metrics *observability.MetricsCollector) Option {
	return func(s *Server) { s.metrics = metrics }
}

// withClock replaces the limiter clock (for testing).
func withClock(now func() time.Time) Option {
	return func(s *Server) { s.limiter.now = now }
}

// NewServer creates a demo server that serves chats through svc.
func NewServer(cfg Config, svc ChatService, opts ...Option) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	s := &Server{
		cfg:     cfg,
		chats:   svc,
		logger:  observability.NewNopLogger(),
		metrics: observability.NewMetricsCollector("", false),
		limiter: newVisitorLimiter(cfg.RequestsPerMinute, cfg.Burst, cfg.DailyLimit, nil),
		owners:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(accessLog(s.logger))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := engine.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/chats/:id", s.handleGetChat)

	s.engine = engine
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// graceful shutdown.
func (s *Server) Start() error {
	s.logger.WithComponent("demo").WithField("addr", s.cfg.Addr).Info("Demo server listening")
	return s.srv.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
	ChatID  string `json:"chatId"`
}

type chatResponse struct {
	ID        string           `json:"id"`
	WebURL    string           `json:"webUrl,omitempty"`
	DemoURL   string           `json:"demoUrl,omitempty"`
	VersionID string           `json:"versionId,omitempty"`
	Status    string           `json:"status,omitempty"`
	Files     []string         `json:"files,omitempty"`
	Messages  []models.Message `json:"messages,omitempty"`
}

func toResponse(chat *models.Chat) chatResponse {
	resp := chatResponse{ID: chat.ID, WebURL: chat.WebURL, DemoURL: chat.Demo, Messages: chat.Messages}
	if v := chat.LatestVersion; v != nil {
		resp.VersionID = v.ID
		resp.Status = string(v.Status)
		if v.DemoURL != "" {
			resp.DemoURL = v.DemoURL
		}
		for _, f := range v.Files {
			resp.Files = append(resp.Files, f.Name)
		}
	}
	return resp
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(c, http.StatusBadRequest, "bad_request", "message is required")
		return
	}
	if utf8.RuneCountInString(req.Message) > maxMessageLength {
		writeError(c, http.StatusBadRequest, "bad_request", "message is too long")
		return
	}

	visitor := c.ClientIP()
	if req.ChatID != "" && !s.owns(visitor, req.ChatID) {
		writeError(c, http.StatusNotFound, "not_found", "chat not found")
		return
	}

	d := s.limiter.allow(visitor)
	s.metrics.RecordRateLimit("demo", d.allowed)
	s.logger.LogRateLimit(c.Request.Context(), visitor, d.allowed, d.remaining)
	if !d.allowed {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(d.retryAfter)))
		writeError(c, http.StatusTooManyRequests, "rate_limited", d.reason)
		return
	}
	if d.remaining >= 0 {
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	var (
		chat *models.Chat
		err  error
	)
	if req.ChatID == "" {
		chat, err = s.chats.Create(ctx, &models.ChatCreateRequest{
			Message:      req.Message,
			ChatPrivacy:  s.cfg.ChatPrivacy,
			ResponseMode: models.ResponseModeSync,
		})
	} else {
		chat, err = s.chats.SendMessage(ctx, req.ChatID, &models.MessageCreateRequest{
			Message:      req.Message,
			ResponseMode: models.ResponseModeSync,
		})
	}
	if err != nil {
		s.writeSDKError(c, err)
		return
	}

	s.setOwner(visitor, chat.ID)
	c.JSON(http.StatusOK, toResponse(chat))
}

func (s *Server) handleGetChat(c *gin.Context) {
	id := c.Param("id")
	if !s.owns(c.ClientIP(), id) {
		writeError(c, http.StatusNotFound, "not_found", "chat not found")
		return
	}

	chat, err := s.chats.Get(c.Request.Context(), id)
	if err != nil {
		s.writeSDKError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(chat))
}

func (s *Server) owns(visitor, chatID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[chatID]
	return ok && owner == visitor
}

func (s *Server) setOwner(visitor, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[chatID]; !ok {
		s.owners[chatID] = visitor
	}
}

// errorMapping is the visitor-facing translation of an SDK failure.
type errorMapping struct {
	status  int
	message string
}

// mapSDKError translates an SDK failure into the status and message shown
// to demo visitors. Upstream details stay in the server log.
func mapSDKError(err error) errorMapping {
	if errors.Is(err, context.DeadlineExceeded) {
		return errorMapping{http.StatusServiceUnavailable, "v0 took too long to respond, try again"}
	}
	switch apierror.KindOf(err) {
	case apierror.KindUnauthorized:
		return errorMapping{http.StatusInternalServerError, "server API key not configured"}
	case apierror.KindPaymentRequired:
		return errorMapping{http.StatusServiceUnavailable, "the demo is out of credits, try again later"}
	case apierror.KindRateLimited:
		return errorMapping{http.StatusTooManyRequests, "too many requests, slow down"}
	case apierror.KindServiceUnavailable, apierror.KindGatewayTimeout, apierror.KindRequestTimeout:
		return errorMapping{http.StatusServiceUnavailable, "v0 is temporarily unavailable, try again"}
	case apierror.KindNotFound:
		return errorMapping{http.StatusNotFound, "chat not found"}
	case apierror.KindBadRequest:
		return errorMapping{http.StatusBadRequest, "the request was rejected"}
	default:
		return errorMapping{http.StatusBadGateway, "v0 request failed"}
	}
}

func (s *Server) writeSDKError(c *gin.Context, err error) {
	m := mapSDKError(err)
	kind := apierror.KindOf(err)

	entry := s.logger.WithContext(c.Request.Context()).WithError(err).WithField("error_kind", kind.String())
	if m.status >= http.StatusInternalServerError {
		entry.Error("v0 request failed")
	} else {
		entry.Warn("v0 request rejected")
	}

	var apiErr *apierror.Error
	if m.status == http.StatusTooManyRequests && errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(apiErr.RetryAfter)))
	}
	writeError(c, m.status, kind.String(), m.message)
}

func writeError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"kind": kind, "message": message}})
}

// accessLog writes one log line per request.
func accessLog(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		entry := logger.WithContext(c.Request.Context()).WithFields(logrus.Fields{
			"component":   "demo",
			"method":      c.Request.Method,
			"route":       route,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("Request served")
			return
		}
		entry.Info("Request served")
	}
}
