package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
	"github.com/vercel/v0-sdk-sub002/pkg/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeChats struct {
	mu      sync.Mutex
	next    int
	err     error
	created []*models.ChatCreateRequest
	sent    map[string]string
}

func (f *fakeChats) Create(_ context.Context, req *models.ChatCreateRequest) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.next++
	f.created = append(f.created, req)
	id := fmt.Sprintf("chat_%d", f.next)
	return &models.Chat{
		ID:     id,
		WebURL: "https://v0.dev/chat/" + id,
		LatestVersion: &models.Version{
			ID:      "ver_" + id,
			Status:  models.VersionStatusCompleted,
			DemoURL: "https://demo.v0.dev/" + id,
			Files:   []models.File{{Name: "app/page.tsx"}},
		},
	}, nil
}

func (f *fakeChats) SendMessage(_ context.Context, chatID string, req *models.MessageCreateRequest) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[chatID] = req.Message
	return &models.Chat{ID: chatID}, nil
}

func (f *fakeChats) Get(_ context.Context, chatID string) (*models.Chat, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Chat{ID: chatID, Messages: []models.Message{{Role: "user", Content: "hi"}}}, nil
}

func testServerConfig() Config {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 60
	cfg.Burst = 2
	cfg.DailyLimit = 0
	return cfg
}

func postChat(t *testing.T, h http.Handler, body string, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	s := NewServer(testServerConfig(), &fakeChats{})
	w := get(s.Handler(), "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateChatAndReadBack(t *testing.T) {
	chats := &fakeChats{}
	s := NewServer(testServerConfig(), chats)
	h := s.Handler()

	w := postChat(t, h, `{"message":"A pricing page"}`, "10.0.0.1:1234")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "chat_1", resp.ID)
	assert.Equal(t, "https://demo.v0.dev/chat_1", resp.DemoURL)
	assert.Equal(t, []string{"app/page.tsx"}, resp.Files)

	require.Len(t, chats.created, 1)
	assert.Equal(t, models.PrivacyUnlisted, chats.created[0].ChatPrivacy)

	assert.Equal(t, http.StatusOK, get(h, "/api/chats/chat_1", "10.0.0.1:1234").Code)

	other := get(h, "/api/chats/chat_1", "10.0.0.2:1234")
	assert.Equal(t, http.StatusNotFound, other.Code)
	assert.Equal(t, "not_found", decodeErrorBody(t, other).Error.Kind)
}

func TestFollowUpRequiresOwnership(t *testing.T) {
	chats := &fakeChats{}
	h := NewServer(testServerConfig(), chats).Handler()

	require.Equal(t, http.StatusOK, postChat(t, h, `{"message":"A blog"}`, "10.0.0.1:1").Code)

	w := postChat(t, h, `{"message":"Dark mode","chatId":"chat_1"}`, "10.0.0.2:1")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, chats.sent)

	w = postChat(t, h, `{"message":"Dark mode","chatId":"chat_1"}`, "10.0.0.1:1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dark mode", chats.sent["chat_1"])
}

func TestInvalidChatRequests(t *testing.T) {
	h := NewServer(testServerConfig(), &fakeChats{}).Handler()

	for name, body := range map[string]string{
		"empty":     `{}`,
		"blank":     `{"message":"   "}`,
		"malformed": `{"message":`,
		"too long":  `{"message":"` + strings.Repeat("a", maxMessageLength+1) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := postChat(t, h, body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "bad_request", decodeErrorBody(t, w).Error.Kind)
		})
	}
}

func TestMessageLengthCountsCharacters(t *testing.T) {
	chats := &fakeChats{}
	h := NewServer(testServerConfig(), chats).Handler()

	// 1500 characters, 4500 bytes.
	w := postChat(t, h, `{"message":"`+strings.Repeat("日", 1500)+`"}`, "10.0.0.1:1")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, chats.created, 1)

	w = postChat(t, h, `{"message":"`+strings.Repeat("日", maxMessageLength)+`"}`, "10.0.0.2:1")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = postChat(t, h, `{"message":"`+strings.Repeat("日", maxMessageLength+1)+`"}`, "10.0.0.3:1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "message is too long", decodeErrorBody(t, w).Error.Message)
}

func TestUnknownChatIsNotOwnedByEmptyClientIP(t *testing.T) {
	chats := &fakeChats{}
	h := NewServer(testServerConfig(), chats).Handler()

	// An unparsable RemoteAddr yields an empty client IP.
	w := get(h, "/api/chats/chat_unknown", "garbage")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postChat(t, h, `{"message":"Dark mode","chatId":"chat_unknown"}`, "garbage")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, chats.sent)
}

func TestPerVisitorRateLimit(t *testing.T) {
	metrics := observability.NewMetricsCollector("demo-test", true)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewServer(testServerConfig(), &fakeChats{}, WithMetrics(metrics), withClock(func() time.Time { return now }))
	h := s.Handler()

	assert.Equal(t, http.StatusOK, postChat(t, h, `{"message":"one"}`, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, postChat(t, h, `{"message":"two"}`, "10.0.0.1:1").Code)

	w := postChat(t, h, `{"message":"three"}`, "10.0.0.1:1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeErrorBody(t, w).Error.Kind)

	assert.Equal(t, http.StatusOK, postChat(t, h, `{"message":"other"}`, "10.0.0.2:1").Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, postChat(t, h, `{"message":"later"}`, "10.0.0.1:1").Code)

	m := get(h, "/metrics", "")
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `v0_rate_limit_decisions_total{allowed="false",limiter="demo",service="demo-test"} 1`)
}

func TestDailyLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.RequestsPerMinute = 0
	cfg.DailyLimit = 2
	now := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	h := NewServer(cfg, &fakeChats{}, withClock(func() time.Time { return now })).Handler()

	w := postChat(t, h, `{"message":"one"}`, "10.0.0.1:1")
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, postChat(t, h, `{"message":"two"}`, "10.0.0.1:1").Code)

	w = postChat(t, h, `{"message":"three"}`, "10.0.0.1:1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	assert.Equal(t, "daily message limit reached", decodeErrorBody(t, w).Error.Message)

	now = now.Add(time.Hour)
	assert.Equal(t, http.StatusOK, postChat(t, h, `{"message":"tomorrow"}`, "10.0.0.1:1").Code)
}

func TestSDKErrorMapping(t *testing.T) {
	rateLimited := apierror.Classify(http.StatusTooManyRequests)
	rateLimited.RetryAfter = 30 * time.Second

	tests := []struct {
		name       string
		err        error
		status     int
		kind       string
		message    string
		retryAfter string
	}{
		{"unauthorized", apierror.Classify(http.StatusUnauthorized), http.StatusInternalServerError, "unauthorized", "server API key not configured", ""},
		{"rate limited", rateLimited, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down", "30"},
		{"unavailable", apierror.Classify(http.StatusServiceUnavailable), http.StatusServiceUnavailable, "service_unavailable", "v0 is temporarily unavailable, try again", ""},
		{"gateway timeout", apierror.Classify(http.StatusGatewayTimeout), http.StatusServiceUnavailable, "gateway_timeout", "v0 is temporarily unavailable, try again", ""},
		{"not found", apierror.Classify(http.StatusNotFound), http.StatusNotFound, "not_found", "chat not found", ""},
		{"internal", apierror.Classify(http.StatusInternalServerError), http.StatusBadGateway, "internal_server_error", "v0 request failed", ""},
		{"unknown", errors.New("boom"), http.StatusBadGateway, "unexpected", "v0 request failed", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewServer(testServerConfig(), &fakeChats{err: tt.err}).Handler()

			w := postChat(t, h, `{"message":"hello"}`, "")
			assert.Equal(t, tt.status, w.Code)
			body := decodeErrorBody(t, w)
			assert.Equal(t, tt.kind, body.Error.Kind)
			assert.Equal(t, tt.message, body.Error.Message)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
		})
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger("demo", "test", "info", "json", true)
	logger.SetOutput(&buf)

	h := NewServer(testServerConfig(), &fakeChats{}, WithLogger(logger)).Handler()
	get(h, "/api/chats/missing", "10.0.0.9:1")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "/api/chats/:id", line["route"])
	assert.Equal(t, float64(http.StatusNotFound), line["status_code"])
	assert.Equal(t, "10.0.0.9", line["client_ip"])
}

func TestStartAndShutdown(t *testing.T) {
	cfg := testServerConfig()
	cfg.Addr = "127.0.0.1:0"
	s := NewServer(cfg, &fakeChats{})

	errc := make(chan error, 1)
	go func() { errc <- s.Start() }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.ErrorIs(t, <-errc, http.ErrServerClosed)
}

func TestLimiterSweepsIdleVisitors(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	l := newVisitorLimiter(60, 1, 0, func() time.Time { return now })
	l.allow("a")
	l.allow("b")
	assert.Equal(t, 2, l.size())

	now = now.Add(25 * time.Hour)
	l.allow("c")
	assert.Equal(t, 1, l.size())
}
