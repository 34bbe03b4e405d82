package v0

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

func TestNewClient(t *testing.T) {
	var gotAuth, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCustom = r.Header.Get("X-Team")
		assert.Equal(t, "/chats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chat_1","object":"chat","webUrl":"https://v0.app/chat/chat_1"}`))
	}))
	defer server.Close()

	c, err := NewClient("test-key",
		WithBaseURL(server.URL+"/"),
		WithTimeout(5*time.Second),
		WithHeader("X-Team", "acme"),
	)
	require.NoError(t, err)
	defer c.Close()

	chat, err := c.Chats.Create(context.Background(), &models.ChatCreateRequest{Message: "A todo app"})
	require.NoError(t, err)
	assert.Equal(t, "chat_1", chat.ID)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "acme", gotCustom)
	assert.Equal(t, server.URL, c.GetConfig().BaseURL)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("k", WithBaseURL("not a url"))
	require.Error(t, err)
}

func TestErrorKinds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"Chat not found"}}`))
	}))
	defer server.Close()

	c, err := NewClient("k", WithBaseURL(server.URL), WithMaxRetries(0), WithoutCircuitBreaker())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Chats.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindRateLimited, Classify(http.StatusTooManyRequests).Kind)
	assert.True(t, IsRetryable(Classify(http.StatusServiceUnavailable)))
	assert.False(t, IsRetryable(Classify(http.StatusForbidden)))
}
