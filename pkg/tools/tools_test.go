package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/config"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
	"github.com/vercel/v0-sdk-sub002/pkg/observability"
)

type fakeChats struct {
	created  *models.ChatCreateRequest
	getCalls int32
	getErr   []error
}

func (f *fakeChats) Create(_ context.Context, req *models.ChatCreateRequest) (*models.Chat, error) {
	f.created = req
	return &models.Chat{
		ID:     "chat_1",
		WebURL: "https://v0.dev/chat/chat_1",
		LatestVersion: &models.Version{
			ID:      "ver_1",
			Status:  models.VersionStatusCompleted,
			DemoURL: "https://demo.v0.dev/ver_1",
			Files:   []models.File{{Name: "app/page.tsx", Content: "export default function Page() {}"}},
		},
		Messages: []models.Message{
			{Role: "user", Content: req.Message},
			{Role: "assistant", Content: "Here is your todo app."},
		},
	}, nil
}

func (f *fakeChats) SendMessage(_ context.Context, chatID string, req *models.MessageCreateRequest) (*models.Chat, error) {
	return &models.Chat{ID: chatID, Text: "updated: " + req.Message}, nil
}

func (f *fakeChats) Get(_ context.Context, chatID string) (*models.Chat, error) {
	n := atomic.AddInt32(&f.getCalls, 1)
	if int(n) <= len(f.getErr) {
		return nil, f.getErr[n-1]
	}
	return &models.Chat{ID: chatID, Name: "Todo"}, nil
}

func (f *fakeChats) List(_ context.Context, opts *models.ChatListOptions) (*models.List[models.Chat], error) {
	data := []models.Chat{{ID: "chat_1"}, {ID: "chat_2"}}
	if opts.Limit > 0 && opts.Limit < len(data) {
		data = data[:opts.Limit]
	}
	return &models.List[models.Chat]{Data: data}, nil
}

func (f *fakeChats) Delete(_ context.Context, chatID string) (*models.DeleteResponse, error) {
	return &models.DeleteResponse{ID: chatID, Deleted: true}, nil
}

type fakeDeployments struct{ calls int32 }

func (f *fakeDeployments) Create(_ context.Context, _ *models.DeploymentCreateRequest) (*models.Deployment, error) {
	atomic.AddInt32(&f.calls, 1)
	return nil, apierror.Classify(http.StatusServiceUnavailable)
}

func (f *fakeDeployments) Logs(_ context.Context, id string, since int64) (*models.DeploymentLogs, error) {
	next := since + 1
	return &models.DeploymentLogs{NextSince: &next}, nil
}

func fastRetry() Option {
	return WithRetry(apierror.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})
}

func toolCall(id, name, args string) openai.ToolCall {
	return openai.ToolCall{
		ID:       id,
		Type:     openai.ToolTypeFunction,
		Function: openai.FunctionCall{Name: name, Arguments: args},
	}
}

func decodeError(t *testing.T, msg openai.ChatCompletionMessage) ErrorDetail {
	t.Helper()
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal([]byte(msg.Content), &payload))
	return payload.Error
}

func TestDefinitionsFollowServices(t *testing.T) {
	tk := New(Services{Chats: &fakeChats{}})
	assert.Equal(t, []string{"create_chat", "delete_chat", "get_chat", "list_chats", "send_message"}, tk.Names())

	defs := tk.Definitions()
	require.Len(t, defs, 5)
	for _, d := range defs {
		assert.Equal(t, openai.ToolTypeFunction, d.Type)
		require.NotNil(t, d.Function)
		assert.NotEmpty(t, d.Function.Description)
	}

	params, ok := defs[0].Function.Parameters.(jsonschema.Definition)
	require.True(t, ok)
	assert.Equal(t, "create_chat", defs[0].Function.Name)
	assert.Equal(t, jsonschema.Object, params.Type)
	assert.Equal(t, []string{"message"}, params.Required)
	assert.Equal(t, []string{"public", "private", "team", "team-edit", "unlisted"}, params.Properties["privacy"].Enum)

	_, err := json.Marshal(defs)
	require.NoError(t, err)
}

func TestWithSets(t *testing.T) {
	tk := New(Services{Chats: &fakeChats{}, Deployments: &fakeDeployments{}}, WithSets(SetDeployments))
	assert.Equal(t, []string{"create_deployment", "get_deployment_logs"}, tk.Names())

	msg := tk.Call(context.Background(), toolCall("call_1", "create_chat", `{"message":"x"}`))
	assert.Equal(t, "bad_request", decodeError(t, msg).Kind)
}

func TestCallCreateChat(t *testing.T) {
	chats := &fakeChats{}
	metrics := observability.NewMetricsCollector("test", true)
	tk := New(Services{Chats: chats}, WithMetrics(metrics))

	msg := tk.Call(context.Background(), toolCall("call_1", "create_chat", `{"message":"Build a todo app","privacy":"private"}`))

	assert.Equal(t, openai.ChatMessageRoleTool, msg.Role)
	assert.Equal(t, "call_1", msg.ToolCallID)
	assert.Equal(t, "create_chat", msg.Name)

	require.NotNil(t, chats.created)
	assert.Equal(t, "Build a todo app", chats.created.Message)
	assert.Equal(t, models.PrivacyPrivate, chats.created.ChatPrivacy)
	assert.Equal(t, models.ResponseModeSync, chats.created.ResponseMode)

	var summary chatSummary
	require.NoError(t, json.Unmarshal([]byte(msg.Content), &summary))
	assert.Equal(t, "chat_1", summary.ID)
	assert.Equal(t, "ver_1", summary.VersionID)
	assert.Equal(t, "https://demo.v0.dev/ver_1", summary.DemoURL)
	assert.Equal(t, []string{"app/page.tsx"}, summary.Files)
	assert.Equal(t, "Here is your todo app.", summary.LastReply)
	assert.NotContains(t, msg.Content, "export default")

	count, err := testutil.GatherAndCount(metrics.Registry(), "v0_tool_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCallArgumentErrors(t *testing.T) {
	tk := New(Services{Chats: &fakeChats{}})
	ctx := context.Background()

	tests := []struct {
		name    string
		call    openai.ToolCall
		message string
	}{
		{"unknown tool", toolCall("1", "drop_database", `{}`), `unknown tool "drop_database"`},
		{"malformed JSON", toolCall("2", "get_chat", `{"chat_id":`), "tool arguments must be a JSON object"},
		{"missing required", toolCall("3", "send_message", `{"chat_id":"chat_1"}`), "message is required"},
		{"wrong type", toolCall("4", "get_chat", `{"chat_id":42}`), "invalid value for chat_id"},
		{"invalid privacy", toolCall("5", "create_chat", `{"message":"x","privacy":"secret"}`), "invalid privacy secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := decodeError(t, tk.Call(ctx, tt.call))
			assert.Equal(t, "bad_request", detail.Kind)
			assert.Equal(t, tt.message, detail.Message)
			assert.False(t, detail.Retryable)
		})
	}
}

func TestReadOnlyToolsRetry(t *testing.T) {
	chats := &fakeChats{getErr: []error{
		apierror.Classify(http.StatusBadGateway),
		apierror.Classify(http.StatusServiceUnavailable),
	}}
	tk := New(Services{Chats: chats}, fastRetry())

	msg := tk.Call(context.Background(), toolCall("call_1", "get_chat", `{"chat_id":"chat_1"}`))

	assert.Equal(t, int32(3), atomic.LoadInt32(&chats.getCalls))
	assert.Contains(t, msg.Content, `"id":"chat_1"`)
}

func TestMutatingToolsDoNotRetry(t *testing.T) {
	deployments := &fakeDeployments{}
	tk := New(Services{Deployments: deployments}, fastRetry())

	msg := tk.Call(context.Background(), toolCall("call_1", "create_deployment",
		`{"project_id":"prj_1","chat_id":"chat_1","version_id":"ver_1"}`))

	assert.Equal(t, int32(1), atomic.LoadInt32(&deployments.calls))
	detail := decodeError(t, msg)
	assert.Equal(t, "service_unavailable", detail.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, detail.StatusCode)
	assert.True(t, detail.Retryable)
}

func TestCallAllKeepsOrder(t *testing.T) {
	tk := New(Services{Chats: &fakeChats{}, Deployments: &fakeDeployments{}}, WithConcurrency(2))

	calls := []openai.ToolCall{
		toolCall("a", "get_chat", `{"chat_id":"chat_a"}`),
		toolCall("b", "list_chats", `{"limit":1}`),
		toolCall("c", "get_deployment_logs", `{"deployment_id":"dpl_1","since":41}`),
		toolCall("d", "nope", `{}`),
	}
	out := tk.CallAll(context.Background(), calls)

	require.Len(t, out, 4)
	for i, msg := range out {
		assert.Equal(t, calls[i].ID, msg.ToolCallID)
	}
	assert.Contains(t, out[0].Content, "chat_a")
	assert.Contains(t, out[2].Content, `"nextSince":42`)
	assert.Equal(t, "bad_request", decodeError(t, out[3]).Kind)
}

func TestFromClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rate-limits", r.URL.Path)
		assert.Equal(t, "team_1", r.URL.Query().Get("scope"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"remaining":97,"reset":1735689600,"limit":100}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = server.URL
	cfg.MaxRetries = 0
	cfg.EnableLogging = false

	c, err := client.NewClient(cfg)
	require.NoError(t, err)
	defer c.Close()

	tk := FromClient(c, WithSets(SetAccount))
	assert.Equal(t, []string{"get_rate_limits", "get_user"}, tk.Names())

	msg := tk.Call(context.Background(), toolCall("call_1", "get_rate_limits", `{"scope":"team_1"}`))
	assert.JSONEq(t, `{"remaining":97,"reset":1735689600,"limit":100}`, msg.Content)
}

func newUnavailableClient(t *testing.T, maxRetries int) (*client.Client, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"down for maintenance"}}`))
	}))
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = server.URL
	cfg.MaxRetries = maxRetries
	cfg.RetryWaitTime = time.Millisecond
	cfg.RetryMaxWaitTime = 5 * time.Millisecond
	cfg.CircuitBreakerEnabled = false
	cfg.EnableLogging = false

	c, err := client.NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, &hits
}

func TestFromClientDoesNotMultiplyTransportRetries(t *testing.T) {
	c, hits := newUnavailableClient(t, 2)

	tk := FromClient(c, WithRetry(apierror.RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
	}))
	msg := tk.Call(context.Background(), toolCall("call_1", "get_chat", `{"chat_id":"chat_1"}`))

	detail := decodeError(t, msg)
	assert.Equal(t, "service_unavailable", detail.Kind)
	assert.True(t, detail.Retryable)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits), "transport attempts only")
}

func TestFromClientRetriesWhenTransportDoesNot(t *testing.T) {
	c, hits := newUnavailableClient(t, 0)

	tk := FromClient(c, WithRetry(apierror.RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
	}))
	msg := tk.Call(context.Background(), toolCall("call_1", "get_chat", `{"chat_id":"chat_1"}`))

	assert.Equal(t, "service_unavailable", decodeError(t, msg).Kind)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))

	atomic.StoreInt32(hits, 0)
	tk.Call(context.Background(), toolCall("call_2", "delete_chat", `{"chat_id":"chat_1"}`))
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "mutating tools make one attempt")
}

type scriptedCompleter struct {
	responses []openai.ChatCompletionResponse
	errs      []error
	requests  []openai.ChatCompletionRequest
}

func (s *scriptedCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return openai.ChatCompletionResponse{}, s.errs[i]
	}
	return s.responses[i], nil
}

func reply(msg openai.ChatCompletionMessage, tokens int) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: msg}},
		Usage:   openai.Usage{TotalTokens: tokens},
	}
}

func TestAgentRunsToolsUntilAnswer(t *testing.T) {
	cc := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		reply(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{
				toolCall("call_1", "create_chat", `{"message":"Build a todo app"}`),
			},
		}, 10),
		reply(openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: "Your app is at https://demo.v0.dev/ver_1",
		}, 5),
	}}
	agent := NewAgent(nil, New(Services{Chats: &fakeChats{}}), withChatCompleter(cc), WithModel("test-model"))

	res, err := agent.Run(context.Background(), "Make me a todo app")
	require.NoError(t, err)

	assert.Equal(t, "Your app is at https://demo.v0.dev/ver_1", res.Reply)
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, 15, res.Usage.TotalTokens)

	require.Len(t, cc.requests, 2)
	assert.Equal(t, "test-model", cc.requests[0].Model)
	assert.Len(t, cc.requests[0].Tools, 5)

	second := cc.requests[1].Messages
	require.Len(t, second, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, second[0].Role)
	assert.Equal(t, openai.ChatMessageRoleTool, second[3].Role)
	assert.Equal(t, "call_1", second[3].ToolCallID)
}

func TestAgentStopsAtMaxSteps(t *testing.T) {
	loop := reply(openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{toolCall("call", "list_chats", `{}`)},
	}, 1)
	cc := &scriptedCompleter{responses: []openai.ChatCompletionResponse{loop, loop, loop}}
	agent := NewAgent(nil, New(Services{Chats: &fakeChats{}}), withChatCompleter(cc), WithMaxSteps(2))

	res, err := agent.Run(context.Background(), "loop forever")
	assert.ErrorIs(t, err, ErrMaxSteps)
	assert.Equal(t, 2, res.Steps)
	assert.Len(t, cc.requests, 2)
}

func TestAgentCompletionErrors(t *testing.T) {
	t.Run("unauthorized is not retried", func(t *testing.T) {
		cc := &scriptedCompleter{errs: []error{&openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}}}
		agent := NewAgent(nil, New(Services{}), withChatCompleter(cc))

		_, err := agent.Run(context.Background(), "hi")
		require.Error(t, err)
		assert.True(t, apierror.IsKind(err, apierror.KindUnauthorized))
		assert.Len(t, cc.requests, 1)
	})

	t.Run("rate limit is retried", func(t *testing.T) {
		cc := &scriptedCompleter{
			errs: []error{&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}},
			responses: []openai.ChatCompletionResponse{
				{},
				reply(openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "done"}, 1),
			},
		}
		agent := NewAgent(nil, New(Services{}), withChatCompleter(cc))
		agent.retry = apierror.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

		res, err := agent.Run(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "done", res.Reply)
		assert.Len(t, cc.requests, 2)
	})

	t.Run("no client", func(t *testing.T) {
		_, err := NewAgent(nil, New(Services{})).Run(context.Background(), "hi")
		assert.Error(t, err)
	})
}
