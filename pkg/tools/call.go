package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

// ErrorPayload is the tool result returned to the model when a call fails.
type ErrorPayload struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed tool call.
type ErrorDetail struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Retryable  bool   `json:"retryable"`
}

// Call executes one tool call and returns the tool message to append to
// the conversation. Failures are reported in the message content so the
// model can react to them; Call itself never fails.
func (t *Toolkit) Call(ctx context.Context, tc openai.ToolCall) openai.ChatCompletionMessage {
	start := time.Now()
	name := tc.Function.Name

	result, err := t.dispatch(ctx, tc)

	outcome := "ok"
	if err != nil {
		outcome = apierror.KindOf(err).String()
	}
	t.metrics.RecordToolCall(name, outcome)
	t.logger.LogToolCall(ctx, name, tc.ID, float64(time.Since(start).Milliseconds()), err)

	var content []byte
	if err != nil {
		content = encodeError(err)
	} else if content, err = json.Marshal(result); err != nil {
		content = encodeError(apierror.New(apierror.KindUnexpected, "failed to encode tool result"))
	}

	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    string(content),
		Name:       name,
		ToolCallID: tc.ID,
	}
}

// CallAll executes calls concurrently and returns their messages in the
// order of calls.
func (t *Toolkit) CallAll(ctx context.Context, calls []openai.ToolCall) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i, tc := range calls {
		g.Go(func() error {
			out[i] = t.Call(gctx, tc)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (t *Toolkit) dispatch(ctx context.Context, tc openai.ToolCall) (interface{}, error) {
	tl, ok := t.tools[tc.Function.Name]
	if !ok {
		return nil, apierror.New(apierror.KindBadRequest, fmt.Sprintf("unknown tool %q", tc.Function.Name))
	}

	args, err := parseArguments(tc.Function.Arguments)
	if err != nil {
		return nil, err
	}
	for _, field := range tl.params.Required {
		if _, present := args[field]; !present {
			return nil, apierror.New(apierror.KindBadRequest, field+" is required")
		}
	}

	if !tl.readOnly || t.transportRetries {
		return tl.run(ctx, args)
	}
	return apierror.RetryWithBackoff(ctx, t.retry, func() (interface{}, error) {
		return tl.run(ctx, args)
	}, nil)
}

func encodeError(err error) []byte {
	detail := ErrorDetail{
		Kind:      apierror.KindUnexpected.String(),
		Message:   err.Error(),
		Retryable: false,
	}
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		detail.Kind = apiErr.Kind.String()
		detail.Message = apiErr.Message
		detail.StatusCode = apiErr.StatusCode
		detail.Retryable = apiErr.Retryable()
	}
	b, _ := json.Marshal(ErrorPayload{Error: detail})
	return b
}

// arguments holds the decoded JSON arguments of a tool call.
type arguments map[string]json.RawMessage

func parseArguments(raw string) (arguments, error) {
	args := arguments{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		e := apierror.New(apierror.KindBadRequest, "tool arguments must be a JSON object")
		e.Err = err
		return nil, e
	}
	return args, nil
}

func (a arguments) decode(key string, dst interface{}) error {
	raw, ok := a[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		e := apierror.New(apierror.KindBadRequest, "invalid value for "+key)
		e.Err = err
		return e
	}
	return nil
}

func (a arguments) getString(key string) (string, error) {
	var s string
	err := a.decode(key, &s)
	return s, err
}

func (a arguments) getStrings(keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, key := range keys {
		s, err := a.getString(key)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (t *Toolkit) createChat(ctx context.Context, args arguments) (interface{}, error) {
	v, err := args.getStrings("message", "system", "privacy", "project_id")
	if err != nil {
		return nil, err
	}
	req := &models.ChatCreateRequest{
		Message:      v[0],
		System:       v[1],
		ChatPrivacy:  models.Privacy(v[2]),
		ProjectID:    v[3],
		ResponseMode: models.ResponseModeSync,
	}
	if req.ChatPrivacy != "" && !req.ChatPrivacy.IsValid() {
		return nil, apierror.New(apierror.KindBadRequest, "invalid privacy "+v[2])
	}
	chat, err := t.svc.Chats.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return summarizeChat(chat), nil
}

func (t *Toolkit) sendMessage(ctx context.Context, args arguments) (interface{}, error) {
	v, err := args.getStrings("chat_id", "message")
	if err != nil {
		return nil, err
	}
	chat, err := t.svc.Chats.SendMessage(ctx, v[0], &models.MessageCreateRequest{
		Message:      v[1],
		ResponseMode: models.ResponseModeSync,
	})
	if err != nil {
		return nil, err
	}
	return summarizeChat(chat), nil
}

func (t *Toolkit) getChat(ctx context.Context, args arguments) (interface{}, error) {
	id, err := args.getString("chat_id")
	if err != nil {
		return nil, err
	}
	chat, err := t.svc.Chats.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return summarizeChat(chat), nil
}

func (t *Toolkit) listChats(ctx context.Context, args arguments) (interface{}, error) {
	opts := &models.ChatListOptions{}
	if err := args.decode("limit", &opts.Limit); err != nil {
		return nil, err
	}
	var favorites bool
	if err := args.decode("favorites_only", &favorites); err != nil {
		return nil, err
	}
	if favorites {
		opts.IsFavorite = &favorites
	}
	list, err := t.svc.Chats.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	chats := make([]chatSummary, 0, len(list.Data))
	for i := range list.Data {
		chats = append(chats, summarizeChat(&list.Data[i]))
	}
	return map[string]interface{}{"chats": chats}, nil
}

func (t *Toolkit) deleteChat(ctx context.Context, args arguments) (interface{}, error) {
	id, err := args.getString("chat_id")
	if err != nil {
		return nil, err
	}
	return t.svc.Chats.Delete(ctx, id)
}

func (t *Toolkit) listProjects(ctx context.Context, _ arguments) (interface{}, error) {
	list, err := t.svc.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]map[string]string, 0, len(list.Data))
	for _, p := range list.Data {
		projects = append(projects, map[string]string{"id": p.ID, "name": p.Name, "web_url": p.WebURL})
	}
	return map[string]interface{}{"projects": projects}, nil
}

func (t *Toolkit) createProject(ctx context.Context, args arguments) (interface{}, error) {
	v, err := args.getStrings("name", "description", "instructions")
	if err != nil {
		return nil, err
	}
	return t.svc.Projects.Create(ctx, &models.ProjectCreateRequest{
		Name:         v[0],
		Description:  v[1],
		Instructions: v[2],
	})
}

func (t *Toolkit) createDeployment(ctx context.Context, args arguments) (interface{}, error) {
	v, err := args.getStrings("project_id", "chat_id", "version_id")
	if err != nil {
		return nil, err
	}
	return t.svc.Deployments.Create(ctx, &models.DeploymentCreateRequest{
		ProjectID: v[0],
		ChatID:    v[1],
		VersionID: v[2],
	})
}

func (t *Toolkit) deploymentLogs(ctx context.Context, args arguments) (interface{}, error) {
	id, err := args.getString("deployment_id")
	if err != nil {
		return nil, err
	}
	var since int64
	if err := args.decode("since", &since); err != nil {
		return nil, err
	}
	return t.svc.Deployments.Logs(ctx, id, since)
}

func (t *Toolkit) listHooks(ctx context.Context, _ arguments) (interface{}, error) {
	list, err := t.svc.Hooks.List(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"hooks": list.Data}, nil
}

func (t *Toolkit) createHook(ctx context.Context, args arguments) (interface{}, error) {
	v, err := args.getStrings("name", "url", "chat_id")
	if err != nil {
		return nil, err
	}
	var events []models.HookEvent
	if err := args.decode("events", &events); err != nil {
		return nil, err
	}
	return t.svc.Hooks.Create(ctx, &models.HookCreateRequest{
		Name:   v[0],
		URL:    v[1],
		ChatID: v[2],
		Events: events,
	})
}

func (t *Toolkit) getUser(ctx context.Context, _ arguments) (interface{}, error) {
	return t.svc.User.Get(ctx)
}

func (t *Toolkit) rateLimits(ctx context.Context, args arguments) (interface{}, error) {
	scope, err := args.getString("scope")
	if err != nil {
		return nil, err
	}
	return t.svc.RateLimits.Find(ctx, scope)
}

// chatSummary is the compact chat view handed back to the model. Full
// file contents would overflow most context windows.
type chatSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	WebURL    string   `json:"web_url,omitempty"`
	DemoURL   string   `json:"demo_url,omitempty"`
	VersionID string   `json:"version_id,omitempty"`
	Status    string   `json:"status,omitempty"`
	Files     []string `json:"files,omitempty"`
	LastReply string   `json:"last_reply,omitempty"`
}

func summarizeChat(c *models.Chat) chatSummary {
	s := chatSummary{ID: c.ID, Name: c.Name, WebURL: c.WebURL, DemoURL: c.Demo}
	if v := c.LatestVersion; v != nil {
		s.VersionID = v.ID
		s.Status = string(v.Status)
		if v.DemoURL != "" {
			s.DemoURL = v.DemoURL
		}
		for _, f := range v.Files {
			s.Files = append(s.Files, f.Name)
		}
	}
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == "assistant" {
			s.LastReply = c.Messages[i].Content
			break
		}
	}
	if s.LastReply == "" {
		s.LastReply = c.Text
	}
	return s
}
