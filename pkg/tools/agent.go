package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
)

// ErrMaxSteps is returned when the model keeps requesting tools after the
// step limit.
var ErrMaxSteps = errors.New("agent exceeded maximum tool steps")

// chatCompleter is the chat completion call the agent depends on.
// *openai.Client implements this implicitly.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const (
	defaultAgentModel    = openai.GPT4oMini
	defaultAgentMaxSteps = 8
	defaultAgentSystem   = "You operate the v0 platform on behalf of the user. " +
		"Use the tools to create and refine chats, manage projects and deploy results. " +
		"When a tool returns an error object, explain it and do not repeat the same call unless it is marked retryable."
)

// Agent drives a tool-calling conversation against an OpenAI-compatible
// chat completion API.
type Agent struct {
	client   chatCompleter
	toolkit  *Toolkit
	model    string
	system   string
	maxSteps int
	retry    apierror.RetryConfig
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithModel sets the chat completion model.
func WithModel(model string) AgentOption {
	return func(a *Agent) {
		if model != "" {
			a.model = model
		}
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) AgentOption {
	return func(a *Agent) { a.system = prompt }
}

// WithMaxSteps bounds the number of completion rounds.
func WithMaxSteps(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// withChatCompleter sets a custom chat completer (for testing).
func withChatCompleter(cc chatCompleter) AgentOption {
	return func(a *Agent) { a.client = cc }
}

// NewAgent creates an agent that answers with the tools of toolkit.
func NewAgent(client *openai.Client, toolkit *Toolkit, opts ...AgentOption) *Agent {
	a := &Agent{
		toolkit:  toolkit,
		model:    defaultAgentModel,
		system:   defaultAgentSystem,
		maxSteps: defaultAgentMaxSteps,
		retry: apierror.RetryConfig{
			MaxRetries: 3,
			BaseDelay:  time.Second,
			MaxDelay:   30 * time.Second,
		},
	}
	if client != nil {
		a.client = client
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is the outcome of an agent run.
type Result struct {
	Reply    string
	Messages []openai.ChatCompletionMessage
	Steps    int
	Usage    openai.Usage
}

// Run sends prompt to the model and executes the tool calls it asks for
// until it produces a final answer.
func (a *Agent) Run(ctx context.Context, prompt string) (*Result, error) {
	if a.client == nil {
		return nil, errors.New("agent has no chat completion client")
	}

	res := &Result{}
	if a.system != "" {
		res.Messages = append(res.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: a.system,
		})
	}
	res.Messages = append(res.Messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	defs := a.toolkit.Definitions()
	for res.Steps < a.maxSteps {
		res.Steps++
		req := openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: res.Messages,
			Tools:    defs,
		}

		resp, err := apierror.RetryWithBackoff(ctx, a.retry, func() (openai.ChatCompletionResponse, error) {
			resp, err := a.client.CreateChatCompletion(ctx, req)
			if err != nil {
				return resp, classifyCompletionError(err)
			}
			return resp, nil
		}, nil)
		if err != nil {
			return res, fmt.Errorf("chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return res, errors.New("no response from chat completion API")
		}

		res.Usage.PromptTokens += resp.Usage.PromptTokens
		res.Usage.CompletionTokens += resp.Usage.CompletionTokens
		res.Usage.TotalTokens += resp.Usage.TotalTokens

		msg := resp.Choices[0].Message
		res.Messages = append(res.Messages, msg)
		if len(msg.ToolCalls) == 0 {
			res.Reply = msg.Content
			return res, nil
		}

		res.Messages = append(res.Messages, a.toolkit.CallAll(ctx, msg.ToolCalls)...)
	}

	return res, ErrMaxSteps
}

// classifyCompletionError maps a chat completion failure onto the SDK's
// error kinds so the shared backoff can decide whether to retry.
func classifyCompletionError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := apierror.ClassifyMessage(apiErr.HTTPStatusCode, apiErr.Message)
		e.Err = err
		return e
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		e := apierror.Classify(reqErr.HTTPStatusCode)
		e.Err = err
		return e
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apierror.FromTransportError(err)
}
