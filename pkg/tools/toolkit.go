// Package tools exposes v0 SDK operations as OpenAI function-calling tools.
package tools

import (
	"context"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
	"github.com/vercel/v0-sdk-sub002/pkg/observability"
)

// Tool sets that can be enabled independently.
const (
	SetChats       = "chats"
	SetProjects    = "projects"
	SetDeployments = "deployments"
	SetHooks       = "hooks"
	SetAccount     = "account"
)

// ChatsAPI is the subset of chat operations the tools call.
// *client.ChatsClient implements this implicitly.
type ChatsAPI interface {
	Create(ctx context.Context, req *models.ChatCreateRequest) (*models.Chat, error)
	SendMessage(ctx context.Context, chatID string, req *models.MessageCreateRequest) (*models.Chat, error)
	Get(ctx context.Context, chatID string) (*models.Chat, error)
	List(ctx context.Context, opts *models.ChatListOptions) (*models.List[models.Chat], error)
	Delete(ctx context.Context, chatID string) (*models.DeleteResponse, error)
}

// ProjectsAPI is the subset of project operations the tools call.
type ProjectsAPI interface {
	List(ctx context.Context) (*models.List[models.Project], error)
	Create(ctx context.Context, req *models.ProjectCreateRequest) (*models.Project, error)
}

// DeploymentsAPI is the subset of deployment operations the tools call.
type DeploymentsAPI interface {
	Create(ctx context.Context, req *models.DeploymentCreateRequest) (*models.Deployment, error)
	Logs(ctx context.Context, deploymentID string, since int64) (*models.DeploymentLogs, error)
}

// HooksAPI is the subset of webhook operations the tools call.
type HooksAPI interface {
	List(ctx context.Context) (*models.List[models.Hook], error)
	Create(ctx context.Context, req *models.HookCreateRequest) (*models.Hook, error)
}

// UserAPI is the subset of account operations the tools call.
type UserAPI interface {
	Get(ctx context.Context) (*models.User, error)
}

// RateLimitsAPI is the subset of rate limit operations the tools call.
type RateLimitsAPI interface {
	Find(ctx context.Context, scope string) (*models.RateLimit, error)
}

// Compile-time interface compliance checks.
var (
	_ ChatsAPI       = (*client.ChatsClient)(nil)
	_ ProjectsAPI    = (*client.ProjectsClient)(nil)
	_ DeploymentsAPI = (*client.DeploymentsClient)(nil)
	_ HooksAPI       = (*client.HooksClient)(nil)
	_ UserAPI        = (*client.UserClient)(nil)
	_ RateLimitsAPI  = (*client.RateLimitsClient)(nil)
)

// Services bundles the API surfaces a Toolkit dispatches to. A nil field
// disables the tools that need it.
type Services struct {
	Chats       ChatsAPI
	Projects    ProjectsAPI
	Deployments DeploymentsAPI
	Hooks       HooksAPI
	User        UserAPI
	RateLimits  RateLimitsAPI
}

// Toolkit turns tool calls into SDK calls.
type Toolkit struct {
	svc         Services
	tools       map[string]tool
	logger      *observability.Logger
	metrics     *observability.MetricsCollector
	retry       apierror.RetryConfig
	concurrency int

	// transportRetries is set when the services already retry transient
	// failures themselves; read-only tools then make a single attempt.
	transportRetries bool
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithSets restricts the toolkit to the named sets. Unknown names are
// ignored.
func WithSets(sets ...string) Option {
	return func(t *Toolkit) {
		keep := make(map[string]bool, len(sets))
		for _, s := range sets {
			keep[s] = true
		}
		for name, tl := range t.tools {
			if !keep[tl.set] {
				delete(t.tools, name)
			}
		}
	}
}

// WithLogger logs each tool call.
func WithLogger(logger *observability.Logger) Option {
	return func(t *Toolkit) { t.logger = logger }
}

// WithMetrics counts each tool call by outcome.
func WithMetrics(metrics *observability.MetricsCollector) Option {
	return func(t *Toolkit) { t.metrics = metrics }
}

// WithRetry sets the backoff used for read-only tools. Mutating tools are
// never retried here. It has no effect on a toolkit built by FromClient
// over a client whose transport retries, so attempts never multiply.
func WithRetry(cfg apierror.RetryConfig) Option {
	return func(t *Toolkit) { t.retry = cfg }
}

// WithConcurrency bounds how many calls CallAll runs at once.
func WithConcurrency(n int) Option {
	return func(t *Toolkit) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// New creates a toolkit over svc.
func New(svc Services, opts ...Option) *Toolkit {
	t := &Toolkit{
		svc:     svc,
		logger:  observability.NewNopLogger(),
		metrics: observability.NewMetricsCollector("", false),
		retry: apierror.RetryConfig{
			MaxRetries: 2,
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   5 * time.Second,
		},
		concurrency: 4,
	}
	t.tools = make(map[string]tool)
	for _, tl := range t.catalog() {
		if tl.available {
			t.tools[tl.name] = tl
		}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FromClient creates a toolkit over every API of c, logging and recording
// metrics through c's observability stack. When c retries failed requests
// (MaxRetries > 0) the toolkit leaves retrying to it.
func FromClient(c *client.Client, opts ...Option) *Toolkit {
	base := []Option{WithLogger(c.GetLogger()), WithMetrics(c.GetMetrics())}
	tk := New(Services{
		Chats:       c.Chats,
		Projects:    c.Projects,
		Deployments: c.Deployments,
		Hooks:       c.Hooks,
		User:        c.User,
		RateLimits:  c.RateLimits,
	}, append(base, opts...)...)
	tk.transportRetries = c.GetConfig().MaxRetries > 0
	return tk
}

// Names returns the enabled tool names in sorted order.
func (t *Toolkit) Names() []string {
	names := make([]string, 0, len(t.tools))
	for name := range t.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the enabled tools in the form the chat completion
// API expects, sorted by name.
func (t *Toolkit) Definitions() []openai.Tool {
	names := t.Names()
	defs := make([]openai.Tool, 0, len(names))
	for _, name := range names {
		tl := t.tools[name]
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tl.name,
				Description: tl.description,
				Parameters:  tl.params,
			},
		})
	}
	return defs
}

// tool binds a definition to its handler.
type tool struct {
	name        string
	set         string
	description string
	params      jsonschema.Definition
	readOnly    bool
	available   bool
	run         func(ctx context.Context, args arguments) (interface{}, error)
}

func object(required []string, props map[string]jsonschema.Definition) jsonschema.Definition {
	if props == nil {
		props = map[string]jsonschema.Definition{}
	}
	return jsonschema.Definition{
		Type:       jsonschema.Object,
		Properties: props,
		Required:   required,
	}
}

func str(description string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: description}
}

func (t *Toolkit) catalog() []tool {
	s := t.svc
	privacy := jsonschema.Definition{
		Type:        jsonschema.String,
		Description: "Who can see the chat.",
		Enum: []string{
			string(models.PrivacyPublic), string(models.PrivacyPrivate), string(models.PrivacyTeam),
			string(models.PrivacyTeamEdit), string(models.PrivacyUnlisted),
		},
	}
	events := jsonschema.Definition{
		Type:        jsonschema.Array,
		Description: "Events that trigger the webhook.",
		Items: &jsonschema.Definition{
			Type: jsonschema.String,
			Enum: []string{
				string(models.HookEventChatCreated), string(models.HookEventChatUpdated), string(models.HookEventChatDeleted),
				string(models.HookEventMessageCreated), string(models.HookEventMessageUpdated),
				string(models.HookEventMessageDeleted), string(models.HookEventMessageFinished),
			},
		},
	}

	return []tool{
		{
			name:        "create_chat",
			set:         SetChats,
			description: "Start a new v0 chat that generates a UI or app from a prompt. Returns the chat with its preview URL.",
			params: object([]string{"message"}, map[string]jsonschema.Definition{
				"message":    str("What to build."),
				"system":     str("Optional system context, such as the framework or design system to use."),
				"privacy":    privacy,
				"project_id": str("Project to create the chat in."),
			}),
			available: s.Chats != nil,
			run:       t.createChat,
		},
		{
			name:        "send_message",
			set:         SetChats,
			description: "Send a follow-up message to an existing v0 chat to refine the generated result.",
			params: object([]string{"chat_id", "message"}, map[string]jsonschema.Definition{
				"chat_id": str("ID of the chat."),
				"message": str("The follow-up instruction."),
			}),
			available: s.Chats != nil,
			run:       t.sendMessage,
		},
		{
			name:        "get_chat",
			set:         SetChats,
			description: "Get a v0 chat with its messages and latest version.",
			params: object([]string{"chat_id"}, map[string]jsonschema.Definition{
				"chat_id": str("ID of the chat."),
			}),
			readOnly:  true,
			available: s.Chats != nil,
			run:       t.getChat,
		},
		{
			name:        "list_chats",
			set:         SetChats,
			description: "List the user's v0 chats, newest first.",
			params: object(nil, map[string]jsonschema.Definition{
				"limit":          {Type: jsonschema.Integer, Description: "Maximum number of chats to return."},
				"favorites_only": {Type: jsonschema.Boolean, Description: "Only return favorite chats."},
			}),
			readOnly:  true,
			available: s.Chats != nil,
			run:       t.listChats,
		},
		{
			name:        "delete_chat",
			set:         SetChats,
			description: "Permanently delete a v0 chat.",
			params: object([]string{"chat_id"}, map[string]jsonschema.Definition{
				"chat_id": str("ID of the chat."),
			}),
			available: s.Chats != nil,
			run:       t.deleteChat,
		},
		{
			name:        "list_projects",
			set:         SetProjects,
			description: "List the user's v0 projects.",
			params:      object(nil, nil),
			readOnly:    true,
			available:   s.Projects != nil,
			run:         t.listProjects,
		},
		{
			name:        "create_project",
			set:         SetProjects,
			description: "Create a v0 project to group related chats.",
			params: object([]string{"name"}, map[string]jsonschema.Definition{
				"name":         str("Project name."),
				"description":  str("Short description."),
				"instructions": str("Instructions applied to every chat in the project."),
			}),
			available: s.Projects != nil,
			run:       t.createProject,
		},
		{
			name:        "create_deployment",
			set:         SetDeployments,
			description: "Deploy a generated chat version to Vercel.",
			params: object([]string{"project_id", "chat_id", "version_id"}, map[string]jsonschema.Definition{
				"project_id": str("Project the chat belongs to."),
				"chat_id":    str("ID of the chat."),
				"version_id": str("Version of the chat to deploy."),
			}),
			available: s.Deployments != nil,
			run:       t.createDeployment,
		},
		{
			name:        "get_deployment_logs",
			set:         SetDeployments,
			description: "Fetch build and runtime logs of a deployment.",
			params: object([]string{"deployment_id"}, map[string]jsonschema.Definition{
				"deployment_id": str("ID of the deployment."),
				"since":         {Type: jsonschema.Integer, Description: "Only logs after this unix millisecond timestamp."},
			}),
			readOnly:  true,
			available: s.Deployments != nil,
			run:       t.deploymentLogs,
		},
		{
			name:        "list_hooks",
			set:         SetHooks,
			description: "List the user's webhooks.",
			params:      object(nil, nil),
			readOnly:    true,
			available:   s.Hooks != nil,
			run:         t.listHooks,
		},
		{
			name:        "create_hook",
			set:         SetHooks,
			description: "Register a webhook that is called when chat or message events happen.",
			params: object([]string{"name", "url", "events"}, map[string]jsonschema.Definition{
				"name":    str("Webhook name."),
				"url":     str("HTTPS endpoint to call."),
				"events":  events,
				"chat_id": str("Restrict the webhook to one chat."),
			}),
			available: s.Hooks != nil,
			run:       t.createHook,
		},
		{
			name:        "get_user",
			set:         SetAccount,
			description: "Get the account the API key belongs to.",
			params:      object(nil, nil),
			readOnly:    true,
			available:   s.User != nil,
			run:         t.getUser,
		},
		{
			name:        "get_rate_limits",
			set:         SetAccount,
			description: "Get the remaining API request budget.",
			params: object(nil, map[string]jsonschema.Definition{
				"scope": str("Team scope; omit for the personal account."),
			}),
			readOnly:  true,
			available: s.RateLimits != nil,
			run:       t.rateLimits,
		},
	}
}
