package cli

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/tools"
)

func toolsCmd(a *app) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the function-calling tool definitions",
		Long: `Print the OpenAI-compatible tool definitions that expose v0 operations
to a language model. No API key is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tk := tools.New(allServices(), toolOptions(sets)...)
			return a.print(tk.Definitions())
		},
	}
	cmd.Flags().StringSliceVar(&sets, "set", nil, "restrict to tool sets: chats, projects, deployments, hooks, account")
	return cmd
}

func agentCmd(a *app) *cobra.Command {
	var (
		model    string
		maxSteps int
		sets     []string
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "agent <prompt>",
		Short: "Let a language model drive v0 through tool calls",
		Long: `Run a tool-calling loop against an OpenAI-compatible chat completion API.
The model can create chats, send follow-ups, deploy and inspect the account.

Requires OPENAI_API_KEY. OPENAI_BASE_URL points the agent at another
compatible endpoint.`,
		Example: `  v0 agent "Build a pricing page and deploy it to project prj_123"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := a.env.Getenv("OPENAI_API_KEY")
			if key == "" {
				return ErrOpenAIKeyMissing
			}
			ocfg := openai.DefaultConfig(key)
			if base := a.env.Getenv("OPENAI_BASE_URL"); base != "" {
				ocfg.BaseURL = strings.TrimRight(base, "/")
			}

			return a.withClient(func(c *client.Client) error {
				tk := tools.FromClient(c, toolOptions(sets)...)
				agent := tools.NewAgent(a.env.NewOpenAI(ocfg), tk,
					tools.WithModel(model),
					tools.WithMaxSteps(maxSteps),
				)

				res, err := agent.Run(cmd.Context(), strings.Join(args, " "))
				if verbose && res != nil {
					for _, m := range res.Messages {
						if m.Role == openai.ChatMessageRoleTool {
							fmt.Fprintf(a.env.Stderr, "[%s] %s\n", m.Name, m.Content)
						}
					}
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(a.env.Stdout, res.Reply)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&model, "model", openai.GPT4oMini, "chat completion model")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 8, "maximum completion rounds")
	cmd.Flags().StringSliceVar(&sets, "set", nil, "restrict to tool sets")
	cmd.Flags().BoolVar(&verbose, "show-tools", false, "print tool results to stderr")
	return cmd
}

func toolOptions(sets []string) []tools.Option {
	if len(sets) == 0 {
		return nil
	}
	return []tools.Option{tools.WithSets(sets...)}
}

// allServices returns a Services value whose fields are all set, so every
// definition is listed. The definitions never call them.
func allServices() tools.Services {
	return tools.Services{
		Chats:       (*client.ChatsClient)(nil),
		Projects:    (*client.ProjectsClient)(nil),
		Deployments: (*client.DeploymentsClient)(nil),
		Hooks:       (*client.HooksClient)(nil),
		User:        (*client.UserClient)(nil),
		RateLimits:  (*client.RateLimitsClient)(nil),
	}
}
