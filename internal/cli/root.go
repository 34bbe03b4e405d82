// Package cli implements the v0 command line interface.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/config"
	"github.com/vercel/v0-sdk-sub002/pkg/observability"
)

// app carries the global flags shared by every subcommand.
type app struct {
	env     *Env
	apiKey  string
	baseURL string
	verbose bool
	logJSON bool
	metrics bool
}

// NewRootCmd builds the v0 command tree.
func NewRootCmd(env *Env, version string) *cobra.Command {
	a := &app{env: env}

	root := &cobra.Command{
		Use:   "v0",
		Short: "Work with the v0 Platform API from the command line",
		Long: `Create and refine v0 chats, manage projects, deploy generated apps
and inspect your account.

The API key is read from --api-key, V0_API_KEY or v0.yaml.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiKey, "api-key", "", "v0 API key (default $V0_API_KEY)")
	flags.StringVar(&a.baseURL, "base-url", "", "v0 API base URL")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log requests and retries to stderr")
	flags.BoolVar(&a.logJSON, "log-json", false, "write logs as JSON")

	root.AddCommand(chatsCmd(a))
	root.AddCommand(projectsCmd(a))
	root.AddCommand(deploymentsCmd(a))
	root.AddCommand(hooksCmd(a))
	root.AddCommand(whoamiCmd(a))
	root.AddCommand(rateLimitsCmd(a))
	root.AddCommand(toolsCmd(a))
	root.AddCommand(agentCmd(a))
	root.AddCommand(serveCmd(a))
	root.AddCommand(versionCmd(a, version))

	return root
}

// config resolves the SDK configuration: file and environment first, then
// the global flags.
func (a *app) config() (*config.Config, error) {
	cfg, err := a.env.LoadConfig()
	if err != nil {
		return nil, err
	}
	if a.apiKey != "" {
		cfg.APIKey = a.apiKey
	}
	if cfg.APIKey == "" {
		cfg.APIKey = a.env.Getenv("V0_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if a.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(a.baseURL, "/")
	}
	if a.logJSON {
		cfg.LogFormat = "json"
	}
	if a.metrics {
		cfg.EnableMetrics = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return cfg, nil
}

// client builds an API client that logs to stderr.
func (a *app) client() (*client.Client, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	logger := observability.NewLogger(cfg.ServiceName, cfg.ServiceVersion, level, cfg.LogFormat, true)
	logger.SetOutput(a.env.Stderr)

	return a.env.NewClient(cfg, client.WithLogger(logger))
}

// withClient runs fn with a client and closes it afterwards.
func (a *app) withClient(fn func(c *client.Client) error) error {
	c, err := a.client()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func (a *app) print(v interface{}) error {
	return printJSON(a.env.Stdout, v)
}

func versionCmd(a *app, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI and SDK versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.print(map[string]string{
				"cli": version,
				"sdk": config.Version,
			})
		},
	}
}
