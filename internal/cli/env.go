package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"

	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/config"
)

// Env holds injectable dependencies for CLI commands.
//
// All fields have defaults via DefaultEnv(). Tests override them with the
// With* options.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// LoadConfig returns the SDK configuration before flag overrides are
	// applied. The result is not validated yet.
	LoadConfig func() (*config.Config, error)

	// NewClient builds the API client from the final configuration.
	NewClient func(cfg *config.Config, opts ...client.Option) (*client.Client, error)

	// NewOpenAI builds the chat completion client used by the agent.
	NewOpenAI func(cfg openai.ClientConfig) *openai.Client
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithConfigLoader sets the configuration loader.
func WithConfigLoader(fn func() (*config.Config, error)) EnvOption {
	return func(e *Env) { e.LoadConfig = fn }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Getenv:     os.Getenv,
		LoadConfig: loadConfigFile,
		NewClient:  client.NewClient,
		NewOpenAI:  openai.NewClientWithConfig,
	}
}

// NewEnv creates an Env with production defaults and applies opts.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// loadConfigFile reads v0.yaml from the usual locations and V0_* variables.
func loadConfigFile() (*config.Config, error) {
	v := viper.New()
	v.SetConfigName("v0")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.v0")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return config.LoadConfigUnvalidated(v)
}
