package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
	"github.com/vercel/v0-sdk-sub002/pkg/client"
)

// Sentinel errors for the CLI.
var (
	// ErrAPIKeyMissing indicates no v0 API key was found.
	ErrAPIKeyMissing = errors.New("V0_API_KEY not set (use --api-key or the environment)")

	// ErrOpenAIKeyMissing indicates the agent has no chat completion key.
	ErrOpenAIKeyMissing = errors.New("OPENAI_API_KEY not set")

	// ErrUsage wraps invalid flag combinations detected after parsing.
	ErrUsage = errors.New("invalid usage")
)

// Exit codes.
const (
	ExitOK        = 0
	ExitGeneral   = 1
	ExitUsage     = 2
	ExitAuth      = 3
	ExitRequest   = 4
	ExitTransient = 5
	ExitInterrupt = 130
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}
	if errors.Is(err, ErrAPIKeyMissing) || errors.Is(err, ErrOpenAIKeyMissing) {
		return ExitAuth
	}
	if errors.Is(err, client.ErrDeploymentNotReady) {
		return ExitTransient
	}

	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case apierror.KindUnauthorized, apierror.KindPaymentRequired, apierror.KindForbidden:
			return ExitAuth
		case apierror.KindBadRequest, apierror.KindNotFound:
			return ExitRequest
		}
		if apiErr.Retryable() {
			return ExitTransient
		}
		return ExitGeneral
	}

	if errors.Is(err, ErrUsage) || isCobraUsageError(err) {
		return ExitUsage
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTransient
	}
	return ExitGeneral
}

// cobraUsageErrorPatterns are the messages cobra uses for flag and
// argument errors. Cobra does not expose typed errors for these.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"if any flags in the group",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
