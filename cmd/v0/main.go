package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vercel/v0-sdk-sub002/internal/cli"
)

// Injected at build time via ldflags.
var version = "dev"

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()
	root := cli.NewRootCmd(env, version)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(env.Stderr, "Error:", err)
		cancel()
		os.Exit(cli.ExitCode(err))
	}
}
