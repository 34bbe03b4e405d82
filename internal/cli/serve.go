package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/demo"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	cfg := demo.DefaultConfig()
	var privacy string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the rate-limited demo server",
		Long: `Serve a public playground backed by your API key.

  POST /api/chat        {"message": "...", "chatId": "optional"}
  GET  /api/chats/:id
  GET  /healthz
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.ChatPrivacy = models.Privacy(privacy)
			if !cfg.ChatPrivacy.IsValid() {
				return errors.Join(ErrUsage, errors.New("unknown privacy "+privacy))
			}
			a.metrics = true
			return a.withClient(func(c *client.Client) error {
				srv := demo.NewServer(cfg, c.Chats,
					demo.WithLogger(c.GetLogger()),
					demo.WithMetrics(c.GetMetrics()),
				)
				return runServer(cmd.Context(), srv)
			})
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().Float64Var(&cfg.RequestsPerMinute, "rpm", cfg.RequestsPerMinute, "messages per minute per visitor")
	cmd.Flags().IntVar(&cfg.Burst, "burst", cfg.Burst, "burst size per visitor")
	cmd.Flags().IntVar(&cfg.DailyLimit, "daily-limit", cfg.DailyLimit, "messages per visitor per day (0 for no cap)")
	cmd.Flags().StringVar(&privacy, "privacy", string(cfg.ChatPrivacy), "privacy of chats created by visitors")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *demo.Server) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
