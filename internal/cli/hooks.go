package cli

import (
	"github.com/spf13/cobra"

	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

func hooksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage webhooks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List webhooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				list, err := c.Hooks.List(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(list)
			})
		},
	})
	cmd.AddCommand(hooksCreateCmd(a))
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <hook-id>",
		Short: "Delete a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				resp, err := c.Hooks.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(resp)
			})
		},
	})
	return cmd
}

func hooksCreateCmd(a *app) *cobra.Command {
	var (
		name   string
		url    string
		chatID string
		events []string
	)
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Register a webhook",
		Example: `  v0 hooks create --name deploys --url https://example.com/hook --event message.finished`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &models.HookCreateRequest{Name: name, URL: url, ChatID: chatID}
			for _, e := range events {
				req.Events = append(req.Events, models.HookEvent(e))
			}
			return a.withClient(func(c *client.Client) error {
				hook, err := c.Hooks.Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				return a.print(hook)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "webhook name")
	cmd.Flags().StringVar(&url, "url", "", "endpoint to call")
	cmd.Flags().StringVar(&chatID, "chat", "", "only fire for this chat")
	cmd.Flags().StringSliceVar(&events, "event", nil, "event to subscribe to (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}
