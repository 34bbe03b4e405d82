package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

func chatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Create, inspect and refine chats",
	}
	cmd.AddCommand(chatsCreateCmd(a))
	cmd.AddCommand(chatsListCmd(a))
	cmd.AddCommand(chatsGetCmd(a))
	cmd.AddCommand(chatsDeleteCmd(a))
	cmd.AddCommand(chatsSendCmd(a))
	cmd.AddCommand(chatsForkCmd(a))
	return cmd
}

func chatsCreateCmd(a *app) *cobra.Command {
	var (
		system    string
		privacy   string
		projectID string
		async     bool
	)
	cmd := &cobra.Command{
		Use:   "create <message>",
		Short: "Start a new chat from a prompt",
		Example: `  v0 chats create "A landing page for a coffee shop"
  v0 chats create --privacy private --project prj_123 "An admin dashboard"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := models.Privacy(privacy)
			if p != "" && !p.IsValid() {
				return fmt.Errorf("%w: unknown privacy %q", ErrUsage, privacy)
			}
			req := &models.ChatCreateRequest{
				Message:      strings.Join(args, " "),
				System:       system,
				ChatPrivacy:  p,
				ProjectID:    projectID,
				ResponseMode: models.ResponseModeSync,
			}
			if async {
				req.ResponseMode = models.ResponseModeAsync
			}
			return a.withClient(func(c *client.Client) error {
				chat, err := c.Chats.Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				return a.print(chat)
			})
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "system context for the generation")
	cmd.Flags().StringVar(&privacy, "privacy", "", "public, private, team, team-edit or unlisted")
	cmd.Flags().StringVar(&projectID, "project", "", "project to create the chat in")
	cmd.Flags().BoolVar(&async, "async", false, "return immediately instead of waiting for generation")
	return cmd
}

func chatsListCmd(a *app) *cobra.Command {
	var (
		limit     int
		offset    int
		favorites bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your chats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &models.ChatListOptions{ListOptions: models.ListOptions{Limit: limit, Offset: offset}}
			if cmd.Flags().Changed("favorites") {
				opts.IsFavorite = &favorites
			}
			return a.withClient(func(c *client.Client) error {
				list, err := c.Chats.List(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return a.print(list)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of chats")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of chats to skip")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "only favorites (--favorites=false for non-favorites)")
	return cmd
}

func chatsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <chat-id>",
		Short: "Show a chat with its messages and latest version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				chat, err := c.Chats.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(chat)
			})
		},
	}
}

func chatsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chat-id>",
		Short: "Delete a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				resp, err := c.Chats.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(resp)
			})
		},
	}
}

func chatsSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "send <chat-id> <message>",
		Short:   "Send a follow-up message to a chat",
		Example: `  v0 chats send chat_123 "Add a dark mode toggle"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &models.MessageCreateRequest{
				Message:      strings.Join(args[1:], " "),
				ResponseMode: models.ResponseModeSync,
			}
			return a.withClient(func(c *client.Client) error {
				chat, err := c.Chats.SendMessage(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return a.print(chat)
			})
		},
	}
}

func chatsForkCmd(a *app) *cobra.Command {
	var versionID string
	cmd := &cobra.Command{
		Use:   "fork <chat-id>",
		Short: "Copy a chat, optionally from a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				chat, err := c.Chats.Fork(cmd.Context(), args[0], &models.ChatForkRequest{VersionID: versionID})
				if err != nil {
					return err
				}
				return a.print(chat)
			})
		},
	}
	cmd.Flags().StringVar(&versionID, "version", "", "version to fork from")
	return cmd
}
