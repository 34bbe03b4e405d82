package cli

import (
	"github.com/spf13/cobra"

	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

func projectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				list, err := c.Projects.List(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(list)
			})
		},
	})
	cmd.AddCommand(projectsCreateCmd(a))
	cmd.AddCommand(&cobra.Command{
		Use:   "get <project-id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				project, err := c.Projects.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(project)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				resp, err := c.Projects.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(resp)
			})
		},
	})
	return cmd
}

func projectsCreateCmd(a *app) *cobra.Command {
	var req models.ProjectCreateRequest
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			return a.withClient(func(c *client.Client) error {
				project, err := c.Projects.Create(cmd.Context(), &req)
				if err != nil {
					return err
				}
				return a.print(project)
			})
		},
	}
	cmd.Flags().StringVar(&req.Description, "description", "", "short description")
	cmd.Flags().StringVar(&req.Instructions, "instructions", "", "instructions applied to every chat in the project")
	cmd.Flags().StringVar(&req.VercelProjectID, "vercel-project", "", "Vercel project to link")
	return cmd
}
