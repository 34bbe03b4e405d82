package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

func deploymentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployments",
		Short: "Deploy chat versions and inspect deployments",
	}
	cmd.AddCommand(deploymentsCreateCmd(a))
	cmd.AddCommand(deploymentsListCmd(a))
	cmd.AddCommand(deploymentsLogsCmd(a))
	cmd.AddCommand(deploymentsWaitCmd(a))
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <deployment-id>",
		Short: "Delete a deployment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				resp, err := c.Deployments.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(resp)
			})
		},
	})
	return cmd
}

func deploymentsCreateCmd(a *app) *cobra.Command {
	var (
		req  models.DeploymentCreateRequest
		wait bool
	)
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Deploy a chat version",
		Example: `  v0 deployments create --project prj_1 --chat chat_1 --version ver_1 --wait`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				deployment, err := c.Deployments.Create(cmd.Context(), &req)
				if err != nil {
					return err
				}
				if wait && !deployment.Status.IsFinal() {
					deployment, err = c.Deployments.WaitReady(cmd.Context(), deployment.ID, client.DefaultWaitOptions())
					if deployment != nil {
						if perr := a.print(deployment); perr != nil {
							return perr
						}
					}
					return err
				}
				return a.print(deployment)
			})
		},
	}
	cmd.Flags().StringVar(&req.ProjectID, "project", "", "project ID")
	cmd.Flags().StringVar(&req.ChatID, "chat", "", "chat ID")
	cmd.Flags().StringVar(&req.VersionID, "version", "", "chat version ID")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the deployment is ready")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("chat")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func deploymentsListCmd(a *app) *cobra.Command {
	var opts models.DeploymentFindOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deployments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				list, err := c.Deployments.Find(cmd.Context(), &opts)
				if err != nil {
					return err
				}
				return a.print(list)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "filter by project ID")
	cmd.Flags().StringVar(&opts.ChatID, "chat", "", "filter by chat ID")
	cmd.Flags().StringVar(&opts.VersionID, "version", "", "filter by version ID")
	return cmd
}

func deploymentsLogsCmd(a *app) *cobra.Command {
	var since int64
	cmd := &cobra.Command{
		Use:   "logs <deployment-id>",
		Short: "Print deployment logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				logs, err := c.Deployments.Logs(cmd.Context(), args[0], since)
				if err != nil {
					return err
				}
				return a.print(logs)
			})
		},
	}
	cmd.Flags().Int64Var(&since, "since", 0, "only logs after this unix millisecond timestamp")
	return cmd
}

func deploymentsWaitCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "wait <deployment-id>",
		Short: "Wait until a deployment is ready or has failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("%w: --interval must be positive", ErrUsage)
			}
			opts := client.DefaultWaitOptions()
			opts.Interval = interval
			if opts.MaxInterval < interval {
				opts.MaxInterval = interval
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
				opts.MaxPolls = int(timeout/interval) + 1
			}

			return a.withClient(func(c *client.Client) error {
				deployment, err := c.Deployments.WaitReady(ctx, args[0], opts)
				if deployment != nil {
					if perr := a.print(deployment); perr != nil {
						return perr
					}
				}
				if errors.Is(err, client.ErrDeploymentFailed) {
					return fmt.Errorf("deployment %s ended as %s: %w", args[0], deployment.Status, err)
				}
				return err
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "initial polling interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "give up after this long (0 for the default poll budget)")
	return cmd
}
