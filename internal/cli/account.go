package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vercel/v0-sdk-sub002/pkg/client"
	"github.com/vercel/v0-sdk-sub002/pkg/models"
)

type whoami struct {
	User   *models.User               `json:"user"`
	Plan   *models.Plan               `json:"plan"`
	Scopes *models.List[models.Scope] `json:"scopes"`
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account, plan and scopes of the API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				var out whoami
				g, ctx := errgroup.WithContext(cmd.Context())
				g.Go(func() (err error) {
					out.User, err = c.User.Get(ctx)
					return err
				})
				g.Go(func() (err error) {
					out.Plan, err = c.User.GetPlan(ctx)
					return err
				})
				g.Go(func() (err error) {
					out.Scopes, err = c.User.GetScopes(ctx)
					return err
				})
				if err := g.Wait(); err != nil {
					return err
				}
				return a.print(out)
			})
		},
	}
}

func rateLimitsCmd(a *app) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "rate-limits",
		Short: "Show the remaining API request budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c *client.Client) error {
				limit, err := c.RateLimits.Find(cmd.Context(), scope)
				if err != nil {
					return err
				}
				return a.print(limit)
			})
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "team scope")
	return cmd
}
