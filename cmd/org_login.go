package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"orgctl/internal/app"
	"orgctl/internal/auth"
	"orgctl/internal/store"
)

func newOrgLoginCmd() *cobra.Command {
	var (
		orgType     string
		alias       string
		instanceURL string
		favorite    bool
		timeout     time.Duration
		noTUI       bool
	)

	cmd := &cobra.Command{
		Use:   "login <label>",
		Short: "Log in to an organization through the browser",
		Long: `Starts the sf CLI web login and stores the organization once it succeeds.

The alias is derived from the label (accents removed, lowercased, spaces
turned into hyphens) unless --alias is given. If the browser login does not
finish within the timeout, the callback listener is stopped and you can
retry or cancel.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := store.ParseOrgType(orgType)
			if !ok {
				return fmt.Errorf("unknown org type %q (use Production, Sandbox or Development)", orgType)
			}

			req := auth.Request{
				Label:        args[0],
				Alias:        alias,
				AliasPinned:  cmd.Flags().Changed("alias"),
				OrgType:      t,
				UseCustomURL: cmd.Flags().Changed("instance-url"),
				CustomURL:    instanceURL,
				Favorite:     favorite,
			}

			a, err := loadApplication(&app.Config{Interactive: !noTUI, AuthTimeout: timeout})
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Login(cmd.Context(), req)
			p := newPrinter(cmd.OutOrStdout())
			switch res.State {
			case auth.StateSucceeded:
				p.Successf("Logged in to %s as alias %s", res.Label, res.Alias)
				return nil
			case auth.StateTimedOut:
				p.Notificationf("The login did not finish within %s. The callback listener was stopped; run the command again to retry.", a.Config().AuthTimeout)
			case auth.StateCancelled:
				p.Notificationf("Login cancelled.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("login to %q failed: %w", req.Label, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&orgType, "type", "t", string(store.OrgTypeProduction), "org type: Production, Sandbox or Development")
	cmd.Flags().StringVarP(&alias, "alias", "a", "", "use this alias instead of deriving one from the label")
	cmd.Flags().StringVar(&instanceURL, "instance-url", "", "custom login URL, e.g. a My Domain URL")
	cmd.Flags().BoolVarP(&favorite, "favorite", "f", false, "mark the organization as favorite")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "how long to wait for the browser login (default from config)")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "plain output without the interactive spinner")
	return cmd
}
