package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"orgctl/internal/app"
	"orgctl/internal/auth"
	"orgctl/internal/store"
)

func newOrgEditCmd() *cobra.Command {
	var (
		label       string
		orgType     string
		favorite    bool
		browser     string
		instanceURL string
	)

	cmd := &cobra.Command{
		Use:   "edit <alias>",
		Short: "Change the label, type, favorite flag or browser of an organization",
		Long: `Edits stored metadata. Only flags that are given are changed.
The alias itself cannot be edited; log in again under a new alias instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{})
			if err != nil {
				return err
			}
			defer a.Close()

			org, err := findOrg(a, args[0])
			if err != nil {
				return err
			}

			var req auth.EditRequest
			flags := cmd.Flags()
			if flags.Changed("label") {
				req.Label = &label
			}
			if flags.Changed("type") {
				t := store.OrgType(orgType)
				req.OrgType = &t
			}
			if flags.Changed("favorite") {
				req.Favorite = &favorite
			}
			if flags.Changed("browser") {
				req.PreferredBrowser = &browser
			}
			if flags.Changed("instance-url") {
				req.InstanceURL = &instanceURL
			}
			if req == (auth.EditRequest{}) {
				return fmt.Errorf("nothing to change; pass at least one of --label, --type, --favorite, --browser or --instance-url")
			}

			updated, err := a.Services().Auth.Edit(org.ID, req)
			if err != nil {
				return fmt.Errorf("failed to edit %s: %w", org.Alias, err)
			}
			newPrinter(cmd.OutOrStdout()).Successf("Updated %s (%s, %s)", updated.Alias, updated.Label, updated.OrgType)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "new display label")
	cmd.Flags().StringVarP(&orgType, "type", "t", "", "org type: Production, Sandbox or Development")
	cmd.Flags().BoolVarP(&favorite, "favorite", "f", false, "favorite flag (use --favorite=false to clear)")
	cmd.Flags().StringVar(&browser, "browser", "", "preferred browser for this org; empty uses the configured default")
	cmd.Flags().StringVar(&instanceURL, "instance-url", "", "instance URL")
	return cmd
}

func newOrgLogoutCmd() *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "logout <alias>",
		Short: "Close the CLI session of an organization",
		Long: `Logs the organization out of the sf CLI. The stored entry is kept so you
can log in again later, unless --forget is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{})
			if err != nil {
				return err
			}
			defer a.Close()

			org, err := findOrg(a, args[0])
			if err != nil {
				return err
			}
			if !a.Services().Gateway.Logout(org.Alias) {
				return fmt.Errorf("the CLI could not log out %s; see the log for its output", org.Alias)
			}

			p := newPrinter(cmd.OutOrStdout())
			if forget {
				a.Services().Store.Remove(org.ID)
				p.Successf("Logged out and removed %s", org.Alias)
				return nil
			}
			p.Successf("Logged out %s", org.Alias)
			return nil
		},
	}

	cmd.Flags().BoolVar(&forget, "forget", false, "also remove the organization from the stored list")
	return cmd
}

func newOrgDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <alias>",
		Short: "Delete an organization from the CLI and the stored list",
		Long: `Runs sf org delete for the alias (which also closes its session) and
removes the stored entry once the CLI succeeded. If the CLI fails the stored
entry is left in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{})
			if err != nil {
				return err
			}
			defer a.Close()

			org, err := findOrg(a, args[0])
			if err != nil {
				return err
			}
			if !a.Services().Gateway.Delete(org.Alias) {
				return fmt.Errorf("the CLI could not delete %s; the stored entry was kept", org.Alias)
			}
			a.Services().Store.Remove(org.ID)
			newPrinter(cmd.OutOrStdout()).Successf("Deleted %s", org.Alias)
			return nil
		},
	}
}

func newOrgDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <alias>",
		Short: "Make an organization the default target",
		Long:  `Sets the sf CLI's global target-org and marks the organization as the only default.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{})
			if err != nil {
				return err
			}
			defer a.Close()

			org, err := findOrg(a, args[0])
			if err != nil {
				return err
			}
			if !a.Services().Gateway.SetDefault(org.Alias) {
				return fmt.Errorf("the CLI could not set %s as target-org", org.Alias)
			}
			a.Services().Store.SetDefault(org.ID)
			newPrinter(cmd.OutOrStdout()).Successf("%s is now the default organization", org.Alias)
			return nil
		},
	}
}

func newOrgFavoriteCmd() *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "favorite <alias>",
		Short: "Mark an organization as favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{})
			if err != nil {
				return err
			}
			defer a.Close()

			org, err := findOrg(a, args[0])
			if err != nil {
				return err
			}
			on := !off
			if _, err := a.Services().Auth.Edit(org.ID, auth.EditRequest{Favorite: &on}); err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			if on {
				p.Successf("%s is a favorite", org.Alias)
			} else {
				p.Successf("%s is no longer a favorite", org.Alias)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&off, "off", false, "remove the favorite mark")
	return cmd
}
