package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"orgctl/internal/app"
)

func newCLICmd() *cobra.Command {
	cliCmd := &cobra.Command{
		Use:   "cli",
		Short: "Inspect or update the sf CLI used by orgctl",
	}

	cliCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the installed sf CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{})
			if err != nil {
				return err
			}
			defer a.Close()

			v := a.Services().Gateway.Version()
			if v == nil {
				return fmt.Errorf("could not determine the CLI version; is %s installed?", a.Config().CLIPath)
			}
			p := newPrinter(cmd.OutOrStdout())
			p.Infof("CLI:          %s", v.CLIVersion)
			p.Infof("Architecture: %s", v.Architecture)
			p.Infof("Node:         %s", v.NodeVersion)
			return nil
		},
	})

	cliCmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Update the sf CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{})
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Services().Gateway.Update() {
				return fmt.Errorf("the CLI update failed; see the log for its output")
			}
			newPrinter(cmd.OutOrStdout()).Successf("sf CLI updated")
			return nil
		},
	})

	return cliCmd
}
