package cmd

import (
	"github.com/spf13/cobra"
)

func newOrgCmd() *cobra.Command {
	orgCmd := &cobra.Command{
		Use:   "org",
		Short: "Manage stored organizations",
		Long: `Log in to organizations, keep their metadata and open them.

Organizations are identified by alias. The alias is derived from the label
at login time and cannot be changed afterwards.`,
	}

	orgCmd.AddCommand(
		newOrgListCmd(),
		newOrgLoginCmd(),
		newOrgEditCmd(),
		newOrgLogoutCmd(),
		newOrgDeleteCmd(),
		newOrgDefaultCmd(),
		newOrgFavoriteCmd(),
		newOrgOpenCmd(),
		newOrgDetailsCmd(),
		newOrgLimitsCmd(),
		newOrgImportCmd(),
		newOrgExportCmd(),
	)
	return orgCmd
}
