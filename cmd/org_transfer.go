package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"orgctl/internal/app"
)

func newOrgImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import organizations from an export file",
		Long: `Merges organizations from a JSON export. Entries whose alias is already
stored are skipped and never overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{})
			if err != nil {
				return err
			}
			defer a.Close()

			added, skipped, err := a.Services().Store.ImportFile(args[0])
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.Successf("Imported %d organizations", added)
			if skipped > 0 {
				p.Notificationf("Skipped %d entries whose alias already exists or is missing", skipped)
			}
			return nil
		},
	}
}

func newOrgExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export stored organizations to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{})
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Services().Store.ExportFile(args[0])
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			newPrinter(cmd.OutOrStdout()).Successf("Exported %d organizations to %s", n, args[0])
			return nil
		},
	}
}
