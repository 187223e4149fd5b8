package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"orgctl/internal/app"
	"orgctl/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve stored organizations as MCP tools over stdio",
		Long: `Runs an MCP server on stdin/stdout exposing org_list, org_details,
org_limits, org_open and org_set_default. Logs go to stderr or the configured
log file so they do not mix with the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{LogOutput: os.Stderr})
			if err != nil {
				return err
			}
			defer a.Close()

			services := a.Services()
			srv := mcpserver.New(services.Store, services.Gateway, a.Config().DefaultBrowser, rootCmd.Version)
			return srv.ServeStdio(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
