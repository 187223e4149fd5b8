package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"orgctl/internal/app"
	"orgctl/internal/store"
)

var (
	configPath string
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "orgctl",
	Short: "Manage authenticated Salesforce orgs from the terminal",
	Long: `orgctl keeps track of the orgs you have logged in to with the sf CLI.
It drives the browser login, remembers aliases, labels and favorites,
and opens orgs, their setup pages and their limits without retyping aliases.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. a failed login or an unknown alias)
	SilenceUsage: true,
}

// For mocking in tests
var newApplication = app.NewApplication

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "orgctl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file layered over ~/.config/orgctl/config.yaml and ./.orgctl/config.yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newOrgCmd())
	rootCmd.AddCommand(newCLICmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}

// loadApplication bootstraps config, logging and services for one command.
func loadApplication(cfg *app.Config) (*app.Application, error) {
	cfg.ConfigPath = configPath
	cfg.Debug = debug
	return newApplication(cfg)
}

func findOrg(a *app.Application, alias string) (store.Organization, error) {
	org, ok := a.Services().Store.FindByAlias(alias)
	if !ok {
		return store.Organization{}, fmt.Errorf("no stored organization with alias %q (see `orgctl org list`)", alias)
	}
	return org, nil
}
