package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"orgctl/internal/app"
	"orgctl/internal/orgcli"
	"orgctl/internal/store"
	"orgctl/internal/tui/design"
)

// For mocking in tests
var writeClipboard = clipboard.WriteAll

// resolvePath accepts a named page (setup, flows, ...) or a raw path.
func resolvePath(p string) string {
	if named, ok := orgcli.NamedPaths[p]; ok {
		return named
	}
	return p
}

func namedPathList() string {
	names := make([]string, 0, len(orgcli.NamedPaths))
	for name := range orgcli.NamedPaths {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func newOrgOpenCmd() *cobra.Command {
	var (
		path    string
		setup   bool
		private bool
		browser string
	)

	cmd := &cobra.Command{
		Use:   "open <alias>",
		Short: "Open an organization in the browser",
		Long: fmt.Sprintf(`Opens the organization through sf org open.

--path takes a path inside the org or one of: %s.
--private opens a private window and ignores any browser choice.`, namedPathList()),
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

			opts := orgcli.OpenOptions{
				Path:      resolvePath(path),
				Incognito: private,
				Browser:   org.Browser(a.Config().DefaultBrowser),
			}
			if setup {
				opts.Path = orgcli.PathSetup
			}
			if cmd.Flags().Changed("browser") {
				opts.Browser = browser
			}

			if !a.Services().Gateway.Open(org.Alias, opts) {
				return fmt.Errorf("the CLI could not open %s", org.Alias)
			}
			newPrinter(cmd.OutOrStdout()).Successf("Opened %s", org.Alias)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "page inside the org")
	cmd.Flags().BoolVar(&setup, "setup", false, "open the Setup home page")
	cmd.Flags().BoolVar(&private, "private", false, "open in a private window")
	cmd.Flags().StringVar(&browser, "browser", "", "browser to use instead of the org's preferred browser")
	cmd.MarkFlagsMutuallyExclusive("path", "setup")
	return cmd
}

func newOrgDetailsCmd() *cobra.Command {
	var (
		copyURL bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "details <alias>",
		Short: "Show CLI session details of an organization",
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
			details := a.Services().Gateway.FetchDetails(org.Alias)
			if details == nil {
				return fmt.Errorf("details for %s are unavailable; the session may have expired (try `orgctl org login`)", org.Alias)
			}

			// Keep stored metadata in line with what the CLI reports.
			a.Services().Store.Mutate(org.ID, func(o *store.Organization) {
				if details.ID != "" {
					o.OrgID = details.ID
				}
				if details.InstanceURL != "" {
					o.InstanceURL = details.InstanceURL
				}
				if details.Username != "" {
					o.Username = details.Username
				}
			})

			p := newPrinter(cmd.OutOrStdout())
			if asJSON {
				return p.JSON(details)
			}

			rows := [][]string{
				{"Label", org.Label},
				{"Alias", org.Alias},
				{"Type", string(org.OrgType)},
				{"Org ID", details.ID},
				{"Username", details.Username},
				{"Instance URL", details.InstanceURL},
				{"API version", details.APIVersion},
				{"Client ID", details.ClientID},
				{"Status", details.ConnectedStatus},
			}
			p.Table([]column{
				{header: "FIELD", style: func(string) lipgloss.Style { return design.TextSecondaryStyle }},
				{header: "VALUE"},
			}, rows)

			if copyURL && details.InstanceURL != "" {
				if err := writeClipboard(details.InstanceURL); err != nil {
					p.Errorf("Could not copy the instance URL: %v", err)
				} else {
					p.Successf("Copied %s to the clipboard", details.InstanceURL)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyURL, "copy", false, "copy the instance URL to the clipboard")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the details as JSON")
	return cmd
}

func newOrgLimitsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "limits <alias>",
		Short: "Show API and storage limits of an organization",
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
			limits := a.Services().Gateway.FetchLimits(org.Alias)
			if limits == nil {
				return fmt.Errorf("limits for %s are unavailable", org.Alias)
			}

			p := newPrinter(cmd.OutOrStdout())
			if asJSON {
				return p.JSON(limits)
			}

			rows := make([][]string, 0, len(limits))
			for _, l := range limits {
				rows = append(rows, []string{
					l.Name,
					fmt.Sprintf("%d", l.Used()),
					fmt.Sprintf("%d", l.Max),
					fmt.Sprintf("%.1f%%", l.UsagePercent()),
				})
			}
			p.Table([]column{
				{header: "LIMIT"},
				{header: "USED"},
				{header: "MAX"},
				{header: "USAGE", style: usageStyle},
			}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the limits as JSON")
	return cmd
}

func usageStyle(cell string) lipgloss.Style {
	var pct float64
	if _, err := fmt.Sscanf(cell, "%f%%", &pct); err != nil {
		return design.TextStyle
	}
	switch {
	case pct >= 90:
		return design.TextErrorStyle
	case pct >= 75:
		return design.TextWarningStyle
	default:
		return design.TextSuccessStyle
	}
}
