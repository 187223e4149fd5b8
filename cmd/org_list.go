package cmd

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"orgctl/internal/app"
	"orgctl/internal/store"
	"orgctl/internal/tui/design"
)

func newOrgListCmd() *cobra.Command {
	var (
		asJSON    bool
		favorites bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored organizations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApplication(&app.Config{})
			if err != nil {
				return err
			}
			defer a.Close()

			st := a.Services().Store
			orgs := st.List()
			if favorites {
				orgs = st.Favorites()
			}

			p := newPrinter(cmd.OutOrStdout())
			if asJSON {
				if orgs == nil {
					orgs = []store.Organization{}
				}
				return p.JSON(orgs)
			}
			if len(orgs) == 0 {
				p.Notificationf("No organizations stored. Log in with `orgctl org login <label>`.")
				return nil
			}
			printOrgTable(p, orgs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print organizations as JSON")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "only list favorites")
	return cmd
}

func printOrgTable(p *printer, orgs []store.Organization) {
	cols := []column{
		{header: ""},
		{header: "ALIAS", style: func(string) lipgloss.Style { return design.TitleStyle }},
		{header: "LABEL"},
		{header: "TYPE", style: design.GetOrgTypeStyle},
		{header: "USERNAME", style: func(string) lipgloss.Style { return design.TextSecondaryStyle }},
	}

	rows := make([][]string, 0, len(orgs))
	for _, o := range orgs {
		marker := ""
		if o.IsDefault {
			marker += "*"
		}
		if o.IsFavorite {
			marker += "★"
		}
		rows = append(rows, []string{marker, o.Alias, o.Label, string(o.OrgType), o.Username})
	}
	p.Table(cols, rows)
}
