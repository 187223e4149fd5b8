package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"orgctl/internal/orgcli"
	"orgctl/internal/store"
	"orgctl/pkg/logging"
)

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func boolArg(request mcp.CallToolRequest, name string) bool {
	v, _ := request.GetArguments()[name].(bool)
	return v
}

func stringArg(request mcp.CallToolRequest, name string) string {
	v, _ := request.GetArguments()[name].(string)
	return v
}

// reload picks up changes other orgctl commands made while the server runs.
func (s *Server) reload() error {
	if err := s.store.Reload(); err != nil {
		logging.Error("MCPServer", err, "Failed to reload organizations")
		return fmt.Errorf("stored organizations could not be read: %w", err)
	}
	return nil
}

// lookup resolves the alias argument to a stored organization.
func (s *Server) lookup(request mcp.CallToolRequest) (store.Organization, *mcp.CallToolResult) {
	alias, err := request.RequireString("alias")
	if err != nil || alias == "" {
		return store.Organization{}, mcp.NewToolResultError("alias parameter is required")
	}
	if err := s.reload(); err != nil {
		return store.Organization{}, mcp.NewToolResultError(err.Error())
	}
	org, ok := s.store.FindByAlias(alias)
	if !ok {
		return store.Organization{}, mcp.NewToolResultError(fmt.Sprintf("No stored organization with alias %q", alias))
	}
	return org, nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.reload(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	orgs := s.store.List()
	if boolArg(request, "favorites_only") {
		var favs []store.Organization
		for _, o := range orgs {
			if o.IsFavorite {
				favs = append(favs, o)
			}
		}
		orgs = favs
	}
	if len(orgs) == 0 {
		return mcp.NewToolResultText("No organizations stored"), nil
	}
	return jsonResult(orgs)
}

func (s *Server) handleDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	org, errResult := s.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	details := s.gateway.FetchDetails(org.Alias)
	if details == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Details for %s are unavailable; the session may have expired", org.Alias)), nil
	}
	return jsonResult(details)
}

type limitView struct {
	orgcli.LimitItem
	Used    int64   `json:"used"`
	Percent float64 `json:"usagePercent"`
}

func (s *Server) handleLimits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	org, errResult := s.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	limits := s.gateway.FetchLimits(org.Alias)
	if limits == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Limits for %s are unavailable", org.Alias)), nil
	}
	views := make([]limitView, len(limits))
	for i, l := range limits {
		views[i] = limitView{LimitItem: l, Used: l.Used(), Percent: l.UsagePercent()}
	}
	return jsonResult(views)
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	org, errResult := s.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	opts := orgcli.OpenOptions{
		Path:      stringArg(request, "path"),
		Incognito: boolArg(request, "private"),
		Browser:   org.Browser(s.defaultBrowser),
	}
	if !s.gateway.Open(org.Alias, opts) {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to open %s", org.Alias)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Opened %s", org.Alias)), nil
}

func (s *Server) handleSetDefault(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	org, errResult := s.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	if !s.gateway.SetDefault(org.Alias) {
		return mcp.NewToolResultError(fmt.Sprintf("The CLI refused to set %s as default target", org.Alias)), nil
	}
	s.store.SetDefault(org.ID)
	logging.Info("MCPServer", "Default organization set to %s", org.Alias)
	return mcp.NewToolResultText(fmt.Sprintf("%s is now the default organization", org.Alias)), nil
}
