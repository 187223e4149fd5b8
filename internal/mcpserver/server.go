// Package mcpserver exposes read and navigation operations on the stored
// organizations as MCP tools over stdio, so an assistant can list orgs, fetch
// details and limits, open an org or switch the default.
package mcpserver

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"orgctl/internal/orgcli"
	"orgctl/internal/store"
	"orgctl/pkg/logging"
)

// Gateway is the subset of the CLI gateway the tools call.
type Gateway interface {
	FetchDetails(alias string) *orgcli.OrgDetails
	FetchLimits(alias string) []orgcli.LimitItem
	Open(alias string, opts orgcli.OpenOptions) bool
	SetDefault(alias string) bool
}

// OrgStore is the subset of the organization store the tools use.
type OrgStore interface {
	Reload() error
	List() []store.Organization
	FindByAlias(alias string) (store.Organization, bool)
	SetDefault(id string) bool
}

// Server serves the orgctl tools.
type Server struct {
	store          OrgStore
	gateway        Gateway
	defaultBrowser string
	mcpServer      *server.MCPServer
}

// New creates the MCP server and registers its tools.
func New(st OrgStore, gw Gateway, defaultBrowser, version string) *Server {
	s := &Server{
		store:          st,
		gateway:        gw,
		defaultBrowser: defaultBrowser,
	}
	s.mcpServer = server.NewMCPServer(
		"orgctl",
		version,
		server.WithToolCapabilities(true),
	)
	s.mcpServer.AddTools(s.Tools()...)
	return s
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Tools returns the tool definitions with their handlers.
func (s *Server) Tools() []server.ServerTool {
	aliasParam := mcp.WithString("alias",
		mcp.Required(),
		mcp.Description("Alias of a stored organization"),
	)

	return []server.ServerTool{
		{
			Tool: mcp.NewTool("org_list",
				mcp.WithDescription("List stored organizations in display order"),
				mcp.WithBoolean("favorites_only",
					mcp.Description("Only return favorite organizations"),
				),
			),
			Handler: s.handleList,
		},
		{
			Tool: mcp.NewTool("org_details",
				mcp.WithDescription("Show the CLI session details of an organization"),
				aliasParam,
			),
			Handler: s.handleDetails,
		},
		{
			Tool: mcp.NewTool("org_limits",
				mcp.WithDescription("Show API and storage limits of an organization"),
				aliasParam,
			),
			Handler: s.handleLimits,
		},
		{
			Tool: mcp.NewTool("org_open",
				mcp.WithDescription("Open an organization in the browser"),
				aliasParam,
				mcp.WithString("path",
					mcp.Description("Relative path to open, for example lightning/setup/SetupOneHome/home"),
				),
				mcp.WithBoolean("private",
					mcp.Description("Open in a private window; overrides the browser choice"),
				),
			),
			Handler: s.handleOpen,
		},
		{
			Tool: mcp.NewTool("org_set_default",
				mcp.WithDescription("Make an organization the default target for the CLI"),
				aliasParam,
			),
			Handler: s.handleSetDefault,
		},
	}
}

// ServeStdio serves MCP requests on in/out until ctx is done or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	logging.Info("MCPServer", "Serving %d tools over stdio", len(s.Tools()))
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}
