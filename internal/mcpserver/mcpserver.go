package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/deadroute/pkg/config"
)

// Server wraps the MCP server and registers the deadroute template tools.
type Server struct {
	server *mcp.Server
	config *config.Config
}

// NewServer creates a new MCP server with all deadroute tools registered.
// A nil cfg uses the defaults.
func NewServer(version string, cfg *config.Config) *Server {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "deadroute",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, config: cfg}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "template_references",
		Description: describeTemplateReferences(),
	}, s.handleTemplateReferences)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "unused_routes",
		Description: describeUnusedRoutes(),
	}, s.handleUnusedRoutes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "template_graph",
		Description: describeTemplateGraph(),
	}, s.handleTemplateGraph)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "template_reach",
		Description: describeTemplateReach(),
	}, s.handleTemplateReach)
}
