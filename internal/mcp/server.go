package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/lemon07r/pampax"
)

const (
	// ServerName identifies this MCP server to clients.
	ServerName = "pampax"
	// ServerVersion is the current MCP server version.
	ServerVersion = "1.0.0"
)

// Server is a thin adapter translating MCP tool calls into pampax.Core
// operations. It owns no business logic of its own: every handler in
// tools.go validates its arguments and delegates straight to core.
type Server struct {
	mcp  *server.MCPServer
	core *pampax.Core
}

// NewServer wires a Core opened at root into a fresh MCP server and
// registers every tool.
func NewServer(root string, logger *slog.Logger) (*Server, error) {
	core, err := pampax.Open(root, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		mcp:  server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		core: core,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.core.Close() }()
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(indexTool(), s.handleIndex)
	s.mcp.AddTool(updateTool(), s.handleUpdate)
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(getChunkTool(), s.handleGetChunk)
	s.mcp.AddTool(getOverviewTool(), s.handleGetOverview)
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)
	s.mcp.AddTool(getQueryAnalyticsTool(), s.handleGetQueryAnalytics)
	s.mcp.AddTool(listContextPacksTool(), s.handleListContextPacks)
}
