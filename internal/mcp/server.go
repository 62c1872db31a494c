// ABOUTME: MCP server implementation for readlist
// ABOUTME: Provides tools, resources, and prompts for AI agents to work through a reading list

package mcp

import (
	"time"

	"github.com/harper/readlist/internal/service"
	rsync "github.com/harper/readlist/internal/sync"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Server wraps the MCP server with readlist-specific context
type Server struct {
	mcpServer *server.MCPServer
	svc       *service.Service
	syncer    rsync.Runner
	now       func() time.Time
}

// NewServer creates a new MCP server instance. syncer may be nil, in which
// case the sync tool reports that syncing is unavailable.
func NewServer(svc *service.Service, syncer rsync.Runner) *Server {
	s := &Server{
		svc:    svc,
		syncer: syncer,
		now:    time.Now,
	}

	s.mcpServer = server.NewMCPServer(
		"readlist",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
