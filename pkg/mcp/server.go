// Package mcp exposes the supplier email pipeline as MCP tools.
package mcp

import (
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/mcp/tools"
	"github.com/ekaya-inc/rfqportal/pkg/middleware"
	"github.com/ekaya-inc/rfqportal/pkg/services"
)

const instructions = "Tools for turning supplier emails into quotes for an RFQ. " +
	"Use extract_email_data to preview what an email contains, process_email_text to record it " +
	"against an RFQ, and check_missing_fields_and_generate_email to draft a follow-up for a saved quote."

// ToolDeps are the dependencies shared by the registered tools.
type ToolDeps struct {
	Pipeline services.EmailPipeline
	// DB is optional; when set the health tool reports database reachability.
	DB tools.Pinger
	// Timeout bounds extraction and processing calls.
	Timeout time.Duration
}

// Server wraps the mcp-go MCPServer.
type Server struct {
	mcp     *server.MCPServer
	version string
	logger  *zap.Logger
}

// NewServer creates a new MCP server instance.
func NewServer(name, version string, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)

	return &Server{
		mcp:     mcpServer,
		version: version,
		logger:  logger.Named("mcp"),
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// RegisterTools registers the health and supplier email tools.
func (s *Server) RegisterTools(deps *ToolDeps) {
	tools.RegisterHealthTool(s.mcp, s.version, deps.DB)
	tools.RegisterEmailTools(s.mcp, &tools.EmailToolDeps{
		Pipeline: deps.Pipeline,
		Timeout:  deps.Timeout,
		Logger:   s.logger,
	})
}

// RegisterTool is a convenience wrapper for registering a tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// Handler returns the streamable HTTP transport with tool call logging.
func (s *Server) Handler() http.Handler {
	return middleware.MCPRequestLogger(s.logger)(s.NewStreamableHTTPServer())
}
