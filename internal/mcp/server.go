package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"
)

// TapAPI is the part of the tap exposed to agents.
type TapAPI interface {
	Discover(ctx context.Context) (*domain.Catalog, error)
	Preview(ctx context.Context, tapStreamID string, limit int) ([]*domain.Record, error)
	LastState() *domain.State
	Runs(limit int) ([]domain.SyncRun, error)
}

// Server is the MCP server of the tap. Every tool is read-only: nothing it
// does emits messages or persists state.
type Server struct {
	mcp    *server.MCPServer
	tap    TapAPI
	logger *slog.Logger
}

// New creates a server with all tools registered.
func New(tap TapAPI, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{tap: tap, logger: logger}
	s.mcp = server.NewMCPServer(
		"tap-firebird",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsoncodec.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
