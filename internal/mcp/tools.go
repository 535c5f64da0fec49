package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

const (
	defaultPreviewLimit = 10
	maxPreviewLimit     = 1000
	defaultRunsLimit    = 20
)

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("discover_catalog",
		mcp.WithDescription("Discover the tables and views of the database and return the catalog (streams, JSON schemas, metadata)"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleDiscoverCatalog)

	s.mcp.AddTool(mcp.NewTool("preview_stream",
		mcp.WithDescription("Read the first records of one stream as a full-table read. No state is saved."),
		mcp.WithString("stream", mcp.Description("tap_stream_id of the stream"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Number of records (default %d, max %d)", defaultPreviewLimit, maxPreviewLimit))),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handlePreviewStream)

	s.mcp.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Return the last STATE emitted by a sync (bookmarks per stream)"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetState)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recent sync runs, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListRuns)
}

func (s *Server) handleDiscoverCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog, err := s.tap.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	return jsonResult(catalog)
}

func (s *Server) handlePreviewStream(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stream := req.GetString("stream", "")
	if stream == "" {
		return nil, fmt.Errorf("stream is required")
	}
	limit := req.GetInt("limit", defaultPreviewLimit)
	if limit <= 0 {
		limit = defaultPreviewLimit
	}
	limit = min(limit, maxPreviewLimit)

	records, err := s.tap.Preview(ctx, stream, limit)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", stream, err)
	}
	return jsonResult(map[string]any{
		"stream":  stream,
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleGetState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := s.tap.LastState()
	if state == nil {
		state = domain.NewState()
	}
	return jsonResult(state)
}

func (s *Server) handleListRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.tap.Runs(req.GetInt("limit", defaultRunsLimit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if runs == nil {
		return textResult("No runs recorded (state_db is not configured)"), nil
	}
	return jsonResult(runs)
}
