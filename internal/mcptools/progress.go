package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"scorecard/internal/domain"
	"scorecard/internal/engine"
)

// ─── AddProgressTool ────────────────────────────────────────────────────────

// AddProgressTool handles the add_progress_update MCP tool.
type AddProgressTool struct {
	engine engine.Engine
	actor  string
}

func NewAddProgressTool(e engine.Engine, actor string) *AddProgressTool {
	return &AddProgressTool{engine: e, actor: actor}
}

func (t *AddProgressTool) Definition() mcp.Tool {
	return mcp.NewTool("add_progress_update",
		mcp.WithDescription(
			"Add a versioned progress update to a program. The version number is assigned automatically. "+
				"Record decisions under metrics.decisions as [{timestamp, title, rationale, impact, decided_by}].",
		),
		mcp.WithNumber("program_id",
			mcp.Required(),
			mcp.Description("The program (goal item) ID"),
		),
		mcp.WithString("update_text",
			mcp.Required(),
			mcp.Description("Progress update narrative"),
		),
		mcp.WithNumber("percent_complete",
			mcp.Description("Completion percentage, 0 to 100"),
		),
		mcp.WithString("rag_status",
			mcp.Description("RAG status indicator (default: Not_Started)"),
			mcp.Enum("Red", "Amber", "Green", "Not Started", "Not_Started", "Complete"),
		),
		mcp.WithString("author",
			mcp.Required(),
			mcp.Description("Name of the person authoring this update"),
		),
		mcp.WithObject("metrics",
			mcp.Description("Optional JSON metrics object"),
		),
	)
}

func (t *AddProgressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programID, ok := int64Arg(req, "program_id")
	if !ok {
		return mcp.NewToolResultError("'program_id' is required"), nil
	}
	metrics, err := domain.MetricsFromMap(objectArg(req, "metrics"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid metrics: %v", err)), nil
	}
	update, err := t.engine.AddProgressUpdate(ctx, engine.ProgressInput{
		ProgramID:       programID,
		UpdateText:      req.GetString("update_text", ""),
		PercentComplete: floatArg(req, "percent_complete", 0),
		RAGStatus:       req.GetString("rag_status", ""),
		Author:          req.GetString("author", ""),
		Metrics:         metrics,
		ActorID:         t.actor,
	})
	if err != nil {
		return failure(fmt.Sprintf("program %d", programID), err)
	}
	return jsonResult(update)
}

// ─── LatestProgressTool ─────────────────────────────────────────────────────

// LatestProgressTool handles the get_latest_progress MCP tool. A program with
// no updates yields an empty list rather than an error.
type LatestProgressTool struct {
	engine engine.Engine
}

func NewLatestProgressTool(e engine.Engine) *LatestProgressTool {
	return &LatestProgressTool{engine: e}
}

func (t *LatestProgressTool) Definition() mcp.Tool {
	return mcp.NewTool("get_latest_progress",
		mcp.WithDescription("Get the latest versioned progress update for a program."),
		mcp.WithNumber("program_id",
			mcp.Required(),
			mcp.Description("The program (goal item) ID"),
		),
	)
}

func (t *LatestProgressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programID, ok := int64Arg(req, "program_id")
	if !ok {
		return mcp.NewToolResultError("'program_id' is required"), nil
	}
	history, err := t.engine.ProgressHistory(ctx, programID, 1)
	if err != nil {
		return failure(fmt.Sprintf("program %d", programID), err)
	}
	updates := history.Updates
	if updates == nil {
		updates = []domain.ProgressUpdate{}
	}
	return jsonResult(updates)
}

// ─── TimelineTool ───────────────────────────────────────────────────────────

type TimelineTool struct {
	engine engine.Engine
}

func NewTimelineTool(e engine.Engine) *TimelineTool {
	return &TimelineTool{engine: e}
}

func (t *TimelineTool) Definition() mcp.Tool {
	return mcp.NewTool("get_progress_timeline",
		mcp.WithDescription(
			"Get a program's chronological timeline: every progress update plus the decisions recorded "+
				"in their metrics, ordered by date.",
		),
		mcp.WithNumber("program_id",
			mcp.Required(),
			mcp.Description("The program (goal item) ID"),
		),
	)
}

func (t *TimelineTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programID, ok := int64Arg(req, "program_id")
	if !ok {
		return mcp.NewToolResultError("'program_id' is required"), nil
	}
	entries, err := t.engine.Timeline(ctx, programID)
	if err != nil {
		return failure(fmt.Sprintf("program %d", programID), err)
	}
	if entries == nil {
		entries = []engine.TimelineEntry{}
	}
	return jsonResult(entries)
}
