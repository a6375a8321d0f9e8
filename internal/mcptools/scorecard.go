package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"scorecard/internal/domain"
	"scorecard/internal/engine"
)

// ScorecardTool handles the get_scorecard MCP tool.
type ScorecardTool struct {
	engine engine.Engine
}

func NewScorecardTool(e engine.Engine) *ScorecardTool {
	return &ScorecardTool{engine: e}
}

func (t *ScorecardTool) Definition() mcp.Tool {
	return mcp.NewTool("get_scorecard",
		mcp.WithDescription(
			"Get the program scorecard: every active program with its Q1-Q4 objectives for the year "+
				"and its latest progress and RAG status.",
		),
		mcp.WithNumber("org_unit_id",
			mcp.Description("Only programs owned by this org unit or units below it"),
		),
		mcp.WithNumber("year",
			mcp.Description("Objective year (default: the configured scorecard year)"),
		),
	)
}

func (t *ScorecardTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orgID, _ := int64Arg(req, "org_unit_id")
	card, err := t.engine.Scorecard(ctx, engine.ScorecardOptions{
		Year:      intArg(req, "year", 0),
		OrgUnitID: orgID,
	})
	if err != nil {
		return failure(fmt.Sprintf("org unit %d", orgID), err)
	}
	return jsonResult(card)
}

// SummaryTool handles the get_scorecard_summary MCP tool.
type SummaryTool struct {
	engine engine.Engine
}

func NewSummaryTool(e engine.Engine) *SummaryTool {
	return &SummaryTool{engine: e}
}

func (t *SummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("get_scorecard_summary",
		mcp.WithDescription(
			"Executive summary: RAG status of every active program rolled up to its pillar (worst wins), "+
				"with enterprise totals and overall status.",
		),
	)
}

func (t *SummaryTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := t.engine.Summary(ctx)
	if err != nil {
		return failure("summary", err)
	}
	return jsonResult(summary)
}

type ObjectivesTool struct {
	engine engine.Engine
}

func NewObjectivesTool(e engine.Engine) *ObjectivesTool {
	return &ObjectivesTool{engine: e}
}

func (t *ObjectivesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_quarterly_objectives",
		mcp.WithDescription("Get the quarterly objectives for a specific program."),
		mcp.WithNumber("program_id",
			mcp.Required(),
			mcp.Description("The program (goal item) ID"),
		),
		mcp.WithNumber("year",
			mcp.Description("Only objectives for this year"),
		),
		mcp.WithString("quarter",
			mcp.Description("Only objectives for this quarter"),
			mcp.Enum("Q1", "Q2", "Q3", "Q4"),
		),
	)
}

func (t *ObjectivesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programID, ok := int64Arg(req, "program_id")
	if !ok {
		return mcp.NewToolResultError("'program_id' is required"), nil
	}
	objectives, err := t.engine.Objectives(ctx, engine.ObjectiveQuery{
		ProgramID: programID,
		Year:      intArg(req, "year", 0),
		Quarter:   req.GetString("quarter", ""),
	})
	if err != nil {
		return failure(fmt.Sprintf("program %d", programID), err)
	}
	if objectives == nil {
		objectives = []domain.ProgramObjective{}
	}
	return jsonResult(objectives)
}
