package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"scorecard/internal/domain"
	"scorecard/internal/engine"
)

// ─── SubmitSkillOutputTool ──────────────────────────────────────────────────

// SubmitSkillOutputTool handles the submit_skill_output MCP tool.
type SubmitSkillOutputTool struct {
	engine engine.Engine
	actor  string
}

func NewSubmitSkillOutputTool(e engine.Engine, actor string) *SubmitSkillOutputTool {
	return &SubmitSkillOutputTool{engine: e, actor: actor}
}

func (t *SubmitSkillOutputTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_skill_output",
		mcp.WithDescription(
			"Record the result of running a skill for a goal. Later work on downstream "+
				"or sibling goals can read it back with get_upstream_outputs.",
		),
		mcp.WithNumber("skill_id",
			mcp.Required(),
			mcp.Description("ID of the skill that produced the output"),
		),
		mcp.WithString("person_name",
			mcp.Required(),
			mcp.Description("Person the skill ran for"),
		),
		mcp.WithString("goal_name",
			mcp.Required(),
			mcp.Description("Exact name of the goal the output belongs to"),
		),
		mcp.WithObject("output_data",
			mcp.Description("Structured result; decisions go under output_data.decisions"),
		),
		mcp.WithString("output_summary",
			mcp.Required(),
			mcp.Description("Short human-readable summary"),
		),
		mcp.WithObject("metadata",
			mcp.Description("Optional free-form metadata"),
		),
	)
}

func (t *SubmitSkillOutputTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	skillID, ok := int64Arg(req, "skill_id")
	if !ok {
		return mcp.NewToolResultError("'skill_id' is required"), nil
	}
	data, err := domain.MetricsFromMap(objectArg(req, "output_data"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid output_data: %v", err)), nil
	}
	out, err := t.engine.SubmitSkillOutput(ctx, engine.SkillOutputInput{
		SkillID:       skillID,
		PersonName:    req.GetString("person_name", ""),
		GoalName:      req.GetString("goal_name", ""),
		OutputData:    data,
		OutputSummary: req.GetString("output_summary", ""),
		Metadata:      objectArg(req, "metadata"),
		ActorID:       t.actor,
	})
	if err != nil {
		return failure("skill output", err)
	}
	return jsonResult(out)
}

// ─── SkillOutputsTool ───────────────────────────────────────────────────────

// SkillOutputsTool handles the get_skill_outputs MCP tool.
type SkillOutputsTool struct {
	engine engine.Engine
}

func NewSkillOutputsTool(e engine.Engine) *SkillOutputsTool {
	return &SkillOutputsTool{engine: e}
}

func (t *SkillOutputsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_skill_outputs",
		mcp.WithDescription("List recorded skill outputs, newest first. All filters are optional."),
		mcp.WithNumber("skill_id", mcp.Description("Only outputs of this skill")),
		mcp.WithString("person_name", mcp.Description("Only outputs for this person")),
		mcp.WithString("goal_name", mcp.Description("Only outputs for this goal")),
		mcp.WithNumber("limit", mcp.Description("Maximum outputs to return (default 20)")),
	)
}

func (t *SkillOutputsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	skillID, _ := int64Arg(req, "skill_id")
	page, err := t.engine.SkillOutputs(ctx, engine.SkillOutputQuery{
		SkillID:    skillID,
		PersonName: req.GetString("person_name", ""),
		GoalName:   req.GetString("goal_name", ""),
		Limit:      intArg(req, "limit", 20),
	})
	if err != nil {
		return failure("skill outputs", err)
	}
	return jsonResult(page)
}

// ─── UpstreamOutputsTool ────────────────────────────────────────────────────

// UpstreamOutputsTool handles the get_upstream_outputs MCP tool.
type UpstreamOutputsTool struct {
	engine engine.Engine
}

func NewUpstreamOutputsTool(e engine.Engine) *UpstreamOutputsTool {
	return &UpstreamOutputsTool{engine: e}
}

func (t *UpstreamOutputsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_upstream_outputs",
		mcp.WithDescription(
			"Get completed skill outputs from goals upstream of a goal: the goals it aligns to "+
				"(primary or secondary) and the goals sharing its parent. Oldest first.",
		),
		mcp.WithString("goal_name",
			mcp.Required(),
			mcp.Description("Exact name of the goal being worked on"),
		),
	)
}

func (t *UpstreamOutputsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("goal_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	up, err := t.engine.UpstreamOutputs(ctx, name)
	if err != nil {
		return failure(fmt.Sprintf("goal %q", name), err)
	}
	return jsonResult(up)
}
