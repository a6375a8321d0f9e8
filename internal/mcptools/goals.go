package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"scorecard/internal/engine"
)

// ─── OrgTreeTool ────────────────────────────────────────────────────────────

// OrgTreeTool handles the get_org_tree MCP tool.
type OrgTreeTool struct {
	engine engine.Engine
}

func NewOrgTreeTool(e engine.Engine) *OrgTreeTool {
	return &OrgTreeTool{engine: e}
}

func (t *OrgTreeTool) Definition() mcp.Tool {
	return mcp.NewTool("get_org_tree",
		mcp.WithDescription(
			"Get the organizational hierarchy tree. Returns nested org units from a root node to a specified depth.",
		),
		mcp.WithNumber("root_id",
			mcp.Description("Root org unit ID. Omit for the entire tree."),
		),
		mcp.WithNumber("depth",
			mcp.Description("Levels to return, 1 = the root only. Omit for full depth."),
		),
	)
}

func (t *OrgTreeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rootID, _ := int64Arg(req, "root_id")
	forest, err := t.engine.OrgTree(ctx, engine.OrgTreeOptions{
		RootID: rootID,
		Depth:  intArg(req, "depth", 0),
	})
	if err != nil {
		return failure(fmt.Sprintf("org unit %d", rootID), err)
	}
	return jsonResult(forest)
}

// ─── GoalTreeTool ───────────────────────────────────────────────────────────

// GoalTreeTool handles the get_goal_tree MCP tool.
type GoalTreeTool struct {
	engine engine.Engine
}

func NewGoalTreeTool(e engine.Engine) *GoalTreeTool {
	return &GoalTreeTool{engine: e}
}

func (t *GoalTreeTool) Definition() mcp.Tool {
	return mcp.NewTool("get_goal_tree",
		mcp.WithDescription(
			"Get the goal hierarchy owned by an org unit and every unit below it, from Pillar down to "+
				"Program level, together with the alignments touching those goals.",
		),
		mcp.WithNumber("org_unit_id",
			mcp.Description("The org unit ID to get goals for"),
		),
		mcp.WithString("org_unit_name",
			mcp.Description("Alternative to org_unit_id: the org unit's exact name"),
		),
		mcp.WithString("goal_level",
			mcp.Description("Restrict the tree to a single goal level"),
			mcp.Enum("Pillar", "Category", "Goal", "Program"),
		),
	)
}

func (t *GoalTreeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level := req.GetString("goal_level", "")
	if name := strings.TrimSpace(req.GetString("org_unit_name", "")); name != "" {
		view, err := t.engine.GoalTreeByOrgName(ctx, name, level)
		if err != nil {
			return failure(fmt.Sprintf("org unit %q", name), err)
		}
		return jsonResult(view)
	}
	orgID, ok := int64Arg(req, "org_unit_id")
	if !ok {
		return mcp.NewToolResultError("'org_unit_id' or 'org_unit_name' is required"), nil
	}
	view, err := t.engine.GoalTree(ctx, engine.GoalTreeOptions{OrgUnitID: orgID, Level: level})
	if err != nil {
		return failure(fmt.Sprintf("org unit %d", orgID), err)
	}
	return jsonResult(view)
}

// ─── GoalsForPersonTool ─────────────────────────────────────────────────────

type GoalsForPersonTool struct {
	engine engine.Engine
}

func NewGoalsForPersonTool(e engine.Engine) *GoalsForPersonTool {
	return &GoalsForPersonTool{engine: e}
}

func (t *GoalsForPersonTool) Definition() mcp.Tool {
	return mcp.NewTool("get_goals_for_person",
		mcp.WithDescription("Get all goals owned by a specific person."),
		mcp.WithString("person_name",
			mcp.Required(),
			mcp.Description("The person's name exactly as recorded as goal owner"),
		),
	)
}

func (t *GoalsForPersonTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	person := strings.TrimSpace(req.GetString("person_name", ""))
	if person == "" {
		return mcp.NewToolResultError("'person_name' is required"), nil
	}
	goals, err := t.engine.GoalsForOwner(ctx, person)
	if err != nil {
		return failure("goal lookup", err)
	}
	return jsonResult(goals)
}

// ─── GoalDetailsTool ────────────────────────────────────────────────────────

// GoalDetailsTool handles the get_goal_details MCP tool. Alignments are
// split into upstream, downstream and cross-cutting relative to the goal.
type GoalDetailsTool struct {
	engine engine.Engine
}

func NewGoalDetailsTool(e engine.Engine) *GoalDetailsTool {
	return &GoalDetailsTool{engine: e}
}

func (t *GoalDetailsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_goal_details",
		mcp.WithDescription(
			"Get a goal with its org unit, children, pillar ancestor, alignments and, for programs, "+
				"the latest progress update.",
		),
		mcp.WithNumber("goal_id",
			mcp.Required(),
			mcp.Description("The goal item ID"),
		),
	)
}

func (t *GoalDetailsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := int64Arg(req, "goal_id")
	if !ok {
		return mcp.NewToolResultError("'goal_id' is required"), nil
	}
	details, err := t.engine.GoalDetails(ctx, id)
	if err != nil {
		return failure(fmt.Sprintf("goal %d", id), err)
	}
	return jsonResult(details)
}

// ─── UpdateGoalStatusTool ───────────────────────────────────────────────────

type UpdateGoalStatusTool struct {
	engine engine.Engine
	actor  string
}

// NewUpdateGoalStatusTool creates the tool. actor is recorded on the event log.
func NewUpdateGoalStatusTool(e engine.Engine, actor string) *UpdateGoalStatusTool {
	return &UpdateGoalStatusTool{engine: e, actor: actor}
}

func (t *UpdateGoalStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("update_goal_status",
		mcp.WithDescription("Change the status of a goal item."),
		mcp.WithNumber("goal_id",
			mcp.Required(),
			mcp.Description("The goal item ID to update"),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status"),
			mcp.Enum("Active", "Inactive", "Archived"),
		),
	)
}

func (t *UpdateGoalStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := int64Arg(req, "goal_id")
	if !ok {
		return mcp.NewToolResultError("'goal_id' is required"), nil
	}
	goal, err := t.engine.UpdateGoalStatus(ctx, id, req.GetString("status", ""), t.actor)
	if err != nil {
		return failure(fmt.Sprintf("goal %d", id), err)
	}
	return jsonResult(goal)
}

// ─── AlignmentsTool ─────────────────────────────────────────────────────────

type AlignmentsTool struct {
	engine engine.Engine
}

func NewAlignmentsTool(e engine.Engine) *AlignmentsTool {
	return &AlignmentsTool{engine: e}
}

func (t *AlignmentsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_alignments",
		mcp.WithDescription(
			"Get the alignment map between goals. Filter by a goal (either side of the edge) and/or alignment type.",
		),
		mcp.WithNumber("goal_id",
			mcp.Description("Only alignments where this goal is the child or the parent"),
		),
		mcp.WithString("alignment_type",
			mcp.Description("Only alignments of this type"),
			mcp.Enum("primary", "secondary", "cross_cutting"),
		),
	)
}

func (t *AlignmentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goalID, _ := int64Arg(req, "goal_id")
	alignments, err := t.engine.Alignments(ctx, engine.AlignmentQuery{
		GoalID: goalID,
		Type:   req.GetString("alignment_type", ""),
	})
	if err != nil {
		return failure("alignment lookup", err)
	}
	return jsonResult(alignments)
}
