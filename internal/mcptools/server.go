package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"scorecard/internal/engine"
)

// Version is set at build time via ldflags.
var Version = "dev"

// DefaultActor is recorded on events written through MCP tools when no
// other actor is configured.
const DefaultActor = "mcp"

// NewServer creates an MCP server with every scorecard tool registered.
func NewServer(e engine.Engine, actor string) *server.MCPServer {
	if actor == "" {
		actor = DefaultActor
	}
	s := server.NewMCPServer(
		"scorecard",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	Register(s, e, actor)
	return s
}

// Register adds the scorecard tools to s.
func Register(s *server.MCPServer, e engine.Engine, actor string) {
	orgTree := NewOrgTreeTool(e)
	s.AddTool(orgTree.Definition(), orgTree.Handle)

	goalTree := NewGoalTreeTool(e)
	s.AddTool(goalTree.Definition(), goalTree.Handle)

	forPerson := NewGoalsForPersonTool(e)
	s.AddTool(forPerson.Definition(), forPerson.Handle)

	details := NewGoalDetailsTool(e)
	s.AddTool(details.Definition(), details.Handle)

	status := NewUpdateGoalStatusTool(e, actor)
	s.AddTool(status.Definition(), status.Handle)

	addProgress := NewAddProgressTool(e, actor)
	s.AddTool(addProgress.Definition(), addProgress.Handle)

	latest := NewLatestProgressTool(e)
	s.AddTool(latest.Definition(), latest.Handle)

	alignments := NewAlignmentsTool(e)
	s.AddTool(alignments.Definition(), alignments.Handle)

	scorecard := NewScorecardTool(e)
	s.AddTool(scorecard.Definition(), scorecard.Handle)

	summary := NewSummaryTool(e)
	s.AddTool(summary.Definition(), summary.Handle)

	objectives := NewObjectivesTool(e)
	s.AddTool(objectives.Definition(), objectives.Handle)

	timeline := NewTimelineTool(e)
	s.AddTool(timeline.Definition(), timeline.Handle)

	submit := NewSubmitSkillOutputTool(e, actor)
	s.AddTool(submit.Definition(), submit.Handle)

	outputs := NewSkillOutputsTool(e)
	s.AddTool(outputs.Definition(), outputs.Handle)

	upstream := NewUpstreamOutputsTool(e)
	s.AddTool(upstream.Definition(), upstream.Handle)
}

const instructions = `Scorecard tracks an organization's strategic goals.

Org units form a tree (Enterprise > Business_Unit > Function > Department > ...).
Goals form a second tree (Pillar > Category > Goal > Program), each owned by an
org unit. Alignments link goals across the tree (primary, secondary, cross_cutting).
Programs carry quarterly objectives and versioned progress updates with a RAG status.

Start with get_org_tree or get_scorecard_summary, then drill into get_goal_tree,
get_goal_details and get_progress_timeline. Record progress with add_progress_update.

Skills record their results against a goal with submit_skill_output. Before
working on a goal, call get_upstream_outputs to read what aligned and sibling
goals have already produced.`
