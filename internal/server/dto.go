package server

import (
	"encoding/json"

	"scorecard/internal/domain"
	"scorecard/internal/engine"
	"scorecard/internal/hierarchy"
)

// Request payloads

type UpdateGoalStatusRequest struct {
	Status string `json:"status" doc:"Active, Inactive or Archived (case-insensitive)"`
}

type AddProgressRequest struct {
	UpdateText      string         `json:"update_text" minLength:"1"`
	PercentComplete float64        `json:"percent_complete" minimum:"0" maximum:"100"`
	RAGStatus       string         `json:"rag_status,omitempty" doc:"Red, Amber, Green, Not_Started or Complete; defaults to Not_Started"`
	Author          string         `json:"author,omitempty" doc:"Defaults to the authenticated actor"`
	Metrics         map[string]any `json:"metrics,omitempty"`
}

type SubmitSkillOutputRequest struct {
	SkillID       int64          `json:"skill_id" minimum:"1"`
	PersonName    string         `json:"person_name" minLength:"1"`
	GoalName      string         `json:"goal_name" minLength:"1" doc:"Exact goal name; unknown names are stored without a goal_id"`
	OutputData    map[string]any `json:"output_data,omitempty" doc:"Structured result; decisions go under output_data.decisions"`
	OutputSummary string         `json:"output_summary" minLength:"1"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
}

// Responses. Trees are concrete recursive types so the OpenAPI schema can
// reference them.

type OrgNode struct {
	domain.OrgUnit
	Children []OrgNode `json:"children"`
}

type GoalNode struct {
	domain.GoalItem
	Children []GoalNode `json:"children"`
}

type GoalTree struct {
	OrgUnit    *domain.OrgUnit             `json:"org_unit,omitempty"`
	OrgUnitIDs []int64                     `json:"org_unit_ids"`
	Goals      []GoalNode                  `json:"goals"`
	Alignments []hierarchy.ShapedAlignment `json:"alignments"`
}

type OrgTreeResponse struct {
	Data []OrgNode `json:"data"`
}

type GoalTreeResponse struct {
	Data GoalTree `json:"data"`
}

type GoalListResponse struct {
	Data []domain.GoalItem `json:"data"`
}

type GoalResponse struct {
	Data domain.GoalItem `json:"data"`
}

type GoalDetailsResponse struct {
	Data engine.GoalDetails `json:"data"`
}

type AlignmentsResponse struct {
	Data []hierarchy.ShapedAlignment `json:"data"`
}

type ScorecardResponse struct {
	Data []engine.ScorecardRow `json:"data"`
	Year int                   `json:"year"`
}

type SummaryResponse struct {
	Data hierarchy.Summary `json:"data"`
}

type ProgressHistoryResponse struct {
	Data engine.ProgressHistory `json:"data"`
}

type ProgressResponse struct {
	Data domain.ProgressUpdate `json:"data"`
}

type TimelineResponse struct {
	Data []engine.TimelineEntry `json:"data"`
}

type ObjectivesResponse struct {
	Data []domain.ProgramObjective `json:"data"`
}

type SkillOutputResponse struct {
	Data domain.SkillOutput `json:"data"`
}

type paginatedSkillOutputs struct {
	Data   []domain.SkillOutput `json:"data"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

type UpstreamOutputsResponse struct {
	Data engine.UpstreamOutputs `json:"data"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Data       []EventResponse `json:"data"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

// Conversion helpers

func orgNodes(f hierarchy.Forest[domain.OrgUnit]) []OrgNode {
	out := make([]OrgNode, 0, len(f))
	for _, n := range f {
		out = append(out, OrgNode{OrgUnit: n.Item, Children: orgNodes(n.Children)})
	}
	return out
}

func goalNodes(f hierarchy.Forest[domain.GoalItem]) []GoalNode {
	out := make([]GoalNode, 0, len(f))
	for _, n := range f {
		out = append(out, GoalNode{GoalItem: n.Item, Children: goalNodes(n.Children)})
	}
	return out
}

func goalTree(v engine.GoalTreeView) GoalTree {
	return GoalTree{
		OrgUnit:    v.OrgUnit,
		OrgUnitIDs: nonNilSlice(v.OrgUnitIDs),
		Goals:      goalNodes(v.Goals),
		Alignments: nonNilSlice(v.Alignments),
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
