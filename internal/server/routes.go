package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"scorecard/internal/domain"
	"scorecard/internal/engine"
	"scorecard/internal/repo"
)

var readErrors = []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound}

func (h handlers) registerOrg(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "org-tree",
		Method:      http.MethodGet,
		Path:        "/org-tree",
		Summary:     "Active org hierarchy",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		RootID int64 `query:"root_id" doc:"Only return this unit's subtree"`
		Depth  int   `query:"depth" minimum:"0" doc:"Levels to keep; 0 keeps all"`
	}) (*struct {
		Body OrgTreeResponse `json:"body"`
	}, error) {
		forest, err := h.e.OrgTree(ctx, engine.OrgTreeOptions{RootID: input.RootID, Depth: input.Depth})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body OrgTreeResponse `json:"body"`
		}{Body: OrgTreeResponse{Data: orgNodes(forest)}}, nil
	})
}

func (h handlers) registerGoals(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "goal-tree",
		Method:      http.MethodGet,
		Path:        "/goal-tree/{org_id}",
		Summary:     "Goals owned by an org unit and its descendants",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		OrgID int64  `path:"org_id"`
		Level string `query:"level" doc:"Pillar, Category, Goal or Program"`
	}) (*struct {
		Body GoalTreeResponse `json:"body"`
	}, error) {
		view, err := h.e.GoalTree(ctx, engine.GoalTreeOptions{OrgUnitID: input.OrgID, Level: input.Level})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body GoalTreeResponse `json:"body"`
		}{Body: GoalTreeResponse{Data: goalTree(view)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "goals-for-owner",
		Method:      http.MethodGet,
		Path:        "/goals",
		Summary:     "Goals owned by a person",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		Owner string `query:"owner" doc:"Exact owner name"`
	}) (*struct {
		Body GoalListResponse `json:"body"`
	}, error) {
		goals, err := h.e.GoalsForOwner(ctx, input.Owner)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body GoalListResponse `json:"body"`
		}{Body: GoalListResponse{Data: goals}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "goal-details",
		Method:      http.MethodGet,
		Path:        "/goals/{goal_id}",
		Summary:     "Goal with children, ancestry, alignments and latest progress",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		GoalID int64 `path:"goal_id"`
	}) (*struct {
		Body GoalDetailsResponse `json:"body"`
	}, error) {
		details, err := h.e.GoalDetails(ctx, input.GoalID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body GoalDetailsResponse `json:"body"`
		}{Body: GoalDetailsResponse{Data: details}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-goal-status",
		Method:      http.MethodPatch,
		Path:        "/goals/{goal_id}/status",
		Summary:     "Change a goal's lifecycle status",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		GoalID int64                   `path:"goal_id"`
		Body   UpdateGoalStatusRequest `json:"body"`
	}) (*struct {
		Body GoalResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		goal, err := h.e.UpdateGoalStatus(ctx, input.GoalID, input.Body.Status, actorID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body GoalResponse `json:"body"`
		}{Body: GoalResponse{Data: goal}}, nil
	})
}

func (h handlers) registerAlignments(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-alignments",
		Method:      http.MethodGet,
		Path:        "/alignments",
		Summary:     "Alignment edges with goal names",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		GoalID int64  `query:"goal_id" doc:"Edges touching this goal on either end"`
		Type   string `query:"type" doc:"primary, secondary or cross_cutting"`
	}) (*struct {
		Body AlignmentsResponse `json:"body"`
	}, error) {
		items, err := h.e.Alignments(ctx, engine.AlignmentQuery{GoalID: input.GoalID, Type: input.Type})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body AlignmentsResponse `json:"body"`
		}{Body: AlignmentsResponse{Data: items}}, nil
	})
}

func (h handlers) registerScorecard(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "scorecard",
		Method:      http.MethodGet,
		Path:        "/scorecard",
		Summary:     "Quarterly objectives and latest progress per active program",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		Year      int   `query:"year" doc:"Defaults to scorecard.default_year"`
		OrgUnitID int64 `query:"org_unit_id"`
	}) (*struct {
		Body ScorecardResponse `json:"body"`
	}, error) {
		card, err := h.e.Scorecard(ctx, engine.ScorecardOptions{Year: input.Year, OrgUnitID: input.OrgUnitID})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body ScorecardResponse `json:"body"`
		}{Body: ScorecardResponse{Data: card.Rows, Year: card.Year}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "scorecard-summary",
		Method:      http.MethodGet,
		Path:        "/scorecard/summary",
		Summary:     "Worst-status rollup by pillar",
		Errors:      readErrors,
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SummaryResponse `json:"body"`
	}, error) {
		sum, err := h.e.Summary(ctx)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body SummaryResponse `json:"body"`
		}{Body: SummaryResponse{Data: sum}}, nil
	})
}

func (h handlers) registerProgress(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-progress",
		Method:      http.MethodGet,
		Path:        "/progress/{program_id}",
		Summary:     "Progress history, newest version first",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		ProgramID int64 `path:"program_id"`
		Latest    bool  `query:"latest" doc:"Only the highest version"`
		Limit     int   `query:"limit"`
	}) (*struct {
		Body ProgressHistoryResponse `json:"body"`
	}, error) {
		limit := input.Limit
		if input.Latest {
			limit = 1
		}
		history, err := h.e.ProgressHistory(ctx, input.ProgramID, limit)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body ProgressHistoryResponse `json:"body"`
		}{Body: ProgressHistoryResponse{Data: history}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-progress",
		Method:        http.MethodPost,
		Path:          "/progress/{program_id}",
		Summary:       "Append a progress update to a program",
		DefaultStatus: http.StatusCreated,
		Errors:        readErrors,
	}, func(ctx context.Context, input *struct {
		ProgramID int64              `path:"program_id"`
		Body      AddProgressRequest `json:"body"`
	}) (*struct {
		Body ProgressResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		metrics, err := domain.MetricsFromMap(input.Body.Metrics)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		update, err := h.e.AddProgressUpdate(ctx, engine.ProgressInput{
			ProgramID:       input.ProgramID,
			UpdateText:      input.Body.UpdateText,
			PercentComplete: input.Body.PercentComplete,
			RAGStatus:       input.Body.RAGStatus,
			Author:          input.Body.Author,
			Metrics:         metrics,
			ActorID:         actorID,
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body ProgressResponse `json:"body"`
		}{Body: ProgressResponse{Data: update}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "program-timeline",
		Method:      http.MethodGet,
		Path:        "/programs/{program_id}/timeline",
		Summary:     "Progress updates and decisions in time order",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		ProgramID int64 `path:"program_id"`
	}) (*struct {
		Body TimelineResponse `json:"body"`
	}, error) {
		entries, err := h.e.Timeline(ctx, input.ProgramID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body TimelineResponse `json:"body"`
		}{Body: TimelineResponse{Data: entries}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "program-objectives",
		Method:      http.MethodGet,
		Path:        "/programs/{program_id}/objectives",
		Summary:     "Quarterly objectives for a program",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		ProgramID int64  `path:"program_id"`
		Year      int    `query:"year"`
		Quarter   string `query:"quarter" doc:"Q1 to Q4"`
	}) (*struct {
		Body ObjectivesResponse `json:"body"`
	}, error) {
		items, err := h.e.Objectives(ctx, engine.ObjectiveQuery{ProgramID: input.ProgramID, Year: input.Year, Quarter: input.Quarter})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body ObjectivesResponse `json:"body"`
		}{Body: ObjectivesResponse{Data: items}}, nil
	})
}

func (h handlers) registerEvents(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind" enum:"goal,program,api_key,skill_output,seed"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		limit := pageSize(input.Limit)
		var before int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil || parsed <= 0 {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			before = parsed
		}
		items, err := h.e.Repo.LatestEvents(ctx, repo.EventFilters{
			Type:       input.Type,
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
			Before:     before,
			Limit:      limit + 1,
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		resp := paginatedEvents{Data: []EventResponse{}}
		if len(items) > limit {
			resp.NextCursor = strconv.FormatInt(items[limit-1].ID, 10)
			items = items[:limit]
		}
		for _, evt := range items {
			resp.Data = append(resp.Data, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}

func (h handlers) registerSkillOutputs(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-skill-outputs",
		Method:      http.MethodGet,
		Path:        "/skill-outputs",
		Summary:     "List skill outputs, newest first",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		SkillID    int64  `query:"skill_id" minimum:"0"`
		PersonName string `query:"person_name"`
		GoalName   string `query:"goal_name"`
		Status     string `query:"status"`
		Limit      int    `query:"limit" default:"50"`
		Offset     int    `query:"offset" minimum:"0"`
	}) (*struct {
		Body paginatedSkillOutputs `json:"body"`
	}, error) {
		page, err := h.e.SkillOutputs(ctx, engine.SkillOutputQuery{
			SkillID:    input.SkillID,
			PersonName: input.PersonName,
			GoalName:   input.GoalName,
			Status:     input.Status,
			Limit:      pageSize(input.Limit),
			Offset:     input.Offset,
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body paginatedSkillOutputs `json:"body"`
		}{Body: paginatedSkillOutputs{Data: page.Outputs, Total: page.Total, Limit: page.Limit, Offset: page.Offset}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "submit-skill-output",
		Method:        http.MethodPost,
		Path:          "/skill-outputs",
		Summary:       "Record a skill output against a goal",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body SubmitSkillOutputRequest `json:"body"`
	}) (*struct {
		Body SkillOutputResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		data, err := domain.MetricsFromMap(input.Body.OutputData)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		out, err := h.e.SubmitSkillOutput(ctx, engine.SkillOutputInput{
			SkillID:       input.Body.SkillID,
			PersonName:    input.Body.PersonName,
			GoalName:      input.Body.GoalName,
			OutputData:    data,
			OutputSummary: input.Body.OutputSummary,
			Metadata:      input.Body.Metadata,
			ActorID:       actorID,
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body SkillOutputResponse `json:"body"`
		}{Body: SkillOutputResponse{Data: out}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "upstream-skill-outputs",
		Method:      http.MethodGet,
		Path:        "/skill-outputs/upstream",
		Summary:     "Completed outputs from goals upstream of a goal, oldest first",
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		GoalName string `query:"goal_name" required:"true" minLength:"1"`
	}) (*struct {
		Body UpstreamOutputsResponse `json:"body"`
	}, error) {
		up, err := h.e.UpstreamOutputs(ctx, input.GoalName)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body UpstreamOutputsResponse `json:"body"`
		}{Body: UpstreamOutputsResponse{Data: up}}, nil
	})
}
