package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"scorecard/internal/domain"
	"scorecard/internal/hierarchy"
	"scorecard/internal/repo"
)

type ScorecardOptions struct {
	Year int
	// OrgUnitID limits rows to programs owned by the unit's active subtree.
	// An inactive or unknown unit is ErrNotFound.
	OrgUnitID int64
}

type ScorecardRow struct {
	ProgramID   int64                                       `json:"program_id"`
	ProgramName string                                      `json:"program_name"`
	Owner       string                                      `json:"owner,omitempty"`
	OrgUnitID   int64                                       `json:"org_unit_id"`
	OrgUnit     string                                      `json:"org_unit"`
	OrgLevel    domain.OrgLevel                             `json:"org_level,omitempty"`
	PillarID    *int64                                      `json:"pillar_id,omitempty"`
	PillarName  string                                      `json:"pillar_name,omitempty"`
	Objectives  map[domain.Quarter]*domain.ProgramObjective `json:"objectives"`
	Progress    *domain.ProgressUpdate                      `json:"progress"`
}

type Scorecard struct {
	Year int            `json:"year"`
	Rows []ScorecardRow `json:"rows"`
}

// Scorecard builds one row per active program: its quarterly objectives for the
// year (null where none is set) and its latest progress update, if any.
func (e Engine) Scorecard(ctx context.Context, opts ScorecardOptions) (Scorecard, error) {
	year := opts.Year
	if year == 0 {
		year = e.defaultYear()
	}
	all, err := e.Repo.ListGoalItems(ctx, repo.GoalFilters{})
	if err != nil {
		return Scorecard{}, fmt.Errorf("list goals: %w", err)
	}
	units, err := e.Repo.ListOrgUnits(ctx, repo.OrgUnitFilters{})
	if err != nil {
		return Scorecard{}, fmt.Errorf("list org units: %w", err)
	}
	unitByID := make(map[int64]domain.OrgUnit, len(units))
	for _, u := range units {
		unitByID[u.ID] = u
	}
	var scope hierarchy.IDSet
	if opts.OrgUnitID != 0 {
		u, ok := unitByID[opts.OrgUnitID]
		if !ok {
			return Scorecard{}, fmt.Errorf("org unit %d: %w", opts.OrgUnitID, repo.ErrNotFound)
		}
		if u.Status != domain.StatusActive {
			return Scorecard{}, fmt.Errorf("org unit %d is %s: %w", u.ID, u.Status, repo.ErrNotFound)
		}
		scope = hierarchy.SubtreeIDs(hierarchy.BuildOrgTree(units), opts.OrgUnitID)
	}
	objectives, err := e.Repo.ListObjectives(ctx, repo.ObjectiveFilters{Year: year})
	if err != nil {
		return Scorecard{}, fmt.Errorf("list objectives: %w", err)
	}
	byProgram := map[int64][]domain.ProgramObjective{}
	for _, o := range objectives {
		byProgram[o.ProgramID] = append(byProgram[o.ProgramID], o)
	}
	latest, err := e.Repo.LatestProgressByProgram(ctx)
	if err != nil {
		return Scorecard{}, fmt.Errorf("latest progress: %w", err)
	}
	lookup := hierarchy.LookupFrom(all)

	out := Scorecard{Year: year, Rows: []ScorecardRow{}}
	for _, g := range all {
		if g.GoalLevel != domain.LevelProgram || g.Status != domain.StatusActive {
			continue
		}
		if scope != nil && !scope.Has(g.OrgUnitID) {
			continue
		}
		row := ScorecardRow{
			ProgramID:   g.ID,
			ProgramName: g.Name,
			Owner:       g.Owner,
			OrgUnitID:   g.OrgUnitID,
			OrgUnit:     g.OrgUnitName,
			Objectives:  make(map[domain.Quarter]*domain.ProgramObjective, len(domain.Quarters)),
		}
		if u, ok := unitByID[g.OrgUnitID]; ok {
			row.OrgUnit = u.Name
			row.OrgLevel = u.OrgLevel
		}
		if pillar, ok := hierarchy.FindPillarAncestor(g, lookup); ok {
			id := pillar.ID
			row.PillarID = &id
			row.PillarName = pillar.Name
		}
		for _, q := range domain.Quarters {
			row.Objectives[q] = nil
		}
		for _, o := range byProgram[g.ID] {
			o := o
			row.Objectives[o.Quarter] = &o
		}
		if u, ok := latest[g.ID]; ok {
			row.Progress = &u
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Summary rolls up the latest status of every active program by pillar.
func (e Engine) Summary(ctx context.Context) (hierarchy.Summary, error) {
	all, err := e.Repo.ListGoalItems(ctx, repo.GoalFilters{})
	if err != nil {
		return hierarchy.Summary{}, fmt.Errorf("list goals: %w", err)
	}
	programs := make([]domain.GoalItem, 0, len(all))
	for _, g := range all {
		if g.GoalLevel == domain.LevelProgram && g.Status == domain.StatusActive {
			programs = append(programs, g)
		}
	}
	latest, err := e.Repo.LatestProgressByProgram(ctx)
	if err != nil {
		return hierarchy.Summary{}, fmt.Errorf("latest progress: %w", err)
	}
	sum := hierarchy.Summarize(programs, latest, hierarchy.LookupFrom(all))
	for _, id := range sum.Unassigned {
		e.log().Warn("program has no pillar ancestor", zap.Int64("program_id", id))
	}
	return sum, nil
}
