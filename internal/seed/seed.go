// Package seed loads a portfolio described in YAML into an empty database.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"scorecard/internal/domain"
	"scorecard/internal/engine"
	"scorecard/internal/events"
	"scorecard/internal/hierarchy"
	"scorecard/internal/repo"
)

//go:embed demo.yaml
var demo []byte

// Demo returns the bundled demo portfolio.
func Demo() []byte { return demo }

var ErrAlreadySeeded = errors.New("database already has org units")

type Dataset struct {
	OrgUnits   []OrgUnit   `yaml:"org_units"`
	Goals      []Goal      `yaml:"goals"`
	Objectives []Objective `yaml:"objectives"`
	Alignments []Alignment `yaml:"alignments"`
	Progress   []Progress  `yaml:"progress"`
}

type OrgUnit struct {
	Key         string `yaml:"key"`
	Parent      string `yaml:"parent"`
	OrgLevel    string `yaml:"org_level"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Owner       string `yaml:"owner"`
	Status      string `yaml:"status"`
	Priority    *int   `yaml:"priority"`
}

type Goal struct {
	Key         string   `yaml:"key"`
	Parent      string   `yaml:"parent"`
	OrgUnit     string   `yaml:"org_unit"`
	GoalLevel   string   `yaml:"goal_level"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Owner       string   `yaml:"owner"`
	Status      string   `yaml:"status"`
	Weight      *float64 `yaml:"weight"`
	Priority    *int     `yaml:"priority"`
}

type Objective struct {
	Program     string `yaml:"program"`
	Year        int    `yaml:"year"`
	Quarter     string `yaml:"quarter"`
	Text        string `yaml:"text"`
	TargetValue string `yaml:"target_value"`
	TargetUnit  string `yaml:"target_unit"`
}

type Alignment struct {
	Child    string   `yaml:"child"`
	Parent   string   `yaml:"parent"`
	Type     string   `yaml:"type"`
	Strength *float64 `yaml:"strength"`
	Notes    string   `yaml:"notes"`
}

type Progress struct {
	Program         string         `yaml:"program"`
	UpdateText      string         `yaml:"update_text"`
	PercentComplete float64        `yaml:"percent_complete"`
	RAGStatus       string         `yaml:"rag_status"`
	Author          string         `yaml:"author"`
	Metrics         map[string]any `yaml:"metrics"`
}

type Result struct {
	OrgUnits   int `json:"org_units"`
	Goals      int `json:"goals"`
	Objectives int `json:"objectives"`
	Alignments int `json:"alignments"`
	Progress   int `json:"progress_updates"`
}

func Parse(raw []byte) (Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return Dataset{}, fmt.Errorf("seed yaml: %w", err)
	}
	return ds, nil
}

// Load parses raw and inserts it in a single transaction. Parents must appear
// before the records that reference them.
func Load(ctx context.Context, eng engine.Engine, raw []byte) (Result, error) {
	ds, err := Parse(raw)
	if err != nil {
		return Result{}, err
	}
	existing, err := eng.Repo.ListOrgUnits(ctx, repo.OrgUnitFilters{})
	if err != nil {
		return Result{}, err
	}
	if len(existing) > 0 {
		return Result{}, ErrAlreadySeeded
	}
	tx, err := eng.DB.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	var res Result
	units := map[string]int64{}
	for _, u := range ds.OrgUnits {
		level := domain.OrgLevel(u.OrgLevel)
		if !level.Valid() {
			return Result{}, fmt.Errorf("org unit %q: unknown org_level %q", u.Key, u.OrgLevel)
		}
		status, err := statusOrActive(u.Status)
		if err != nil {
			return Result{}, fmt.Errorf("org unit %q: %w", u.Key, err)
		}
		unit := domain.OrgUnit{OrgLevel: level, Name: u.Name, Description: u.Description, Owner: u.Owner, Status: status, Priority: u.Priority}
		if u.Parent != "" {
			pid, ok := units[u.Parent]
			if !ok {
				return Result{}, fmt.Errorf("org unit %q: parent %q not defined earlier", u.Key, u.Parent)
			}
			unit.ParentID = &pid
		}
		id, err := eng.Repo.InsertOrgUnit(ctx, tx, unit)
		if err != nil {
			return Result{}, fmt.Errorf("org unit %q: %w", u.Key, err)
		}
		units[u.Key] = id
		res.OrgUnits++
	}

	goals := map[string]int64{}
	for _, g := range ds.Goals {
		level, err := domain.ParseGoalLevel(g.GoalLevel)
		if err != nil {
			return Result{}, fmt.Errorf("goal %q: %w", g.Key, err)
		}
		status, err := statusOrActive(g.Status)
		if err != nil {
			return Result{}, fmt.Errorf("goal %q: %w", g.Key, err)
		}
		unitID, ok := units[g.OrgUnit]
		if !ok {
			return Result{}, fmt.Errorf("goal %q: unknown org_unit %q", g.Key, g.OrgUnit)
		}
		item := domain.GoalItem{OrgUnitID: unitID, GoalLevel: level, Name: g.Name, Description: g.Description, Owner: g.Owner, Status: status, Weight: g.Weight, Priority: g.Priority}
		if g.Parent != "" {
			pid, ok := goals[g.Parent]
			if !ok {
				return Result{}, fmt.Errorf("goal %q: parent %q not defined earlier", g.Key, g.Parent)
			}
			item.ParentID = &pid
		}
		id, err := eng.Repo.InsertGoalItem(ctx, tx, item)
		if err != nil {
			return Result{}, fmt.Errorf("goal %q: %w", g.Key, err)
		}
		goals[g.Key] = id
		res.Goals++
	}

	for _, o := range ds.Objectives {
		pid, ok := goals[o.Program]
		if !ok {
			return Result{}, fmt.Errorf("objective: unknown program %q", o.Program)
		}
		q, err := domain.ParseQuarter(o.Quarter)
		if err != nil {
			return Result{}, fmt.Errorf("objective for %q: %w", o.Program, err)
		}
		if err := eng.Repo.UpsertObjective(ctx, tx, domain.ProgramObjective{
			ProgramID: pid, Year: o.Year, Quarter: q, ObjectiveText: o.Text,
			TargetValue: o.TargetValue, TargetUnit: o.TargetUnit, Status: string(domain.StatusActive),
		}); err != nil {
			return Result{}, err
		}
		res.Objectives++
	}

	for _, a := range ds.Alignments {
		child, okC := goals[a.Child]
		parent, okP := goals[a.Parent]
		if !okC || !okP {
			return Result{}, fmt.Errorf("alignment %s -> %s: unknown goal", a.Child, a.Parent)
		}
		t, err := domain.ParseAlignmentType(a.Type)
		if err != nil {
			return Result{}, err
		}
		strength := 1.0
		if a.Strength != nil {
			strength = *a.Strength
		}
		if _, err := eng.Repo.InsertAlignment(ctx, tx, domain.GoalAlignment{
			ChildGoalID: child, ParentGoalID: parent, AlignmentType: t, AlignmentStrength: strength, Notes: a.Notes,
		}); err != nil {
			return Result{}, err
		}
		res.Alignments++
	}

	for _, p := range ds.Progress {
		pid, ok := goals[p.Program]
		if !ok {
			return Result{}, fmt.Errorf("progress: unknown program %q", p.Program)
		}
		rag, err := domain.ParseRAGStatus(p.RAGStatus)
		if err != nil {
			return Result{}, err
		}
		metrics, err := domain.MetricsFromMap(p.Metrics)
		if err != nil {
			return Result{}, fmt.Errorf("progress for %q: %w", p.Program, err)
		}
		versions, err := eng.Repo.ProgressVersionsTx(ctx, tx, pid)
		if err != nil {
			return Result{}, err
		}
		if _, err := eng.Repo.InsertProgressUpdate(ctx, tx, domain.ProgressUpdate{
			ProgramID: pid, Version: hierarchy.NextVersion(versions), UpdateText: p.UpdateText,
			PercentComplete: p.PercentComplete, RAGStatus: rag, Metrics: metrics, Author: p.Author,
		}); err != nil {
			return Result{}, err
		}
		res.Progress++
	}

	if err := eng.Events.Append(ctx, tx, events.SeedLoaded, "seed", "", "system", events.EventPayload{
		"org_units": res.OrgUnits,
		"goals":     res.Goals,
	}); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	if eng.Log != nil {
		eng.Log.Info("seed loaded", zap.Int("org_units", res.OrgUnits), zap.Int("goals", res.Goals), zap.Int("progress_updates", res.Progress))
	}
	return res, nil
}

func statusOrActive(raw string) (domain.Status, error) {
	if raw == "" {
		return domain.StatusActive, nil
	}
	return domain.ParseStatus(raw)
}
