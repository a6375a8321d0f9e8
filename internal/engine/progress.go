package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"scorecard/internal/domain"
	"scorecard/internal/events"
	"scorecard/internal/hierarchy"
	"scorecard/internal/repo"
)

type ProgressInput struct {
	ProgramID       int64
	UpdateText      string
	PercentComplete float64
	// RAGStatus accepts loose spellings ("not started", "not-started"). Empty means Not_Started.
	RAGStatus string
	Author    string
	Metrics   domain.Metrics
	ActorID   string
}

// AddProgressUpdate appends a new version to a program's progress history.
// Versions are one more than the highest stored for that program.
func (e Engine) AddProgressUpdate(ctx context.Context, in ProgressInput) (domain.ProgressUpdate, error) {
	text := strings.TrimSpace(in.UpdateText)
	if text == "" {
		return domain.ProgressUpdate{}, invalidf("update_text is required")
	}
	if in.PercentComplete < 0 || in.PercentComplete > 100 {
		return domain.ProgressUpdate{}, invalidf("percent_complete %v must be between 0 and 100", in.PercentComplete)
	}
	rag := domain.RAGNotStarted
	if strings.TrimSpace(in.RAGStatus) != "" {
		parsed, err := domain.ParseRAGStatus(in.RAGStatus)
		if err != nil {
			return domain.ProgressUpdate{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		rag = parsed
	}
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = in.ActorID
	}
	if author == "" {
		return domain.ProgressUpdate{}, invalidf("author is required")
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ProgressUpdate{}, err
	}
	defer tx.Rollback()
	program, err := e.Repo.GetGoalItemTx(ctx, tx, in.ProgramID)
	if err != nil {
		return domain.ProgressUpdate{}, fmt.Errorf("program %d: %w", in.ProgramID, err)
	}
	if program.GoalLevel != domain.LevelProgram {
		return domain.ProgressUpdate{}, invalidf("goal %d is a %s; progress is recorded on programs only", program.ID, program.GoalLevel)
	}
	versions, err := e.Repo.ProgressVersionsTx(ctx, tx, program.ID)
	if err != nil {
		return domain.ProgressUpdate{}, err
	}
	update := domain.ProgressUpdate{
		ProgramID:       program.ID,
		Version:         hierarchy.NextVersion(versions),
		UpdateText:      text,
		PercentComplete: in.PercentComplete,
		RAGStatus:       rag,
		Metrics:         in.Metrics,
		Author:          author,
		CreatedAt:       e.stamp(),
	}
	id, err := e.Repo.InsertProgressUpdate(ctx, tx, update)
	if err != nil {
		return domain.ProgressUpdate{}, fmt.Errorf("insert progress: %w", err)
	}
	update.ID = id
	if err := e.Events.Append(ctx, tx, events.ProgressAdded, "program", strconv.FormatInt(program.ID, 10), in.ActorID, events.EventPayload{
		"version":          update.Version,
		"rag_status":       update.RAGStatus,
		"percent_complete": update.PercentComplete,
	}); err != nil {
		return domain.ProgressUpdate{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ProgressUpdate{}, err
	}
	e.log().Info("progress recorded",
		zap.Int64("program_id", program.ID),
		zap.Int("version", update.Version),
		zap.String("rag_status", string(update.RAGStatus)),
	)
	return update, nil
}

type ProgressHistory struct {
	Program domain.GoalItem         `json:"program"`
	Updates []domain.ProgressUpdate `json:"updates"`
}

// ProgressHistory lists a program's updates newest first. limit <= 0 means all.
func (e Engine) ProgressHistory(ctx context.Context, programID int64, limit int) (ProgressHistory, error) {
	program, err := e.program(ctx, programID)
	if err != nil {
		return ProgressHistory{}, err
	}
	updates, err := e.Repo.ListProgressUpdates(ctx, programID, limit)
	if err != nil {
		return ProgressHistory{}, err
	}
	return ProgressHistory{Program: program, Updates: updates}, nil
}

// LatestProgress returns repo.ErrNotFound when the program has no updates yet.
func (e Engine) LatestProgress(ctx context.Context, programID int64) (domain.ProgressUpdate, error) {
	if _, err := e.program(ctx, programID); err != nil {
		return domain.ProgressUpdate{}, err
	}
	u, err := e.Repo.LatestProgress(ctx, programID)
	if err != nil {
		return domain.ProgressUpdate{}, fmt.Errorf("progress for program %d: %w", programID, err)
	}
	return u, nil
}

// Timeline merges a program's updates with the decisions recorded in their metrics.
func (e Engine) Timeline(ctx context.Context, programID int64) ([]TimelineEntry, error) {
	if _, err := e.program(ctx, programID); err != nil {
		return nil, err
	}
	updates, err := e.Repo.ListProgressUpdates(ctx, programID, 0)
	if err != nil {
		return nil, err
	}
	return BuildTimeline(updates), nil
}

type ObjectiveQuery struct {
	ProgramID int64
	Year      int
	Quarter   string
}

func (e Engine) Objectives(ctx context.Context, q ObjectiveQuery) ([]domain.ProgramObjective, error) {
	if _, err := e.program(ctx, q.ProgramID); err != nil {
		return nil, err
	}
	f := repo.ObjectiveFilters{ProgramID: q.ProgramID, Year: q.Year}
	if strings.TrimSpace(q.Quarter) != "" {
		quarter, err := domain.ParseQuarter(q.Quarter)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		f.Quarter = quarter
	}
	return e.Repo.ListObjectives(ctx, f)
}

func (e Engine) program(ctx context.Context, id int64) (domain.GoalItem, error) {
	g, err := e.Repo.GetGoalItem(ctx, id)
	if err != nil {
		return domain.GoalItem{}, fmt.Errorf("program %d: %w", id, err)
	}
	if g.GoalLevel != domain.LevelProgram {
		return domain.GoalItem{}, invalidf("goal %d is a %s, not a Program", id, g.GoalLevel)
	}
	return g, nil
}
