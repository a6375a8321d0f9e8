package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"scorecard/internal/domain"
)

const skillOutputColumns = `id,skill_id,person_name,goal_name,goal_id,output_data_json,output_summary,status,metadata_json,created_at`

// SkillOutputFilters narrows ListSkillOutputs. GoalNames, when non-nil,
// restricts to those goals; an empty non-nil slice matches nothing.
type SkillOutputFilters struct {
	SkillID     int64
	PersonName  string
	GoalName    string
	GoalNames   []string
	Status      string
	Limit       int
	Offset      int
	OldestFirst bool
}

func (f SkillOutputFilters) where() (string, []any) {
	var clauses []string
	var args []any
	if f.SkillID > 0 {
		clauses = append(clauses, "skill_id=?")
		args = append(args, f.SkillID)
	}
	if f.PersonName != "" {
		clauses = append(clauses, "person_name=?")
		args = append(args, f.PersonName)
	}
	if f.GoalName != "" {
		clauses = append(clauses, "goal_name=?")
		args = append(args, f.GoalName)
	}
	if len(f.GoalNames) > 0 {
		clause, inArgs := inClause("goal_name", f.GoalNames)
		clauses = append(clauses, clause)
		args = append(args, inArgs...)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	return whereClause(clauses), args
}

func scanSkillOutput(row scanner) (domain.SkillOutput, error) {
	var o domain.SkillOutput
	var goalID sql.NullInt64
	var data, meta string
	if err := row.Scan(&o.ID, &o.SkillID, &o.PersonName, &o.GoalName, &goalID, &data, &o.OutputSummary, &o.Status, &meta, &o.CreatedAt); err != nil {
		return o, err
	}
	o.GoalID = int64Ptr(goalID)
	if err := json.Unmarshal([]byte(data), &o.OutputData); err != nil {
		return o, fmt.Errorf("skill output %d output_data: %w", o.ID, err)
	}
	if meta != "" && meta != "{}" {
		if err := json.Unmarshal([]byte(meta), &o.Metadata); err != nil {
			return o, fmt.Errorf("skill output %d metadata: %w", o.ID, err)
		}
	}
	return o, nil
}

// InsertSkillOutput stores o and returns the assigned id.
func (r Repo) InsertSkillOutput(ctx context.Context, tx *sql.Tx, o domain.SkillOutput) (int64, error) {
	if o.CreatedAt == "" {
		o.CreatedAt = now()
	}
	if o.Status == "" {
		o.Status = domain.SkillOutputCompleted
	}
	data, err := json.Marshal(o.OutputData)
	if err != nil {
		return 0, fmt.Errorf("marshal output_data: %w", err)
	}
	meta := []byte("{}")
	if len(o.Metadata) > 0 {
		if meta, err = json.Marshal(o.Metadata); err != nil {
			return 0, fmt.Errorf("marshal metadata: %w", err)
		}
	}
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO skill_outputs(skill_id,person_name,goal_name,goal_id,output_data_json,output_summary,status,metadata_json,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		o.SkillID, o.PersonName, o.GoalName, nullableInt64Ptr(o.GoalID), string(data), o.OutputSummary, o.Status, string(meta), o.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetSkillOutput(ctx context.Context, id int64) (domain.SkillOutput, error) {
	o, err := scanSkillOutput(r.DB.QueryRowContext(ctx, `SELECT `+skillOutputColumns+` FROM skill_outputs WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrNotFound
	}
	return o, err
}

// ListSkillOutputs returns matching outputs, newest first unless
// OldestFirst is set. A zero Limit returns every match.
func (r Repo) ListSkillOutputs(ctx context.Context, f SkillOutputFilters) ([]domain.SkillOutput, error) {
	if f.GoalNames != nil && len(f.GoalNames) == 0 {
		return []domain.SkillOutput{}, nil
	}
	where, args := f.where()
	order := ` ORDER BY created_at DESC, id DESC`
	if f.OldestFirst {
		order = ` ORDER BY created_at, id`
	}
	query := `SELECT ` + skillOutputColumns + ` FROM skill_outputs` + where + order
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.SkillOutput{}
	for rows.Next() {
		o, err := scanSkillOutput(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountSkillOutputs counts matches ignoring Limit and Offset.
func (r Repo) CountSkillOutputs(ctx context.Context, f SkillOutputFilters) (int, error) {
	if f.GoalNames != nil && len(f.GoalNames) == 0 {
		return 0, nil
	}
	where, args := f.where()
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM skill_outputs`+where, args...).Scan(&n)
	return n, err
}
