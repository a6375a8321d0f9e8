package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"scorecard/internal/domain"
)

const progressColumns = `id,program_id,version,update_text,percent_complete,rag_status,metrics_json,author,created_at`

func scanProgress(row scanner) (domain.ProgressUpdate, error) {
	var u domain.ProgressUpdate
	var metrics sql.NullString
	if err := row.Scan(&u.ID, &u.ProgramID, &u.Version, &u.UpdateText, &u.PercentComplete, &u.RAGStatus, &metrics, &u.Author, &u.CreatedAt); err != nil {
		return u, err
	}
	if metrics.Valid && metrics.String != "" {
		if err := json.Unmarshal([]byte(metrics.String), &u.Metrics); err != nil {
			return u, fmt.Errorf("progress %d metrics: %w", u.ID, err)
		}
	}
	return u, nil
}

// ProgressVersionsTx lists the versions already used by a program.
func (r Repo) ProgressVersionsTx(ctx context.Context, tx *sql.Tx, programID int64) ([]int, error) {
	rows, err := r.on(tx).QueryContext(ctx, `SELECT version FROM progress_updates WHERE program_id=?`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// InsertProgressUpdate stores u and returns the assigned id. Version must be set.
func (r Repo) InsertProgressUpdate(ctx context.Context, tx *sql.Tx, u domain.ProgressUpdate) (int64, error) {
	if u.Version <= 0 {
		return 0, errors.New("version required")
	}
	if u.CreatedAt == "" {
		u.CreatedAt = now()
	}
	metrics, err := json.Marshal(u.Metrics)
	if err != nil {
		return 0, fmt.Errorf("marshal metrics: %w", err)
	}
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO progress_updates(program_id,version,update_text,percent_complete,rag_status,metrics_json,author,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		u.ProgramID, u.Version, u.UpdateText, u.PercentComplete, u.RAGStatus, string(metrics), u.Author, u.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListProgressUpdates returns a program's updates, newest version first.
func (r Repo) ListProgressUpdates(ctx context.Context, programID int64, limit int) ([]domain.ProgressUpdate, error) {
	query := `SELECT ` + progressColumns + ` FROM progress_updates WHERE program_id=? ORDER BY version DESC`
	args := []any{programID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.ProgressUpdate{}
	for rows.Next() {
		u, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// LatestProgress returns the highest-version update for a program.
func (r Repo) LatestProgress(ctx context.Context, programID int64) (domain.ProgressUpdate, error) {
	u, err := scanProgress(r.DB.QueryRowContext(ctx, `SELECT `+progressColumns+` FROM progress_updates WHERE program_id=? ORDER BY version DESC LIMIT 1`, programID))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// LatestProgressByProgram maps every program with updates to its highest version.
func (r Repo) LatestProgressByProgram(ctx context.Context) (map[int64]domain.ProgressUpdate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+progressColumns+` FROM progress_updates p
WHERE version = (SELECT MAX(version) FROM progress_updates WHERE program_id=p.program_id)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[int64]domain.ProgressUpdate{}
	for rows.Next() {
		u, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		res[u.ProgramID] = u
	}
	return res, rows.Err()
}

type ObjectiveFilters struct {
	ProgramID int64
	Year      int
	Quarter   domain.Quarter
}

func (r Repo) ListObjectives(ctx context.Context, f ObjectiveFilters) ([]domain.ProgramObjective, error) {
	var clauses []string
	var args []any
	if f.ProgramID != 0 {
		clauses = append(clauses, "program_id=?")
		args = append(args, f.ProgramID)
	}
	if f.Year != 0 {
		clauses = append(clauses, "year=?")
		args = append(args, f.Year)
	}
	if f.Quarter != "" {
		clauses = append(clauses, "quarter=?")
		args = append(args, f.Quarter)
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,program_id,year,quarter,objective_text,target_value,target_unit,status FROM program_objectives`+whereClause(clauses)+` ORDER BY program_id, year, quarter`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.ProgramObjective{}
	for rows.Next() {
		var o domain.ProgramObjective
		var targetValue, targetUnit, status sql.NullString
		if err := rows.Scan(&o.ID, &o.ProgramID, &o.Year, &o.Quarter, &o.ObjectiveText, &targetValue, &targetUnit, &status); err != nil {
			return nil, err
		}
		o.TargetValue = targetValue.String
		o.TargetUnit = targetUnit.String
		o.Status = status.String
		res = append(res, o)
	}
	return res, rows.Err()
}

// UpsertObjective stores the objective for a program quarter, replacing any existing one.
func (r Repo) UpsertObjective(ctx context.Context, tx *sql.Tx, o domain.ProgramObjective) error {
	_, err := r.on(tx).ExecContext(ctx, `INSERT INTO program_objectives(program_id,year,quarter,objective_text,target_value,target_unit,status) VALUES (?,?,?,?,?,?,?)
ON CONFLICT(program_id,year,quarter) DO UPDATE SET objective_text=excluded.objective_text, target_value=excluded.target_value, target_unit=excluded.target_unit, status=excluded.status`,
		o.ProgramID, o.Year, o.Quarter, o.ObjectiveText, nullable(o.TargetValue), nullable(o.TargetUnit), nullable(o.Status))
	return err
}
