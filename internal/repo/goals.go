package repo

import (
	"context"
	"database/sql"
	"errors"

	"scorecard/internal/domain"
)

const goalColumns = `g.id,g.parent_id,g.org_unit_id,COALESCE(o.name,''),g.goal_level,g.name,g.description,g.owner,g.status,g.weight,g.priority,g.created_at,g.updated_at`

const goalFrom = ` FROM goal_items g LEFT JOIN org_units o ON o.id=g.org_unit_id`

const goalOrder = ` ORDER BY CASE g.goal_level WHEN 'Pillar' THEN 1 WHEN 'Category' THEN 2 WHEN 'Goal' THEN 3 WHEN 'Program' THEN 4 ELSE 5 END, g.priority IS NULL, g.priority, g.name, g.id`

type GoalFilters struct {
	Status     domain.Status
	Level      domain.GoalLevel
	Owner      string
	Name       string
	ParentID   *int64
	OrgUnitIDs []int64
}

func scanGoal(row scanner) (domain.GoalItem, error) {
	var g domain.GoalItem
	var parentID, priority sql.NullInt64
	var description, owner sql.NullString
	var weight sql.NullFloat64
	if err := row.Scan(&g.ID, &parentID, &g.OrgUnitID, &g.OrgUnitName, &g.GoalLevel, &g.Name, &description, &owner, &g.Status, &weight, &priority, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return g, err
	}
	g.ParentID = int64Ptr(parentID)
	g.Priority = intPtr(priority)
	g.Weight = floatPtr(weight)
	g.Description = description.String
	g.Owner = owner.String
	return g, nil
}

// ListGoalItems returns goals ordered by level, priority (unset last) and name.
func (r Repo) ListGoalItems(ctx context.Context, f GoalFilters) ([]domain.GoalItem, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "g.status=?")
		args = append(args, f.Status)
	}
	if f.Level != "" {
		clauses = append(clauses, "g.goal_level=?")
		args = append(args, f.Level)
	}
	if f.Owner != "" {
		clauses = append(clauses, "g.owner=?")
		args = append(args, f.Owner)
	}
	if f.Name != "" {
		clauses = append(clauses, "g.name=?")
		args = append(args, f.Name)
	}
	if f.ParentID != nil {
		clauses = append(clauses, "g.parent_id=?")
		args = append(args, *f.ParentID)
	}
	if f.OrgUnitIDs != nil {
		if len(f.OrgUnitIDs) == 0 {
			return []domain.GoalItem{}, nil
		}
		clause, inArgs := inClause("g.org_unit_id", f.OrgUnitIDs)
		clauses = append(clauses, clause)
		args = append(args, inArgs...)
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+goalColumns+goalFrom+whereClause(clauses)+goalOrder, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.GoalItem{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, rows.Err()
}

func (r Repo) GetGoalItem(ctx context.Context, id int64) (domain.GoalItem, error) {
	return r.GetGoalItemTx(ctx, nil, id)
}

func (r Repo) GetGoalItemTx(ctx context.Context, tx *sql.Tx, id int64) (domain.GoalItem, error) {
	g, err := scanGoal(r.on(tx).QueryRowContext(ctx, `SELECT `+goalColumns+goalFrom+` WHERE g.id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrNotFound
	}
	return g, err
}

// InsertGoalItem stores g and returns the assigned id.
func (r Repo) InsertGoalItem(ctx context.Context, tx *sql.Tx, g domain.GoalItem) (int64, error) {
	if g.Status == "" {
		g.Status = domain.StatusActive
	}
	if g.CreatedAt == "" {
		g.CreatedAt = now()
	}
	if g.UpdatedAt == "" {
		g.UpdatedAt = g.CreatedAt
	}
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO goal_items(parent_id,org_unit_id,goal_level,name,description,owner,status,weight,priority,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		nullableInt64Ptr(g.ParentID), g.OrgUnitID, g.GoalLevel, g.Name, nullable(g.Description), nullable(g.Owner), g.Status,
		nullableFloatPtr(g.Weight), nullableIntPtr(g.Priority), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateGoalStatusTx(ctx context.Context, tx *sql.Tx, id int64, status domain.Status, updatedAt string) error {
	res, err := r.on(tx).ExecContext(ctx, `UPDATE goal_items SET status=?, updated_at=? WHERE id=?`, status, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type AlignmentFilters struct {
	// GoalIDs keeps edges with either endpoint in the list.
	GoalIDs []int64
	Type    domain.AlignmentType
}

func (r Repo) ListAlignments(ctx context.Context, f AlignmentFilters) ([]domain.GoalAlignment, error) {
	var clauses []string
	var args []any
	if f.GoalIDs != nil {
		if len(f.GoalIDs) == 0 {
			return []domain.GoalAlignment{}, nil
		}
		child, childArgs := inClause("child_goal_id", f.GoalIDs)
		parent, parentArgs := inClause("parent_goal_id", f.GoalIDs)
		clauses = append(clauses, "("+child+" OR "+parent+")")
		args = append(args, childArgs...)
		args = append(args, parentArgs...)
	}
	if f.Type != "" {
		clauses = append(clauses, "alignment_type=?")
		args = append(args, f.Type)
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,child_goal_id,parent_goal_id,alignment_type,alignment_strength,notes,created_at FROM goal_alignments`+whereClause(clauses)+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.GoalAlignment{}
	for rows.Next() {
		var a domain.GoalAlignment
		var notes sql.NullString
		if err := rows.Scan(&a.ID, &a.ChildGoalID, &a.ParentGoalID, &a.AlignmentType, &a.AlignmentStrength, &notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Notes = notes.String
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) InsertAlignment(ctx context.Context, tx *sql.Tx, a domain.GoalAlignment) (int64, error) {
	if a.CreatedAt == "" {
		a.CreatedAt = now()
	}
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO goal_alignments(child_goal_id,parent_goal_id,alignment_type,alignment_strength,notes,created_at) VALUES (?,?,?,?,?,?)`,
		a.ChildGoalID, a.ParentGoalID, a.AlignmentType, a.AlignmentStrength, nullable(a.Notes), a.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
