package repo

import (
	"context"
	"database/sql"
	"errors"

	"scorecard/internal/domain"
)

const orgUnitColumns = `id,parent_id,org_level,name,description,owner,status,priority,created_at`

type OrgUnitFilters struct {
	Status domain.Status
}

func scanOrgUnit(row scanner) (domain.OrgUnit, error) {
	var u domain.OrgUnit
	var parentID, priority sql.NullInt64
	var description, owner sql.NullString
	if err := row.Scan(&u.ID, &parentID, &u.OrgLevel, &u.Name, &description, &owner, &u.Status, &priority, &u.CreatedAt); err != nil {
		return u, err
	}
	u.ParentID = int64Ptr(parentID)
	u.Priority = intPtr(priority)
	u.Description = description.String
	u.Owner = owner.String
	return u, nil
}

// ListOrgUnits returns units ordered by priority (unset last) then name.
func (r Repo) ListOrgUnits(ctx context.Context, f OrgUnitFilters) ([]domain.OrgUnit, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+orgUnitColumns+` FROM org_units`+whereClause(clauses)+` ORDER BY priority IS NULL, priority, name, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.OrgUnit{}
	for rows.Next() {
		u, err := scanOrgUnit(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r Repo) GetOrgUnit(ctx context.Context, id int64) (domain.OrgUnit, error) {
	u, err := scanOrgUnit(r.DB.QueryRowContext(ctx, `SELECT `+orgUnitColumns+` FROM org_units WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// InsertOrgUnit stores u and returns the assigned id.
func (r Repo) InsertOrgUnit(ctx context.Context, tx *sql.Tx, u domain.OrgUnit) (int64, error) {
	if u.Status == "" {
		u.Status = domain.StatusActive
	}
	if u.CreatedAt == "" {
		u.CreatedAt = now()
	}
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO org_units(parent_id,org_level,name,description,owner,status,priority,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		nullableInt64Ptr(u.ParentID), u.OrgLevel, u.Name, nullable(u.Description), nullable(u.Owner), u.Status, nullableIntPtr(u.Priority), u.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
