package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/kristalball/internal/model"
)

const personnelSelect = `SELECT p.id, p.name, p.rank, p.unit, p.base_id, p.created_by, p.created_at,
	        b.name AS base_name
	 FROM personnel p
	 JOIN bases b ON b.id = p.base_id`

func scanPersonnel(row interface{ Scan(...any) error }) (*model.Personnel, error) {
	p := &model.Personnel{}
	if err := row.Scan(&p.ID, &p.Name, &p.Rank, &p.Unit, &p.BaseID, &p.CreatedBy, &p.CreatedAt, &p.BaseName); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePersonnel inserts a member of personnel.
func CreatePersonnel(ctx context.Context, db DBTX, p *model.Personnel) (*model.Personnel, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO personnel (name, rank, unit, base_id, created_by) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Rank, p.Unit, p.BaseID, p.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating personnel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting personnel id: %w", err)
	}

	return GetPersonnel(ctx, db, id)
}

// GetPersonnel returns a member of personnel by ID.
func GetPersonnel(ctx context.Context, db DBTX, id int64) (*model.Personnel, error) {
	p, err := scanPersonnel(db.QueryRowContext(ctx, personnelSelect+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting personnel: %w", err)
	}
	return p, nil
}

// ListPersonnel returns personnel matching f.
func ListPersonnel(ctx context.Context, db DBTX, f Filter) ([]model.Personnel, error) {
	var where conditions
	if f.BaseID != nil {
		where.add("p.base_id = ?", *f.BaseID)
	}
	if f.OwnerID != nil {
		where.add("p.created_by = ?", *f.OwnerID)
	}

	rows, err := db.QueryContext(ctx, personnelSelect+where.String()+` ORDER BY p.name`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("listing personnel: %w", err)
	}
	defer rows.Close()

	var list []model.Personnel
	for rows.Next() {
		p, err := scanPersonnel(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning personnel: %w", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// UpdatePersonnel overwrites a member's name, rank, unit and base.
func UpdatePersonnel(ctx context.Context, db DBTX, p *model.Personnel) error {
	_, err := db.ExecContext(ctx,
		`UPDATE personnel SET name = ?, rank = ?, unit = ?, base_id = ? WHERE id = ?`,
		p.Name, p.Rank, p.Unit, p.BaseID, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating personnel: %w", err)
	}
	return nil
}

// DeletePersonnel removes a member of personnel without assignment history.
func DeletePersonnel(ctx context.Context, db DBTX, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM personnel WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting personnel: %w", err)
	}
	return nil
}
