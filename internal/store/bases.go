package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/kristalball/internal/model"
)

// CreateBase creates a new base.
func CreateBase(ctx context.Context, db DBTX, name, location string) (*model.Base, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO bases (name, location) VALUES (?, ?)`, name, location,
	)
	if err != nil {
		return nil, fmt.Errorf("creating base: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting base id: %w", err)
	}

	return GetBase(ctx, db, id)
}

// GetBase returns a base by ID.
func GetBase(ctx context.Context, db DBTX, id int64) (*model.Base, error) {
	b := &model.Base{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, location, created_at FROM bases WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Location, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting base: %w", err)
	}
	return b, nil
}

// ListBases returns all bases ordered by name.
func ListBases(ctx context.Context, db DBTX) ([]model.Base, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, location, created_at FROM bases ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bases: %w", err)
	}
	defer rows.Close()

	var bases []model.Base
	for rows.Next() {
		var b model.Base
		if err := rows.Scan(&b.ID, &b.Name, &b.Location, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning base: %w", err)
		}
		bases = append(bases, b)
	}
	return bases, rows.Err()
}

// UpdateBase renames or relocates a base.
func UpdateBase(ctx context.Context, db DBTX, id int64, name, location string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE bases SET name = ?, location = ? WHERE id = ?`, name, location, id,
	)
	if err != nil {
		return fmt.Errorf("updating base: %w", err)
	}
	return nil
}

// DeleteBase removes a base. Bases still referenced by other rows fail
// with a foreign key violation.
func DeleteBase(ctx context.Context, db DBTX, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM bases WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting base: %w", err)
	}
	return nil
}
