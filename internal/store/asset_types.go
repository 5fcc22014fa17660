package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/kristalball/internal/model"
)

// CreateAssetType creates a new asset type.
func CreateAssetType(ctx context.Context, db DBTX, at *model.AssetType) (*model.AssetType, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO asset_types (name, category, description) VALUES (?, ?, ?)`,
		at.Name, at.Category, at.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("creating asset type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting asset type id: %w", err)
	}

	return GetAssetType(ctx, db, id)
}

// GetAssetType returns an asset type by ID.
func GetAssetType(ctx context.Context, db DBTX, id int64) (*model.AssetType, error) {
	at := &model.AssetType{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, category, description FROM asset_types WHERE id = ?`, id,
	).Scan(&at.ID, &at.Name, &at.Category, &at.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset type: %w", err)
	}
	return at, nil
}

// ListAssetTypes returns all asset types, optionally of one category.
func ListAssetTypes(ctx context.Context, db DBTX, category string) ([]model.AssetType, error) {
	var where conditions
	if category != "" {
		where.add("category = ?", category)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, name, category, description FROM asset_types`+where.String()+` ORDER BY category, name`,
		where.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing asset types: %w", err)
	}
	defer rows.Close()

	var types []model.AssetType
	for rows.Next() {
		var at model.AssetType
		if err := rows.Scan(&at.ID, &at.Name, &at.Category, &at.Description); err != nil {
			return nil, fmt.Errorf("scanning asset type: %w", err)
		}
		types = append(types, at)
	}
	return types, rows.Err()
}

// UpdateAssetType overwrites an asset type's fields.
func UpdateAssetType(ctx context.Context, db DBTX, at *model.AssetType) error {
	_, err := db.ExecContext(ctx,
		`UPDATE asset_types SET name = ?, category = ?, description = ? WHERE id = ?`,
		at.Name, at.Category, at.Description, at.ID,
	)
	if err != nil {
		return fmt.Errorf("updating asset type: %w", err)
	}
	return nil
}

// DeleteAssetType removes an asset type that no asset references.
func DeleteAssetType(ctx context.Context, db DBTX, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM asset_types WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting asset type: %w", err)
	}
	return nil
}
