package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/kristalball/internal/model"
)

const assetSelect = `SELECT a.id, a.asset_type_id, a.model_name, a.serial_number, a.base_id, a.status,
	        a.quantity, a.created_by, a.created_at, a.updated_at,
	        t.name AS asset_type_name, b.name AS base_name
	 FROM assets a
	 JOIN asset_types t ON t.id = a.asset_type_id
	 JOIN bases b ON b.id = a.base_id`

func scanAsset(row interface{ Scan(...any) error }) (*model.Asset, error) {
	a := &model.Asset{}
	err := row.Scan(&a.ID, &a.AssetTypeID, &a.ModelName, &a.SerialNumber, &a.BaseID, &a.Status,
		&a.Quantity, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
		&a.AssetTypeName, &a.BaseName)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAsset inserts an asset and returns it with joined names.
func CreateAsset(ctx context.Context, db DBTX, a *model.Asset) (*model.Asset, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO assets (asset_type_id, model_name, serial_number, base_id, status, quantity, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.AssetTypeID, a.ModelName, a.SerialNumber, a.BaseID, a.Status, a.Quantity, a.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting asset id: %w", err)
	}

	return GetAsset(ctx, db, id)
}

// GetAsset returns an asset by ID.
func GetAsset(ctx context.Context, db DBTX, id int64) (*model.Asset, error) {
	a, err := scanAsset(db.QueryRowContext(ctx, assetSelect+` WHERE a.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return a, nil
}

// ListAssets returns assets matching f. AssetID and the date bounds are ignored.
func ListAssets(ctx context.Context, db DBTX, f Filter, assetTypeID int64) ([]model.Asset, error) {
	var where conditions
	if f.BaseID != nil {
		where.add("a.base_id = ?", *f.BaseID)
	}
	if f.OwnerID != nil {
		where.add("a.created_by = ?", *f.OwnerID)
	}
	if f.Status != "" {
		where.add("a.status = ?", f.Status)
	}
	if assetTypeID > 0 {
		where.add("a.asset_type_id = ?", assetTypeID)
	}

	rows, err := db.QueryContext(ctx, assetSelect+where.String()+` ORDER BY a.serial_number`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// UpdateAsset overwrites the descriptive fields, status and quantity. The
// owning base only changes through MoveAsset.
func UpdateAsset(ctx context.Context, db DBTX, a *model.Asset) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assets SET asset_type_id = ?, model_name = ?, serial_number = ?, status = ?, quantity = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		a.AssetTypeID, a.ModelName, a.SerialNumber, a.Status, a.Quantity, a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	return nil
}

// SetAssetStatus changes only the status of an asset.
func SetAssetStatus(ctx context.Context, db DBTX, id int64, status model.AssetStatus) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assets SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id,
	)
	if err != nil {
		return fmt.Errorf("setting asset status: %w", err)
	}
	return nil
}

// MoveAsset relocates an asset to another base and sets its status.
func MoveAsset(ctx context.Context, db DBTX, id, baseID int64, status model.AssetStatus) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assets SET base_id = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		baseID, status, id,
	)
	if err != nil {
		return fmt.Errorf("moving asset: %w", err)
	}
	return nil
}

// AdjustAssetQuantity adds delta (which may be negative) to an asset's quantity.
func AdjustAssetQuantity(ctx context.Context, db DBTX, id int64, delta int) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assets SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("adjusting asset quantity: %w", err)
	}
	return nil
}

// DeleteAsset removes an asset. Assets with ledger history fail with a
// foreign key violation.
func DeleteAsset(ctx context.Context, db DBTX, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	return nil
}
