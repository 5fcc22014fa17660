package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/kristalball/internal/model"
)

const maintenanceSelect = `SELECT m.id, m.asset_id, m.base_id, m.maintenance_date, m.type, m.description,
	        m.cost, m.technician, m.recorded_by, m.created_at,
	        a.serial_number, b.name
	 FROM maintenance_records m
	 JOIN assets a ON a.id = m.asset_id
	 JOIN bases b ON b.id = m.base_id`

func scanMaintenance(row interface{ Scan(...any) error }) (*model.MaintenanceRecord, error) {
	m := &model.MaintenanceRecord{}
	err := row.Scan(&m.ID, &m.AssetID, &m.BaseID, &m.MaintenanceDate, &m.Type, &m.Description,
		&m.Cost, &m.Technician, &m.RecordedBy, &m.CreatedAt,
		&m.AssetSerialNumber, &m.BaseName)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMaintenance records service work on an asset.
func CreateMaintenance(ctx context.Context, db DBTX, m *model.MaintenanceRecord) (*model.MaintenanceRecord, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO maintenance_records (asset_id, base_id, maintenance_date, type, description, cost, technician, recorded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.AssetID, m.BaseID, m.MaintenanceDate, m.Type, m.Description, m.Cost.String(), m.Technician, m.RecordedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("recording maintenance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting maintenance id: %w", err)
	}

	return GetMaintenance(ctx, db, id)
}

// GetMaintenance returns a maintenance record by ID.
func GetMaintenance(ctx context.Context, db DBTX, id int64) (*model.MaintenanceRecord, error) {
	m, err := scanMaintenance(db.QueryRowContext(ctx, maintenanceSelect+` WHERE m.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting maintenance record: %w", err)
	}
	return m, nil
}

// ListMaintenance returns maintenance records matching f, newest first.
// Status is ignored.
func ListMaintenance(ctx context.Context, db DBTX, f Filter) ([]model.MaintenanceRecord, error) {
	var where conditions
	if f.BaseID != nil {
		where.add("m.base_id = ?", *f.BaseID)
	}
	if f.OwnerID != nil {
		where.add("m.recorded_by = ?", *f.OwnerID)
	}
	if f.AssetID != nil {
		where.add("m.asset_id = ?", *f.AssetID)
	}
	where.dateRange("m.maintenance_date", f.StartDate, f.EndDate)

	rows, err := db.QueryContext(ctx,
		maintenanceSelect+where.String()+` ORDER BY m.maintenance_date DESC, m.id DESC`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance records: %w", err)
	}
	defer rows.Close()

	var list []model.MaintenanceRecord
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning maintenance record: %w", err)
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// UpdateMaintenance replaces the descriptive fields of a record. The asset
// and base are fixed.
func UpdateMaintenance(ctx context.Context, db DBTX, m *model.MaintenanceRecord) error {
	_, err := db.ExecContext(ctx,
		`UPDATE maintenance_records
		 SET maintenance_date = ?, type = ?, description = ?, cost = ?, technician = ?
		 WHERE id = ?`,
		m.MaintenanceDate, m.Type, m.Description, m.Cost.String(), m.Technician, m.ID,
	)
	if err != nil {
		return fmt.Errorf("updating maintenance record: %w", err)
	}
	return nil
}

// DeleteMaintenance removes a maintenance record.
func DeleteMaintenance(ctx context.Context, db DBTX, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM maintenance_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting maintenance record: %w", err)
	}
	return nil
}
