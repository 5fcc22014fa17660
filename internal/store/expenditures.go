package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/kristalball/internal/model"
)

const expenditureSelect = `SELECT e.id, e.asset_id, e.base_id, e.quantity, e.reason, e.expenditure_date,
	        e.reported_by, e.created_at, a.serial_number, b.name
	 FROM expenditures e
	 JOIN assets a ON a.id = e.asset_id
	 JOIN bases b ON b.id = e.base_id`

func scanExpenditure(row interface{ Scan(...any) error }) (*model.Expenditure, error) {
	e := &model.Expenditure{}
	err := row.Scan(&e.ID, &e.AssetID, &e.BaseID, &e.Quantity, &e.Reason, &e.ExpenditureDate,
		&e.ReportedBy, &e.CreatedAt, &e.AssetSerialNumber, &e.BaseName)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateExpenditure records an expenditure.
func CreateExpenditure(ctx context.Context, db DBTX, e *model.Expenditure) (*model.Expenditure, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO expenditures (asset_id, base_id, quantity, reason, expenditure_date, reported_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.AssetID, e.BaseID, e.Quantity, e.Reason, e.ExpenditureDate, e.ReportedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("recording expenditure: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting expenditure id: %w", err)
	}

	return GetExpenditure(ctx, db, id)
}

// GetExpenditure returns an expenditure by ID.
func GetExpenditure(ctx context.Context, db DBTX, id int64) (*model.Expenditure, error) {
	e, err := scanExpenditure(db.QueryRowContext(ctx, expenditureSelect+` WHERE e.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting expenditure: %w", err)
	}
	return e, nil
}

// ListExpenditures returns expenditures matching f. Status is ignored.
func ListExpenditures(ctx context.Context, db DBTX, f Filter) ([]model.Expenditure, error) {
	var where conditions
	if f.BaseID != nil {
		where.add("e.base_id = ?", *f.BaseID)
	}
	if f.OwnerID != nil {
		where.add("e.reported_by = ?", *f.OwnerID)
	}
	if f.AssetID != nil {
		where.add("e.asset_id = ?", *f.AssetID)
	}
	where.dateRange("e.expenditure_date", f.StartDate, f.EndDate)

	rows, err := db.QueryContext(ctx,
		expenditureSelect+where.String()+` ORDER BY e.expenditure_date DESC, e.id DESC`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenditures: %w", err)
	}
	defer rows.Close()

	var list []model.Expenditure
	for rows.Next() {
		e, err := scanExpenditure(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expenditure: %w", err)
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// UpdateExpenditureReason changes the recorded reason.
func UpdateExpenditureReason(ctx context.Context, db DBTX, id int64, reason string) error {
	_, err := db.ExecContext(ctx, `UPDATE expenditures SET reason = ? WHERE id = ?`, reason, id)
	if err != nil {
		return fmt.Errorf("updating expenditure: %w", err)
	}
	return nil
}

// DeleteExpenditure removes an expenditure record.
func DeleteExpenditure(ctx context.Context, db DBTX, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM expenditures WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting expenditure: %w", err)
	}
	return nil
}
