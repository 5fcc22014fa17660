package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/kristalball/internal/model"
)

const transferSelect = `SELECT t.id, t.asset_id, t.source_base_id, t.destination_base_id, t.transfer_date,
	        t.reason, t.status, t.quantity, t.initiated_by, t.received_by, t.created_at, t.completed_at,
	        a.serial_number, src.name AS source_base_name, dst.name AS destination_base_name,
	        u.username AS initiated_by_username
	 FROM transfers t
	 JOIN assets a ON a.id = t.asset_id
	 JOIN bases src ON src.id = t.source_base_id
	 JOIN bases dst ON dst.id = t.destination_base_id
	 JOIN users u ON u.id = t.initiated_by`

func scanTransfer(row interface{ Scan(...any) error }) (*model.Transfer, error) {
	t := &model.Transfer{}
	err := row.Scan(&t.ID, &t.AssetID, &t.SourceBaseID, &t.DestinationBaseID, &t.TransferDate,
		&t.Reason, &t.Status, &t.Quantity, &t.InitiatedBy, &t.ReceivedBy, &t.CreatedAt, &t.CompletedAt,
		&t.AssetSerialNumber, &t.SourceBaseName, &t.DestinationBaseName,
		&t.InitiatedByUsername)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTransfer records a pending transfer. It does not touch the asset.
func CreateTransfer(ctx context.Context, db DBTX, t *model.Transfer) (*model.Transfer, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO transfers (asset_id, source_base_id, destination_base_id, transfer_date, reason, status, initiated_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.AssetID, t.SourceBaseID, t.DestinationBaseID, t.TransferDate, t.Reason, model.LedgerPending, t.InitiatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("recording transfer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting transfer id: %w", err)
	}

	return GetTransfer(ctx, db, id)
}

// GetTransfer returns a transfer by ID.
func GetTransfer(ctx context.Context, db DBTX, id int64) (*model.Transfer, error) {
	t, err := scanTransfer(db.QueryRowContext(ctx, transferSelect+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	return t, nil
}

// ListTransfers returns transfers matching f. A base filter matches either end.
func ListTransfers(ctx context.Context, db DBTX, f Filter) ([]model.Transfer, error) {
	var where conditions
	if f.BaseID != nil {
		where.add("(t.source_base_id = ? OR t.destination_base_id = ?)", *f.BaseID, *f.BaseID)
	}
	if f.OwnerID != nil {
		where.add("t.initiated_by = ?", *f.OwnerID)
	}
	if f.AssetID != nil {
		where.add("t.asset_id = ?", *f.AssetID)
	}
	if f.Status != "" {
		where.add("t.status = ?", f.Status)
	}
	where.dateRange("t.transfer_date", f.StartDate, f.EndDate)

	rows, err := db.QueryContext(ctx,
		transferSelect+where.String()+` ORDER BY t.transfer_date DESC, t.id DESC`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

// UpdateTransferDetails changes the free-form fields of a pending transfer.
func UpdateTransferDetails(ctx context.Context, db DBTX, id int64, transferDate, reason string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE transfers SET transfer_date = ?, reason = ? WHERE id = ?`, transferDate, reason, id,
	)
	if err != nil {
		return fmt.Errorf("updating transfer: %w", err)
	}
	return nil
}

// SetTransferStatus moves a transfer from one status to another. It reports
// false if the transfer was no longer in the expected status. Completing a
// transfer stamps the receiver, completion time and the quantity moved.
func SetTransferStatus(ctx context.Context, db DBTX, id int64, from, to model.LedgerStatus, actor int64) (bool, error) {
	query := `UPDATE transfers SET status = ? WHERE id = ? AND status = ?`
	args := []any{to, id, from}
	if to == model.LedgerCompleted {
		query = `UPDATE transfers SET status = ?, received_by = ?, completed_at = CURRENT_TIMESTAMP,
		             quantity = (SELECT a.quantity FROM assets a WHERE a.id = transfers.asset_id)
		         WHERE id = ? AND status = ?`
		args = []any{to, actor, id, from}
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("setting transfer status: %w", err)
	}
	ok, err := affected(result)
	if err != nil {
		return false, fmt.Errorf("setting transfer status: %w", err)
	}
	return ok, nil
}

// DeleteTransfer removes a transfer record.
func DeleteTransfer(ctx context.Context, db DBTX, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting transfer: %w", err)
	}
	return nil
}
