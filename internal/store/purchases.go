package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/kristalball/internal/model"
)

const purchaseSelect = `SELECT p.id, p.asset_id, p.receiving_base_id, p.quantity, p.unit_cost, p.total_cost,
	        p.purchase_date, p.supplier, p.recorded_by, p.created_at,
	        a.serial_number, b.name
	 FROM purchases p
	 JOIN assets a ON a.id = p.asset_id
	 JOIN bases b ON b.id = p.receiving_base_id`

func scanPurchase(row interface{ Scan(...any) error }) (*model.Purchase, error) {
	p := &model.Purchase{}
	err := row.Scan(&p.ID, &p.AssetID, &p.ReceivingBaseID, &p.Quantity, &p.UnitCost, &p.TotalCost,
		&p.PurchaseDate, &p.Supplier, &p.RecordedBy, &p.CreatedAt,
		&p.AssetSerialNumber, &p.BaseName)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePurchase records a purchase. The total cost is derived from the
// unit cost and quantity.
func CreatePurchase(ctx context.Context, db DBTX, p *model.Purchase) (*model.Purchase, error) {
	total := p.UnitCost.Mul(decimal.NewFromInt(int64(p.Quantity)))
	result, err := db.ExecContext(ctx,
		`INSERT INTO purchases (asset_id, receiving_base_id, quantity, unit_cost, total_cost, purchase_date, supplier, recorded_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.AssetID, p.ReceivingBaseID, p.Quantity, p.UnitCost.String(), total.String(),
		p.PurchaseDate, p.Supplier, p.RecordedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("recording purchase: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting purchase id: %w", err)
	}

	return GetPurchase(ctx, db, id)
}

// GetPurchase returns a purchase by ID.
func GetPurchase(ctx context.Context, db DBTX, id int64) (*model.Purchase, error) {
	p, err := scanPurchase(db.QueryRowContext(ctx, purchaseSelect+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting purchase: %w", err)
	}
	return p, nil
}

// ListPurchases returns purchases matching f. Status is ignored.
func ListPurchases(ctx context.Context, db DBTX, f Filter) ([]model.Purchase, error) {
	var where conditions
	if f.BaseID != nil {
		where.add("p.receiving_base_id = ?", *f.BaseID)
	}
	if f.OwnerID != nil {
		where.add("p.recorded_by = ?", *f.OwnerID)
	}
	if f.AssetID != nil {
		where.add("p.asset_id = ?", *f.AssetID)
	}
	where.dateRange("p.purchase_date", f.StartDate, f.EndDate)

	rows, err := db.QueryContext(ctx,
		purchaseSelect+where.String()+` ORDER BY p.purchase_date DESC, p.id DESC`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	defer rows.Close()

	var list []model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning purchase: %w", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// UpdatePurchaseDetails changes supplier, date and unit cost, recomputing the total.
func UpdatePurchaseDetails(ctx context.Context, db DBTX, id int64, supplier, purchaseDate string, unitCost decimal.Decimal) error {
	var quantity int
	if err := db.QueryRowContext(ctx, `SELECT quantity FROM purchases WHERE id = ?`, id).Scan(&quantity); err != nil {
		return fmt.Errorf("updating purchase: %w", err)
	}
	total := unitCost.Mul(decimal.NewFromInt(int64(quantity)))

	_, err := db.ExecContext(ctx,
		`UPDATE purchases SET supplier = ?, purchase_date = ?, unit_cost = ?, total_cost = ? WHERE id = ?`,
		supplier, purchaseDate, unitCost.String(), total.String(), id,
	)
	if err != nil {
		return fmt.Errorf("updating purchase: %w", err)
	}
	return nil
}

// DeletePurchase removes a purchase record.
func DeletePurchase(ctx context.Context, db DBTX, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM purchases WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting purchase: %w", err)
	}
	return nil
}
