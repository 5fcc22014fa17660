package store

import (
	"context"
	"fmt"

	"github.com/erazemk/kristalball/internal/model"
)

// ListInventory returns the quantity held per base and asset type.
// Expended assets are not held.
func ListInventory(ctx context.Context, db DBTX, baseID *int64) ([]model.Inventory, error) {
	where := conditions{}
	where.add("a.status <> ?", model.AssetExpended)
	if baseID != nil {
		where.add("a.base_id = ?", *baseID)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT a.base_id, b.name, a.asset_type_id, t.name, SUM(a.quantity), COUNT(*)
		 FROM assets a
		 JOIN bases b ON b.id = a.base_id
		 JOIN asset_types t ON t.id = a.asset_type_id`+where.String()+`
		 GROUP BY a.base_id, a.asset_type_id
		 ORDER BY b.name, t.name`, where.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	var items []model.Inventory
	for rows.Next() {
		var inv model.Inventory
		if err := rows.Scan(&inv.BaseID, &inv.BaseName, &inv.AssetTypeID, &inv.AssetTypeName,
			&inv.Quantity, &inv.Assets); err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		items = append(items, inv)
	}
	return items, rows.Err()
}

// Movements sums the quantities that entered and left a base's holdings
// over a date range.
type Movements struct {
	Purchases    int
	TransfersIn  int
	TransfersOut int
	Expended     int
}

// Net is the stock change from purchases and transfers.
func (m Movements) Net() int {
	return m.Purchases + m.TransfersIn - m.TransfersOut
}

// HeldQuantity returns the current quantity of non-expended assets, at one
// base or across all bases.
func HeldQuantity(ctx context.Context, db DBTX, baseID *int64) (int, error) {
	where := conditions{}
	where.add("status <> ?", model.AssetExpended)
	if baseID != nil {
		where.add("base_id = ?", *baseID)
	}

	var n int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM assets`+where.String(), where.args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("summing held quantity: %w", err)
	}
	return n, nil
}

// SumMovements totals purchases, completed transfers and expenditures with a
// ledger date in [start, end]. An empty bound is open; after, if set, makes
// the start bound exclusive. Transfers count the quantity recorded when they
// completed.
func SumMovements(ctx context.Context, db DBTX, baseID *int64, start, end string, after bool) (Movements, error) {
	var m Movements

	startOp := ">="
	if after {
		startOp = ">"
	}
	bounded := func(column string, c *conditions) {
		if start != "" {
			c.add(column+" "+startOp+" ?", start)
		}
		if end != "" {
			c.add(column+" <= ?", end)
		}
	}

	var p conditions
	if baseID != nil {
		p.add("receiving_base_id = ?", *baseID)
	}
	bounded("purchase_date", &p)
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM purchases`+p.String(), p.args...,
	).Scan(&m.Purchases); err != nil {
		return m, fmt.Errorf("summing purchases: %w", err)
	}

	transferSum := func(column string) (int, error) {
		var c conditions
		c.add("t.status = ?", model.LedgerCompleted)
		if baseID != nil {
			c.add("t."+column+" = ?", *baseID)
		}
		bounded("t.transfer_date", &c)
		var n int
		err := db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(t.quantity), 0) FROM transfers t`+c.String(),
			c.args...,
		).Scan(&n)
		return n, err
	}
	var err error
	if m.TransfersIn, err = transferSum("destination_base_id"); err != nil {
		return m, fmt.Errorf("summing inbound transfers: %w", err)
	}
	if m.TransfersOut, err = transferSum("source_base_id"); err != nil {
		return m, fmt.Errorf("summing outbound transfers: %w", err)
	}

	var e conditions
	if baseID != nil {
		e.add("base_id = ?", *baseID)
	}
	bounded("expenditure_date", &e)
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM expenditures`+e.String(), e.args...,
	).Scan(&m.Expended); err != nil {
		return m, fmt.Errorf("summing expenditures: %w", err)
	}

	return m, nil
}

// AssignedQuantity sums the quantity of assets under open assignments with
// an assignment date in [start, end].
func AssignedQuantity(ctx context.Context, db DBTX, baseID *int64, start, end string) (int, error) {
	var c conditions
	c.add("s.status IN (?, ?)", model.LedgerPending, model.LedgerApproved)
	if baseID != nil {
		c.add("s.base_id = ?", *baseID)
	}
	c.dateRange("s.assignment_date", start, end)

	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(a.quantity), 0) FROM assignments s JOIN assets a ON a.id = s.asset_id`+c.String(),
		c.args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("summing assigned quantity: %w", err)
	}
	return n, nil
}
