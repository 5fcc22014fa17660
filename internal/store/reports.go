package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/kristalball/internal/model"
)

// ListAssetDistribution returns non-expended holdings per asset type, largest
// quantity first.
func ListAssetDistribution(ctx context.Context, db DBTX, baseID *int64) ([]model.AssetDistribution, error) {
	where := conditions{}
	where.add("a.status <> ?", model.AssetExpended)
	if baseID != nil {
		where.add("a.base_id = ?", *baseID)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT t.id, t.name, t.category, COUNT(*), SUM(a.quantity)
		 FROM assets a
		 JOIN asset_types t ON t.id = a.asset_type_id`+where.String()+`
		 GROUP BY t.id
		 ORDER BY SUM(a.quantity) DESC, t.name`, where.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing asset distribution: %w", err)
	}
	defer rows.Close()

	var list []model.AssetDistribution
	for rows.Next() {
		var d model.AssetDistribution
		if err := rows.Scan(&d.AssetTypeID, &d.AssetTypeName, &d.Category, &d.Assets, &d.Quantity); err != nil {
			return nil, fmt.Errorf("scanning asset distribution: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// activitySelect unions the ledgers into one feed. Every branch takes the
// base id twice (transfers three times): a NULL base matches every row.
const activitySelect = `
SELECT 'purchase' AS type, p.id AS id, p.asset_id, a.serial_number, t.name, p.receiving_base_id, b.name,
       p.quantity, 'completed', p.purchase_date AS activity_date
FROM purchases p
JOIN assets a ON a.id = p.asset_id
JOIN asset_types t ON t.id = a.asset_type_id
JOIN bases b ON b.id = p.receiving_base_id
WHERE (? IS NULL OR p.receiving_base_id = ?)
UNION ALL
SELECT 'transfer', tr.id, tr.asset_id, a.serial_number, t.name, tr.source_base_id, b.name,
       CASE WHEN tr.status = 'completed' THEN tr.quantity ELSE a.quantity END, tr.status, tr.transfer_date
FROM transfers tr
JOIN assets a ON a.id = tr.asset_id
JOIN asset_types t ON t.id = a.asset_type_id
JOIN bases b ON b.id = tr.source_base_id
WHERE (? IS NULL OR tr.source_base_id = ? OR tr.destination_base_id = ?)
UNION ALL
SELECT 'assignment', s.id, s.asset_id, a.serial_number, t.name, s.base_id, b.name,
       a.quantity, s.status, s.assignment_date
FROM assignments s
JOIN assets a ON a.id = s.asset_id
JOIN asset_types t ON t.id = a.asset_type_id
JOIN bases b ON b.id = s.base_id
WHERE (? IS NULL OR s.base_id = ?)
UNION ALL
SELECT 'expenditure', e.id, e.asset_id, a.serial_number, t.name, e.base_id, b.name,
       e.quantity, 'completed', e.expenditure_date
FROM expenditures e
JOIN assets a ON a.id = e.asset_id
JOIN asset_types t ON t.id = a.asset_type_id
JOIN bases b ON b.id = e.base_id
WHERE (? IS NULL OR e.base_id = ?)
ORDER BY activity_date DESC, id DESC
LIMIT ?`

// ListActivities returns the most recent ledger records across purchases,
// transfers, assignments and expenditures, by ledger date.
func ListActivities(ctx context.Context, db DBTX, baseID *int64, limit int) ([]model.Activity, error) {
	var base any
	if baseID != nil {
		base = *baseID
	}

	rows, err := db.QueryContext(ctx, activitySelect,
		base, base,
		base, base, base,
		base, base,
		base, base,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	var list []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.Type, &a.ID, &a.AssetID, &a.AssetSerialNumber, &a.AssetTypeName,
			&a.BaseID, &a.BaseName, &a.Quantity, &a.Status, &a.Date); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// SummarizePurchases totals the purchases matching f. Costs are summed as
// decimals; the average unit cost is rounded to cents.
func SummarizePurchases(ctx context.Context, db DBTX, f Filter) (*model.PurchaseSummary, error) {
	var where conditions
	if f.BaseID != nil {
		where.add("receiving_base_id = ?", *f.BaseID)
	}
	if f.OwnerID != nil {
		where.add("recorded_by = ?", *f.OwnerID)
	}
	if f.AssetID != nil {
		where.add("asset_id = ?", *f.AssetID)
	}
	where.dateRange("purchase_date", f.StartDate, f.EndDate)

	rows, err := db.QueryContext(ctx,
		`SELECT quantity, unit_cost, total_cost FROM purchases`+where.String(), where.args...)
	if err != nil {
		return nil, fmt.Errorf("summarizing purchases: %w", err)
	}
	defer rows.Close()

	sum := &model.PurchaseSummary{TotalCost: decimal.Zero, AvgUnitCost: decimal.Zero}
	unitCosts := decimal.Zero
	for rows.Next() {
		var (
			quantity    int
			unit, total decimal.Decimal
		)
		if err := rows.Scan(&quantity, &unit, &total); err != nil {
			return nil, fmt.Errorf("scanning purchase totals: %w", err)
		}
		sum.TotalPurchases++
		sum.TotalQuantity += quantity
		sum.TotalCost = sum.TotalCost.Add(total)
		unitCosts = unitCosts.Add(unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summarizing purchases: %w", err)
	}

	if sum.TotalPurchases > 0 {
		sum.AvgUnitCost = unitCosts.Div(decimal.NewFromInt(int64(sum.TotalPurchases))).Round(2)
	}
	return sum, nil
}
