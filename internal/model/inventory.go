package model

import "github.com/shopspring/decimal"

// Inventory is the current quantity of one asset type held at a base.
type Inventory struct {
	BaseID        int64  `json:"base_id"`
	BaseName      string `json:"base_name"`
	AssetTypeID   int64  `json:"asset_type_id"`
	AssetTypeName string `json:"asset_type_name"`
	Quantity      int    `json:"quantity"`
	Assets        int    `json:"assets"`
}

// Metrics summarizes asset movement for a period.
type Metrics struct {
	OpeningBalance int `json:"opening_balance"`
	ClosingBalance int `json:"closing_balance"`
	Purchases      int `json:"purchases"`
	TransfersIn    int `json:"transfers_in"`
	TransfersOut   int `json:"transfers_out"`
	NetMovement    int `json:"net_movement"`
	Assigned       int `json:"assigned"`
	Expended       int `json:"expended"`
}

// AssetDistribution is the non-expended holding of one asset type.
type AssetDistribution struct {
	AssetTypeID   int64  `json:"asset_type_id"`
	AssetTypeName string `json:"asset_type_name"`
	Category      string `json:"category"`
	Assets        int    `json:"assets"`
	Quantity      int    `json:"quantity"`
}

// Activity kinds.
const (
	ActivityPurchase    = "purchase"
	ActivityTransfer    = "transfer"
	ActivityAssignment  = "assignment"
	ActivityExpenditure = "expenditure"
)

// Activity is one ledger record in the recent activity feed.
type Activity struct {
	Type              string `json:"type"`
	ID                int64  `json:"id"`
	AssetID           int64  `json:"asset_id"`
	AssetSerialNumber string `json:"asset_serial_number"`
	AssetTypeName     string `json:"asset_type_name"`
	BaseID            int64  `json:"base_id"`
	BaseName          string `json:"base_name"`
	Quantity          int    `json:"quantity"`
	Status            string `json:"status"`
	Date              string `json:"date"`
}

// PurchaseSummary totals the purchases matching a filter.
type PurchaseSummary struct {
	TotalPurchases int             `json:"total_purchases"`
	TotalQuantity  int             `json:"total_quantity"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	AvgUnitCost    decimal.Decimal `json:"avg_unit_cost"`
}
