package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaintenanceRecord logs service work done on an asset. The base is the
// asset's base when the work was recorded.
type MaintenanceRecord struct {
	ID              int64           `json:"id"`
	AssetID         int64           `json:"asset_id"`
	BaseID          int64           `json:"base_id"`
	MaintenanceDate string          `json:"maintenance_date"`
	Type            string          `json:"type"`
	Description     string          `json:"description,omitempty"`
	Cost            decimal.Decimal `json:"cost"`
	Technician      string          `json:"technician,omitempty"`
	RecordedBy      int64           `json:"recorded_by"`
	CreatedAt       time.Time       `json:"created_at"`

	AssetSerialNumber string `json:"asset_serial_number,omitempty"`
	BaseName          string `json:"base_name,omitempty"`
}
