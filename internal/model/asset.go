package model

import (
	"fmt"
	"time"
)

// Asset is one physical item or fungible item group. It owns the current
// truth about status and location; ledger records only reference it.
type Asset struct {
	ID           int64       `json:"id"`
	AssetTypeID  int64       `json:"asset_type_id"`
	ModelName    string      `json:"model_name"`
	SerialNumber string      `json:"serial_number"`
	BaseID       int64       `json:"base_id"`
	Status       AssetStatus `json:"status"`
	Quantity     int         `json:"quantity"`
	CreatedBy    *int64      `json:"created_by,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// Joined fields (not always populated).
	AssetTypeName string `json:"asset_type_name,omitempty"`
	BaseName      string `json:"base_name,omitempty"`
}

// AssetStatus is the lifecycle state of an asset.
type AssetStatus string

// Asset statuses.
const (
	AssetAvailable       AssetStatus = "available"
	AssetAssigned        AssetStatus = "assigned"
	AssetPendingTransfer AssetStatus = "pending_transfer"
	AssetExpended        AssetStatus = "expended"
	AssetMaintenance     AssetStatus = "maintenance"
)

var validAssetStatuses = []AssetStatus{
	AssetAvailable,
	AssetAssigned,
	AssetPendingTransfer,
	AssetExpended,
	AssetMaintenance,
}

// IsValid reports whether s is a known asset status.
func (s AssetStatus) IsValid() bool {
	for _, candidate := range validAssetStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAssetStatus converts raw input into an AssetStatus.
func ParseAssetStatus(value string) (AssetStatus, error) {
	s := AssetStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid asset status %q", value)
	}
	return s, nil
}

// ManualStatusChange reports whether an asset may be moved from one status
// to another by editing the asset directly. Only servicing toggles are
// allowed; every other change goes through the ledger.
func ManualStatusChange(from, to AssetStatus) bool {
	if from == to {
		return true
	}
	return (from == AssetAvailable && to == AssetMaintenance) ||
		(from == AssetMaintenance && to == AssetAvailable)
}
