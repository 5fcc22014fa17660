package model

import (
	"encoding/json"
	"time"
)

// AuditEntry is one row of the append-only audit log.
type AuditEntry struct {
	ID         int64           `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	UserID     int64           `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	Details    json.RawMessage `json:"details,omitempty"`
	Status     string          `json:"status"`
}

// Audit actions.
const (
	AuditCreate       = "create"
	AuditUpdate       = "update"
	AuditDelete       = "delete"
	AuditUpdateStatus = "update_status"
)

// AuditStatusSuccess marks an entry written for a committed mutation.
const AuditStatusSuccess = "success"

// Entity types recorded in the audit log.
const (
	EntityAsset       = "asset"
	EntityAssetType   = "asset_type"
	EntityBase        = "base"
	EntityPersonnel   = "personnel"
	EntityPurchase    = "purchase"
	EntityTransfer    = "transfer"
	EntityAssignment  = "assignment"
	EntityExpenditure = "expenditure"
	EntityMaintenance = "maintenance"
	EntityUser        = "user"
)
