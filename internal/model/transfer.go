package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerStatus is the lifecycle state shared by transfers and assignments.
type LedgerStatus string

// Ledger statuses.
const (
	LedgerPending   LedgerStatus = "pending"
	LedgerApproved  LedgerStatus = "approved"
	LedgerCompleted LedgerStatus = "completed"
	LedgerCancelled LedgerStatus = "cancelled"
)

var validLedgerStatuses = []LedgerStatus{
	LedgerPending,
	LedgerApproved,
	LedgerCompleted,
	LedgerCancelled,
}

// ledgerEdges lists the allowed transitions. Completed and cancelled are terminal.
var ledgerEdges = map[LedgerStatus][]LedgerStatus{
	LedgerPending:  {LedgerApproved, LedgerCompleted, LedgerCancelled},
	LedgerApproved: {LedgerCompleted, LedgerCancelled},
}

// IsValid reports whether s is a known ledger status.
func (s LedgerStatus) IsValid() bool {
	for _, candidate := range validLedgerStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s LedgerStatus) Terminal() bool {
	return s == LedgerCompleted || s == LedgerCancelled
}

// CanTransition reports whether a ledger record may move from one status to another.
func (s LedgerStatus) CanTransition(to LedgerStatus) bool {
	for _, next := range ledgerEdges[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseLedgerStatus converts raw input into a LedgerStatus.
func ParseLedgerStatus(value string) (LedgerStatus, error) {
	s := LedgerStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid status %q", value)
	}
	return s, nil
}

// TransferAssetStatus returns the asset status implied by a transfer entering status s.
func TransferAssetStatus(s LedgerStatus) AssetStatus {
	if s == LedgerPending || s == LedgerApproved {
		return AssetPendingTransfer
	}
	return AssetAvailable
}

// AssignmentAssetStatus returns the asset status implied by an assignment entering status s.
func AssignmentAssetStatus(s LedgerStatus) AssetStatus {
	if s == LedgerPending || s == LedgerApproved {
		return AssetAssigned
	}
	return AssetAvailable
}

// Transfer represents an asset moving between bases.
type Transfer struct {
	ID                int64        `json:"id"`
	AssetID           int64        `json:"asset_id"`
	SourceBaseID      int64        `json:"source_base_id"`
	DestinationBaseID int64        `json:"destination_base_id"`
	TransferDate      string       `json:"transfer_date"`
	Reason            string       `json:"reason,omitempty"`
	Status            LedgerStatus `json:"status"`
	Quantity          int          `json:"quantity"` // moved quantity, set on completion
	InitiatedBy       int64        `json:"initiated_by"`
	ReceivedBy        *int64       `json:"received_by,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty"`

	// Joined fields (not always populated).
	AssetSerialNumber   string `json:"asset_serial_number,omitempty"`
	SourceBaseName      string `json:"source_base_name,omitempty"`
	DestinationBaseName string `json:"destination_base_name,omitempty"`
	InitiatedByUsername string `json:"initiated_by_username,omitempty"`
}

// Assignment represents an asset issued to a member of personnel.
type Assignment struct {
	ID                 int64        `json:"id"`
	AssetID            int64        `json:"asset_id"`
	PersonnelID        int64        `json:"personnel_id"`
	BaseID             int64        `json:"base_id"`
	AssignmentDate     string       `json:"assignment_date"`
	ExpectedReturnDate string       `json:"expected_return_date,omitempty"`
	Purpose            string       `json:"purpose,omitempty"`
	Status             LedgerStatus `json:"status"`
	AssignedBy         int64        `json:"assigned_by"`
	CreatedAt          time.Time    `json:"created_at"`

	AssetSerialNumber string `json:"asset_serial_number,omitempty"`
	PersonnelName     string `json:"personnel_name,omitempty"`
	PersonnelRank     string `json:"personnel_rank,omitempty"`
}

// Purchase records stock received for an asset at its base.
type Purchase struct {
	ID              int64           `json:"id"`
	AssetID         int64           `json:"asset_id"`
	ReceivingBaseID int64           `json:"receiving_base_id"`
	Quantity        int             `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	PurchaseDate    string          `json:"purchase_date"`
	Supplier        string          `json:"supplier,omitempty"`
	RecordedBy      int64           `json:"recorded_by"`
	CreatedAt       time.Time       `json:"created_at"`

	AssetSerialNumber string `json:"asset_serial_number,omitempty"`
	BaseName          string `json:"base_name,omitempty"`
}

// Expenditure records an asset being consumed in full. It is terminal for the asset.
type Expenditure struct {
	ID              int64     `json:"id"`
	AssetID         int64     `json:"asset_id"`
	BaseID          int64     `json:"base_id"`
	Quantity        int       `json:"quantity"`
	Reason          string    `json:"reason"`
	ExpenditureDate string    `json:"expenditure_date"`
	ReportedBy      int64     `json:"reported_by"`
	CreatedAt       time.Time `json:"created_at"`

	AssetSerialNumber string `json:"asset_serial_number,omitempty"`
	BaseName          string `json:"base_name,omitempty"`
}
