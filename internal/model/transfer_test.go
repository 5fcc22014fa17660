package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerTransitions(t *testing.T) {
	tests := []struct {
		from, to LedgerStatus
		ok       bool
	}{
		{LedgerPending, LedgerApproved, true},
		{LedgerPending, LedgerCompleted, true},
		{LedgerPending, LedgerCancelled, true},
		{LedgerApproved, LedgerCompleted, true},
		{LedgerApproved, LedgerCancelled, true},
		{LedgerPending, LedgerPending, false},
		{LedgerApproved, LedgerPending, false},
		{LedgerApproved, LedgerApproved, false},
		{LedgerCompleted, LedgerCompleted, false},
		{LedgerCompleted, LedgerCancelled, false},
		{LedgerCancelled, LedgerApproved, false},
		{LedgerCancelled, LedgerCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestLedgerTerminal(t *testing.T) {
	assert.False(t, LedgerPending.Terminal())
	assert.False(t, LedgerApproved.Terminal())
	assert.True(t, LedgerCompleted.Terminal())
	assert.True(t, LedgerCancelled.Terminal())
}

func TestParseLedgerStatus(t *testing.T) {
	s, err := ParseLedgerStatus("approved")
	assert.NoError(t, err)
	assert.Equal(t, LedgerApproved, s)

	_, err = ParseLedgerStatus("shipped")
	assert.Error(t, err)
}

func TestImpliedAssetStatus(t *testing.T) {
	assert.Equal(t, AssetPendingTransfer, TransferAssetStatus(LedgerPending))
	assert.Equal(t, AssetPendingTransfer, TransferAssetStatus(LedgerApproved))
	assert.Equal(t, AssetAvailable, TransferAssetStatus(LedgerCompleted))
	assert.Equal(t, AssetAvailable, TransferAssetStatus(LedgerCancelled))

	assert.Equal(t, AssetAssigned, AssignmentAssetStatus(LedgerPending))
	assert.Equal(t, AssetAssigned, AssignmentAssetStatus(LedgerApproved))
	assert.Equal(t, AssetAvailable, AssignmentAssetStatus(LedgerCompleted))
	assert.Equal(t, AssetAvailable, AssignmentAssetStatus(LedgerCancelled))
}

func TestManualStatusChange(t *testing.T) {
	assert.True(t, ManualStatusChange(AssetAvailable, AssetMaintenance))
	assert.True(t, ManualStatusChange(AssetMaintenance, AssetAvailable))
	assert.True(t, ManualStatusChange(AssetAssigned, AssetAssigned))
	assert.False(t, ManualStatusChange(AssetAvailable, AssetExpended))
	assert.False(t, ManualStatusChange(AssetExpended, AssetAvailable))
	assert.False(t, ManualStatusChange(AssetPendingTransfer, AssetAvailable))
}
