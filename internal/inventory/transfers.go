package inventory

import (
	"context"
	"database/sql"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/policy"
	"github.com/erazemk/kristalball/internal/store"
)

// TransferInput is the payload for requesting a transfer. The source base
// defaults to the asset's current base.
type TransferInput struct {
	AssetID           int64  `json:"asset_id" validate:"required,gt=0"`
	SourceBaseID      int64  `json:"source_base_id" validate:"omitempty,gt=0"`
	DestinationBaseID int64  `json:"destination_base_id" validate:"required,gt=0"`
	TransferDate      string `json:"transfer_date" validate:"omitempty,datetime=2006-01-02"`
	Reason            string `json:"reason" validate:"max=1000"`
}

// TransferUpdate is the payload for editing a pending transfer.
type TransferUpdate struct {
	TransferDate string `json:"transfer_date" validate:"omitempty,datetime=2006-01-02"`
	Reason       string `json:"reason" validate:"max=1000"`
}

// StatusInput is the payload of a ledger status transition.
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

func transferScope(t *model.Transfer) policy.Scope {
	return policy.AtBase(t.SourceBaseID, t.DestinationBaseID).OwnedBy(t.InitiatedBy)
}

func loadTransfer(ctx context.Context, q store.DBTX, id int64) (*model.Transfer, error) {
	t, err := store.GetTransfer(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound("transfer")
	}
	return t, nil
}

func parseLedgerStatus(value string) (model.LedgerStatus, error) {
	status, err := model.ParseLedgerStatus(value)
	if err != nil {
		return "", apperr.Validation(err.Error())
	}
	return status, nil
}

// ListTransfers returns the transfers p may see. A base filter matches
// either end of the transfer.
func (s *Service) ListTransfers(ctx context.Context, p model.Principal, q ListQuery) ([]model.Transfer, error) {
	if q.Status != "" {
		if _, err := parseLedgerStatus(q.Status); err != nil {
			return nil, err
		}
	}
	f, err := filterFor(p, policy.Transfer, q)
	if err != nil {
		return nil, err
	}
	return store.ListTransfers(ctx, s.DB, f)
}

// GetTransfer returns one transfer.
func (s *Service) GetTransfer(ctx context.Context, p model.Principal, id int64) (*model.Transfer, error) {
	t, err := loadTransfer(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.Transfer, policy.Read, transferScope(t)); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTransfer requests moving an available asset to another base. The
// asset is held as pending_transfer until the transfer completes or is
// cancelled.
func (s *Service) CreateTransfer(ctx context.Context, p model.Principal, in TransferInput) (*model.Transfer, error) {
	if err := checkDate("transfer_date", in.TransferDate); err != nil {
		return nil, err
	}
	date := in.TransferDate
	if date == "" {
		date = s.today()
	}

	id, err := s.mutate(ctx, p, model.AuditCreate, model.EntityTransfer, in, func(tx *sql.Tx) (int64, error) {
		a, err := loadAsset(ctx, tx, in.AssetID)
		if err != nil {
			return 0, err
		}
		source := in.SourceBaseID
		if source == 0 {
			source = a.BaseID
		}
		if err := policy.Authorize(p, policy.Transfer, policy.Create, policy.AtBase(source)); err != nil {
			return 0, err
		}
		if source != a.BaseID {
			return 0, apperr.Validation("source base must be the asset's current base")
		}
		if a.Status != model.AssetAvailable {
			return 0, apperr.Conflict("asset is not available for transfer")
		}
		if in.DestinationBaseID == source {
			return 0, apperr.Validation("destination base must differ from source base")
		}
		if _, err := requireBase(ctx, tx, in.DestinationBaseID, "destination base"); err != nil {
			return 0, err
		}

		t, err := store.CreateTransfer(ctx, tx, &model.Transfer{
			AssetID:           a.ID,
			SourceBaseID:      source,
			DestinationBaseID: in.DestinationBaseID,
			TransferDate:      date,
			Reason:            in.Reason,
			InitiatedBy:       p.ID,
		})
		if err != nil {
			return 0, classify(err, "creating", "transfer")
		}
		if err := store.SetAssetStatus(ctx, tx, a.ID, model.AssetPendingTransfer); err != nil {
			return 0, err
		}
		return t.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return store.GetTransfer(ctx, s.DB, id)
}

// UpdateTransfer edits the date and reason of a pending transfer.
func (s *Service) UpdateTransfer(ctx context.Context, p model.Principal, id int64, in TransferUpdate) (*model.Transfer, error) {
	if err := checkDate("transfer_date", in.TransferDate); err != nil {
		return nil, err
	}

	_, err := s.mutate(ctx, p, model.AuditUpdate, model.EntityTransfer, in, func(tx *sql.Tx) (int64, error) {
		t, err := loadTransfer(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Transfer, policy.Update, transferScope(t)); err != nil {
			return 0, err
		}
		if t.Status != model.LedgerPending {
			return 0, apperr.Conflict("only pending transfers can be edited")
		}
		date := in.TransferDate
		if date == "" {
			date = t.TransferDate
		}
		return id, store.UpdateTransferDetails(ctx, tx, id, date, in.Reason)
	})
	if err != nil {
		return nil, err
	}
	return store.GetTransfer(ctx, s.DB, id)
}

// UpdateTransferStatus moves a transfer along its lifecycle and applies the
// implied change to the asset. Completing moves the asset to the
// destination base.
func (s *Service) UpdateTransferStatus(ctx context.Context, p model.Principal, id int64, in StatusInput) (*model.Transfer, error) {
	to, err := parseLedgerStatus(in.Status)
	if err != nil {
		return nil, err
	}

	var from model.LedgerStatus
	_, err = s.mutate(ctx, p, model.AuditUpdateStatus, model.EntityTransfer, in, func(tx *sql.Tx) (int64, error) {
		t, err := loadTransfer(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Transfer, policy.UpdateStatus, transferScope(t)); err != nil {
			return 0, err
		}
		from = t.Status
		if !from.CanTransition(to) {
			return 0, apperr.Newf(apperr.CodeConflict, "cannot change transfer status from %s to %s", from, to)
		}

		ok, err := store.SetTransferStatus(ctx, tx, id, from, to, p.ID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, apperr.Conflict("transfer was modified concurrently")
		}

		assetStatus := model.TransferAssetStatus(to)
		if to == model.LedgerCompleted {
			return id, store.MoveAsset(ctx, tx, t.AssetID, t.DestinationBaseID, assetStatus)
		}
		return id, store.SetAssetStatus(ctx, tx, t.AssetID, assetStatus)
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.IncTransition(model.EntityTransfer, string(from), string(to))
	return store.GetTransfer(ctx, s.DB, id)
}

// DeleteTransfer removes a completed or cancelled transfer record.
func (s *Service) DeleteTransfer(ctx context.Context, p model.Principal, id int64) error {
	_, err := s.mutate(ctx, p, model.AuditDelete, model.EntityTransfer, map[string]int64{"id": id}, func(tx *sql.Tx) (int64, error) {
		t, err := loadTransfer(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Transfer, policy.Delete, transferScope(t)); err != nil {
			return 0, err
		}
		if !t.Status.Terminal() {
			return 0, apperr.Conflict("only completed or cancelled transfers can be deleted")
		}
		return id, store.DeleteTransfer(ctx, tx, id)
	})
	return err
}
