package inventory

import (
	"context"
	"database/sql"
	"strings"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/policy"
	"github.com/erazemk/kristalball/internal/store"
)

// ExpenditureInput is the payload for recording an asset as consumed. An
// expenditure consumes the whole asset, so Quantity, if given, must equal
// the asset's quantity.
type ExpenditureInput struct {
	AssetID         int64  `json:"asset_id" validate:"required,gt=0"`
	BaseID          int64  `json:"base_id" validate:"omitempty,gt=0"`
	Quantity        int    `json:"quantity" validate:"omitempty,gt=0"`
	Reason          string `json:"reason" validate:"required,max=1000"`
	ExpenditureDate string `json:"expenditure_date" validate:"omitempty,datetime=2006-01-02"`
}

// ExpenditureUpdate is the payload for correcting an expenditure's reason.
type ExpenditureUpdate struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func expenditureScope(e *model.Expenditure) policy.Scope {
	return policy.AtBase(e.BaseID).OwnedBy(e.ReportedBy)
}

func loadExpenditure(ctx context.Context, q store.DBTX, id int64) (*model.Expenditure, error) {
	e, err := store.GetExpenditure(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperr.NotFound("expenditure")
	}
	return e, nil
}

// ListExpenditures returns the expenditures p may see.
func (s *Service) ListExpenditures(ctx context.Context, p model.Principal, q ListQuery) ([]model.Expenditure, error) {
	f, err := filterFor(p, policy.Expenditure, q)
	if err != nil {
		return nil, err
	}
	return store.ListExpenditures(ctx, s.DB, f)
}

// GetExpenditure returns one expenditure.
func (s *Service) GetExpenditure(ctx context.Context, p model.Principal, id int64) (*model.Expenditure, error) {
	e, err := loadExpenditure(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.Expenditure, policy.Read, expenditureScope(e)); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateExpenditure records an asset as consumed. The asset becomes
// expended and can no longer be transferred, assigned or expended again.
func (s *Service) CreateExpenditure(ctx context.Context, p model.Principal, in ExpenditureInput) (*model.Expenditure, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperr.Validation("reason is required")
	}
	if in.Quantity < 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	if err := checkDate("expenditure_date", in.ExpenditureDate); err != nil {
		return nil, err
	}
	date := in.ExpenditureDate
	if date == "" {
		date = s.today()
	}

	id, err := s.mutate(ctx, p, model.AuditCreate, model.EntityExpenditure, in, func(tx *sql.Tx) (int64, error) {
		a, err := loadAsset(ctx, tx, in.AssetID)
		if err != nil {
			return 0, err
		}
		base := in.BaseID
		if base == 0 {
			base = a.BaseID
		}
		if err := policy.Authorize(p, policy.Expenditure, policy.Create, policy.AtBase(base)); err != nil {
			return 0, err
		}
		switch a.Status {
		case model.AssetExpended:
			return 0, apperr.Conflict("asset has already been expended")
		case model.AssetPendingTransfer, model.AssetAssigned:
			return 0, apperr.Newf(apperr.CodeConflict, "asset is %s and cannot be expended", a.Status)
		}
		if base != a.BaseID {
			return 0, apperr.Validation("expenditure base must be the asset's current base")
		}
		quantity := in.Quantity
		if quantity == 0 {
			quantity = a.Quantity
		}
		if quantity <= 0 {
			return 0, apperr.Validation("asset has no quantity to expend")
		}
		if quantity != a.Quantity {
			return 0, apperr.Newf(apperr.CodeValidation, "quantity must equal the asset's quantity of %d", a.Quantity)
		}

		e, err := store.CreateExpenditure(ctx, tx, &model.Expenditure{
			AssetID:         a.ID,
			BaseID:          base,
			Quantity:        quantity,
			Reason:          in.Reason,
			ExpenditureDate: date,
			ReportedBy:      p.ID,
		})
		if err != nil {
			return 0, classify(err, "creating", "expenditure")
		}
		if err := store.SetAssetStatus(ctx, tx, a.ID, model.AssetExpended); err != nil {
			return 0, err
		}
		return e.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return store.GetExpenditure(ctx, s.DB, id)
}

// UpdateExpenditure corrects the recorded reason.
func (s *Service) UpdateExpenditure(ctx context.Context, p model.Principal, id int64, in ExpenditureUpdate) (*model.Expenditure, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperr.Validation("reason is required")
	}

	_, err := s.mutate(ctx, p, model.AuditUpdate, model.EntityExpenditure, in, func(tx *sql.Tx) (int64, error) {
		e, err := loadExpenditure(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Expenditure, policy.Update, expenditureScope(e)); err != nil {
			return 0, err
		}
		return id, store.UpdateExpenditureReason(ctx, tx, id, in.Reason)
	})
	if err != nil {
		return nil, err
	}
	return store.GetExpenditure(ctx, s.DB, id)
}

// DeleteExpenditure removes an expenditure record. The asset stays expended.
func (s *Service) DeleteExpenditure(ctx context.Context, p model.Principal, id int64) error {
	_, err := s.mutate(ctx, p, model.AuditDelete, model.EntityExpenditure, map[string]int64{"id": id}, func(tx *sql.Tx) (int64, error) {
		e, err := loadExpenditure(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Expenditure, policy.Delete, expenditureScope(e)); err != nil {
			return 0, err
		}
		return id, store.DeleteExpenditure(ctx, tx, id)
	})
	return err
}
