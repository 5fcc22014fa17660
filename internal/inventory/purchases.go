package inventory

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/policy"
	"github.com/erazemk/kristalball/internal/store"
)

// PurchaseInput is the payload for recording a restock of an asset. The
// receiving base defaults to, and must equal, the asset's base.
type PurchaseInput struct {
	AssetID         int64           `json:"asset_id" validate:"required,gt=0"`
	ReceivingBaseID int64           `json:"receiving_base_id" validate:"omitempty,gt=0"`
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	PurchaseDate    string          `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	Supplier        string          `json:"supplier" validate:"max=200"`
}

// PurchaseUpdate is the payload for correcting a purchase. Quantity, asset
// and base are immutable.
type PurchaseUpdate struct {
	UnitCost     decimal.Decimal `json:"unit_cost"`
	PurchaseDate string          `json:"purchase_date" validate:"required,datetime=2006-01-02"`
	Supplier     string          `json:"supplier" validate:"max=200"`
}

func purchaseScope(p *model.Purchase) policy.Scope {
	return policy.AtBase(p.ReceivingBaseID).OwnedBy(p.RecordedBy)
}

func loadPurchase(ctx context.Context, q store.DBTX, id int64) (*model.Purchase, error) {
	p, err := store.GetPurchase(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("purchase")
	}
	return p, nil
}

// ListPurchases returns the purchases p may see.
func (s *Service) ListPurchases(ctx context.Context, p model.Principal, q ListQuery) ([]model.Purchase, error) {
	f, err := filterFor(p, policy.Purchase, q)
	if err != nil {
		return nil, err
	}
	return store.ListPurchases(ctx, s.DB, f)
}

// GetPurchase returns one purchase.
func (s *Service) GetPurchase(ctx context.Context, p model.Principal, id int64) (*model.Purchase, error) {
	pu, err := loadPurchase(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.Purchase, policy.Read, purchaseScope(pu)); err != nil {
		return nil, err
	}
	return pu, nil
}

// CreatePurchase records purchased stock and adds it to the asset's quantity.
func (s *Service) CreatePurchase(ctx context.Context, p model.Principal, in PurchaseInput) (*model.Purchase, error) {
	if in.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	if in.UnitCost.IsNegative() {
		return nil, apperr.Validation("unit_cost must not be negative")
	}
	if err := checkDate("purchase_date", in.PurchaseDate); err != nil {
		return nil, err
	}
	date := in.PurchaseDate
	if date == "" {
		date = s.today()
	}

	id, err := s.mutate(ctx, p, model.AuditCreate, model.EntityPurchase, in, func(tx *sql.Tx) (int64, error) {
		a, err := loadAsset(ctx, tx, in.AssetID)
		if err != nil {
			return 0, err
		}
		base := in.ReceivingBaseID
		if base == 0 {
			base = a.BaseID
		}
		if err := policy.Authorize(p, policy.Purchase, policy.Create, policy.AtBase(base)); err != nil {
			return 0, err
		}
		if base != a.BaseID {
			return 0, apperr.Validation("receiving base must be the asset's current base")
		}
		if a.Status == model.AssetExpended {
			return 0, apperr.Conflict("asset has been expended")
		}

		pu, err := store.CreatePurchase(ctx, tx, &model.Purchase{
			AssetID:         a.ID,
			ReceivingBaseID: base,
			Quantity:        in.Quantity,
			UnitCost:        in.UnitCost,
			PurchaseDate:    date,
			Supplier:        in.Supplier,
			RecordedBy:      p.ID,
		})
		if err != nil {
			return 0, classify(err, "creating", "purchase")
		}
		if err := store.AdjustAssetQuantity(ctx, tx, a.ID, in.Quantity); err != nil {
			return 0, err
		}
		return pu.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return store.GetPurchase(ctx, s.DB, id)
}

// UpdatePurchase corrects the supplier, date and unit cost of a purchase.
func (s *Service) UpdatePurchase(ctx context.Context, p model.Principal, id int64, in PurchaseUpdate) (*model.Purchase, error) {
	if in.UnitCost.IsNegative() {
		return nil, apperr.Validation("unit_cost must not be negative")
	}
	if in.PurchaseDate == "" {
		return nil, apperr.Validation("purchase_date is required")
	}
	if err := checkDate("purchase_date", in.PurchaseDate); err != nil {
		return nil, err
	}

	_, err := s.mutate(ctx, p, model.AuditUpdate, model.EntityPurchase, in, func(tx *sql.Tx) (int64, error) {
		pu, err := loadPurchase(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Purchase, policy.Update, purchaseScope(pu)); err != nil {
			return 0, err
		}
		return id, store.UpdatePurchaseDetails(ctx, tx, id, in.Supplier, in.PurchaseDate, in.UnitCost)
	})
	if err != nil {
		return nil, err
	}
	return store.GetPurchase(ctx, s.DB, id)
}

// DeletePurchase removes a purchase and takes its quantity back off the
// asset. It fails if the asset no longer holds that much.
func (s *Service) DeletePurchase(ctx context.Context, p model.Principal, id int64) error {
	_, err := s.mutate(ctx, p, model.AuditDelete, model.EntityPurchase, map[string]int64{"id": id}, func(tx *sql.Tx) (int64, error) {
		pu, err := loadPurchase(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Purchase, policy.Delete, purchaseScope(pu)); err != nil {
			return 0, err
		}
		a, err := loadAsset(ctx, tx, pu.AssetID)
		if err != nil {
			return 0, err
		}
		if a.Status == model.AssetExpended || a.Quantity < pu.Quantity {
			return 0, apperr.Conflict("purchased quantity has already been consumed")
		}
		if err := store.AdjustAssetQuantity(ctx, tx, a.ID, -pu.Quantity); err != nil {
			return 0, err
		}
		return id, store.DeletePurchase(ctx, tx, id)
	})
	return err
}
