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

// AssetInput is the payload for registering an asset.
type AssetInput struct {
	AssetTypeID  int64             `json:"asset_type_id" validate:"required,gt=0"`
	ModelName    string            `json:"model_name" validate:"required,max=200"`
	SerialNumber string            `json:"serial_number" validate:"required,max=100"`
	BaseID       int64             `json:"base_id" validate:"required,gt=0"`
	Status       model.AssetStatus `json:"status" validate:"omitempty,oneof=available maintenance"`
	Quantity     *int              `json:"quantity" validate:"omitempty,min=0"`
}

// AssetUpdate is the payload for replacing an asset. The base is not
// editable; assets change base through transfers.
type AssetUpdate struct {
	AssetTypeID  int64             `json:"asset_type_id" validate:"required,gt=0"`
	ModelName    string            `json:"model_name" validate:"required,max=200"`
	SerialNumber string            `json:"serial_number" validate:"required,max=100"`
	BaseID       *int64            `json:"base_id" validate:"omitempty,gt=0"`
	Status       model.AssetStatus `json:"status" validate:"omitempty"`
	Quantity     *int              `json:"quantity" validate:"omitempty,min=0"`
}

func checkAssetFields(modelName, serial string, quantity *int) error {
	if strings.TrimSpace(modelName) == "" || strings.TrimSpace(serial) == "" {
		return apperr.Validation("model_name and serial_number are required")
	}
	if quantity != nil && *quantity < 0 {
		return apperr.Validation("quantity must not be negative")
	}
	return nil
}

func requireAssetType(ctx context.Context, q store.DBTX, id int64) error {
	at, err := store.GetAssetType(ctx, q, id)
	if err != nil {
		return err
	}
	if at == nil {
		return apperr.NotFound("asset type")
	}
	return nil
}

// ListAssets returns the assets p may see.
func (s *Service) ListAssets(ctx context.Context, p model.Principal, q ListQuery, assetTypeID int64) ([]model.Asset, error) {
	if q.Status != "" {
		if _, err := model.ParseAssetStatus(q.Status); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}
	f, err := filterFor(p, policy.Asset, q)
	if err != nil {
		return nil, err
	}
	return store.ListAssets(ctx, s.DB, f, assetTypeID)
}

func assetScope(a *model.Asset) policy.Scope {
	scope := policy.AtBase(a.BaseID)
	if a.CreatedBy != nil {
		scope = scope.OwnedBy(*a.CreatedBy)
	}
	return scope
}

// GetAsset returns one asset.
func (s *Service) GetAsset(ctx context.Context, p model.Principal, id int64) (*model.Asset, error) {
	a, err := loadAsset(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.Asset, policy.Read, assetScope(a)); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAsset registers an asset at a base.
func (s *Service) CreateAsset(ctx context.Context, p model.Principal, in AssetInput) (*model.Asset, error) {
	if err := checkAssetFields(in.ModelName, in.SerialNumber, in.Quantity); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = model.AssetAvailable
	}
	if status != model.AssetAvailable && status != model.AssetMaintenance {
		return nil, apperr.Validation("new assets must be available or in maintenance")
	}
	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}

	id, err := s.mutate(ctx, p, model.AuditCreate, model.EntityAsset, in, func(tx *sql.Tx) (int64, error) {
		if err := policy.Authorize(p, policy.Asset, policy.Create, policy.AtBase(in.BaseID)); err != nil {
			return 0, err
		}
		if _, err := requireBase(ctx, tx, in.BaseID, "base"); err != nil {
			return 0, err
		}
		if err := requireAssetType(ctx, tx, in.AssetTypeID); err != nil {
			return 0, err
		}
		a, err := store.CreateAsset(ctx, tx, &model.Asset{
			AssetTypeID:  in.AssetTypeID,
			ModelName:    in.ModelName,
			SerialNumber: in.SerialNumber,
			BaseID:       in.BaseID,
			Status:       status,
			Quantity:     quantity,
			CreatedBy:    &p.ID,
		})
		if err != nil {
			return 0, classify(err, "creating", "asset with this serial number")
		}
		return a.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return store.GetAsset(ctx, s.DB, id)
}

// UpdateAsset replaces an asset's descriptive fields. Status may only be
// toggled between available and maintenance here.
func (s *Service) UpdateAsset(ctx context.Context, p model.Principal, id int64, in AssetUpdate) (*model.Asset, error) {
	if err := checkAssetFields(in.ModelName, in.SerialNumber, in.Quantity); err != nil {
		return nil, err
	}
	if in.Status != "" && !in.Status.IsValid() {
		return nil, apperr.Newf(apperr.CodeValidation, "invalid asset status %q", in.Status)
	}

	_, err := s.mutate(ctx, p, model.AuditUpdate, model.EntityAsset, in, func(tx *sql.Tx) (int64, error) {
		a, err := loadAsset(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Asset, policy.Update, policy.AtBase(a.BaseID)); err != nil {
			return 0, err
		}
		if in.BaseID != nil && *in.BaseID != a.BaseID {
			return 0, apperr.Validation("an asset changes base only through a transfer")
		}
		if a.Status == model.AssetExpended {
			return 0, apperr.Conflict("asset has been expended")
		}
		if in.Status != "" && !model.ManualStatusChange(a.Status, in.Status) {
			return 0, apperr.Newf(apperr.CodeConflict, "cannot change asset status from %s to %s directly", a.Status, in.Status)
		}
		if in.AssetTypeID != a.AssetTypeID {
			if err := requireAssetType(ctx, tx, in.AssetTypeID); err != nil {
				return 0, err
			}
		}

		a.AssetTypeID = in.AssetTypeID
		a.ModelName = in.ModelName
		a.SerialNumber = in.SerialNumber
		if in.Status != "" {
			a.Status = in.Status
		}
		if in.Quantity != nil {
			a.Quantity = *in.Quantity
		}
		return id, classify(store.UpdateAsset(ctx, tx, a), "updating", "asset with this serial number")
	})
	if err != nil {
		return nil, err
	}
	return store.GetAsset(ctx, s.DB, id)
}

// DeleteAsset removes an asset without ledger history.
func (s *Service) DeleteAsset(ctx context.Context, p model.Principal, id int64) error {
	_, err := s.mutate(ctx, p, model.AuditDelete, model.EntityAsset, map[string]int64{"id": id}, func(tx *sql.Tx) (int64, error) {
		a, err := loadAsset(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Asset, policy.Delete, policy.AtBase(a.BaseID)); err != nil {
			return 0, err
		}
		return id, classify(store.DeleteAsset(ctx, tx, id), "deleting", "asset")
	})
	return err
}

// PersonnelInput is the payload for creating or replacing personnel.
type PersonnelInput struct {
	Name   string `json:"name" validate:"required,max=200"`
	Rank   string `json:"rank" validate:"required,max=50"`
	Unit   string `json:"unit" validate:"max=100"`
	BaseID int64  `json:"base_id" validate:"required,gt=0"`
}

func (in PersonnelInput) check() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Rank) == "" || in.BaseID <= 0 {
		return apperr.Validation("name, rank and base_id are required")
	}
	return nil
}

func personnelScope(m *model.Personnel) policy.Scope {
	scope := policy.AtBase(m.BaseID)
	if m.CreatedBy != nil {
		scope = scope.OwnedBy(*m.CreatedBy)
	}
	return scope
}

func loadPersonnel(ctx context.Context, q store.DBTX, id int64) (*model.Personnel, error) {
	m, err := store.GetPersonnel(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("personnel")
	}
	return m, nil
}

// ListPersonnel returns the personnel p may see.
func (s *Service) ListPersonnel(ctx context.Context, p model.Principal, q ListQuery) ([]model.Personnel, error) {
	f, err := filterFor(p, policy.Personnel, q)
	if err != nil {
		return nil, err
	}
	return store.ListPersonnel(ctx, s.DB, f)
}

// GetPersonnel returns one member of personnel.
func (s *Service) GetPersonnel(ctx context.Context, p model.Principal, id int64) (*model.Personnel, error) {
	m, err := loadPersonnel(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.Personnel, policy.Read, personnelScope(m)); err != nil {
		return nil, err
	}
	return m, nil
}

// CreatePersonnel adds a member of personnel to a base.
func (s *Service) CreatePersonnel(ctx context.Context, p model.Principal, in PersonnelInput) (*model.Personnel, error) {
	if err := in.check(); err != nil {
		return nil, err
	}

	id, err := s.mutate(ctx, p, model.AuditCreate, model.EntityPersonnel, in, func(tx *sql.Tx) (int64, error) {
		if err := policy.Authorize(p, policy.Personnel, policy.Create, policy.AtBase(in.BaseID)); err != nil {
			return 0, err
		}
		if _, err := requireBase(ctx, tx, in.BaseID, "base"); err != nil {
			return 0, err
		}
		m, err := store.CreatePersonnel(ctx, tx, &model.Personnel{
			Name: in.Name, Rank: in.Rank, Unit: in.Unit, BaseID: in.BaseID, CreatedBy: &p.ID,
		})
		if err != nil {
			return 0, classify(err, "creating", "personnel")
		}
		return m.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return store.GetPersonnel(ctx, s.DB, id)
}

// UpdatePersonnel replaces a member's details. Moving them to another base
// requires rights on both bases.
func (s *Service) UpdatePersonnel(ctx context.Context, p model.Principal, id int64, in PersonnelInput) (*model.Personnel, error) {
	if err := in.check(); err != nil {
		return nil, err
	}

	_, err := s.mutate(ctx, p, model.AuditUpdate, model.EntityPersonnel, in, func(tx *sql.Tx) (int64, error) {
		m, err := loadPersonnel(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Personnel, policy.Update, policy.AtBase(m.BaseID)); err != nil {
			return 0, err
		}
		if in.BaseID != m.BaseID {
			if err := policy.Authorize(p, policy.Personnel, policy.Update, policy.AtBase(in.BaseID)); err != nil {
				return 0, err
			}
			if _, err := requireBase(ctx, tx, in.BaseID, "base"); err != nil {
				return 0, err
			}
		}
		m.Name, m.Rank, m.Unit, m.BaseID = in.Name, in.Rank, in.Unit, in.BaseID
		return id, classify(store.UpdatePersonnel(ctx, tx, m), "updating", "personnel")
	})
	if err != nil {
		return nil, err
	}
	return store.GetPersonnel(ctx, s.DB, id)
}

// DeletePersonnel removes a member without assignment history.
func (s *Service) DeletePersonnel(ctx context.Context, p model.Principal, id int64) error {
	_, err := s.mutate(ctx, p, model.AuditDelete, model.EntityPersonnel, map[string]int64{"id": id}, func(tx *sql.Tx) (int64, error) {
		m, err := loadPersonnel(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Personnel, policy.Delete, policy.AtBase(m.BaseID)); err != nil {
			return 0, err
		}
		return id, classify(store.DeletePersonnel(ctx, tx, id), "deleting", "personnel")
	})
	return err
}
