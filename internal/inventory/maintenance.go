package inventory

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/policy"
	"github.com/erazemk/kristalball/internal/store"
)

// MaintenanceInput is the payload for logging service work on an asset.
type MaintenanceInput struct {
	AssetID         int64           `json:"asset_id" validate:"required,gt=0"`
	MaintenanceDate string          `json:"maintenance_date" validate:"omitempty,datetime=2006-01-02"`
	Type            string          `json:"type" validate:"required,max=100"`
	Description     string          `json:"description" validate:"max=1000"`
	Cost            decimal.Decimal `json:"cost"`
	Technician      string          `json:"technician" validate:"max=200"`
}

// MaintenanceUpdate is the payload for correcting a maintenance record.
// The asset cannot change.
type MaintenanceUpdate struct {
	MaintenanceDate string          `json:"maintenance_date" validate:"required,datetime=2006-01-02"`
	Type            string          `json:"type" validate:"required,max=100"`
	Description     string          `json:"description" validate:"max=1000"`
	Cost            decimal.Decimal `json:"cost"`
	Technician      string          `json:"technician" validate:"max=200"`
}

func checkMaintenance(kind, date string, cost decimal.Decimal) error {
	if strings.TrimSpace(kind) == "" {
		return apperr.Validation("type is required")
	}
	if cost.IsNegative() {
		return apperr.Validation("cost must not be negative")
	}
	return checkDate("maintenance_date", date)
}

func maintenanceScope(m *model.MaintenanceRecord) policy.Scope {
	return policy.AtBase(m.BaseID).OwnedBy(m.RecordedBy)
}

func loadMaintenance(ctx context.Context, q store.DBTX, id int64) (*model.MaintenanceRecord, error) {
	m, err := store.GetMaintenance(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("maintenance record")
	}
	return m, nil
}

// ListMaintenance returns the maintenance records p may see.
func (s *Service) ListMaintenance(ctx context.Context, p model.Principal, q ListQuery) ([]model.MaintenanceRecord, error) {
	f, err := filterFor(p, policy.Maintenance, q)
	if err != nil {
		return nil, err
	}
	return store.ListMaintenance(ctx, s.DB, f)
}

// AssetMaintenance returns the maintenance history of one asset.
func (s *Service) AssetMaintenance(ctx context.Context, p model.Principal, assetID int64) ([]model.MaintenanceRecord, error) {
	if _, err := s.GetAsset(ctx, p, assetID); err != nil {
		return nil, err
	}
	return s.ListMaintenance(ctx, p, ListQuery{AssetID: &assetID})
}

// GetMaintenance returns one maintenance record.
func (s *Service) GetMaintenance(ctx context.Context, p model.Principal, id int64) (*model.MaintenanceRecord, error) {
	m, err := loadMaintenance(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.Maintenance, policy.Read, maintenanceScope(m)); err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMaintenance logs service work on an asset at its current base.
// Expended assets take no further maintenance.
func (s *Service) CreateMaintenance(ctx context.Context, p model.Principal, in MaintenanceInput) (*model.MaintenanceRecord, error) {
	if err := checkMaintenance(in.Type, in.MaintenanceDate, in.Cost); err != nil {
		return nil, err
	}
	date := in.MaintenanceDate
	if date == "" {
		date = s.today()
	}

	id, err := s.mutate(ctx, p, model.AuditCreate, model.EntityMaintenance, in, func(tx *sql.Tx) (int64, error) {
		a, err := loadAsset(ctx, tx, in.AssetID)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Maintenance, policy.Create, policy.AtBase(a.BaseID)); err != nil {
			return 0, err
		}
		if a.Status == model.AssetExpended {
			return 0, apperr.Conflict("asset has been expended")
		}

		m, err := store.CreateMaintenance(ctx, tx, &model.MaintenanceRecord{
			AssetID:         a.ID,
			BaseID:          a.BaseID,
			MaintenanceDate: date,
			Type:            in.Type,
			Description:     in.Description,
			Cost:            in.Cost,
			Technician:      in.Technician,
			RecordedBy:      p.ID,
		})
		if err != nil {
			return 0, classify(err, "creating", "maintenance record")
		}
		return m.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return store.GetMaintenance(ctx, s.DB, id)
}

// UpdateMaintenance corrects a maintenance record.
func (s *Service) UpdateMaintenance(ctx context.Context, p model.Principal, id int64, in MaintenanceUpdate) (*model.MaintenanceRecord, error) {
	if in.MaintenanceDate == "" {
		return nil, apperr.Validation("maintenance_date is required")
	}
	if err := checkMaintenance(in.Type, in.MaintenanceDate, in.Cost); err != nil {
		return nil, err
	}

	_, err := s.mutate(ctx, p, model.AuditUpdate, model.EntityMaintenance, in, func(tx *sql.Tx) (int64, error) {
		m, err := loadMaintenance(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Maintenance, policy.Update, maintenanceScope(m)); err != nil {
			return 0, err
		}
		m.MaintenanceDate = in.MaintenanceDate
		m.Type = in.Type
		m.Description = in.Description
		m.Cost = in.Cost
		m.Technician = in.Technician
		return id, store.UpdateMaintenance(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}
	return store.GetMaintenance(ctx, s.DB, id)
}

// DeleteMaintenance removes a maintenance record.
func (s *Service) DeleteMaintenance(ctx context.Context, p model.Principal, id int64) error {
	_, err := s.mutate(ctx, p, model.AuditDelete, model.EntityMaintenance, map[string]int64{"id": id}, func(tx *sql.Tx) (int64, error) {
		m, err := loadMaintenance(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Maintenance, policy.Delete, maintenanceScope(m)); err != nil {
			return 0, err
		}
		return id, store.DeleteMaintenance(ctx, tx, id)
	})
	return err
}
