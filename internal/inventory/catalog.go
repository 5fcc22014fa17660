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

// BaseInput is the payload for creating or replacing a base.
type BaseInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Location string `json:"location" validate:"required,max=200"`
}

func (in BaseInput) check() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Location) == "" {
		return apperr.Validation("name and location are required")
	}
	return nil
}

// ListBases returns every base. Bases are reference data visible to all.
func (s *Service) ListBases(ctx context.Context, p model.Principal) ([]model.Base, error) {
	if _, err := policy.Filter(p, policy.Base); err != nil {
		return nil, err
	}
	return store.ListBases(ctx, s.DB)
}

// GetBase returns one base.
func (s *Service) GetBase(ctx context.Context, p model.Principal, id int64) (*model.Base, error) {
	b, err := requireBase(ctx, s.DB, id, "base")
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.Base, policy.Read, policy.AtBase(id)); err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBase adds a base.
func (s *Service) CreateBase(ctx context.Context, p model.Principal, in BaseInput) (*model.Base, error) {
	if err := policy.Authorize(p, policy.Base, policy.Create, policy.Scope{}); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}

	id, err := s.mutate(ctx, p, model.AuditCreate, model.EntityBase, in, func(tx *sql.Tx) (int64, error) {
		b, err := store.CreateBase(ctx, tx, in.Name, in.Location)
		if err != nil {
			return 0, classify(err, "creating", "base")
		}
		return b.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return store.GetBase(ctx, s.DB, id)
}

// UpdateBase replaces a base's name and location.
func (s *Service) UpdateBase(ctx context.Context, p model.Principal, id int64, in BaseInput) (*model.Base, error) {
	if err := in.check(); err != nil {
		return nil, err
	}

	_, err := s.mutate(ctx, p, model.AuditUpdate, model.EntityBase, in, func(tx *sql.Tx) (int64, error) {
		if _, err := requireBase(ctx, tx, id, "base"); err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Base, policy.Update, policy.AtBase(id)); err != nil {
			return 0, err
		}
		return id, classify(store.UpdateBase(ctx, tx, id, in.Name, in.Location), "updating", "base")
	})
	if err != nil {
		return nil, err
	}
	return store.GetBase(ctx, s.DB, id)
}

// DeleteBase removes a base that nothing references.
func (s *Service) DeleteBase(ctx context.Context, p model.Principal, id int64) error {
	_, err := s.mutate(ctx, p, model.AuditDelete, model.EntityBase, map[string]int64{"id": id}, func(tx *sql.Tx) (int64, error) {
		if _, err := requireBase(ctx, tx, id, "base"); err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Base, policy.Delete, policy.AtBase(id)); err != nil {
			return 0, err
		}
		return id, classify(store.DeleteBase(ctx, tx, id), "deleting", "base")
	})
	return err
}

// AssetTypeInput is the payload for creating or replacing an asset type.
type AssetTypeInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Category    string `json:"category" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

func (in AssetTypeInput) check() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Category) == "" {
		return apperr.Validation("name and category are required")
	}
	return nil
}

// ListAssetTypes returns the taxonomy, optionally one category of it.
func (s *Service) ListAssetTypes(ctx context.Context, p model.Principal, category string) ([]model.AssetType, error) {
	if _, err := policy.Filter(p, policy.AssetType); err != nil {
		return nil, err
	}
	return store.ListAssetTypes(ctx, s.DB, category)
}

// GetAssetType returns one asset type.
func (s *Service) GetAssetType(ctx context.Context, p model.Principal, id int64) (*model.AssetType, error) {
	if err := policy.Authorize(p, policy.AssetType, policy.Read, policy.Scope{}); err != nil {
		return nil, err
	}
	at, err := store.GetAssetType(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if at == nil {
		return nil, apperr.NotFound("asset type")
	}
	return at, nil
}

// CreateAssetType adds an asset type.
func (s *Service) CreateAssetType(ctx context.Context, p model.Principal, in AssetTypeInput) (*model.AssetType, error) {
	if err := policy.Authorize(p, policy.AssetType, policy.Create, policy.Scope{}); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}

	id, err := s.mutate(ctx, p, model.AuditCreate, model.EntityAssetType, in, func(tx *sql.Tx) (int64, error) {
		at, err := store.CreateAssetType(ctx, tx, &model.AssetType{
			Name: in.Name, Category: in.Category, Description: in.Description,
		})
		if err != nil {
			return 0, classify(err, "creating", "asset type")
		}
		return at.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return store.GetAssetType(ctx, s.DB, id)
}

// UpdateAssetType replaces an asset type.
func (s *Service) UpdateAssetType(ctx context.Context, p model.Principal, id int64, in AssetTypeInput) (*model.AssetType, error) {
	if err := policy.Authorize(p, policy.AssetType, policy.Update, policy.Scope{}); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}

	_, err := s.mutate(ctx, p, model.AuditUpdate, model.EntityAssetType, in, func(tx *sql.Tx) (int64, error) {
		at, err := store.GetAssetType(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if at == nil {
			return 0, apperr.NotFound("asset type")
		}
		at.Name, at.Category, at.Description = in.Name, in.Category, in.Description
		return id, classify(store.UpdateAssetType(ctx, tx, at), "updating", "asset type")
	})
	if err != nil {
		return nil, err
	}
	return store.GetAssetType(ctx, s.DB, id)
}

// DeleteAssetType removes an asset type no asset uses.
func (s *Service) DeleteAssetType(ctx context.Context, p model.Principal, id int64) error {
	if err := policy.Authorize(p, policy.AssetType, policy.Delete, policy.Scope{}); err != nil {
		return err
	}

	_, err := s.mutate(ctx, p, model.AuditDelete, model.EntityAssetType, map[string]int64{"id": id}, func(tx *sql.Tx) (int64, error) {
		at, err := store.GetAssetType(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if at == nil {
			return 0, apperr.NotFound("asset type")
		}
		return id, classify(store.DeleteAssetType(ctx, tx, id), "deleting", "asset type")
	})
	return err
}
