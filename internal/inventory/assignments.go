package inventory

import (
	"context"
	"database/sql"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/policy"
	"github.com/erazemk/kristalball/internal/store"
)

// AssignmentInput is the payload for issuing an asset to personnel.
type AssignmentInput struct {
	AssetID            int64  `json:"asset_id" validate:"required,gt=0"`
	PersonnelID        int64  `json:"personnel_id" validate:"required,gt=0"`
	AssignmentDate     string `json:"assignment_date" validate:"omitempty,datetime=2006-01-02"`
	ExpectedReturnDate string `json:"expected_return_date" validate:"omitempty,datetime=2006-01-02"`
	Purpose            string `json:"purpose" validate:"max=1000"`
}

// AssignmentUpdate is the payload for editing an open assignment.
type AssignmentUpdate struct {
	ExpectedReturnDate string `json:"expected_return_date" validate:"omitempty,datetime=2006-01-02"`
	Purpose            string `json:"purpose" validate:"max=1000"`
}

func assignmentScope(a *model.Assignment) policy.Scope {
	return policy.AtBase(a.BaseID).OwnedBy(a.AssignedBy)
}

func loadAssignment(ctx context.Context, q store.DBTX, id int64) (*model.Assignment, error) {
	a, err := store.GetAssignment(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("assignment")
	}
	return a, nil
}

// ListAssignments returns the assignments p may see.
func (s *Service) ListAssignments(ctx context.Context, p model.Principal, q ListQuery, personnelID int64) ([]model.Assignment, error) {
	if q.Status != "" {
		if _, err := parseLedgerStatus(q.Status); err != nil {
			return nil, err
		}
	}
	f, err := filterFor(p, policy.Assignment, q)
	if err != nil {
		return nil, err
	}
	return store.ListAssignments(ctx, s.DB, f, personnelID)
}

// GetAssignment returns one assignment.
func (s *Service) GetAssignment(ctx context.Context, p model.Principal, id int64) (*model.Assignment, error) {
	a, err := loadAssignment(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.Assignment, policy.Read, assignmentScope(a)); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAssignment issues an available asset to a member of personnel
// stationed at the asset's base.
func (s *Service) CreateAssignment(ctx context.Context, p model.Principal, in AssignmentInput) (*model.Assignment, error) {
	if err := checkDate("assignment_date", in.AssignmentDate); err != nil {
		return nil, err
	}
	if err := checkDate("expected_return_date", in.ExpectedReturnDate); err != nil {
		return nil, err
	}
	date := in.AssignmentDate
	if date == "" {
		date = s.today()
	}
	if in.ExpectedReturnDate != "" && in.ExpectedReturnDate < date {
		return nil, apperr.Validation("expected_return_date must not be before assignment_date")
	}

	id, err := s.mutate(ctx, p, model.AuditCreate, model.EntityAssignment, in, func(tx *sql.Tx) (int64, error) {
		asset, err := loadAsset(ctx, tx, in.AssetID)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Assignment, policy.Create, policy.AtBase(asset.BaseID)); err != nil {
			return 0, err
		}
		if asset.Status != model.AssetAvailable {
			return 0, apperr.Conflict("asset is not available for assignment")
		}
		person, err := loadPersonnel(ctx, tx, in.PersonnelID)
		if err != nil {
			return 0, err
		}
		if person.BaseID != asset.BaseID {
			return 0, apperr.Validation("personnel is not stationed at the asset's base")
		}

		a, err := store.CreateAssignment(ctx, tx, &model.Assignment{
			AssetID:            asset.ID,
			PersonnelID:        person.ID,
			BaseID:             asset.BaseID,
			AssignmentDate:     date,
			ExpectedReturnDate: in.ExpectedReturnDate,
			Purpose:            in.Purpose,
			AssignedBy:         p.ID,
		})
		if err != nil {
			return 0, classify(err, "creating", "assignment")
		}
		if err := store.SetAssetStatus(ctx, tx, asset.ID, model.AssetAssigned); err != nil {
			return 0, err
		}
		return a.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return store.GetAssignment(ctx, s.DB, id)
}

// UpdateAssignment edits the purpose and expected return date of an open
// assignment.
func (s *Service) UpdateAssignment(ctx context.Context, p model.Principal, id int64, in AssignmentUpdate) (*model.Assignment, error) {
	if err := checkDate("expected_return_date", in.ExpectedReturnDate); err != nil {
		return nil, err
	}

	_, err := s.mutate(ctx, p, model.AuditUpdate, model.EntityAssignment, in, func(tx *sql.Tx) (int64, error) {
		a, err := loadAssignment(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Assignment, policy.Update, assignmentScope(a)); err != nil {
			return 0, err
		}
		if a.Status.Terminal() {
			return 0, apperr.Conflict("only pending or approved assignments can be edited")
		}
		if in.ExpectedReturnDate != "" && in.ExpectedReturnDate < a.AssignmentDate {
			return 0, apperr.Validation("expected_return_date must not be before assignment_date")
		}
		return id, store.UpdateAssignmentDetails(ctx, tx, id, in.Purpose, in.ExpectedReturnDate)
	})
	if err != nil {
		return nil, err
	}
	return store.GetAssignment(ctx, s.DB, id)
}

// UpdateAssignmentStatus moves an assignment along its lifecycle. Closing
// an assignment returns the asset to available.
func (s *Service) UpdateAssignmentStatus(ctx context.Context, p model.Principal, id int64, in StatusInput) (*model.Assignment, error) {
	to, err := parseLedgerStatus(in.Status)
	if err != nil {
		return nil, err
	}

	var from model.LedgerStatus
	_, err = s.mutate(ctx, p, model.AuditUpdateStatus, model.EntityAssignment, in, func(tx *sql.Tx) (int64, error) {
		a, err := loadAssignment(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Assignment, policy.UpdateStatus, assignmentScope(a)); err != nil {
			return 0, err
		}
		from = a.Status
		if !from.CanTransition(to) {
			return 0, apperr.Newf(apperr.CodeConflict, "cannot change assignment status from %s to %s", from, to)
		}

		ok, err := store.SetAssignmentStatus(ctx, tx, id, from, to)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, apperr.Conflict("assignment was modified concurrently")
		}
		return id, store.SetAssetStatus(ctx, tx, a.AssetID, model.AssignmentAssetStatus(to))
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.IncTransition(model.EntityAssignment, string(from), string(to))
	return store.GetAssignment(ctx, s.DB, id)
}

// DeleteAssignment removes a completed or cancelled assignment record.
func (s *Service) DeleteAssignment(ctx context.Context, p model.Principal, id int64) error {
	_, err := s.mutate(ctx, p, model.AuditDelete, model.EntityAssignment, map[string]int64{"id": id}, func(tx *sql.Tx) (int64, error) {
		a, err := loadAssignment(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if err := policy.Authorize(p, policy.Assignment, policy.Delete, assignmentScope(a)); err != nil {
			return 0, err
		}
		if !a.Status.Terminal() {
			return 0, apperr.Conflict("only completed or cancelled assignments can be deleted")
		}
		return id, store.DeleteAssignment(ctx, tx, id)
	})
	return err
}
