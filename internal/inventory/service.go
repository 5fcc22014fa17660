// Package inventory implements the catalog and ledger operations. Every
// mutation checks the access policy, runs in one transaction together with
// its audit entry and only then reports success.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/db"
	"github.com/erazemk/kristalball/internal/metrics"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/policy"
	"github.com/erazemk/kristalball/internal/store"
)

// DateLayout is the format of every ledger date.
const DateLayout = "2006-01-02"

// Service runs inventory operations against a database.
type Service struct {
	DB      *sql.DB
	Metrics *metrics.Metrics

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// New creates a Service.
func New(database *sql.DB, m *metrics.Metrics) *Service {
	return &Service{DB: database, Metrics: m, Now: time.Now}
}

// ListQuery holds the optional list filters a caller may request.
type ListQuery struct {
	BaseID    *int64
	AssetID   *int64
	Status    string
	StartDate string
	EndDate   string
}

func (s *Service) today() string {
	if s.Now == nil {
		return time.Now().Format(DateLayout)
	}
	return s.Now().Format(DateLayout)
}

// mutate runs fn and the audit insert for the entity id it returns in one
// transaction.
func (s *Service) mutate(ctx context.Context, p model.Principal, action, entity string, details any, fn func(tx *sql.Tx) (int64, error)) (int64, error) {
	var id int64
	err := db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if id, err = fn(tx); err != nil {
			return err
		}
		return store.InsertAudit(ctx, tx, p.ID, action, entity, id, details)
	})
	if err != nil {
		return 0, err
	}

	s.Metrics.IncAudit(entity, action)
	zerolog.Ctx(ctx).Info().
		Str("entity", entity).
		Int64("entity_id", id).
		Str("action", action).
		Int64("user_id", p.ID).
		Msg(entity + " " + pastTense(action))
	return id, nil
}

func pastTense(action string) string {
	switch action {
	case model.AuditCreate:
		return "created"
	case model.AuditDelete:
		return "deleted"
	case model.AuditUpdateStatus:
		return "status changed"
	}
	return "updated"
}

// filterFor merges the caller's requested filters with the policy restriction.
func filterFor(p model.Principal, res policy.Resource, q ListQuery) (store.Filter, error) {
	rf, err := policy.Filter(p, res)
	if err != nil {
		return store.Filter{}, err
	}
	if err := checkDate("start_date", q.StartDate); err != nil {
		return store.Filter{}, err
	}
	if err := checkDate("end_date", q.EndDate); err != nil {
		return store.Filter{}, err
	}

	f := store.Filter{
		BaseID:    q.BaseID,
		OwnerID:   rf.OwnerID,
		AssetID:   q.AssetID,
		Status:    q.Status,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	}
	if rf.BaseID != nil {
		if q.BaseID != nil && *q.BaseID != *rf.BaseID {
			return store.Filter{}, policy.ErrForbidden
		}
		f.BaseID = rf.BaseID
	}
	return f, nil
}

func checkDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return apperr.Newf(apperr.CodeValidation, "%s must be a date in YYYY-MM-DD format", field)
	}
	return nil
}

// classify turns constraint failures into client errors and wraps the rest.
func classify(err error, op, entity string) error {
	if err == nil {
		return nil
	}
	if apperr.As(err) != nil {
		return err
	}
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Wrap(apperr.CodeConflict, err, entity+" already exists")
	case db.IsForeignKeyViolation(err):
		if op == "deleting" {
			return apperr.Wrap(apperr.CodeConflict, err, entity+" is still referenced by other records")
		}
		return apperr.Wrap(apperr.CodeValidation, err, "referenced record does not exist")
	}
	return fmt.Errorf("%s %s: %w", op, entity, err)
}

func loadAsset(ctx context.Context, q store.DBTX, id int64) (*model.Asset, error) {
	a, err := store.GetAsset(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("asset")
	}
	return a, nil
}

func requireBase(ctx context.Context, q store.DBTX, id int64, what string) (*model.Base, error) {
	b, err := store.GetBase(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound(what)
	}
	return b, nil
}
