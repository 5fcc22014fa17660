package inventory

import (
	"context"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/policy"
	"github.com/erazemk/kristalball/internal/store"
)

// MetricsQuery selects the base and period of a dashboard summary.
type MetricsQuery struct {
	BaseID    *int64
	StartDate string
	EndDate   string
}

func (s *Service) reportBase(p model.Principal, requested *int64) (*int64, error) {
	rf, err := policy.Filter(p, policy.Dashboard)
	if err != nil {
		return nil, err
	}
	if rf.BaseID == nil {
		return requested, nil
	}
	if requested != nil && *requested != *rf.BaseID {
		return nil, policy.ErrForbidden
	}
	return rf.BaseID, nil
}

// Inventory returns current holdings per base and asset type.
func (s *Service) Inventory(ctx context.Context, p model.Principal, baseID *int64) ([]model.Inventory, error) {
	base, err := s.reportBase(p, baseID)
	if err != nil {
		return nil, err
	}
	return store.ListInventory(ctx, s.DB, base)
}

// DashboardMetrics summarizes asset movement for a base (or every base)
// over a period. The closing balance is the quantity held at the end of the
// period; the opening balance is derived from it by undoing the period's
// movements.
func (s *Service) DashboardMetrics(ctx context.Context, p model.Principal, q MetricsQuery) (*model.Metrics, error) {
	base, err := s.reportBase(p, q.BaseID)
	if err != nil {
		return nil, err
	}
	if err := checkDate("start_date", q.StartDate); err != nil {
		return nil, err
	}
	if err := checkDate("end_date", q.EndDate); err != nil {
		return nil, err
	}
	if q.StartDate != "" && q.EndDate != "" && q.EndDate < q.StartDate {
		return nil, apperr.Validation("end_date must not be before start_date")
	}

	held, err := store.HeldQuantity(ctx, s.DB, base)
	if err != nil {
		return nil, err
	}

	closing := held
	if q.EndDate != "" {
		after, err := store.SumMovements(ctx, s.DB, base, q.EndDate, "", true)
		if err != nil {
			return nil, err
		}
		closing = held - after.Net() + after.Expended
	}

	period, err := store.SumMovements(ctx, s.DB, base, q.StartDate, q.EndDate, false)
	if err != nil {
		return nil, err
	}
	assigned, err := store.AssignedQuantity(ctx, s.DB, base, q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}

	return &model.Metrics{
		OpeningBalance: closing - period.Net() + period.Expended,
		ClosingBalance: closing,
		Purchases:      period.Purchases,
		TransfersIn:    period.TransfersIn,
		TransfersOut:   period.TransfersOut,
		NetMovement:    period.Net(),
		Assigned:       assigned,
		Expended:       period.Expended,
	}, nil
}

// AssetDistribution returns current holdings per asset type.
func (s *Service) AssetDistribution(ctx context.Context, p model.Principal, baseID *int64) ([]model.AssetDistribution, error) {
	base, err := s.reportBase(p, baseID)
	if err != nil {
		return nil, err
	}
	return store.ListAssetDistribution(ctx, s.DB, base)
}

// DefaultActivityLimit is the feed length when the caller does not ask for one.
const DefaultActivityLimit = 10

// RecentActivities returns the latest ledger records, newest ledger date
// first.
func (s *Service) RecentActivities(ctx context.Context, p model.Principal, baseID *int64, limit int) ([]model.Activity, error) {
	base, err := s.reportBase(p, baseID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return store.ListActivities(ctx, s.DB, base, limit)
}

// PurchaseSummary totals the purchases p may see over the query's base and
// date range.
func (s *Service) PurchaseSummary(ctx context.Context, p model.Principal, q ListQuery) (*model.PurchaseSummary, error) {
	f, err := filterFor(p, policy.Purchase, q)
	if err != nil {
		return nil, err
	}
	return store.SummarizePurchases(ctx, s.DB, f)
}

// AuditQuery filters the audit log.
type AuditQuery struct {
	EntityType string
	EntityID   int64
	UserID     int64
	Limit      int
}

// ListAudit returns audit entries. Only admins may read the audit log.
func (s *Service) ListAudit(ctx context.Context, p model.Principal, q AuditQuery) ([]model.AuditEntry, error) {
	if _, err := policy.Filter(p, policy.Audit); err != nil {
		return nil, err
	}
	return store.ListAudit(ctx, s.DB, store.AuditFilter{
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		UserID:     q.UserID,
		Limit:      q.Limit,
	})
}
