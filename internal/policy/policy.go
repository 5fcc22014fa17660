// Package policy decides which principal may perform which action on which rows.
// Every role check in the service goes through this package.
package policy

import (
	"slices"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/model"
)

// Resource names a kind of entity.
type Resource string

// Resources.
const (
	Base        Resource = "base"
	AssetType   Resource = "asset_type"
	Asset       Resource = "asset"
	Personnel   Resource = "personnel"
	Purchase    Resource = "purchase"
	Transfer    Resource = "transfer"
	Assignment  Resource = "assignment"
	Expenditure Resource = "expenditure"
	Maintenance Resource = "maintenance"
	Audit       Resource = "audit"
	User        Resource = "user"
	Dashboard   Resource = "dashboard"
)

// Action is an operation on a resource.
type Action string

// Actions.
const (
	Read         Action = "read"
	Create       Action = "create"
	Update       Action = "update"
	Delete       Action = "delete"
	UpdateStatus Action = "update_status"
)

// Scope describes the row an action targets: the bases it belongs to and
// the principal that created it (zero if unknown or not applicable).
type Scope struct {
	Bases   []int64
	OwnerID int64
}

// AtBase returns a scope for a row of one base.
func AtBase(ids ...int64) Scope {
	return Scope{Bases: ids}
}

// OwnedBy returns a copy of s with the creator set.
func (s Scope) OwnedBy(userID int64) Scope {
	s.OwnerID = userID
	return s
}

func (s Scope) inBase(p model.Principal) bool {
	return p.BaseID != nil && slices.Contains(s.Bases, *p.BaseID)
}

func (s Scope) ownedBy(p model.Principal) bool {
	return s.OwnerID != 0 && s.OwnerID == p.ID
}

// ErrForbidden is returned for every denial.
var ErrForbidden = apperr.Forbidden("insufficient permissions")

// Authorize returns nil if p may perform act on a row of res described by scope.
func Authorize(p model.Principal, res Resource, act Action, scope Scope) error {
	if allowed(p, res, act, scope) {
		return nil
	}
	return ErrForbidden
}

func allowed(p model.Principal, res Resource, act Action, scope Scope) bool {
	if !p.Role.IsValid() {
		return false
	}
	if p.Role == model.RoleAdmin {
		return true
	}

	// Base-scoped roles without a base see nothing beyond reference data.
	stationed := p.BaseID != nil
	commander := p.Role == model.RoleBaseCommander && stationed
	officer := p.Role == model.RoleLogisticsOfficer && stationed
	scoped := commander || officer

	switch res {
	case Base:
		switch act {
		case Read:
			return true
		case Create:
			return p.Role == model.RoleBaseCommander
		case Update, Delete:
			return commander && scope.inBase(p)
		}

	case AssetType:
		if act == Read {
			return true
		}
		return p.Role == model.RoleLogisticsOfficer && (act == Create || act == Update || act == Delete)

	case Asset:
		if act == Read {
			return (scoped && scope.inBase(p)) || scope.ownedBy(p)
		}
		return scoped && scope.inBase(p) && act != UpdateStatus

	case Personnel:
		if act == Read {
			return (scoped && scope.inBase(p)) || scope.ownedBy(p)
		}
		return commander && scope.inBase(p) && act != UpdateStatus

	case Purchase, Expenditure, Maintenance:
		switch act {
		case Read:
			return (scoped && scope.inBase(p)) || scope.ownedBy(p)
		case Create, Update:
			return scoped && scope.inBase(p)
		}

	case Transfer, Assignment:
		switch act {
		case Read:
			return (scoped && scope.inBase(p)) || scope.ownedBy(p)
		case Create:
			return stationed && scope.inBase(p)
		case Update:
			return (scoped && scope.inBase(p)) || scope.ownedBy(p)
		case UpdateStatus:
			return commander && scope.inBase(p)
		}

	case Dashboard:
		return act == Read && scoped && (len(scope.Bases) == 0 || scope.inBase(p))
	}

	return false
}

// RowFilter restricts a list query to the rows a principal may see. A nil
// field places no restriction.
type RowFilter struct {
	BaseID  *int64
	OwnerID *int64
}

// Filter returns the list restriction for p on res, or ErrForbidden if p may
// not list res at all.
func Filter(p model.Principal, res Resource) (RowFilter, error) {
	if !p.Role.IsValid() {
		return RowFilter{}, ErrForbidden
	}
	if p.Role == model.RoleAdmin {
		return RowFilter{}, nil
	}

	switch res {
	case Base, AssetType:
		return RowFilter{}, nil
	case Audit, User:
		return RowFilter{}, ErrForbidden
	}

	if p.Role.BaseScoped() {
		if p.BaseID == nil {
			return RowFilter{}, ErrForbidden
		}
		baseID := *p.BaseID
		return RowFilter{BaseID: &baseID}, nil
	}

	if res == Dashboard {
		return RowFilter{}, ErrForbidden
	}
	ownerID := p.ID
	return RowFilter{OwnerID: &ownerID}, nil
}
