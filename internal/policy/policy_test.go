package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/model"
)

func principal(id int64, role model.Role, base int64) model.Principal {
	p := model.Principal{ID: id, Username: string(role), Role: role}
	if base != 0 {
		p.BaseID = &base
	}
	return p
}

var (
	admin     = principal(1, model.RoleAdmin, 0)
	commander = principal(2, model.RoleBaseCommander, 10)
	officer   = principal(3, model.RoleLogisticsOfficer, 10)
	plain     = principal(4, model.RoleUser, 10)
	drifter   = principal(5, model.RoleUser, 0)
	unposted  = principal(6, model.RoleBaseCommander, 0)
)

func TestAuthorize(t *testing.T) {
	home := AtBase(10)
	away := AtBase(20)

	tests := []struct {
		name  string
		p     model.Principal
		res   Resource
		act   Action
		scope Scope
		want  bool
	}{
		{"admin anything", admin, Audit, Read, Scope{}, true},
		{"admin deletes transfer", admin, Transfer, Delete, away, true},

		{"everyone reads bases", drifter, Base, Read, away, true},
		{"everyone reads asset types", plain, AssetType, Read, Scope{}, true},
		{"commander creates base", commander, Base, Create, Scope{}, true},
		{"commander updates own base", commander, Base, Update, home, true},
		{"commander cannot update other base", commander, Base, Update, away, false},
		{"officer cannot create base", officer, Base, Create, Scope{}, false},

		{"officer writes asset types", officer, AssetType, Create, Scope{}, true},
		{"commander cannot write asset types", commander, AssetType, Update, Scope{}, false},

		{"commander creates asset at home", commander, Asset, Create, home, true},
		{"officer updates asset at home", officer, Asset, Update, home, true},
		{"commander cannot touch other base asset", commander, Asset, Update, away, false},
		{"commander cannot read other base asset", commander, Asset, Read, away, false},
		{"user cannot create asset", plain, Asset, Create, home, false},
		{"user reads own asset", plain, Asset, Read, away.OwnedBy(4), true},
		{"user cannot read others asset", plain, Asset, Read, home.OwnedBy(2), false},
		{"unposted commander denied", unposted, Asset, Read, home, false},

		{"commander manages personnel", commander, Personnel, Create, home, true},
		{"officer cannot manage personnel", officer, Personnel, Create, home, false},
		{"officer reads personnel", officer, Personnel, Read, home, true},

		{"officer records purchase", officer, Purchase, Create, home, true},
		{"officer cannot delete purchase", officer, Purchase, Delete, home, false},
		{"commander records expenditure", commander, Expenditure, Create, home, true},
		{"user cannot record expenditure", plain, Expenditure, Create, home, false},
		{"officer logs maintenance at home", officer, Maintenance, Create, home, true},
		{"commander cannot log maintenance away", commander, Maintenance, Update, away, false},
		{"officer cannot delete maintenance", officer, Maintenance, Delete, home, false},
		{"user cannot log maintenance", plain, Maintenance, Create, home, false},

		{"user requests transfer from own base", plain, Transfer, Create, home, true},
		{"user cannot request from other base", plain, Transfer, Create, away, false},
		{"baseless user cannot request", drifter, Assignment, Create, home, false},
		{"commander completes inbound transfer", commander, Transfer, UpdateStatus, AtBase(20, 10), true},
		{"commander cannot complete unrelated transfer", commander, Transfer, UpdateStatus, AtBase(20, 30), false},
		{"officer cannot transition", officer, Assignment, UpdateStatus, home, false},
		{"user cannot transition own request", plain, Transfer, UpdateStatus, home.OwnedBy(4), false},
		{"user edits own request", plain, Transfer, Update, away.OwnedBy(4), true},
		{"commander cannot delete assignment", commander, Assignment, Delete, home, false},

		{"commander reads dashboard", commander, Dashboard, Read, home, true},
		{"commander cannot read other dashboard", commander, Dashboard, Read, away, false},
		{"user cannot read dashboard", plain, Dashboard, Read, home, false},

		{"commander cannot read audit", commander, Audit, Read, home, false},
		{"commander cannot manage users", commander, User, Create, home, false},
		{"unknown role denied", principal(9, model.Role("manager"), 10), Base, Read, home, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.p, tt.res, tt.act, tt.scope)
			if tt.want {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
		})
	}
}

func TestFilter(t *testing.T) {
	f, err := Filter(admin, Transfer)
	require.NoError(t, err)
	assert.Nil(t, f.BaseID)
	assert.Nil(t, f.OwnerID)

	f, err = Filter(commander, Asset)
	require.NoError(t, err)
	require.NotNil(t, f.BaseID)
	assert.Equal(t, int64(10), *f.BaseID)
	assert.Nil(t, f.OwnerID)

	f, err = Filter(plain, Assignment)
	require.NoError(t, err)
	assert.Nil(t, f.BaseID)
	require.NotNil(t, f.OwnerID)
	assert.Equal(t, int64(4), *f.OwnerID)

	f, err = Filter(plain, Base)
	require.NoError(t, err)
	assert.Nil(t, f.BaseID)

	_, err = Filter(unposted, Asset)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = Filter(officer, Audit)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = Filter(plain, Dashboard)
	assert.ErrorIs(t, err, ErrForbidden)
}
