package inventory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/db"
	"github.com/erazemk/kristalball/internal/metrics"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/store"
)

type env struct {
	svc   *Service
	db    *sql.DB
	alpha int64
	bravo int64
	rifle int64

	admin     model.Principal
	commander model.Principal // base_commander at alpha
	officer   model.Principal // logistics_officer at alpha
	remote    model.Principal // base_commander at bravo
	private   model.Principal // user at alpha
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	database := db.NewTestDB(t)

	alpha, err := store.CreateBase(ctx, database, "Alpha", "North")
	require.NoError(t, err)
	bravo, err := store.CreateBase(ctx, database, "Bravo", "South")
	require.NoError(t, err)
	rifle, err := store.CreateAssetType(ctx, database, &model.AssetType{Name: "Rifle", Category: "weapon"})
	require.NoError(t, err)

	principal := func(name string, role model.Role, base *int64) model.Principal {
		u, err := store.CreateUser(ctx, database, &model.User{Username: name, PasswordHash: "x", Role: role, BaseID: base})
		require.NoError(t, err)
		return model.Principal{ID: u.ID, Username: u.Username, Role: u.Role, BaseID: u.BaseID}
	}

	svc := New(database, metrics.New(prometheus.NewRegistry()))
	svc.Now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	return &env{
		svc:       svc,
		db:        database,
		alpha:     alpha.ID,
		bravo:     bravo.ID,
		rifle:     rifle.ID,
		admin:     principal("root", model.RoleAdmin, nil),
		commander: principal("cmdr", model.RoleBaseCommander, &alpha.ID),
		officer:   principal("logi", model.RoleLogisticsOfficer, &alpha.ID),
		remote:    principal("far", model.RoleBaseCommander, &bravo.ID),
		private:   principal("pvt", model.RoleUser, &alpha.ID),
	}
}

func (e *env) asset(t *testing.T, serial string, base int64, quantity int) *model.Asset {
	t.Helper()
	a, err := e.svc.CreateAsset(context.Background(), e.admin, AssetInput{
		AssetTypeID: e.rifle, ModelName: "M4", SerialNumber: serial, BaseID: base, Quantity: &quantity,
	})
	require.NoError(t, err)
	return a
}

func (e *env) auditCount(t *testing.T, entity string, id int64) int {
	t.Helper()
	n, err := store.CountAudit(context.Background(), e.db, entity, id)
	require.NoError(t, err)
	return n
}

func assertCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.CodeOf(err), "error: %v", err)
}

func TestCreateAssetDefaults(t *testing.T) {
	e := newEnv(t)

	a, err := e.svc.CreateAsset(context.Background(), e.officer, AssetInput{
		AssetTypeID: e.rifle, ModelName: "M4", SerialNumber: "RIF100", BaseID: e.alpha,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AssetAvailable, a.Status)
	assert.Equal(t, 1, a.Quantity)
	require.NotNil(t, a.CreatedBy)
	assert.Equal(t, e.officer.ID, *a.CreatedBy)
	assert.Equal(t, 1, e.auditCount(t, model.EntityAsset, a.ID))
}

func TestCreateAssetRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.asset(t, "RIF100", e.alpha, 1)

	_, err := e.svc.CreateAsset(ctx, e.admin, AssetInput{
		AssetTypeID: e.rifle, ModelName: "M4", SerialNumber: "RIF100", BaseID: e.alpha,
	})
	assertCode(t, err, apperr.CodeConflict)
	assert.Contains(t, err.Error(), "already exists")

	_, err = e.svc.CreateAsset(ctx, e.commander, AssetInput{
		AssetTypeID: e.rifle, ModelName: "M4", SerialNumber: "RIF200", BaseID: e.bravo,
	})
	assertCode(t, err, apperr.CodeForbidden)

	_, err = e.svc.CreateAsset(ctx, e.admin, AssetInput{
		AssetTypeID: e.rifle, ModelName: "M4", SerialNumber: "RIF300", BaseID: e.alpha, Status: model.AssetExpended,
	})
	assertCode(t, err, apperr.CodeValidation)

	_, err = e.svc.CreateAsset(ctx, e.admin, AssetInput{
		AssetTypeID: 999, ModelName: "M4", SerialNumber: "RIF400", BaseID: e.alpha,
	})
	assertCode(t, err, apperr.CodeNotFound)
}

func TestUpdateAssetStatusRestricted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.asset(t, "RIF100", e.alpha, 1)

	upd := AssetUpdate{AssetTypeID: e.rifle, ModelName: "M4A1", SerialNumber: "RIF100", Status: model.AssetMaintenance}
	got, err := e.svc.UpdateAsset(ctx, e.commander, a.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, model.AssetMaintenance, got.Status)
	assert.Equal(t, "M4A1", got.ModelName)

	upd.Status = model.AssetAssigned
	_, err = e.svc.UpdateAsset(ctx, e.commander, a.ID, upd)
	assertCode(t, err, apperr.CodeConflict)

	upd.Status = ""
	upd.BaseID = &e.bravo
	_, err = e.svc.UpdateAsset(ctx, e.admin, a.ID, upd)
	assertCode(t, err, apperr.CodeValidation)

	assert.Equal(t, 2, e.auditCount(t, model.EntityAsset, a.ID))
}

func TestDeleteAssetWithHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.asset(t, "RIF100", e.alpha, 1)
	_, err := e.svc.CreateTransfer(ctx, e.admin, TransferInput{AssetID: a.ID, DestinationBaseID: e.bravo})
	require.NoError(t, err)

	err = e.svc.DeleteAsset(ctx, e.admin, a.ID)
	assertCode(t, err, apperr.CodeConflict)

	clean := e.asset(t, "RIF200", e.alpha, 1)
	require.NoError(t, e.svc.DeleteAsset(ctx, e.commander, clean.ID))
	_, err = e.svc.GetAsset(ctx, e.admin, clean.ID)
	assertCode(t, err, apperr.CodeNotFound)
}

func TestCommanderListsOnlyOwnBase(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.asset(t, "A1", e.alpha, 1)
	e.asset(t, "A2", e.alpha, 1)
	remote := e.asset(t, "B1", e.bravo, 1)

	list, err := e.svc.ListAssets(ctx, e.commander, ListQuery{}, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, a := range list {
		assert.Equal(t, e.alpha, a.BaseID)
	}

	_, err = e.svc.ListAssets(ctx, e.commander, ListQuery{BaseID: &e.bravo}, 0)
	assertCode(t, err, apperr.CodeForbidden)

	_, err = e.svc.GetAsset(ctx, e.commander, remote.ID)
	assertCode(t, err, apperr.CodeForbidden)

	all, err := e.svc.ListAssets(ctx, e.admin, ListQuery{}, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	own, err := e.svc.ListAssets(ctx, e.private, ListQuery{}, 0)
	require.NoError(t, err)
	assert.Empty(t, own)

	_, err = e.svc.ListAssets(ctx, e.admin, ListQuery{Status: "lost"}, 0)
	assertCode(t, err, apperr.CodeValidation)
}

func TestCatalogPermissions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateAssetType(ctx, e.commander, AssetTypeInput{Name: "Truck", Category: "vehicle"})
	assertCode(t, err, apperr.CodeForbidden)

	at, err := e.svc.CreateAssetType(ctx, e.officer, AssetTypeInput{Name: "Truck", Category: "vehicle"})
	require.NoError(t, err)
	assert.Equal(t, 1, e.auditCount(t, model.EntityAssetType, at.ID))

	_, err = e.svc.CreateAssetType(ctx, e.officer, AssetTypeInput{Name: "Truck", Category: "vehicle"})
	assertCode(t, err, apperr.CodeConflict)

	b, err := e.svc.CreateBase(ctx, e.commander, BaseInput{Name: "Charlie", Location: "West"})
	require.NoError(t, err)

	_, err = e.svc.UpdateBase(ctx, e.commander, e.bravo, BaseInput{Name: "Bravo", Location: "Moved"})
	assertCode(t, err, apperr.CodeForbidden)

	updated, err := e.svc.UpdateBase(ctx, e.commander, e.alpha, BaseInput{Name: "Alpha", Location: "Moved"})
	require.NoError(t, err)
	assert.Equal(t, "Moved", updated.Location)

	bases, err := e.svc.ListBases(ctx, e.private)
	require.NoError(t, err)
	assert.Len(t, bases, 3)

	require.NoError(t, e.svc.DeleteBase(ctx, e.admin, b.ID))
	err = e.svc.DeleteBase(ctx, e.admin, e.alpha)
	assertCode(t, err, apperr.CodeConflict)
}

func TestPersonnelPermissions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreatePersonnel(ctx, e.officer, PersonnelInput{Name: "Doe", Rank: "Sgt", BaseID: e.alpha})
	assertCode(t, err, apperr.CodeForbidden)

	m, err := e.svc.CreatePersonnel(ctx, e.commander, PersonnelInput{Name: "Doe", Rank: "Sgt", BaseID: e.alpha})
	require.NoError(t, err)

	_, err = e.svc.UpdatePersonnel(ctx, e.commander, m.ID, PersonnelInput{Name: "Doe", Rank: "Sgt", BaseID: e.bravo})
	assertCode(t, err, apperr.CodeForbidden)

	moved, err := e.svc.UpdatePersonnel(ctx, e.admin, m.ID, PersonnelInput{Name: "Doe", Rank: "SSgt", BaseID: e.bravo})
	require.NoError(t, err)
	assert.Equal(t, e.bravo, moved.BaseID)

	list, err := e.svc.ListPersonnel(ctx, e.remote, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
