package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/model"
)

func TestAssetDistribution(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	truckType, err := e.svc.CreateAssetType(ctx, e.admin, AssetTypeInput{Name: "Truck", Category: "vehicle"})
	require.NoError(t, err)
	e.asset(t, "R1", e.alpha, 5)
	e.asset(t, "R2", e.bravo, 3)
	spent := e.asset(t, "R3", e.alpha, 4)
	two := 2
	_, err = e.svc.CreateAsset(ctx, e.admin, AssetInput{
		AssetTypeID: truckType.ID, ModelName: "HMMWV", SerialNumber: "T1", BaseID: e.alpha, Quantity: &two,
	})
	require.NoError(t, err)
	_, err = e.svc.CreateExpenditure(ctx, e.admin, ExpenditureInput{AssetID: spent.ID, Reason: "lost"})
	require.NoError(t, err)

	all, err := e.svc.AssetDistribution(ctx, e.admin, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.AssetDistribution{
		{AssetTypeID: e.rifle, AssetTypeName: "Rifle", Category: "weapon", Assets: 2, Quantity: 8},
		{AssetTypeID: truckType.ID, AssetTypeName: "Truck", Category: "vehicle", Assets: 1, Quantity: 2},
	}, all)

	home, err := e.svc.AssetDistribution(ctx, e.commander, nil)
	require.NoError(t, err)
	require.Len(t, home, 2)
	assert.Equal(t, 5, home[0].Quantity)
	assert.Equal(t, 2, home[1].Quantity)

	_, err = e.svc.AssetDistribution(ctx, e.commander, &e.bravo)
	assertCode(t, err, apperr.CodeForbidden)
	_, err = e.svc.AssetDistribution(ctx, e.private, nil)
	assertCode(t, err, apperr.CodeForbidden)
}

func activityTypes(list []model.Activity) []string {
	types := make([]string, 0, len(list))
	for _, a := range list {
		types = append(types, a.Type)
	}
	return types
}

func TestRecentActivities(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ammo := e.asset(t, "AMMO1", e.alpha, 10)
	truck := e.asset(t, "TRK1", e.alpha, 2)
	radio := e.asset(t, "RAD1", e.alpha, 1)
	remote := e.asset(t, "B1", e.bravo, 7)
	doe, err := e.svc.CreatePersonnel(ctx, e.commander, PersonnelInput{Name: "Doe", Rank: "Sgt", BaseID: e.alpha})
	require.NoError(t, err)

	_, err = e.svc.CreatePurchase(ctx, e.admin, PurchaseInput{AssetID: ammo.ID, Quantity: 5, PurchaseDate: "2024-03-02"})
	require.NoError(t, err)
	tr, err := e.svc.CreateTransfer(ctx, e.admin, TransferInput{AssetID: truck.ID, DestinationBaseID: e.bravo, TransferDate: "2024-03-05"})
	require.NoError(t, err)
	_, err = e.svc.UpdateTransferStatus(ctx, e.admin, tr.ID, StatusInput{Status: "completed"})
	require.NoError(t, err)
	_, err = e.svc.CreateAssignment(ctx, e.admin, AssignmentInput{AssetID: radio.ID, PersonnelID: doe.ID, AssignmentDate: "2024-03-08"})
	require.NoError(t, err)
	_, err = e.svc.CreateExpenditure(ctx, e.admin, ExpenditureInput{AssetID: remote.ID, Reason: "drill", ExpenditureDate: "2024-03-10"})
	require.NoError(t, err)

	all, err := e.svc.RecentActivities(ctx, e.admin, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		model.ActivityExpenditure, model.ActivityAssignment, model.ActivityTransfer, model.ActivityPurchase,
	}, activityTypes(all))
	assert.Equal(t, model.Activity{
		Type: model.ActivityTransfer, ID: tr.ID, AssetID: truck.ID, AssetSerialNumber: "TRK1", AssetTypeName: "Rifle",
		BaseID: e.alpha, BaseName: "Alpha", Quantity: 2, Status: string(model.LedgerCompleted), Date: "2024-03-05",
	}, all[2])
	assert.Equal(t, 7, all[0].Quantity)

	latest, err := e.svc.RecentActivities(ctx, e.admin, nil, 2)
	require.NoError(t, err)
	assert.Len(t, latest, 2)

	home, err := e.svc.RecentActivities(ctx, e.commander, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{model.ActivityAssignment, model.ActivityTransfer, model.ActivityPurchase}, activityTypes(home))

	// The inbound transfer shows up at the destination too.
	away, err := e.svc.RecentActivities(ctx, e.remote, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{model.ActivityExpenditure, model.ActivityTransfer}, activityTypes(away))

	_, err = e.svc.RecentActivities(ctx, e.private, nil, 0)
	assertCode(t, err, apperr.CodeForbidden)
}

func TestPurchaseSummary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ammo := e.asset(t, "AMMO1", e.alpha, 10)
	remote := e.asset(t, "B1", e.bravo, 1)

	for _, in := range []PurchaseInput{
		{AssetID: ammo.ID, Quantity: 5, UnitCost: decimal.RequireFromString("2.50"), PurchaseDate: "2024-03-02"},
		{AssetID: ammo.ID, Quantity: 3, UnitCost: decimal.RequireFromString("1.50"), PurchaseDate: "2024-04-01"},
		{AssetID: remote.ID, Quantity: 2, UnitCost: decimal.NewFromInt(10), PurchaseDate: "2024-03-10"},
	} {
		_, err := e.svc.CreatePurchase(ctx, e.admin, in)
		require.NoError(t, err)
	}

	all, err := e.svc.PurchaseSummary(ctx, e.admin, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalPurchases)
	assert.Equal(t, 10, all.TotalQuantity)
	assert.True(t, decimal.NewFromInt(37).Equal(all.TotalCost), all.TotalCost.String())
	assert.True(t, decimal.RequireFromString("4.67").Equal(all.AvgUnitCost), all.AvgUnitCost.String())

	march, err := e.svc.PurchaseSummary(ctx, e.admin, ListQuery{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)
	assert.Equal(t, 2, march.TotalPurchases)
	assert.True(t, decimal.RequireFromString("32.5").Equal(march.TotalCost), march.TotalCost.String())
	assert.True(t, decimal.RequireFromString("6.25").Equal(march.AvgUnitCost), march.AvgUnitCost.String())

	home, err := e.svc.PurchaseSummary(ctx, e.commander, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, home.TotalPurchases)
	assert.Equal(t, 8, home.TotalQuantity)
	assert.True(t, decimal.NewFromInt(17).Equal(home.TotalCost), home.TotalCost.String())
	assert.True(t, decimal.NewFromInt(2).Equal(home.AvgUnitCost), home.AvgUnitCost.String())

	_, err = e.svc.PurchaseSummary(ctx, e.commander, ListQuery{BaseID: &e.bravo})
	assertCode(t, err, apperr.CodeForbidden)

	none, err := e.svc.PurchaseSummary(ctx, e.admin, ListQuery{StartDate: "2025-01-01"})
	require.NoError(t, err)
	assert.Zero(t, none.TotalPurchases)
	assert.True(t, none.TotalCost.IsZero())
	assert.True(t, none.AvgUnitCost.IsZero())
}
