package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/kristalball/internal/db"
	"github.com/erazemk/kristalball/internal/model"
)

type fixture struct {
	db        *sql.DB
	user      *model.User
	alpha     *model.Base
	bravo     *model.Base
	rifle     *model.AssetType
	personnel *model.Personnel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	database := db.NewTestDB(t)

	user, err := CreateUser(ctx, database, &model.User{Username: "clerk", PasswordHash: "hash", Role: model.RoleAdmin})
	require.NoError(t, err)
	alpha, err := CreateBase(ctx, database, "Alpha", "North")
	require.NoError(t, err)
	bravo, err := CreateBase(ctx, database, "Bravo", "South")
	require.NoError(t, err)
	rifle, err := CreateAssetType(ctx, database, &model.AssetType{Name: "Rifle", Category: "weapon"})
	require.NoError(t, err)
	person, err := CreatePersonnel(ctx, database, &model.Personnel{Name: "Doe", Rank: "Sgt", BaseID: alpha.ID, CreatedBy: &user.ID})
	require.NoError(t, err)

	return &fixture{db: database, user: user, alpha: alpha, bravo: bravo, rifle: rifle, personnel: person}
}

func (f *fixture) asset(t *testing.T, serial string, baseID int64, quantity int) *model.Asset {
	t.Helper()
	a, err := CreateAsset(context.Background(), f.db, &model.Asset{
		AssetTypeID:  f.rifle.ID,
		ModelName:    "M4",
		SerialNumber: serial,
		BaseID:       baseID,
		Status:       model.AssetAvailable,
		Quantity:     quantity,
		CreatedBy:    &f.user.ID,
	})
	require.NoError(t, err)
	return a
}
