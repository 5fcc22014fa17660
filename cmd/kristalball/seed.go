package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/config"
	"github.com/erazemk/kristalball/internal/inventory"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample bases, asset types and assets",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

var seedBases = []inventory.BaseInput{
	{Name: "Fort Bragg", Location: "North Carolina, USA"},
	{Name: "Camp Pendleton", Location: "California, USA"},
	{Name: "Fort Hood", Location: "Texas, USA"},
	{Name: "Naval Base San Diego", Location: "California, USA"},
	{Name: "Joint Base Andrews", Location: "Maryland, USA"},
}

var seedAssetTypes = []inventory.AssetTypeInput{
	{Name: "Rifle", Category: "Weapons", Description: "Standard issue rifle"},
	{Name: "Truck", Category: "Vehicles", Description: "Military transport vehicle"},
	{Name: "Radio", Category: "Communications", Description: "Field radio"},
	{Name: "Ammunition", Category: "Weapons", Description: "Standard ammunition"},
	{Name: "Medical Kit", Category: "Medical", Description: "First aid supplies"},
}

type seedAsset struct {
	typeName, model, serial, base string
	quantity                      int
	status                        model.AssetStatus
}

var seedAssets = []seedAsset{
	{"Rifle", "M4 Carbine", "RIF001", "Fort Bragg", 50, model.AssetAvailable},
	{"Rifle", "M4 Carbine", "RIF002", "Camp Pendleton", 30, model.AssetAvailable},
	{"Truck", "HMMWV", "TRK001", "Fort Bragg", 10, model.AssetAvailable},
	{"Truck", "HMMWV", "TRK002", "Fort Hood", 5, model.AssetMaintenance},
	{"Radio", "AN/PRC-152", "RAD001", "Fort Bragg", 20, model.AssetAvailable},
	{"Ammunition", "5.56mm NATO", "AMM001", "Fort Bragg", 10000, model.AssetAvailable},
	{"Medical Kit", "IFAK", "MED001", "Fort Bragg", 100, model.AssetAvailable},
}

func runSeed(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	database, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, database.Close())
	}()

	admin, err := findAdmin(ctx, database)
	if err != nil {
		return err
	}
	created, err := seed(ctx, inventory.New(database, nil), admin)
	if err != nil {
		return err
	}
	log.Info().Int("created", created).Msg("seed finished")
	return nil
}

// findAdmin returns the first active admin; seeded rows are attributed to it.
func findAdmin(ctx context.Context, database *sql.DB) (model.Principal, error) {
	users, err := store.ListUsers(ctx, database)
	if err != nil {
		return model.Principal{}, err
	}
	for _, u := range users {
		if u.Role == model.RoleAdmin {
			return model.Principal{ID: u.ID, Username: u.Username, Role: u.Role}, nil
		}
	}
	return model.Principal{}, errors.New("no admin account; run init first")
}

// seed creates the sample rows that do not exist yet and returns how many
// were created.
func seed(ctx context.Context, svc *inventory.Service, admin model.Principal) (int, error) {
	created := 0
	skipExisting := func(err error) error {
		if err == nil {
			created++
			return nil
		}
		if apperr.CodeOf(err) == apperr.CodeConflict {
			return nil
		}
		return err
	}

	for _, in := range seedBases {
		_, err := svc.CreateBase(ctx, admin, in)
		if err := skipExisting(err); err != nil {
			return created, fmt.Errorf("seeding base %s: %w", in.Name, err)
		}
	}
	for _, in := range seedAssetTypes {
		_, err := svc.CreateAssetType(ctx, admin, in)
		if err := skipExisting(err); err != nil {
			return created, fmt.Errorf("seeding asset type %s: %w", in.Name, err)
		}
	}

	bases, err := svc.ListBases(ctx, admin)
	if err != nil {
		return created, err
	}
	baseIDs := make(map[string]int64, len(bases))
	for _, b := range bases {
		baseIDs[b.Name] = b.ID
	}
	types, err := svc.ListAssetTypes(ctx, admin, "")
	if err != nil {
		return created, err
	}
	typeIDs := make(map[string]int64, len(types))
	for _, t := range types {
		typeIDs[t.Name] = t.ID
	}

	for _, a := range seedAssets {
		quantity := a.quantity
		_, err := svc.CreateAsset(ctx, admin, inventory.AssetInput{
			AssetTypeID:  typeIDs[a.typeName],
			ModelName:    a.model,
			SerialNumber: a.serial,
			BaseID:       baseIDs[a.base],
			Status:       a.status,
			Quantity:     &quantity,
		})
		if err := skipExisting(err); err != nil {
			return created, fmt.Errorf("seeding asset %s: %w", a.serial, err)
		}
	}
	return created, nil
}
