package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesTables(t *testing.T) {
	database := NewTestDB(t)

	for _, table := range []string{
		"users", "bases", "asset_types", "assets", "personnel",
		"purchases", "transfers", "assignments", "expenditures", "audit_log",
	} {
		var name string
		err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	database := NewTestDB(t)
	require.NoError(t, Migrate(context.Background(), database, zerolog.Nop()))
}

func TestForeignKeysEnforced(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(
		`INSERT INTO assets (asset_type_id, model_name, serial_number, base_id) VALUES (99, 'M4', 'X1', 42)`,
	)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err), "expected FK violation, got %v", err)
}

func TestUniqueViolationDetected(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO bases (name, location) VALUES ('Alpha', 'North')`)
	require.NoError(t, err)

	_, err = database.Exec(`INSERT INTO bases (name, location) VALUES ('Alpha', 'South')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(errors.New("UNIQUE but not sqlite")))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	database := NewTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO bases (name, location) VALUES ('Bravo', 'East')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM bases`).Scan(&count))
	assert.Zero(t, count)

	err = WithTx(ctx, database, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO bases (name, location) VALUES ('Bravo', 'East')`)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM bases`).Scan(&count))
	assert.Equal(t, 1, count)
}
