package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/erazemk/kristalball/internal/config"
	"github.com/erazemk/kristalball/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Run database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) (err error) {
	command := "up"
	if len(args) == 1 {
		command = args[0]
	}

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	path := cfg.DB.Path
	if dbPath != "" {
		path = dbPath
	}
	database, err := db.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, database.Close())
	}()

	if err := db.RunMigrations(cmd.Context(), database, log, command); err != nil {
		return err
	}
	log.Info().Str("command", command).Str("path", path).Msg("migrations finished")
	return nil
}
