// Command kristalball runs the asset tracking API and its maintenance tasks.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/erazemk/kristalball/internal/config"
	"github.com/erazemk/kristalball/internal/db"
	"github.com/erazemk/kristalball/internal/logger"
)

const serviceName = "kristalball"

var dbPath string

var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "Military asset tracking service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite database path (overrides KRISTALBALL_DB_PATH)")
	rootCmd.AddCommand(serveCmd, initCmd, migrateCmd, seedCmd)
}

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from cfg.
func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.Format(),
	})
}

// openDatabase opens and migrates the database named by --db or the config.
func openDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sql.DB, error) {
	path := cfg.DB.Path
	if dbPath != "" {
		path = dbPath
	}

	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database, log); err != nil {
		database.Close()
		return nil, err
	}
	log.Info().Str("path", path).Msg("database ready")
	return database, nil
}
