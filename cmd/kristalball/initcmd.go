package main

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/erazemk/kristalball/internal/account"
	"github.com/erazemk/kristalball/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema and the initial admin account",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringP("user", "u", "admin", "admin username")
}

func runInit(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	username, _ := cmd.Flags().GetString("user")

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

	password, err := generatePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	admin, err := account.New(database, nil, "", 0).Bootstrap(ctx, username, password)
	if err != nil {
		return err
	}
	if admin == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date; an admin account already exists.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Schema initialized.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Admin account created:")
	fmt.Fprintf(out, "  Username: %s\n", admin.Username)
	fmt.Fprintf(out, "  Password: %s\n", password)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Save this password, it cannot be recovered.")
	return nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
