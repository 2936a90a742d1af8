package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iho/fundledger/internal/infrastructure/chart"
	"github.com/iho/fundledger/internal/infrastructure/logger"
	"github.com/iho/fundledger/internal/infrastructure/postgres"
)

func migrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", envOr("MIGRATIONS_PATH", "internal/infrastructure/postgres/migrations"), "Migrations directory")

	newMigrator := func(cmd *cobra.Command) *postgres.Migrator {
		log := logger.NewWithWriter(logger.Config{Level: "info", Format: "console"}, cmd.ErrOrStderr())
		return postgres.NewMigrator(databaseURL, migrationsPath, log)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return newMigrator(cmd).Up()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return newMigrator(cmd).Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := newMigrator(cmd).Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
				return nil
			},
		},
	)
	return cmd
}

func chartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Chart of accounts files",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate <file>",
			Short: "Check a chart of accounts file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				coa, err := chart.LoadFile(args[0])
				if err != nil {
					return err
				}
				restricted := "none"
				if acc, ok := coa.RestrictedAccount(); ok {
					restricted = acc.Code
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK: %d accounts, restricted account %s\n", len(coa.Accounts()), restricted)
				return nil
			},
		},
		&cobra.Command{
			Use:   "print [file]",
			Short: "Print a chart of accounts as YAML (the built-in chart without a file)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				coa, err := chart.Load(path)
				if err != nil {
					return err
				}
				out, err := chart.Marshal(coa)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			},
		},
	)
	return cmd
}
