package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vacancy-pipeline/internal/repository/postgresql"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigrate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(ctx context.Context) error {
	e, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer e.close()

	applied, err := postgresql.Migrate(ctx, e.pool)
	if err != nil {
		e.logger.Error("migration failed", zap.Error(err))
		return err
	}
	e.logger.Info("schema up to date", zap.Strings("applied", applied))
	return nil
}
