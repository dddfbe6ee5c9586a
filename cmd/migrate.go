package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/emspay-gateway/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer db.Close()
	goose.SetTableName("schema_migrations")

	if migrateRollback {
		if err := goose.DownContext(ctx, db, migrateDir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		lg.Info("rolled back latest migration", "dir", migrateDir)
		return nil
	}

	if err := goose.UpContext(ctx, db, migrateDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	lg.Info("migrations applied", "dir", migrateDir, "version", version)
	return nil
}
