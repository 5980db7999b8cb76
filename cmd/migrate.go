/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/assettrack/apiserver/config"
	"github.com/assettrack/apiserver/internal/db"
)

var migrateDownSteps int

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(migrator *migrate.Migrate) error {
			if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migrate up failed: %w", err)
			}
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations (one step by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(migrator *migrate.Migrate) error {
			var err error
			if migrateDownSteps <= 0 {
				err = migrator.Down()
			} else {
				err = migrator.Steps(-migrateDownSteps)
			}
			if err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migrate down failed: %w", err)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back; 0 rolls back everything")
}

func withMigrator(fn func(*migrate.Migrate) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	migrator, err := migrate.New("file://"+cfg.Database.MigrationsPath, db.PostgresURL(cfg.Database))
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	return fn(migrator)
}
