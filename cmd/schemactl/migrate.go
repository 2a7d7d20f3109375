package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/schema-cache/internal/adapter/postgres/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		latest, err := migrations.LatestVersion()
		if err != nil {
			return err
		}
		log.Info("applying migrations", zap.Uint("target_version", latest))

		if err := migrations.MigrateUp(cfg.PostgresConnString()); err != nil {
			return err
		}
		fmt.Printf("Database is at version %d\n", latest)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the database is at the latest migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := migrations.CheckStatus(cfg.PostgresConnString()); err != nil {
			return err
		}
		fmt.Println("Database schema is up to date")
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
}
