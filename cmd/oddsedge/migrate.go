package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/oddsedge/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long:  `Applies the embedded schema. Every statement is idempotent, so running it twice is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := bootstrap(ctx); err != nil {
			return err
		}

		db, err := database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}
		appLog.WithField("statements", len(database.SchemaStatements())).Info("Schema applied")
		return nil
	},
}
