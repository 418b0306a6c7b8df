package cmd

import (
	"skillhub/backend/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, db, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		if err := store.AutoMigrate(db); err != nil {
			logger.Error("migration failed", "error", err)
			return err
		}
		logger.Info("migration complete", "tables", len(store.AllModels()))
		return nil
	},
}
