package cmd

import (
	"context"

	"skillhub/backend/config"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "skillhub",
	Short: "Learning platform backend",
	Long:  "skillhub serves the learning platform API and the Razorpay order and verification functions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("db-driver", "", "Record store driver, postgres or sqlite (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("log-mode", "", "dev or prod (overrides LOG_MODE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
}

// bootstrap loads configuration, applies flag overrides and opens the
// logger and record store.
func bootstrap(cmd *cobra.Command) (*config.Config, *utils.Logger, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.DBDriver = v
	}
	if v, _ := cmd.Flags().GetString("log-mode"); v != "" {
		cfg.LogMode = v
	}

	logger, err := utils.InitLogger(cfg.LogMode)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := store.InitDB(cfg)
	if err != nil {
		logger.Sync()
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}
