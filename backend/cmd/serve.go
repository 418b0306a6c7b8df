package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"skillhub/backend/jobs"
	"skillhub/backend/server"
	"skillhub/backend/store"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the payment functions and the reconcile scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "Run AutoMigrate before serving")
	serveCmd.Flags().Bool("no-scheduler", false, "Do not start the reconcile scheduler")
}

func runServe(cmd *cobra.Command) error {
	cfg, logger, db, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if migrate, err := cmd.Flags().GetBool("migrate"); err != nil || migrate {
		if err := store.AutoMigrate(db); err != nil {
			logger.Error("migration failed", "error", err)
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, db, logger)

	if off, _ := cmd.Flags().GetBool("no-scheduler"); !off && cfg.ReconcileSchedule != "" {
		if _, err := jobs.StartReconcileScheduler(ctx, cfg.ReconcileSchedule, srv.Manager, logger); err != nil {
			logger.Error("reconcile scheduler not started", "schedule", cfg.ReconcileSchedule, "error", err)
			return err
		}
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = srv.App.Shutdown()
	}()

	logger.Info("listening", "port", cfg.ServerPort)
	return srv.App.Listen(":" + cfg.ServerPort)
}
