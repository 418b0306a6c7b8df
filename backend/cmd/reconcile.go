package cmd

import (
	"fmt"

	"skillhub/backend/jobs"
	"skillhub/backend/server"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Restore enrollments for verified purchases that lack one",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, db, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		srv := server.New(cfg, db, logger)
		n, err := jobs.RunReconcile(cmd.Context(), srv.Manager, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %d enrollment(s)\n", n)
		return nil
	},
}
