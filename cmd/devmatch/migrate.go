package main

import (
	"devmatch/internal/database/migration"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := connect(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := migration.Runner{Logger: log}.Run(cmd.Context(), db.SQLDB())
		if err != nil {
			log.Error("migration failed", zap.Error(err))
			return err
		}
		log.Info("migrations applied", zap.Int("count", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
