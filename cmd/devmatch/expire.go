package main

import (
	"devmatch/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire match requests left pending longer than match.expire_after",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		c, err := app.NewContainer(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		n, err := c.MatchUC.ExpireStale(cmd.Context())
		if err != nil {
			log.Error("expiry sweep failed", zap.Error(err))
			return err
		}
		log.Info("expiry sweep finished", zap.Int("expired", n), zap.Duration("older_than", cfg.Match.ExpireAfter))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(expireCmd)
}
