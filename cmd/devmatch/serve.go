package main

import (
	"os"
	"os/signal"
	"syscall"

	"devmatch/internal/app"
	"devmatch/internal/database/migration"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("starting devmatch", zap.String("version", version), zap.String("env", cfg.App.Environment))

		c, err := app.NewContainer(ctx, cfg, log)
		if err != nil {
			log.Error("bootstrap failed", zap.Error(err))
			return err
		}
		defer func() {
			if err := c.Close(); err != nil {
				log.Warn("cleanup error", zap.Error(err))
			}
		}()

		if migrateOnStart {
			n, err := migration.Runner{Logger: log}.Run(ctx, c.DB.SQLDB())
			if err != nil {
				return err
			}
			log.Info("migrations applied", zap.Int("count", n))
		}

		return app.New(c).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}
