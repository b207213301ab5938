package main

import (
	"devmatch/internal/database/seeder"

	"github.com/spf13/cobra"
)

var seedDemo bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the skill catalog and, optionally, demo profiles",
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

		return seeder.Runner{Seeders: seeder.Defaults(seedDemo), Logger: log}.Run(cmd.Context(), db)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "also insert demo developer profiles")
	rootCmd.AddCommand(seedCmd)
}
