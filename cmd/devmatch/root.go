package main

import (
	"context"
	"fmt"
	"time"

	"devmatch/internal/config"
	dbpostgres "devmatch/internal/database/postgres"
	"devmatch/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const appName = "devmatch"

var (
	cfgFile string
	v       = config.New()

	rootCmd = &cobra.Command{
		Use:          appName,
		Short:        "devmatch suggests compatible teammates for developers and manages match requests",
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is devmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	_ = v.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = v.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("json"))
}

// setup loads the configuration and builds the logger every command uses.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("creating a logger: %w", err)
	}
	return cfg, log, nil
}

func connect(ctx context.Context, cfg config.Config, log *zap.Logger) (*dbpostgres.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout+5*time.Second)
	defer cancel()
	return dbpostgres.Connect(ctx, cfg.Database, log)
}
