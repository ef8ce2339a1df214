package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/training-dashboard/internal/config"
)

// resolveConfig layers defaults, the config file, the environment and any
// explicitly set flags, then validates the result.
func resolveConfig(cmd *cobra.Command, getenv func(string) string) (config.Config, error) {
	cfg := config.Default()

	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded.MergeWithDefaults(config.Default())
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("store") {
		cfg.Store.Backend = storeBackend
	}
	if flags.Changed("mongo-uri") {
		cfg.Store.MongoURI = mongoURI
	}
	if flags.Changed("mongo-db") {
		cfg.Store.MongoDatabase = mongoDB
	}
	if flags.Changed("db-url") {
		cfg.Store.DatabaseURL = databaseURL
	}
	if flags.Changed("seed") {
		cfg.Store.SeedFile = seedFile
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = aggregateDryRun || scheduleDryRun
	}
	if flags.Changed("schedule") {
		cfg.Schedule = scheduleSpec
	}
	if flags.Changed("timeout") {
		cfg.RunTimeout = scheduleTimeout
	}
	if flags.Changed("port") {
		cfg.HTTPPort = schedulePort
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
