// Package main provides the entry point for the training dashboard aggregation agent.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/training-dashboard/internal/config"
	"github.com/jonathan/training-dashboard/internal/logging"
)

var (
	configPath   string
	logLevel     string
	verbose      bool
	storeBackend string
	mongoURI     string
	mongoDB      string
	databaseURL  string
	seedFile     string
)

// Resolved in PersistentPreRunE before any subcommand runs.
var (
	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "dashboard_agent",
	Short: "Training dashboard aggregation agent",
	Long: `Recomputes the training dashboard summary from the course and participant collections.

Configuration is read from defaults, then the --config file (JSON or YAML), then environment
variables, then command-line flags. Later sources win.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// help and completion need no store configuration
		if cmd.RunE == nil {
			return nil
		}
		resolved, err := resolveConfig(cmd, os.Getenv)
		if err != nil {
			return err
		}
		cfg = resolved

		l, err := logging.New(cfg.LogLevel, cfg.Verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to config file (.json, .yaml or .yml)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Human-readable logs and boxed output")

	pf.StringVar(&storeBackend, "store", "", "Store backend: mongodb, postgres or memory")
	pf.StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI (defaults to MONGODB_URI env var)")
	pf.StringVar(&mongoDB, "mongo-db", "", "MongoDB database name")
	pf.StringVar(&databaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	pf.StringVar(&seedFile, "seed", "", "JSON fixture to load into the memory store")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_ = logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
