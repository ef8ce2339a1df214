package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/training-dashboard/internal/config"
	"github.com/jonathan/training-dashboard/internal/db"
)

var initSchemaCmd = &cobra.Command{
	Use:   "init-schema",
	Short: "Create the PostgreSQL document tables if they do not exist",
	RunE:  runInitSchema,
}

func init() {
	rootCmd.AddCommand(initSchemaCmd)
}

func runInitSchema(cmd *cobra.Command, _ []string) error {
	if cfg.Store.Backend != config.BackendPostgres {
		return fmt.Errorf("init-schema requires the postgres store (got %q)", cfg.Store.Backend)
	}

	database, err := db.Connect(cmd.Context(), cfg.Store.DatabaseURL, db.Tables{
		Courses:      cfg.Store.Collections.Courses,
		Participants: cfg.Store.Collections.Participants,
		Dashboard:    cfg.Store.Collections.Dashboard,
	})
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.EnsureSchema(cmd.Context()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Schema ready.")
	return nil
}
