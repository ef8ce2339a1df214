package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/training-dashboard/internal/aggregation"
	"github.com/jonathan/training-dashboard/internal/observability"
	"github.com/jonathan/training-dashboard/internal/storage"
)

var aggregateDryRun bool

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute the dashboard summary once",
	Long: `Reads every course and participant document, computes the dashboard summary and
replaces the stored summary document. This is the entry point an external hourly
scheduler invokes.`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().BoolVar(&aggregateDryRun, "dry-run", false, "Compute and validate the summary without writing it")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	backend, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := backend.Close(context.Background()); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	job := aggregation.NewJob(backend, aggregation.Options{
		DryRun: cfg.DryRun,
		Logger: logger.With(zap.String("store", cfg.Store.Backend)),
	})

	result, err := job.Run(ctx)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	if cfg.Verbose || cfg.DryRun {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintRunResult(result)
		printer.PrintSummary(&result.Summary)
	}
	return nil
}
