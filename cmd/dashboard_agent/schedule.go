package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/training-dashboard/internal/aggregation"
	"github.com/jonathan/training-dashboard/internal/scheduler"
	"github.com/jonathan/training-dashboard/internal/server"
	"github.com/jonathan/training-dashboard/internal/server/ratelimit"
	"github.com/jonathan/training-dashboard/internal/storage"
)

var (
	scheduleSpec       string
	scheduleTimeout    string
	schedulePort       int
	scheduleRunOnStart bool
	scheduleDryRun     bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the aggregation on a cron schedule and serve its status",
	Long: `Starts a long-running agent that recomputes the dashboard summary on a cron schedule
(hourly by default) and serves /health, /dashboard/summary and /status over HTTP.
Runs never overlap; a tick that fires during a run is skipped.`,
	RunE: runSchedule,
}

func init() {
	f := scheduleCmd.Flags()
	f.StringVar(&scheduleSpec, "schedule", "", `Cron spec or descriptor (default "@hourly")`)
	f.StringVar(&scheduleTimeout, "timeout", "", `Per-run timeout (default "5m")`)
	f.IntVar(&schedulePort, "port", 0, "Status server port (default 8080)")
	f.BoolVar(&scheduleRunOnStart, "run-on-start", false, "Run once immediately before the first tick")
	f.BoolVar(&scheduleDryRun, "dry-run", false, "Compute and validate without writing")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	backend, err := storage.Open(openCtx, cfg.Store)
	cancel()
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

	sched, err := scheduler.New(cfg.Schedule, job, logger, scheduler.WithRunTimeout(timeout))
	if err != nil {
		return err
	}

	rateLimit := ratelimit.PerMinute(cfg.RateLimitPerMinute)
	if cfg.RateLimitDisabled {
		rateLimit.Enabled = false
	}
	srv := server.New(server.Config{Port: cfg.HTTPPort, RateLimit: rateLimit}, backend, sched, logger)

	sched.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if scheduleRunOnStart {
		g.Go(func() error {
			// A failed first run is recorded in /status; the schedule keeps going.
			_, _ = sched.RunNow(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sched.Stop(stopCtx)
	})

	return g.Wait()
}
