// Package scheduler triggers the aggregation job on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jonathan/training-dashboard/internal/aggregation"
)

// DefaultRunTimeout bounds a single tick when no timeout is configured.
const DefaultRunTimeout = 5 * time.Minute

// Runner is one invocation of the aggregation job.
type Runner interface {
	Run(ctx context.Context) (*aggregation.Result, error)
}

// RunRecord is the outcome of the most recent invocation.
type RunRecord struct {
	RunID        string    `json:"run_id,omitempty"`
	Trigger      string    `json:"trigger"`
	StartedAt    time.Time `json:"started_at"`
	DurationMS   int64     `json:"duration_ms"`
	Courses      int       `json:"courses"`
	Participants int       `json:"participants"`
	Written      bool      `json:"written"`
	Error        string    `json:"error,omitempty"`
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Schedule string     `json:"schedule"`
	Running  bool       `json:"running"`
	NextRun  *time.Time `json:"next_run,omitempty"`
	LastRun  *RunRecord `json:"last_run,omitempty"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRunTimeout sets the per-invocation timeout.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLocation sets the time zone the schedule is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.location = loc
	}
}

// Scheduler runs a Runner on a cron schedule. Ticks never overlap: a tick
// that fires while the previous one is still running is skipped.
type Scheduler struct {
	spec     string
	job      Runner
	logger   *zap.Logger
	timeout  time.Duration
	location *time.Location

	cron    *cron.Cron
	entryID cron.EntryID

	// base is cancelled when Stop gives up waiting.
	base   context.Context
	cancel context.CancelFunc

	inflight sync.WaitGroup

	mu      sync.RWMutex
	active  int
	stopped bool
	lastRun *RunRecord
}

// New parses spec and registers job. Standard 5-field specs and descriptors
// such as "@hourly" or "@every 30m" are accepted.
func New(spec string, job Runner, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduler requires a job")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		spec:     spec,
		job:      job,
		logger:   logger.Named("scheduler"),
		timeout:  DefaultRunTimeout,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}

	cronLogger := zapLogger{s.logger.Sugar()}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	id, err := s.cron.AddFunc(spec, func() { s.invoke("schedule") })
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.entryID = id
	s.base, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// Start begins firing ticks in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("schedule", s.spec), zap.Duration("run_timeout", s.timeout))
}

// Stop prevents further ticks and waits for an in-flight run to finish.
// If ctx expires first the run is cancelled and ctx's error is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()

	// No run may register with inflight once Wait can begin.
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

// RunNow runs the job immediately in the caller's goroutine. It is subject
// to the same timeout and overlap rules as a scheduled tick. After Stop it
// returns context.Canceled without running.
func (s *Scheduler) RunNow(ctx context.Context) (*aggregation.Result, error) {
	return s.run(ctx, "manual")
}

// Status reports the schedule, whether a run is in flight, and the last outcome.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Schedule: s.spec, Running: s.active > 0}
	if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
		st.NextRun = &next
	}
	if s.lastRun != nil {
		rec := *s.lastRun
		st.LastRun = &rec
	}
	return st
}

func (s *Scheduler) invoke(trigger string) {
	// Failures are already logged and recorded; the next tick is the retry.
	_, _ = s.run(s.base, trigger)
}

func (s *Scheduler) run(parent context.Context, trigger string) (*aggregation.Result, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, context.Canceled
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	s.track(1)
	defer s.track(-1)

	started := time.Now()
	result, err := s.job.Run(ctx)

	if errors.Is(err, aggregation.ErrAlreadyRunning) {
		s.logger.Warn("skipping run, previous run still in progress", zap.String("trigger", trigger))
		return nil, err
	}

	rec := &RunRecord{Trigger: trigger, StartedAt: started, DurationMS: time.Since(started).Milliseconds()}
	if result != nil {
		rec.RunID = result.RunID.String()
		rec.Courses = result.Courses
		rec.Participants = result.Participants
		rec.Written = result.Written
	}
	if err != nil {
		rec.Error = err.Error()
		s.logger.Error("scheduled aggregation failed", zap.String("trigger", trigger), zap.Error(err))
	}

	s.mu.Lock()
	s.lastRun = rec
	s.mu.Unlock()

	return result, err
}

func (s *Scheduler) track(delta int) {
	s.mu.Lock()
	s.active += delta
	s.mu.Unlock()
}
