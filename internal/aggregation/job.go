package aggregation

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/training-dashboard/internal/schemas"
	"github.com/jonathan/training-dashboard/internal/types"
)

// CourseSource reads the complete course collection.
type CourseSource interface {
	ListCourses(ctx context.Context) ([]types.Course, error)
}

// ParticipantSource reads the complete participant collection.
type ParticipantSource interface {
	ListParticipants(ctx context.Context) ([]types.Participant, error)
}

// SummaryWriter fully replaces the stored summary document and returns the
// timestamp the store assigned to the write.
type SummaryWriter interface {
	ReplaceSummary(ctx context.Context, summary *types.DashboardSummary) (time.Time, error)
}

// Store is everything a Job needs from a backend.
type Store interface {
	CourseSource
	ParticipantSource
	SummaryWriter
}

// Options configures a Job.
type Options struct {
	// DryRun computes and validates the summary without writing it.
	DryRun bool
	Logger *zap.Logger
}

// Result describes one completed run.
type Result struct {
	RunID        uuid.UUID              `json:"run_id"`
	StartedAt    time.Time              `json:"started_at"`
	Duration     time.Duration          `json:"duration"`
	Courses      int                    `json:"courses"`
	Participants int                    `json:"participants"`
	Written      bool                   `json:"written"`
	Summary      types.DashboardSummary `json:"summary"`
}

// Job recomputes and persists the dashboard summary.
// A Job is idle or running; Run refuses to start while a run is in flight.
type Job struct {
	store   Store
	opts    Options
	logger  *zap.Logger
	running atomic.Bool
}

// NewJob creates a Job over the given store.
func NewJob(store Store, opts Options) *Job {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{store: store, opts: opts, logger: logger}
}

// Running reports whether a run is in flight.
func (j *Job) Running() bool {
	return j.running.Load()
}

// Run performs one full recompute: fetch both collections concurrently,
// aggregate, validate, and replace the summary document.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	if !j.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer j.running.Store(false)

	result := &Result{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
	log := j.logger.With(zap.String("run_id", result.RunID.String()))
	log.Info("aggregation started", zap.Bool("dry_run", j.opts.DryRun))

	courses, participants, err := j.fetch(ctx)
	if err != nil {
		log.Error("aggregation fetch failed", zap.Error(err))
		return nil, err
	}
	result.Courses = len(courses)
	result.Participants = len(participants)

	summary := Compute(courses, participants)
	if err := schemas.ValidateSummary(&summary); err != nil {
		log.Error("aggregation produced an invalid summary", zap.Error(err))
		return nil, &ValidationError{Cause: err}
	}

	if !j.opts.DryRun {
		lastUpdated, err := j.store.ReplaceSummary(ctx, &summary)
		if err != nil {
			werr := &WriteError{DocumentID: types.SummaryDocumentID, Cause: err}
			log.Error("aggregation write failed", zap.Error(werr))
			return nil, werr
		}
		summary.LastUpdated = lastUpdated
		result.Written = true
	}

	result.Summary = summary
	result.Duration = time.Since(result.StartedAt)

	log.Info("aggregation completed",
		zap.Int("courses", result.Courses),
		zap.Int("participants", result.Participants),
		zap.Float64("avg_pre_test", summary.Participants.AvgPreTest),
		zap.Float64("avg_post_test", summary.Participants.AvgPostTest),
		zap.Bool("written", result.Written),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// fetch reads both collections concurrently and fails if either read fails.
func (j *Job) fetch(ctx context.Context) ([]types.Course, []types.Participant, error) {
	var courses []types.Course
	var participants []types.Participant

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = j.store.ListCourses(gctx)
		if err != nil {
			return &FetchError{Collection: types.CollectionCourses, Cause: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		participants, err = j.store.ListParticipants(gctx)
		if err != nil {
			return &FetchError{Collection: types.CollectionParticipants, Cause: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return courses, participants, nil
}
