package scheduler

import (
	"context"
	"time"

	"github.com/jonathan/training-dashboard/internal/types"
)

// blockingStore holds ListCourses open until release is closed.
type blockingStore struct {
	release chan struct{}
	started chan struct{}
}

func (b *blockingStore) ListCourses(ctx context.Context) ([]types.Course, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return []types.Course{{ID: "c1", CourseType: "IMNCI"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingStore) ListParticipants(context.Context) ([]types.Participant, error) {
	return []types.Participant{{ID: "p1", CourseID: "c1", JobTitle: "Nurse"}}, nil
}

func (b *blockingStore) ReplaceSummary(context.Context, *types.DashboardSummary) (time.Time, error) {
	return time.Now(), nil
}
