package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/training-dashboard/internal/aggregation"
	"github.com/jonathan/training-dashboard/internal/config"
	"github.com/jonathan/training-dashboard/internal/types"
)

func TestOpen_Memory(t *testing.T) {
	backend, err := Open(context.Background(), config.StoreConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	defer backend.Close(context.Background())

	courses, err := backend.ListCourses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestOpen_MemoryWithSeed(t *testing.T) {
	backend, err := Open(context.Background(), config.StoreConfig{
		Backend:  config.BackendMemory,
		SeedFile: "testdata/seed.json",
	})
	require.NoError(t, err)

	participants, err := backend.ListParticipants(context.Background())
	require.NoError(t, err)
	assert.Len(t, participants, 4)
}

func TestOpen_MissingSeedFile(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{
		Backend:  config.BackendMemory,
		SeedFile: "testdata/nope.json",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read seed file")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Backend: "firestore"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store backend "firestore"`)
}

func TestMemoryStore_LoadSeedKeepsLooseScores(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.LoadSeedFile("testdata/seed.json"))

	participants, err := store.ListParticipants(context.Background())
	require.NoError(t, err)

	byID := make(map[string]types.Participant)
	for _, p := range participants {
		byID[p.ID] = p
	}
	assert.Equal(t, "50", byID["p1"].PreTestScore)
	assert.Equal(t, json.Number("80"), byID["p1"].PostTestScore)
	assert.Nil(t, byID["p3"].PreTestScore)
	assert.Equal(t, "missing", byID["p4"].CourseID)
}

func TestMemoryStore_LoadSeedInvalidJSON(t *testing.T) {
	err := NewMemoryStore().LoadSeed([]byte("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse seed JSON")
}

func TestMemoryStore_GetSummaryEmpty(t *testing.T) {
	got, err := NewMemoryStore().GetSummary(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_ReplaceSummaryStampsClock(t *testing.T) {
	store := NewMemoryStore()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })

	summary := &types.DashboardSummary{Courses: types.CourseStats{Total: 3}}
	stamped, err := store.ReplaceSummary(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, fixed, stamped)
	assert.True(t, summary.LastUpdated.IsZero(), "caller's summary must not be mutated")

	stored, err := store.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed, stored.LastUpdated)
	assert.Equal(t, 3, stored.Courses.Total)
}

func TestMemoryStore_ReplaceIsFullOverwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := aggregation.Compute(
		[]types.Course{{ID: "c1", CourseType: "IMNCI"}},
		[]types.Participant{{ID: "p1", CourseID: "c1", JobTitle: "Nurse"}},
	)
	_, err := store.ReplaceSummary(ctx, &first)
	require.NoError(t, err)

	second := aggregation.Compute(
		[]types.Course{{ID: "c2", CourseType: "ETAT"}},
		[]types.Participant{{ID: "p2", CourseID: "c2", JobTitle: "Doctor"}},
	)
	_, err = store.ReplaceSummary(ctx, &second)
	require.NoError(t, err)

	stored, err := store.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETAT"}, stored.Participants.ByCourseType.Labels)
	assert.Equal(t, []string{"Doctor"}, stored.Participants.ByJobTitle.Labels)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	summary := aggregation.Compute(
		[]types.Course{{ID: "c1", CourseType: "IMNCI"}},
		[]types.Participant{{ID: "p1", CourseID: "c1"}},
	)
	_, err := store.ReplaceSummary(ctx, &summary)
	require.NoError(t, err)

	got, err := store.GetSummary(ctx)
	require.NoError(t, err)
	got.Participants.ByCourseType.Labels[0] = "mutated"

	again, err := store.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "IMNCI", again.Participants.ByCourseType.Labels[0])
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ListCourses(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.ReplaceSummary(ctx, &types.DashboardSummary{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJobAgainstSeededStore(t *testing.T) {
	backend, err := Open(context.Background(), config.StoreConfig{
		Backend:  config.BackendMemory,
		SeedFile: "testdata/seed.json",
	})
	require.NoError(t, err)

	result, err := aggregation.NewJob(backend, aggregation.Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Written)

	stored, err := backend.GetSummary(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, 4, stored.Participants.TotalTrained)
	assert.InDelta(t, 60.0, stored.Participants.AvgPreTest, 1e-9)
	assert.InDelta(t, 80.0, stored.Participants.AvgPostTest, 1e-9)
	assert.Equal(t, map[string]int{"IMNCI": 2, "ETAT": 1}, stored.Participants.ByCourseType.Counts())
	assert.Equal(t, map[string]int{"Nurse": 2, "Doctor": 1}, stored.Participants.ByJobTitle.Counts())
	assert.Equal(t, 2, stored.Courses.Total)
	assert.False(t, stored.LastUpdated.IsZero())
}

func TestMemoryStore_LoadSeedNumericIDs(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.LoadSeed([]byte(`{
		"courses": [{"id": 1, "course_type": "ETAT"}],
		"participants": [{"id": 2, "courseId": 1, "job_title": "Nurse"}]
	}`)))

	courses, err := store.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "1", courses[0].ID)

	participants, err := store.ListParticipants(context.Background())
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "2", participants[0].ID)

	summary := aggregation.Compute(courses, participants)
	assert.Equal(t, map[string]int{"ETAT": 1}, summary.Participants.ByCourseType.Counts())
}
