package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jonathan/training-dashboard/internal/types"
)

// Seed is the fixture format accepted by LoadSeed: raw course and
// participant documents, each with an "id" field.
type Seed struct {
	Courses      []map[string]any `json:"courses"`
	Participants []map[string]any `json:"participants"`
}

// MemoryStore is an in-process Backend. It is safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	courses      []types.Course
	participants []types.Participant
	summary      *types.DashboardSummary
	now          func() time.Time
}

// NewMemoryStore returns an empty store stamped with the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// SetClock replaces the clock used to stamp LastUpdated.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// LoadSeedFile reads a JSON fixture from disk and replaces the store's collections.
func (m *MemoryStore) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	return m.LoadSeed(data)
}

// LoadSeed parses a JSON fixture and replaces the store's collections.
// Numbers are kept as json.Number so loosely typed scores survive intact.
func (m *MemoryStore) LoadSeed(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		return fmt.Errorf("failed to parse seed JSON: %w", err)
	}

	courses := make([]types.Course, 0, len(seed.Courses))
	for _, doc := range seed.Courses {
		courses = append(courses, types.CourseFromDocument(seedID(doc), doc))
	}
	participants := make([]types.Participant, 0, len(seed.Participants))
	for _, doc := range seed.Participants {
		participants = append(participants, types.ParticipantFromDocument(seedID(doc), doc))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses = courses
	m.participants = participants
	return nil
}

// seedID renders the fixture id the same way document references are
// rendered, so numeric ids still resolve.
func seedID(doc map[string]any) string {
	return types.LooseString(doc["id"])
}

// PutCourses replaces the course collection.
func (m *MemoryStore) PutCourses(courses ...types.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses = append([]types.Course(nil), courses...)
}

// PutParticipants replaces the participant collection.
func (m *MemoryStore) PutParticipants(participants ...types.Participant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants = append([]types.Participant(nil), participants...)
}

// ListCourses returns a copy of the course collection.
func (m *MemoryStore) ListCourses(ctx context.Context) ([]types.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Course(nil), m.courses...), nil
}

// ListParticipants returns a copy of the participant collection.
func (m *MemoryStore) ListParticipants(ctx context.Context) ([]types.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Participant(nil), m.participants...), nil
}

// ReplaceSummary stores a deep copy of summary, discarding whatever was there.
func (m *MemoryStore) ReplaceSummary(ctx context.Context, summary *types.DashboardSummary) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := cloneSummary(summary)
	stored.LastUpdated = m.now().UTC()
	m.summary = stored
	return stored.LastUpdated, nil
}

// GetSummary returns a copy of the stored summary, or nil if none was written.
func (m *MemoryStore) GetSummary(ctx context.Context) (*types.DashboardSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.summary == nil {
		return nil, nil
	}
	return cloneSummary(m.summary), nil
}

// Close is a no-op.
func (m *MemoryStore) Close(context.Context) error {
	return nil
}

func cloneSummary(s *types.DashboardSummary) *types.DashboardSummary {
	out := *s
	out.Participants.ByCourseType = cloneChart(s.Participants.ByCourseType)
	out.Participants.ByJobTitle = cloneChart(s.Participants.ByJobTitle)
	return &out
}

func cloneChart(c types.ChartData) types.ChartData {
	out := types.ChartData{
		Labels:   append([]string{}, c.Labels...),
		Datasets: make([]types.Dataset, len(c.Datasets)),
	}
	for i, ds := range c.Datasets {
		out.Datasets[i] = types.Dataset{Label: ds.Label, Data: append([]int{}, ds.Data...)}
	}
	return out
}
