package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/training-dashboard/internal/scheduler"
	"github.com/jonathan/training-dashboard/internal/server/ratelimit"
	"github.com/jonathan/training-dashboard/internal/types"
)

// mockSummaries serves a fixed summary or error.
type mockSummaries struct {
	summary *types.DashboardSummary
	err     error
}

func (m *mockSummaries) GetSummary(context.Context) (*types.DashboardSummary, error) {
	return m.summary, m.err
}

type mockStatus struct {
	status scheduler.Status
}

func (m *mockStatus) Status() scheduler.Status {
	return m.status
}

func testSummary() *types.DashboardSummary {
	return &types.DashboardSummary{
		Participants: types.ParticipantStats{
			TotalTrained: 3,
			AvgPreTest:   55,
			AvgPostTest:  80,
			ByCourseType: types.ChartData{
				Labels:   []string{"IMNCI", "ETAT"},
				Datasets: []types.Dataset{{Data: []int{2, 1}}},
			},
			ByJobTitle: types.ChartData{
				Labels:   []string{"Nurse"},
				Datasets: []types.Dataset{{Label: types.JobTitleSeriesLabel, Data: []int{3}}},
			},
		},
		Courses:     types.CourseStats{Total: 2},
		LastUpdated: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := New(Config{}, &mockSummaries{}, nil, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleSummary(t *testing.T) {
	s := New(Config{}, &mockSummaries{summary: testSummary()}, nil, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/dashboard/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "participants")
	assert.Contains(t, body, "courses")
	assert.Equal(t, "2024-05-01T10:00:00Z", body["lastUpdated"])

	var got types.DashboardSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *testSummary(), got)
}

func TestHandleSummary_NotFound(t *testing.T) {
	s := New(Config{}, &mockSummaries{}, nil, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/dashboard/summary")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not been computed")
}

func TestHandleSummary_StoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("connection reset"), http.StatusInternalServerError},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{}, &mockSummaries{err: tt.err}, nil, nil)
			rec := do(t, s.Handler(), http.MethodGet, "/dashboard/summary")
			assert.Equal(t, tt.want, rec.Code)
			assert.NotContains(t, rec.Body.String(), "connection reset")
		})
	}
}

func TestHandleStatus(t *testing.T) {
	st := scheduler.Status{
		Schedule: "@hourly",
		LastRun: &scheduler.RunRecord{
			RunID:        "abc",
			Trigger:      "schedule",
			Participants: 10,
			Written:      true,
		},
	}
	s := New(Config{}, &mockSummaries{}, &mockStatus{status: st}, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var got scheduler.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "@hourly", got.Schedule)
	require.NotNil(t, got.LastRun)
	assert.Equal(t, "abc", got.LastRun.RunID)
	assert.Equal(t, 10, got.LastRun.Participants)
}

func TestHandleStatus_NoScheduler(t *testing.T) {
	s := New(Config{}, &mockSummaries{}, nil, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/status")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNoTriggerEndpoint(t *testing.T) {
	s := New(Config{}, &mockSummaries{}, nil, nil)

	for _, path := range []string{"/run", "/dashboard/summary", "/aggregate"} {
		rec := do(t, s.Handler(), http.MethodPost, path)
		assert.NotEqual(t, http.StatusOK, rec.Code, path)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := New(Config{}, &mockSummaries{}, nil, nil)

	rec := do(t, s.Handler(), http.MethodOptions, "/dashboard/summary")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestRateLimit(t *testing.T) {
	cfg := Config{RateLimit: &ratelimit.Config{
		Enabled: true,
		Limit:   2,
		Window:  time.Minute,
		Exempt:  []string{"/health"},
	}}
	s := New(cfg, &mockSummaries{summary: testSummary()}, nil, nil)
	h := s.Handler()

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodGet, "/dashboard/summary")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := do(t, h, http.MethodGet, "/dashboard/summary")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(Config{}, &mockSummaries{}, nil, zap.New(core))

	do(t, s.Handler(), http.MethodGet, "/dashboard/summary")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/dashboard/summary", fields["path"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	s := New(Config{Port: 0}, &mockSummaries{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(context.DeadlineExceeded))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}
