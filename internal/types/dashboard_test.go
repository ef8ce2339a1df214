package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardSummary_JSONShape(t *testing.T) {
	summary := DashboardSummary{
		Participants: ParticipantStats{
			TotalTrained: 3,
			AvgPreTest:   50,
			AvgPostTest:  75,
			ByCourseType: ChartData{
				Labels:   []string{"IMNCI", "ETAT"},
				Datasets: []Dataset{{Data: []int{1, 1}}},
			},
			ByJobTitle: ChartData{
				Labels:   []string{"Nurse"},
				Datasets: []Dataset{{Label: JobTitleSeriesLabel, Data: []int{2}}},
			},
		},
		Courses:     CourseStats{Total: 2},
		LastUpdated: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	jsonBytes, err := json.Marshal(summary)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(jsonBytes, &decoded))

	participants := decoded["participants"].(map[string]any)
	assert.Equal(t, float64(3), participants["totalTrained"])
	assert.Equal(t, float64(50), participants["avgPreTest"])
	assert.Equal(t, float64(75), participants["avgPostTest"])

	// The course-type series carries no label; the job-title series does.
	courseType := participants["byCourseType"].(map[string]any)
	ctDataset := courseType["datasets"].([]any)[0].(map[string]any)
	assert.NotContains(t, ctDataset, "label")

	jobTitle := participants["byJobTitle"].(map[string]any)
	jtDataset := jobTitle["datasets"].([]any)[0].(map[string]any)
	assert.Equal(t, "# of Participants", jtDataset["label"])

	assert.Equal(t, float64(2), decoded["courses"].(map[string]any)["total"])
	assert.Equal(t, "2025-03-01T10:00:00Z", decoded["lastUpdated"])
}

func TestChartData_Counts(t *testing.T) {
	chart := ChartData{
		Labels:   []string{"Nurse", "Doctor"},
		Datasets: []Dataset{{Data: []int{4, 1}}},
	}
	assert.Equal(t, map[string]int{"Nurse": 4, "Doctor": 1}, chart.Counts())

	assert.Empty(t, ChartData{Labels: []string{"x"}}.Counts())
}
