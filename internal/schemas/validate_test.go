package schemas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/training-dashboard/internal/types"
)

func validSummary() *types.DashboardSummary {
	return &types.DashboardSummary{
		Participants: types.ParticipantStats{
			TotalTrained: 3,
			AvgPreTest:   50,
			AvgPostTest:  75,
			ByCourseType: types.ChartData{
				Labels:   []string{"IMNCI", "ETAT"},
				Datasets: []types.Dataset{{Data: []int{1, 1}}},
			},
			ByJobTitle: types.ChartData{
				Labels:   []string{"Nurse"},
				Datasets: []types.Dataset{{Label: types.JobTitleSeriesLabel, Data: []int{2}}},
			},
		},
		Courses: types.CourseStats{Total: 2},
	}
}

func TestSummarySchema_IsValidJSON(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(SummarySchema), &schema))
	assert.Equal(t, "DashboardSummary", schema["title"])
}

func TestValidateSummary_Valid(t *testing.T) {
	assert.NoError(t, ValidateSummary(validSummary()))
}

func TestValidateSummary_EmptyBreakdowns(t *testing.T) {
	summary := &types.DashboardSummary{
		Participants: types.ParticipantStats{
			ByCourseType: types.ChartData{Labels: []string{}, Datasets: []types.Dataset{{Data: []int{}}}},
			ByJobTitle: types.ChartData{
				Labels:   []string{},
				Datasets: []types.Dataset{{Label: types.JobTitleSeriesLabel, Data: []int{}}},
			},
		},
	}
	assert.NoError(t, ValidateSummary(summary))
}

func TestValidateSummary_NilSlicesRejected(t *testing.T) {
	summary := validSummary()
	summary.Participants.ByCourseType = types.ChartData{}

	err := ValidateSummary(summary)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.NotEmpty(t, validationErr.Errors)
}

func TestValidateSummary_MissingJobTitleLabel(t *testing.T) {
	summary := validSummary()
	summary.Participants.ByJobTitle.Datasets[0].Label = ""

	err := ValidateSummary(summary)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
}

func TestValidateSummary_MismatchedSeriesLength(t *testing.T) {
	summary := validSummary()
	summary.Participants.ByCourseType.Datasets[0].Data = []int{1}

	err := ValidateSummary(summary)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "participants.byCourseType.datasets.0.data", validationErr.Errors[0].Field)
	assert.Contains(t, validationErr.Error(), "has 1 values for 2 labels")
}

func TestValidateSummary_NegativeTotal(t *testing.T) {
	summary := validSummary()
	summary.Courses.Total = -1

	err := ValidateSummary(summary)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
}

func TestValidateSummary_Nil(t *testing.T) {
	assert.Error(t, ValidateSummary(nil))
}

func TestValidateJSONString_BadSchema(t *testing.T) {
	err := ValidateJSONString(`{ not json`, `{}`)
	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Error(), "failed to load schema")
}
