package types

import "time"

const (
	// SummaryDocumentID is the fixed key of the single dashboard summary document.
	SummaryDocumentID = "summary"

	// JobTitleSeriesLabel is the display label attached to the job-title series.
	JobTitleSeriesLabel = "# of Participants"
)

// DashboardSummary is the derived snapshot consumed by the dashboard UI.
// It is overwritten wholesale on every aggregation run.
type DashboardSummary struct {
	Participants ParticipantStats `json:"participants" bson:"participants"`
	Courses      CourseStats      `json:"courses" bson:"courses"`
	LastUpdated  time.Time        `json:"lastUpdated" bson:"lastUpdated"`
}

// ParticipantStats holds enrollment totals, score averages and breakdowns.
type ParticipantStats struct {
	TotalTrained int       `json:"totalTrained" bson:"totalTrained"`
	AvgPreTest   float64   `json:"avgPreTest" bson:"avgPreTest"`
	AvgPostTest  float64   `json:"avgPostTest" bson:"avgPostTest"`
	ByCourseType ChartData `json:"byCourseType" bson:"byCourseType"`
	ByJobTitle   ChartData `json:"byJobTitle" bson:"byJobTitle"`
}

// CourseStats holds course-level totals.
type CourseStats struct {
	Total int `json:"total" bson:"total"`
}

// ChartData is a label list with parallel data series, in the shape the
// dashboard charts consume directly.
type ChartData struct {
	Labels   []string  `json:"labels" bson:"labels"`
	Datasets []Dataset `json:"datasets" bson:"datasets"`
}

// Dataset is one data series of a chart.
type Dataset struct {
	Label string `json:"label,omitempty" bson:"label,omitempty"`
	Data  []int  `json:"data" bson:"data"`
}

// Counts returns the breakdown as a label → count map.
// Useful when label order does not matter.
func (c ChartData) Counts() map[string]int {
	counts := make(map[string]int, len(c.Labels))
	if len(c.Datasets) == 0 {
		return counts
	}
	data := c.Datasets[0].Data
	for i, label := range c.Labels {
		if i < len(data) {
			counts[label] = data[i]
		}
	}
	return counts
}
