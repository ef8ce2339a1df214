package aggregation

import (
	"math"
	"strings"

	"github.com/jonathan/training-dashboard/internal/types"
)

// mean accumulates the count of included values along with both their sum
// and an incremental average. The sum can overflow even when every value is
// finite; the incremental average stays within the range of its inputs.
type mean struct {
	sum   float64
	avg   float64
	count int
}

func (m *mean) add(v any) {
	f, ok := ParseOptionalNumber(v)
	if !ok {
		return
	}
	m.count++
	n := float64(m.count)
	m.sum += f
	m.avg += f/n - m.avg/n
}

func (m mean) value() float64 {
	if m.count == 0 {
		return 0
	}
	if math.IsInf(m.sum, 0) {
		return m.avg
	}
	return m.sum / float64(m.count)
}

// counter tallies labels, remembering the order in which they were first seen.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{order: []string{}, counts: make(map[string]int)}
}

// inc counts one occurrence of label. Invalid UTF-8 is replaced before
// counting so that labels which encode identically are tallied together.
func (c *counter) inc(label string) {
	if label == "" {
		return
	}
	label = strings.ToValidUTF8(label, "\uFFFD")
	if _, seen := c.counts[label]; !seen {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) chart(seriesLabel string) types.ChartData {
	data := make([]int, len(c.order))
	for i, label := range c.order {
		data[i] = c.counts[label]
	}
	return types.ChartData{
		Labels:   c.order,
		Datasets: []types.Dataset{{Label: seriesLabel, Data: data}},
	}
}

// tally holds the per-invocation accumulators for one pass over participants.
type tally struct {
	preTest    mean
	postTest   mean
	courseType *counter
	jobTitle   *counter
	total      int
}

// Compute builds the dashboard summary from complete course and participant sets.
// Participants whose course cannot be resolved still count toward totals and
// averages but not toward the course-type breakdown. LastUpdated is left zero;
// the store assigns it when the summary is written.
func Compute(courses []types.Course, participants []types.Participant) types.DashboardSummary {
	courseTypes := make(map[string]string, len(courses))
	for _, c := range courses {
		courseTypes[c.ID] = c.CourseType
	}

	t := tally{
		courseType: newCounter(),
		jobTitle:   newCounter(),
	}

	for _, p := range participants {
		t.total++
		t.preTest.add(p.PreTestScore)
		t.postTest.add(p.PostTestScore)
		t.courseType.inc(courseTypes[p.CourseID])
		t.jobTitle.inc(p.JobTitle)
	}

	return types.DashboardSummary{
		Participants: types.ParticipantStats{
			TotalTrained: t.total,
			AvgPreTest:   t.preTest.value(),
			AvgPostTest:  t.postTest.value(),
			ByCourseType: t.courseType.chart(""),
			ByJobTitle:   t.jobTitle.chart(types.JobTitleSeriesLabel),
		},
		Courses: types.CourseStats{Total: len(courses)},
	}
}
