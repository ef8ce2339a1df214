// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/training-dashboard/internal/aggregation"
	"github.com/jonathan/training-dashboard/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of breakdown rows to display
	maxItemsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		runes := []rune(s)
		return string(runes[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-n)
}

// PrintSummary outputs a human-readable view of a dashboard summary.
func (p *Printer) PrintSummary(summary *types.DashboardSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	stats := summary.Participants

	sb.WriteString(fmt.Sprintf("Participants trained:  %d\n", stats.TotalTrained))
	sb.WriteString(fmt.Sprintf("Courses:               %d\n", summary.Courses.Total))
	sb.WriteString(fmt.Sprintf("Avg pre-test score:    %.2f\n", stats.AvgPreTest))
	sb.WriteString(fmt.Sprintf("Avg post-test score:   %.2f\n", stats.AvgPostTest))
	if !summary.LastUpdated.IsZero() {
		sb.WriteString(fmt.Sprintf("Last updated:          %s\n", summary.LastUpdated.UTC().Format(time.RFC3339)))
	}

	writeBreakdown(&sb, "By course type", stats.ByCourseType)
	writeBreakdown(&sb, "By job title", stats.ByJobTitle)

	p.printBox("DASHBOARD SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

func writeBreakdown(sb *strings.Builder, title string, chart types.ChartData) {
	sb.WriteString("\n")
	sb.WriteString(title + ":\n")
	if len(chart.Labels) == 0 || len(chart.Datasets) == 0 {
		sb.WriteString("  (none)\n")
		return
	}

	data := chart.Datasets[0].Data
	count := min(len(chart.Labels), maxItemsToShow)
	for i := 0; i < count; i++ {
		n := 0
		if i < len(data) {
			n = data[i]
		}
		sb.WriteString(fmt.Sprintf("  • %-36s %6d\n", chart.Labels[i], n))
	}
	if len(chart.Labels) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(chart.Labels)-maxItemsToShow))
	}
}

// PrintRunResult outputs the outcome of one aggregation run.
func (p *Printer) PrintRunResult(result *aggregation.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run ID:        %s\n", result.RunID))
	sb.WriteString(fmt.Sprintf("Started:       %s\n", result.StartedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Duration:      %s\n", result.Duration.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Courses read:  %d\n", result.Courses))
	sb.WriteString(fmt.Sprintf("Participants:  %d\n", result.Participants))
	if result.Written {
		sb.WriteString("Summary:       written")
	} else {
		sb.WriteString("Summary:       not written (dry run)")
	}

	p.printBox("AGGREGATION RUN", sb.String())
}
