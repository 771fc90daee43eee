package report

import (
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pagelint/pagelint/internal/model"
)

// Writer defines the interface for run-summary output.
// Implementations render a completed run in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write renders the run report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously, typically
// terminal plus file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the report to all configured Writers.
// Returns the total bytes written; stops on the first error.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// displaySeverity renders a severity for human-facing output ("Critical"
// rather than the wire form "CRITICAL").
func displaySeverity(s model.Severity) string {
	return cases.Title(language.English).String(strings.ToLower(s.String()))
}

// statusText summarizes the run's terminal state.
func statusText(report *model.RunReport) string {
	switch {
	case report.Error != "":
		return "FAILED - " + report.Error
	case report.TimedOut:
		return "TIMED OUT (partial results)"
	default:
		return "Complete"
	}
}

// severityOrder lists severities for display, most urgent first.
func severityOrder() []model.Severity {
	return []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
	}
}

// tasksBySeverity groups created tasks by severity for display.
func tasksBySeverity(report *model.RunReport) map[model.Severity][]model.CreatedTask {
	grouped := make(map[model.Severity][]model.CreatedTask)
	for _, task := range report.CreatedTasks {
		grouped[task.Severity] = append(grouped[task.Severity], task)
	}
	return grouped
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
