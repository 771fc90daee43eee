package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pagelint/pagelint/internal/model"
)

// SimpleWriter outputs human-readable text run summaries.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables per-task and per-error detail.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the run summary in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounters(&sb, report)
	w.writeCategories(&sb, report)
	w.writeTasks(&sb, report)
	w.writePageErrors(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run identification block.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PAGELINT AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Site:           %s\n", report.SiteID)
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(1e9))
	fmt.Fprintf(sb, "Pages:          %d processed, %d failed\n", report.PagesProcessed, report.PagesFailed)
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))
	sb.WriteString("\n")
}

// writeCounters writes the run outcome counters. The three "quiet run vs
// broken run" counters are always shown, even at zero.
func (w *SimpleWriter) writeCounters(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  Issues found:        %d\n", report.TotalIssues())
	fmt.Fprintf(sb, "  Tasks created:       %d\n", report.TasksCreated)
	fmt.Fprintf(sb, "  Duplicates skipped:  %d\n", report.DuplicatesSkipped)
	fmt.Fprintf(sb, "  Rules unknown:       %d\n", report.RulesUnknown)
	fmt.Fprintf(sb, "  Reporting failures:  %d\n", report.ReportingFailures)
	sb.WriteString("\n")
}

// writeCategories writes the per-category issue breakdown.
func (w *SimpleWriter) writeCategories(sb *strings.Builder, report *model.RunReport) {
	if report.TotalIssues() == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ISSUES BY CATEGORY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, category := range model.Categories() {
		count := report.IssuesFound[category]
		if count == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "  %-8s %d\n", category+":", count)
	}
	sb.WriteString("\n")
}

// writeTasks writes the created tasks grouped by severity, most urgent first.
func (w *SimpleWriter) writeTasks(sb *strings.Builder, report *model.RunReport) {
	if len(report.CreatedTasks) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TASKS CREATED\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.CreatedTasks) == 0 {
		sb.WriteString("  No tasks created\n\n")
		return
	}

	grouped := tasksBySeverity(report)
	for _, severity := range severityOrder() {
		tasks := grouped[severity]
		if len(tasks) == 0 {
			continue
		}

		fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), severity.String())
		for _, task := range tasks {
			fmt.Fprintf(sb, "  * %s\n", task.Title)
			fmt.Fprintf(sb, "    URL: %s\n", task.URL)
			if w.verbose && task.TaskID != "" {
				fmt.Fprintf(sb, "    Task: %s\n", task.TaskID)
			}
		}
		sb.WriteString("\n")
	}
}

// writePageErrors writes pages and issues that could not be completed.
func (w *SimpleWriter) writePageErrors(sb *strings.Builder, report *model.RunReport) {
	if len(report.PageErrors) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ERRORS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.PageErrors) == 0 {
		sb.WriteString("  No errors\n")
	}
	for _, pageErr := range report.PageErrors {
		fmt.Fprintf(sb, "  [%s] %s\n", pageErr.Stage, pageErr.URL)
		if w.verbose {
			fmt.Fprintf(sb, "    %s\n", pageErr.Message)
		}
	}
	sb.WriteString("\n")
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	default:
		return "?"
	}
}
