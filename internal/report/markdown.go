package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/pagelint/pagelint/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeCategories(md, report)
	w.writeTasks(md, report)
	w.writePageErrors(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run identification table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Pagelint Audit Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.SiteID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(1e9).String()},
			{"Pages Processed", strconv.Itoa(report.PagesProcessed)},
			{"Pages Failed", strconv.Itoa(report.PagesFailed)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.RunReport) string {
	switch {
	case report.Error != "":
		return "❌ Failed - " + report.Error
	case report.TimedOut:
		return "⚠️ Timed Out (partial results)"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the outcome counters and the run-health alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Count"},
		Rows: [][]string{
			{"Issues Found", strconv.Itoa(report.TotalIssues())},
			{"Tasks Created", strconv.Itoa(report.TasksCreated)},
			{"Duplicates Skipped", strconv.Itoa(report.DuplicatesSkipped)},
			{"Rules Unknown", strconv.Itoa(report.RulesUnknown)},
			{"Reporting Failures", strconv.Itoa(report.ReportingFailures)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// writeAlert distinguishes a quiet run from a broken one.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	switch {
	case report.ReportingFailures > 0:
		md.Warningf(
			"%d issue(s) were found but could not be filed with the tracker. They will be retried on the next run.",
			report.ReportingFailures,
		)
	case report.RulesUnknown > 0:
		md.Importantf(
			"%d rule evaluation(s) degraded to unknown. These rules were not judged; a quiet result does not mean they passed.",
			report.RulesUnknown,
		)
	case report.TasksCreated > 0:
		md.Note(fmt.Sprintf("%d new task(s) were filed in the tracker.", report.TasksCreated))
	case report.TotalIssues() > 0:
		md.Note("All issues found this run were already tracked.")
	default:
		md.Tip("No issues found.")
	}
	md.PlainText("")
}

// writeCategories writes the per-category issue table and distribution chart.
func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Issues by Category")
	md.PlainText("")

	if report.TotalIssues() == 0 {
		md.PlainText("No issues found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(model.Categories()))
	for _, category := range model.Categories() {
		rows = append(rows, []string{string(category), strconv.Itoa(report.IssuesFound[category])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Issues"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, report)
}

// writePieChart writes a mermaid pie chart of the category distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.RunReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Category Distribution"),
		piechart.WithShowData(true),
	)

	for _, category := range model.Categories() {
		if count := report.IssuesFound[category]; count > 0 {
			chart.LabelAndIntValue(string(category), uint64(count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeTasks writes the created tasks grouped by severity.
func (w *MarkdownWriter) writeTasks(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Tasks Created")
	md.PlainText("")

	if len(report.CreatedTasks) == 0 {
		md.PlainText("No tasks created this run.")
		md.PlainText("")
		return
	}

	grouped := tasksBySeverity(report)
	for _, severity := range severityOrder() {
		tasks := grouped[severity]
		if len(tasks) == 0 {
			continue
		}

		md.H3(displaySeverity(severity))
		md.PlainText("")

		rows := make([][]string, len(tasks))
		for i, task := range tasks {
			rows[i] = []string{
				task.Title,
				string(task.Category),
				truncateString(task.URL, 60),
				task.TaskID,
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Title", "Category", "URL", "Task ID"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writePageErrors writes pages and issues that could not be completed.
func (w *MarkdownWriter) writePageErrors(md *markdown.Markdown, report *model.RunReport) {
	if len(report.PageErrors) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")

	rows := make([][]string, len(report.PageErrors))
	for i, pageErr := range report.PageErrors {
		rows[i] = []string{
			pageErr.Stage,
			truncateString(pageErr.URL, 60),
			truncateString(pageErr.Message, 80),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagelint](https://github.com/pagelint/pagelint)*")
}
