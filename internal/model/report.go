package model

import "time"

// RunReport is the structured summary of one completed audit run.
// It is returned to the run trigger, rendered by the report writers,
// and persisted to the run-history database.
//
// Design decision: The report distinguishes "issues found but not reported"
// (reporting failures), "rules unknown due to evaluation failure", and
// "duplicates skipped" as separate counters so operators can tell a quiet
// run from a broken one.
type RunReport struct {
	// SiteID identifies the audited site.
	SiteID string `json:"site_id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run completed or was cut off.
	FinishedAt time.Time `json:"finished_at"`

	// PagesProcessed counts pages that completed the full per-page cycle.
	PagesProcessed int `json:"pages_processed"`

	// PagesFailed counts pages skipped due to fetch failure.
	PagesFailed int `json:"pages_failed"`

	// IssuesFound counts issues per category, before dedup.
	IssuesFound map[Category]int `json:"issues_found"`

	// TasksCreated counts tracker tasks successfully created.
	TasksCreated int `json:"tasks_created"`

	// DuplicatesSkipped counts issues suppressed as duplicates.
	DuplicatesSkipped int `json:"duplicates_skipped"`

	// RulesUnknown counts semantic rules that degraded to unknown across
	// all pages. Unknown is never pass: these rules were not evaluated.
	RulesUnknown int `json:"rules_unknown"`

	// ReportingFailures counts issues found but not filed due to tracker errors.
	ReportingFailures int `json:"reporting_failures"`

	// CreatedTasks lists the tasks filed during this run.
	CreatedTasks []CreatedTask `json:"created_tasks,omitempty"`

	// PageErrors records per-page failures; the run continues past them.
	PageErrors []PageError `json:"page_errors,omitempty"`

	// TimedOut is true when the wall-clock budget expired before all pages
	// were processed. The counters above cover the pages that did run.
	TimedOut bool `json:"timed_out"`

	// Error is set only when the run failed outright (no pages obtainable
	// or rule store unreachable).
	Error string `json:"error,omitempty"`
}

// CreatedTask records one tracker task filed during a run.
type CreatedTask struct {
	// TaskID is the tracker's identifier for the created task.
	TaskID string `json:"task_id"`

	// Title is the issue title.
	Title string `json:"title"`

	// URL is the audited page.
	URL string `json:"url"`

	// Severity is the issue severity.
	Severity Severity `json:"severity"`

	// Category is the issue category.
	Category Category `json:"category"`
}

// PageError records one page that could not be audited.
type PageError struct {
	// URL is the page that failed.
	URL string `json:"url"`

	// Stage names the phase the failure occurred in (fetching, checking, reporting).
	Stage string `json:"stage"`

	// Message is the error text.
	Message string `json:"message"`
}

// NewRunReport creates a report for the given site with the clock started.
func NewRunReport(siteID string) *RunReport {
	return &RunReport{
		SiteID:      siteID,
		StartedAt:   time.Now(),
		IssuesFound: make(map[Category]int),
	}
}

// Finish stamps the end time and copies the final counters from progress.
func (r *RunReport) Finish(p *RunProgress) {
	snap := p.Snapshot()
	r.FinishedAt = time.Now()
	r.PagesProcessed = snap.PagesProcessed
	r.PagesFailed = snap.PagesFailed
	r.IssuesFound = snap.IssuesFound
	r.TasksCreated = snap.TasksCreated
	r.DuplicatesSkipped = snap.DuplicatesSkipped
	r.RulesUnknown = snap.RulesUnknown
	r.ReportingFailures = snap.ReportingFailures
}

// AddPageError records a per-page failure.
func (r *RunReport) AddPageError(url, stage string, err error) {
	r.PageErrors = append(r.PageErrors, PageError{
		URL:     url,
		Stage:   stage,
		Message: err.Error(),
	})
}

// TotalIssues sums the per-category issue counts.
func (r *RunReport) TotalIssues() int {
	var total int
	for _, n := range r.IssuesFound {
		total += n
	}
	return total
}

// Duration returns the wall-clock time the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run completed without a fatal error.
// Partial failures (skipped pages, unknown rules) still count as success.
func (r *RunReport) Succeeded() bool {
	return r.Error == ""
}
