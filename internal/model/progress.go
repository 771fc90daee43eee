package model

import "sync"

// Phase is the pipeline's position within the per-page state machine.
type Phase int

const (
	// PhaseIdle means no run is in progress.
	PhaseIdle Phase = iota

	// PhaseFetching means the current page is being retrieved and parsed.
	PhaseFetching

	// PhaseChecking means the evaluators are running against the current page.
	PhaseChecking

	// PhaseReporting means issues are being dedup-checked and filed.
	PhaseReporting

	// PhaseDone means the run has finished.
	PhaseDone
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseChecking:
		return "checking"
	case PhaseReporting:
		return "reporting"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// RunProgress holds the live counters for one audit run. The pipeline
// mutates it after every page; a progress sink may read it concurrently
// mid-run, so all access goes through the mutex.
//
// Design decision: We guard the counters with a mutex and hand out value
// copies via Snapshot rather than exposing the struct directly, because the
// progress sink runs on the caller's goroutine while the pipeline keeps
// writing.
type RunProgress struct {
	mu sync.Mutex

	// PagesProcessed counts pages that completed the full per-page cycle.
	PagesProcessed int `json:"pages_processed"`

	// PagesFailed counts pages skipped due to fetch or precondition failure.
	PagesFailed int `json:"pages_failed"`

	// IssuesFound counts issues per category, before dedup.
	IssuesFound map[Category]int `json:"issues_found"`

	// TasksCreated counts tracker tasks successfully created.
	TasksCreated int `json:"tasks_created"`

	// DuplicatesSkipped counts issues suppressed by the duplicate index.
	DuplicatesSkipped int `json:"duplicates_skipped"`

	// RulesUnknown counts semantic rules that degraded to unknown.
	RulesUnknown int `json:"rules_unknown"`

	// ReportingFailures counts issues found but not filed due to tracker errors.
	ReportingFailures int `json:"reporting_failures"`

	// Phase is the current pipeline phase.
	Phase Phase `json:"phase"`

	// CurrentURL is the page currently being processed.
	CurrentURL string `json:"current_url,omitempty"`
}

// NewRunProgress creates an empty progress tracker in the idle phase.
func NewRunProgress() *RunProgress {
	return &RunProgress{
		IssuesFound: make(map[Category]int),
		Phase:       PhaseIdle,
	}
}

// SetPhase records the current phase and URL.
func (p *RunProgress) SetPhase(phase Phase, url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Phase = phase
	p.CurrentURL = url
}

// PageProcessed increments the processed-page counter.
func (p *RunProgress) PageProcessed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PagesProcessed++
}

// PageFailed increments the failed-page counter.
func (p *RunProgress) PageFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PagesFailed++
}

// IssueFound increments the per-category issue counter.
func (p *RunProgress) IssueFound(category Category) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IssuesFound[category]++
}

// TaskCreated increments the created-task counter.
func (p *RunProgress) TaskCreated() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TasksCreated++
}

// DuplicateSkipped increments the skipped-duplicate counter.
func (p *RunProgress) DuplicateSkipped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DuplicatesSkipped++
}

// RuleUnknown adds n semantic rules that degraded to unknown.
func (p *RunProgress) RuleUnknown(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RulesUnknown += n
}

// ReportingFailed increments the found-but-not-filed counter.
func (p *RunProgress) ReportingFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ReportingFailures++
}

// Snapshot returns a copy of the current counters safe to read while the
// run continues.
func (p *RunProgress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	issues := make(map[Category]int, len(p.IssuesFound))
	for k, v := range p.IssuesFound {
		issues[k] = v
	}

	return ProgressSnapshot{
		PagesProcessed:    p.PagesProcessed,
		PagesFailed:       p.PagesFailed,
		IssuesFound:       issues,
		TasksCreated:      p.TasksCreated,
		DuplicatesSkipped: p.DuplicatesSkipped,
		RulesUnknown:      p.RulesUnknown,
		ReportingFailures: p.ReportingFailures,
		Phase:             p.Phase,
		CurrentURL:        p.CurrentURL,
	}
}

// ProgressSnapshot is an immutable copy of RunProgress counters.
type ProgressSnapshot struct {
	PagesProcessed    int              `json:"pages_processed"`
	PagesFailed       int              `json:"pages_failed"`
	IssuesFound       map[Category]int `json:"issues_found"`
	TasksCreated      int              `json:"tasks_created"`
	DuplicatesSkipped int              `json:"duplicates_skipped"`
	RulesUnknown      int              `json:"rules_unknown"`
	ReportingFailures int              `json:"reporting_failures"`
	Phase             Phase            `json:"phase"`
	CurrentURL        string           `json:"current_url,omitempty"`
}

// TotalIssues sums the per-category issue counts.
func (s ProgressSnapshot) TotalIssues() int {
	var total int
	for _, n := range s.IssuesFound {
		total += n
	}
	return total
}
