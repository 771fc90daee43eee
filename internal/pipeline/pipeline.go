package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pagelint/pagelint/internal/dedup"
	"github.com/pagelint/pagelint/internal/llm"
	"github.com/pagelint/pagelint/internal/model"
)

// Fatal pipeline errors. Everything else is absorbed at the component
// boundary and surfaced as RunReport counters.
var (
	// ErrNoPages is returned when not a single page could be audited.
	ErrNoPages = errors.New("no pages could be audited")

	// ErrRuleStore is returned when the site's rules cannot be loaded.
	ErrRuleStore = errors.New("rule store unreachable")
)

// PageSource retrieves and parses one page.
type PageSource interface {
	FetchPage(ctx context.Context, url string) (*model.PageContext, error)
}

// RuleStore loads the enabled rules for a site.
type RuleStore interface {
	Load(siteID string) (*model.RuleSet, error)
}

// StructuralChecker runs the deterministic rules against a page.
// The int return counts rules skipped for unknown check identifiers.
type StructuralChecker interface {
	Run(rules []model.Rule, page *model.PageContext) ([]model.Issue, int)
}

// SemanticEvaluator runs the LLM-judged rules against a page. It never
// returns an error: failures degrade rules to unknown in the stats.
type SemanticEvaluator interface {
	Evaluate(ctx context.Context, rules []model.Rule, page *model.PageContext) ([]model.Issue, llm.Stats)
}

// Tracker is the task board the run reports novel issues to.
type Tracker interface {
	EnsureGroups(ctx context.Context) error
	ListTasks(ctx context.Context) ([]model.ExistingTaskRecord, error)
	CreateTask(ctx context.Context, issue model.Issue) (string, error)
}

// ProgressFunc receives a counter snapshot as the run advances. Page workers
// and the reporting stage both call it, so it must be safe for concurrent
// use, return quickly, and never block.
type ProgressFunc func(model.ProgressSnapshot)

// Pipeline orchestrates one audit run: fetch and evaluate pages with bounded
// concurrency, then dedup-check and report issues in page order.
type Pipeline struct {
	source  PageSource
	rules   RuleStore
	checker StructuralChecker

	// evaluator is nil when semantic evaluation is disabled for the site.
	evaluator SemanticEvaluator

	// tracker is nil in dry runs; issues are then counted but not filed.
	tracker Tracker

	// fuzzyThreshold is the duplicate-index similarity cutoff.
	fuzzyThreshold float64

	// concurrency bounds simultaneous fetch+evaluate work.
	concurrency int

	// runBudget is the wall-clock limit for the whole run. Zero disables it.
	runBudget time.Duration

	onProgress ProgressFunc
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSemanticEvaluator enables LLM evaluation of semantic rules.
func WithSemanticEvaluator(e SemanticEvaluator) Option {
	return func(p *Pipeline) {
		p.evaluator = e
	}
}

// WithTracker sets the task board issues are reported to. Without one the
// run is a dry run: issues are found and deduped but no tasks are created.
func WithTracker(t Tracker) Option {
	return func(p *Pipeline) {
		p.tracker = t
	}
}

// WithFuzzyThreshold sets the duplicate-index similarity cutoff.
func WithFuzzyThreshold(threshold float64) Option {
	return func(p *Pipeline) {
		p.fuzzyThreshold = threshold
	}
}

// WithConcurrency bounds simultaneous fetch+evaluate work across pages.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRunBudget sets the wall-clock limit for the run. When the budget is
// exhausted no new page work starts and the accumulated counters are
// returned with TimedOut set.
func WithRunBudget(d time.Duration) Option {
	return func(p *Pipeline) {
		p.runBudget = d
	}
}

// WithProgress sets the per-page progress sink.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.onProgress = fn
	}
}

// WithLogger sets the pipeline's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an audit pipeline. Source, rule store, and checker are always
// required; the evaluator and tracker are optional collaborators.
func New(source PageSource, rules RuleStore, checker StructuralChecker, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:         source,
		rules:          rules,
		checker:        checker,
		fuzzyThreshold: 0.75,
		concurrency:    3,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// pageResult carries one page's evaluation output to the reporting stage.
type pageResult struct {
	url      string
	issues   []model.Issue
	fetchErr error

	// unknown counts semantic rules that degraded to unknown on this page.
	unknown int

	// skipped is true when the run budget expired before this page started.
	skipped bool
}

// Run audits the given pages for one site and returns the run summary.
//
// The fetch+evaluate stage runs pages concurrently up to the configured
// limit; results are then consumed in page order by a single reporting pass
// that owns the duplicate index, so an issue from page 3 can never be
// dedup-checked before one from page 1 it might duplicate.
//
// Run is partial-failure tolerant: a failed page or rule is recorded in the
// report and the run continues. It returns an error only when the rule
// store is unreachable or not a single page could be audited. Budget
// exhaustion is not an error; the partial report comes back with TimedOut.
func (p *Pipeline) Run(ctx context.Context, siteID string, pages []string) (*model.RunReport, error) {
	report := model.NewRunReport(siteID)
	progress := model.NewRunProgress()

	ruleSet, err := p.rules.Load(siteID)
	if err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("%w: %s", ErrRuleStore, err)
	}
	if len(pages) == 0 {
		report.Error = ErrNoPages.Error()
		return report, ErrNoPages
	}

	if p.runBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.runBudget)
		defer cancel()
	}

	index, err := p.loadIndex(ctx, siteID)
	if err != nil {
		// A stale or empty snapshot degrades dedup, not the audit itself.
		p.logger.Warn("loading existing tasks failed, dedup starts empty",
			"site", siteID,
			"error", err)
		index = dedup.NewIndex(nil, p.fuzzyThreshold)
	}

	p.logger.Info("starting audit run",
		"site", siteID,
		"pages", len(pages),
		"rules", ruleSet.Len(),
		"known_tasks", index.Len())

	results := p.evaluatePages(ctx, progress, ruleSet, pages)
	p.reportResults(ctx, report, progress, index, results)

	progress.SetPhase(model.PhaseDone, "")
	p.notify(progress)
	report.Finish(progress)
	report.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)

	if report.PagesProcessed == 0 {
		report.Error = ErrNoPages.Error()
		return report, ErrNoPages
	}
	return report, nil
}

// loadIndex snapshots the tracker's existing tasks into a duplicate index.
func (p *Pipeline) loadIndex(ctx context.Context, siteID string) (*dedup.Index, error) {
	if p.tracker == nil {
		return dedup.NewIndex(nil, p.fuzzyThreshold), nil
	}

	if err := p.tracker.EnsureGroups(ctx); err != nil {
		return nil, fmt.Errorf("ensure board groups: %w", err)
	}
	records, err := p.tracker.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list existing tasks for %q: %w", siteID, err)
	}
	return dedup.NewIndex(records, p.fuzzyThreshold), nil
}

// evaluatePages runs fetch+check+evaluate for every page with bounded
// concurrency and returns results indexed by page position. Workers advance
// the progress phase, so with concurrent pages the snapshot carries whichever
// page moved last.
func (p *Pipeline) evaluatePages(ctx context.Context, progress *model.RunProgress, ruleSet *model.RuleSet, pages []string) []*pageResult {
	structuralRules := ruleSet.Structural()
	semanticRules := ruleSet.Semantic()

	results := make([]*pageResult, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, pageURL := range pages {
		g.Go(func() error {
			res := &pageResult{url: pageURL}
			results[i] = res

			// The budget expired: record the skip, start no new work.
			if gctx.Err() != nil {
				res.skipped = true
				return nil
			}

			progress.SetPhase(model.PhaseFetching, pageURL)
			p.notify(progress)

			p.logger.Debug("fetching page", "url", pageURL)
			page, err := p.source.FetchPage(gctx, pageURL)
			if err != nil {
				res.fetchErr = err
				p.logger.Warn("page fetch failed", "url", pageURL, "error", err)
				return nil
			}

			progress.SetPhase(model.PhaseChecking, pageURL)
			p.notify(progress)

			structural, skipped := p.checker.Run(structuralRules, page)
			if skipped > 0 {
				p.logger.Warn("rules skipped for unknown check identifiers",
					"url", pageURL,
					"skipped", skipped)
			}

			var semantic []model.Issue
			if p.evaluator != nil && len(semanticRules) > 0 {
				var stats llm.Stats
				semantic, stats = p.evaluator.Evaluate(gctx, semanticRules, page)
				res.unknown = stats.Unknown
			}

			res.issues = mergeIssues(structural, semantic)
			return nil
		})
	}

	// Workers never return errors; failures live in the results.
	_ = g.Wait() //nolint:errcheck
	return results
}

// reportResults consumes page results in page order, dedup-checks every
// issue, and files the novel ones. This is the duplicate index's single
// writer for the whole run.
func (p *Pipeline) reportResults(ctx context.Context, report *model.RunReport, progress *model.RunProgress, index *dedup.Index, results []*pageResult) {
	for _, res := range results {
		switch {
		case res.skipped:
			progress.PageFailed()
			report.AddPageError(res.url, "fetching", context.DeadlineExceeded)
			continue
		case res.fetchErr != nil:
			progress.PageFailed()
			report.AddPageError(res.url, "fetching", res.fetchErr)
			p.notify(progress)
			continue
		}

		progress.SetPhase(model.PhaseReporting, res.url)
		progress.RuleUnknown(res.unknown)

		for _, issue := range res.issues {
			progress.IssueFound(issue.Category)

			if index.IsDuplicate(issue) {
				progress.DuplicateSkipped()
				continue
			}

			taskID, err := p.fileIssue(ctx, issue)
			if err != nil {
				progress.ReportingFailed()
				report.AddPageError(issue.URL, "reporting", err)
				p.logger.Warn("task creation failed",
					"title", issue.Title,
					"url", issue.URL,
					"error", err)
				continue
			}

			index.Register(issue, taskID)
			progress.TaskCreated()
			report.CreatedTasks = append(report.CreatedTasks, model.CreatedTask{
				TaskID:   taskID,
				Title:    issue.Title,
				URL:      issue.URL,
				Severity: issue.Severity,
				Category: issue.Category,
			})
		}

		progress.PageProcessed()
		p.notify(progress)
	}
}

// fileIssue creates a tracker task for the issue. Dry runs register the
// issue without an external call so in-run dedup still applies.
func (p *Pipeline) fileIssue(ctx context.Context, issue model.Issue) (string, error) {
	if p.tracker == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("run budget exhausted: %w", err)
	}
	return p.tracker.CreateTask(ctx, issue)
}

// notify forwards a snapshot to the progress sink, if any.
func (p *Pipeline) notify(progress *model.RunProgress) {
	if p.onProgress != nil {
		p.onProgress(progress.Snapshot())
	}
}
