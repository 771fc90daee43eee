package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagelint/pagelint/internal/check"
	"github.com/pagelint/pagelint/internal/config"
	"github.com/pagelint/pagelint/internal/database"
	"github.com/pagelint/pagelint/internal/fetch"
	"github.com/pagelint/pagelint/internal/llm"
	pagelintlog "github.com/pagelint/pagelint/internal/log"
	"github.com/pagelint/pagelint/internal/model"
	"github.com/pagelint/pagelint/internal/pipeline"
	"github.com/pagelint/pagelint/internal/report"
	"github.com/pagelint/pagelint/internal/rules"
	"github.com/pagelint/pagelint/internal/tracker"
)

// Environment variables holding API credentials. Credentials are never
// accepted as flags so they cannot leak into shell history.
const (
	geminiKeyEnv    = "GEMINI_API_KEY"
	trackerTokenEnv = "MONDAY_API_TOKEN" //nolint:gosec // env var name, not a credential
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [site-id]",
		Short: "Audit a site's pages and file new issues on the task board",
		Long: `Audit fetches the site's recently updated pages (from its sitemap),
evaluates each one against the site's rule set, and files issues that
are not already on the task board.

Structural rules run as deterministic checks against the parsed page.
Semantic rules are judged by an LLM; a rule whose evaluation fails is
counted as unknown, never as passed.

Examples:
  # Audit a configured site
  pagelint audit resort

  # Audit a single page only
  pagelint audit --url https://www.example.com/spa resort

  # Restrict the sitemap to a subfolder
  pagelint audit --subfolder /hawaii resort

  # Evaluate without filing any tasks
  pagelint audit --dry-run resort

  # Show recent run history instead of auditing
  pagelint audit --history 10 resort

Credentials come from the environment: GEMINI_API_KEY for semantic
evaluation, MONDAY_API_TOKEN for the task board.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAuditCmd,
	}

	// Audit source flags
	cmd.Flags().StringP("url", "u", "",
		"Audit a single URL instead of the site's sitemap")
	cmd.Flags().StringP("subfolder", "s", "",
		"Only audit sitemap URLs whose path starts with this prefix")

	// Audit behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout for page fetches and tracker calls")
	cmd.Flags().Duration("budget", config.DefaultRunBudget,
		"Wall-clock budget for the whole run (partial results on expiry)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to audit per run")
	cmd.Flags().IntP("days", "d", config.DefaultDaysToCheck,
		"Only audit pages modified within this many days (0 = all)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of pages fetched and evaluated in parallel")
	cmd.Flags().Bool("no-llm", false,
		"Skip semantic rules (structural checks only)")
	cmd.Flags().Bool("dry-run", false,
		"Evaluate pages but do not create tracker tasks")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: pagelint.yml in current or XDG config directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the run summary to the specified file (also printed to stdout)")

	// History flag
	cmd.Flags().Int("history", 0,
		"List the N most recent runs instead of auditing")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Set up structured logging with credential redaction
	logger := pagelintlog.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	historyLimit, err := cmd.Flags().GetInt("history")
	if err != nil {
		return err
	}
	if historyLimit > 0 {
		return runHistory(ctx, cmd, cfg, historyLimit)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	return runAudit(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if len(args) > 0 {
		cfg.SiteID = args[0]
	}

	var err error

	cfg.TargetURL, err = cmd.Flags().GetString("url")
	if err != nil {
		return nil, err
	}

	cfg.Subfolder, err = cmd.Flags().GetString("subfolder")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.RunBudget, err = cmd.Flags().GetDuration("budget")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.DaysToCheck, err = cmd.Flags().GetInt("days")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	noLLM, err := cmd.Flags().GetBool("no-llm")
	if err != nil {
		return nil, err
	}
	cfg.EnableLLM = !noLLM

	cfg.DryRun, err = cmd.Flags().GetBool("dry-run")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Load site configurations from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Sites, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ConfigFilePath = configPath
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Sites = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	// Credentials come from the environment only
	cfg.LLMAPIKey = os.Getenv(geminiKeyEnv)
	cfg.TrackerToken = os.Getenv(trackerTokenEnv)

	// Always save run history to the XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runAudit executes one audit run end to end.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	siteCfg, siteID, err := resolveSite(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting audit",
		"site", siteID,
		"url", cfg.TargetURL,
		"subfolder", cfg.Subfolder,
		"dryRun", cfg.DryRun,
	)

	fetcher := newFetcher(cfg, siteCfg)

	pages, err := selectPages(ctx, cfg, siteCfg, fetcher)
	if err != nil {
		return err
	}

	fmt.Printf("Auditing %s (%d pages)...\n", siteID, len(pages))
	startTime := time.Now()

	p := buildPipeline(ctx, cfg, siteCfg, fetcher, logger)

	runReport, runErr := p.Run(ctx, siteID, pages)
	if runReport == nil {
		return runErr
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Audit completed in %s\n", elapsed.Round(time.Millisecond))

	if err := outputReport(cfg, runReport); err != nil {
		logger.Error("report output failed", "site", siteID, "error", err)
	}

	saveRunReport(ctx, cfg, runReport, logger)

	return runErr
}

// resolveSite returns the merged site configuration and the site id used in
// reports and tracker dedup. A --url run without a configured site falls back
// to the URL's host as the site id.
func resolveSite(cfg *config.Config) (config.SiteConfig, string, error) {
	if cfg.SiteID == "" {
		host, err := hostOf(cfg.TargetURL)
		if err != nil {
			return config.SiteConfig{}, "", err
		}
		return cfg.Sites.Defaults, host, nil
	}

	siteCfg, ok := cfg.Sites.GetSiteConfig(cfg.SiteID)
	if !ok && cfg.TargetURL == "" {
		return config.SiteConfig{}, "", fmt.Errorf("%w: %q", config.ErrSiteNotConfigured, cfg.SiteID)
	}

	// Site-level overrides take precedence over global defaults
	if siteCfg.DaysToCheck != 0 {
		cfg.DaysToCheck = siteCfg.DaysToCheck
	}
	if siteCfg.MaxPages != 0 {
		cfg.MaxPages = siteCfg.MaxPages
	}
	if siteCfg.EnableLLM != nil && !*siteCfg.EnableLLM {
		cfg.EnableLLM = false
	}

	return siteCfg, cfg.SiteID, nil
}

// hostOf extracts the host from a URL, without a www. prefix.
func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid audit URL %q", rawURL)
	}
	return strings.TrimPrefix(u.Host, "www."), nil
}

// newFetcher creates the page fetcher from config and site settings.
func newFetcher(cfg *config.Config, siteCfg config.SiteConfig) *fetch.Fetcher {
	opts := []fetch.FetcherOption{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithContentCap(cfg.ContentCharCap),
	}
	if len(siteCfg.Headers) > 0 {
		opts = append(opts, fetch.WithHeaders(siteCfg.Headers))
	}
	return fetch.NewFetcher(&http.Client{Timeout: cfg.Timeout}, opts...)
}

// selectPages determines which pages this run audits: the single --url
// target, or the sitemap filtered by recency and subfolder.
func selectPages(ctx context.Context, cfg *config.Config, siteCfg config.SiteConfig, fetcher *fetch.Fetcher) ([]string, error) {
	if cfg.TargetURL != "" {
		return []string{cfg.TargetURL}, nil
	}

	sitemapURL := siteCfg.SitemapOrDefault()
	if sitemapURL == "" {
		return nil, fmt.Errorf("site %q has no domain or sitemap URL configured", cfg.SiteID)
	}

	entries, err := fetcher.FetchSitemap(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap %s: %w", sitemapURL, err)
	}

	pages := fetch.SelectPages(entries, cfg.DaysToCheck, cfg.MaxPages, cfg.Subfolder, time.Now())
	if len(pages) == 0 {
		return nil, fmt.Errorf("sitemap %s has no pages matching the recency and subfolder filters", sitemapURL)
	}
	return pages, nil
}

// buildPipeline wires the audit pipeline from config: rule store, structural
// checker, and the optional semantic evaluator and tracker.
func buildPipeline(ctx context.Context, cfg *config.Config, siteCfg config.SiteConfig, fetcher *fetch.Fetcher, logger *slog.Logger) *pipeline.Pipeline {
	store := rules.NewStore(rulesDir(cfg, siteCfg), rules.WithLogger(logger))
	checker := check.NewChecker(check.WithLogger(logger))

	opts := []pipeline.Option{
		pipeline.WithFuzzyThreshold(cfg.FuzzyThreshold),
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithRunBudget(cfg.RunBudget),
		pipeline.WithLogger(logger),
		pipeline.WithProgress(printProgress),
	}

	if evaluator := newEvaluator(ctx, cfg, logger); evaluator != nil {
		opts = append(opts, pipeline.WithSemanticEvaluator(evaluator))
	}

	if trk := newTracker(cfg, siteCfg, logger); trk != nil {
		opts = append(opts, pipeline.WithTracker(trk))
	}

	return pipeline.New(fetcher, store, checker, opts...)
}

// newEvaluator creates the semantic evaluator, or nil when semantic
// evaluation is disabled or no API key is available.
func newEvaluator(ctx context.Context, cfg *config.Config, logger *slog.Logger) pipeline.SemanticEvaluator {
	if !cfg.EnableLLM {
		return nil
	}
	if cfg.LLMAPIKey == "" {
		logger.Warn("semantic rules skipped: GEMINI_API_KEY is not set")
		return nil
	}

	client, err := llm.NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel,
		llm.WithCallTimeout(cfg.LLMTimeout),
		llm.WithClientLogger(logger),
	)
	if err != nil {
		logger.Warn("semantic rules skipped: LLM client unavailable", "error", err)
		return nil
	}

	return llm.NewEvaluator(client,
		llm.WithBatchSize(cfg.LLMBatchSize),
		llm.WithContentCap(cfg.ContentCharCap),
		llm.WithLogger(logger),
	)
}

// newTracker creates the task-board client, or nil for a dry run (explicit
// --dry-run, missing token, or no board configured).
func newTracker(cfg *config.Config, siteCfg config.SiteConfig, logger *slog.Logger) pipeline.Tracker {
	if cfg.DryRun {
		return nil
	}
	if cfg.TrackerToken == "" {
		logger.Warn("dry run: MONDAY_API_TOKEN is not set, no tasks will be created")
		return nil
	}
	if siteCfg.BoardID == "" {
		logger.Warn("dry run: site has no tracker board configured, no tasks will be created")
		return nil
	}

	return tracker.NewClient(cfg.TrackerToken, siteCfg.BoardID,
		tracker.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		tracker.WithLogger(logger),
	)
}

// rulesDir returns the directory holding per-site rule files. Rule files
// live next to the config file; without one, in the XDG config directory.
func rulesDir(cfg *config.Config, siteCfg config.SiteConfig) string {
	base := config.XDGConfigDir()
	if cfg.ConfigFilePath != "" {
		base = filepath.Dir(cfg.ConfigFilePath)
	}
	if siteCfg.RulesFile != "" {
		if filepath.IsAbs(siteCfg.RulesFile) {
			return filepath.Dir(siteCfg.RulesFile)
		}
		return filepath.Dir(filepath.Join(base, siteCfg.RulesFile))
	}
	return base
}

// printProgress writes a one-line progress update after each page.
func printProgress(snap model.ProgressSnapshot) {
	fmt.Fprintf(os.Stderr, "\r[%s] pages: %d done, %d failed | issues: %d | tasks: %d",
		snap.Phase, snap.PagesProcessed, snap.PagesFailed, snap.TotalIssues(), snap.TasksCreated)
	if snap.Phase == model.PhaseDone {
		fmt.Fprintln(os.Stderr)
	}
}

// outputReport writes the run summary in the requested format. With --output
// the formatted summary goes to the file and a plain-text summary still goes
// to stdout.
func outputReport(cfg *config.Config, runReport *model.RunReport) error {
	formatWriter := func(f *os.File) report.Writer {
		switch {
		case cfg.JSONReport:
			return report.NewFullJSONWriter(f, getVersion(), report.WithPrettyPrint())
		case cfg.MarkdownReport:
			return report.NewMarkdownWriter(f)
		default:
			return report.NewSimpleWriter(f, report.WithVerbose(cfg.Verbose))
		}
	}

	if cfg.ReportFile == "" {
		_, err := formatWriter(os.Stdout).Write(runReport)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// 0600: reports can include page URLs and issue details not meant
	// for other local users.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Write errors surface from the writer.

	mw := report.NewMultiWriter(
		formatWriter(f),
		report.NewSimpleWriter(os.Stdout, report.WithVerbose(cfg.Verbose)),
	)
	_, err = mw.Write(runReport)
	return err
}

// saveRunReport persists the run summary to the history database.
// Persistence failures are logged, never fatal: the audit already happened.
func saveRunReport(ctx context.Context, cfg *config.Config, runReport *model.RunReport, logger *slog.Logger) {
	if !cfg.SaveToDB {
		return
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Error("failed to open run-history database", "dir", cfg.DBDir, "error", err)
		return
	}
	defer db.Close() //nolint:errcheck // Best effort cleanup

	id, err := db.SaveRun(ctx, runReport)
	if err != nil {
		logger.Error("failed to save run report", "site", runReport.SiteID, "error", err)
		return
	}
	logger.Info("run report saved", "site", runReport.SiteID, "run_id", id)
}

// runHistory lists recent runs from the history database.
func runHistory(ctx context.Context, cmd *cobra.Command, cfg *config.Config, limit int) error {
	db, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no run history available: %w", err)
	}
	defer db.Close() //nolint:errcheck // Best effort cleanup

	runs, err := db.RecentRuns(ctx, cfg.SiteID, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-5s %-20s %-20s %7s %7s %7s %6s\n",
		"ID", "SITE", "STARTED", "PAGES", "ISSUES", "TASKS", "STATUS")
	for _, run := range runs {
		fmt.Fprintf(out, "%-5d %-20s %-20s %7d %7d %7d %6s\n",
			run.ID,
			run.SiteID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.PagesProcessed,
			run.IssuesFound,
			run.TasksCreated,
			historyStatus(run),
		)
	}
	return nil
}

// historyStatus summarizes one historical run's terminal state.
func historyStatus(run database.RunSummary) string {
	switch {
	case run.Error != "":
		return "failed"
	case run.TimedOut:
		return "budget"
	default:
		return "ok"
	}
}
