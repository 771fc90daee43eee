package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Thresholds and caps follow the audit policy the rules were written against;
// tunable ones are plain Config fields so operators can recalibrate them.
const (
	// DefaultTimeout is the per-request timeout for page fetches and tracker
	// calls. 30 seconds tolerates slow origins without stalling the run.
	DefaultTimeout = 30 * time.Second

	// DefaultLLMTimeout is the per-call timeout for one semantic evaluation
	// batch. Model calls with large prompts routinely take tens of seconds.
	DefaultLLMTimeout = 90 * time.Second

	// DefaultRunBudget is the wall-clock budget for one full run. The
	// pipeline stops starting new pages when the budget is exhausted and
	// returns whatever progress it accumulated, so callers with their own
	// deadlines (webhooks, schedulers) never hang.
	DefaultRunBudget = 15 * time.Minute

	// DefaultConcurrency is the number of pages fetched and evaluated in
	// parallel. Dedup and task creation stay sequential regardless; this
	// only bounds the fetch+evaluate stage.
	DefaultConcurrency = 3

	// DefaultLLMBatchSize is the number of semantic rules sent to the model
	// in one call. Five keeps prompts well inside context limits while
	// amortizing per-call overhead. Batches for one page run sequentially.
	DefaultLLMBatchSize = 5

	// DefaultContentCharCap bounds the page markup included in semantic
	// evaluation prompts. Content beyond the cap is dropped, not summarized.
	DefaultContentCharCap = 50000

	// DefaultFuzzyThreshold is the similarity score (0-1) at or above which
	// two issue titles on the same URL are considered duplicates. This is a
	// policy constant, not derived; ≥ means duplicate.
	DefaultFuzzyThreshold = 0.75

	// DefaultMaxPages caps the number of sitemap URLs audited per run.
	DefaultMaxPages = 20

	// DefaultDaysToCheck keeps only sitemap URLs whose lastmod falls within
	// this many days. Zero disables the recency filter.
	DefaultDaysToCheck = 7

	// DefaultUserAgent identifies the auditor in HTTP requests.
	// A descriptive User-Agent lets site operators identify audit traffic.
	DefaultUserAgent = "pagelint/1.0 (+https://github.com/pagelint/pagelint)"

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB covers any realistic HTML document while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultLLMModel is the Gemini model used for semantic evaluation.
	DefaultLLMModel = "gemini-2.0-flash"

	// AppName is the application name used for XDG directory paths.
	AppName = "pagelint"
)

// Config holds all configuration options for one audit invocation.
// This struct is populated from CLI flags plus the config file and passed
// through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, LLMConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// SiteID selects which configured site to audit.
	SiteID string

	// TargetURL audits a single URL instead of the site's sitemap.
	// Mutually exclusive with Subfolder.
	TargetURL string

	// Subfolder restricts the sitemap-derived page set to URLs whose path
	// starts with this prefix. Empty means the full site.
	Subfolder string

	// Timeout is the per-request timeout for fetches and tracker calls.
	Timeout time.Duration

	// LLMTimeout is the per-call timeout for one semantic batch.
	LLMTimeout time.Duration

	// RunBudget is the wall-clock budget for the whole run.
	RunBudget time.Duration

	// Concurrency bounds the parallel fetch+evaluate stage across pages.
	Concurrency int

	// LLMBatchSize is the number of semantic rules per model call.
	LLMBatchSize int

	// ContentCharCap bounds page markup in semantic prompts, in characters.
	ContentCharCap int

	// FuzzyThreshold is the duplicate-similarity cutoff on a 0-1 scale.
	FuzzyThreshold float64

	// MaxPages caps the number of pages audited per run.
	MaxPages int

	// DaysToCheck keeps only sitemap URLs modified within this many days.
	DaysToCheck int

	// EnableLLM turns semantic evaluation on. When false, only structural
	// rules run and no model calls are made.
	EnableLLM bool

	// LLMModel is the model identifier for semantic evaluation.
	LLMModel string

	// LLMAPIKey authenticates semantic evaluation calls.
	// Usually supplied via the GEMINI_API_KEY environment variable.
	LLMAPIKey string

	// TrackerToken authenticates task-tracker API calls.
	TrackerToken string

	// DryRun evaluates pages and logs would-be tasks without creating any.
	DryRun bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches pagelint.yml in the current directory and then in the
	// XDG config directory.
	ConfigFilePath string

	// Sites holds the per-site configurations loaded from the config file.
	Sites *File

	// JSONReport enables JSON run-summary output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown run-summary output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the run summary.
	// When set, the summary is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory for the run-history SQLite database.
	// Defaults to the XDG data directory. Empty disables persistence
	// only when SaveToDB is false.
	DBDir string

	// SaveToDB indicates whether to persist run summaries to the database.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with page fetches.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, caps).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		LLMTimeout:     DefaultLLMTimeout,
		RunBudget:      DefaultRunBudget,
		Concurrency:    DefaultConcurrency,
		LLMBatchSize:   DefaultLLMBatchSize,
		ContentCharCap: DefaultContentCharCap,
		FuzzyThreshold: DefaultFuzzyThreshold,
		MaxPages:       DefaultMaxPages,
		DaysToCheck:    DefaultDaysToCheck,
		LLMModel:       DefaultLLMModel,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for pagelint.
// On Linux: ~/.local/share/pagelint
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagelint.
// On Linux: ~/.config/pagelint
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for pagelint.
// On Linux: ~/.cache/pagelint
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any auditing begins.
// We return the first error found because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if c.SiteID == "" && c.TargetURL == "" {
		return ErrNoSite
	}

	if c.Timeout <= 0 || c.LLMTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RunBudget <= 0 {
		return ErrInvalidRunBudget
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.LLMBatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 1 {
		return ErrInvalidFuzzyThreshold
	}

	if c.ContentCharCap < 0 {
		return ErrInvalidContentCap
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.TargetURL != "" && c.Subfolder != "" {
		return ErrConflictingSources
	}

	return nil
}
