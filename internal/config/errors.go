package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoSite is returned when neither a site nor a single URL is selected.
	ErrNoSite = errors.New("no audit target: provide a site id or use --url")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRunBudget is returned when the wall-clock budget is not positive.
	// Without a positive budget the run could never start any page work.
	ErrInvalidRunBudget = errors.New("invalid run budget: must be positive")

	// ErrInvalidConcurrency is returned when the page concurrency is not positive.
	// Zero concurrency would mean no pages could be fetched.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the LLM batch size is not positive.
	// A batch size of zero would send no rules per model call.
	ErrInvalidBatchSize = errors.New("invalid llm batch size: must be positive")

	// ErrInvalidFuzzyThreshold is returned when the similarity cutoff is
	// outside the normalized 0-1 range.
	ErrInvalidFuzzyThreshold = errors.New("invalid fuzzy threshold: must be between 0 and 1")

	// ErrInvalidContentCap is returned when the prompt content cap is negative.
	// Use 0 to disable truncation.
	ErrInvalidContentCap = errors.New("invalid content cap: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingSources is returned when both --url and --subfolder are
	// specified. A single-URL audit already fixes the page set.
	ErrConflictingSources = errors.New("conflicting audit sources: --url and --subfolder cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrSiteNotConfigured is returned when the selected site id does not
	// appear in the configuration file.
	ErrSiteNotConfigured = errors.New("site not present in configuration file")
)
