package check

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pagelint/pagelint/internal/model"
)

// ErrUnknownCheckID is returned when a rule references a check identifier
// that is not registered. This indicates a broken rule file, not a broken
// page; callers log it and skip the rule.
var ErrUnknownCheckID = errors.New("unknown check identifier")

// Checker evaluates structural rules against parsed pages.
// Evaluation is pure, deterministic, and synchronous: identical inputs
// always produce identical issues.
type Checker struct {
	logger *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger used for configuration warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker creates a structural rule checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate runs one structural rule against a page.
// It returns the issue and true when the page violates the rule, and
// ErrUnknownCheckID when the rule's check identifier is not registered.
func (c *Checker) Evaluate(rule model.Rule, page *model.PageContext) (model.Issue, bool, error) {
	pred, ok := registry[rule.CheckID]
	if !ok {
		return model.Issue{}, false, fmt.Errorf("rule %q: %w: %q", rule.ID, ErrUnknownCheckID, rule.CheckID)
	}

	res := pred(page)
	if !res.violated {
		return model.Issue{}, false, nil
	}

	return model.Issue{
		RuleID:      rule.ID,
		URL:         page.URL,
		Title:       res.title,
		Description: res.description,
		Severity:    rule.Severity,
		Category:    rule.Category,
		Source:      model.SourceStructural,
	}, true, nil
}

// Run evaluates all structural rules against a page in rule order.
// Rules with unregistered check identifiers are logged and skipped; they
// never abort the page. The returned count is the number of skipped rules.
func (c *Checker) Run(rules []model.Rule, page *model.PageContext) ([]model.Issue, int) {
	var issues []model.Issue
	var skipped int

	for _, rule := range rules {
		issue, violated, err := c.Evaluate(rule, page)
		if err != nil {
			c.logger.Warn("skipping structural rule",
				"rule", rule.ID,
				"check_id", rule.CheckID,
				"error", err)
			skipped++
			continue
		}
		if violated {
			issues = append(issues, issue)
		}
	}

	return issues, skipped
}
