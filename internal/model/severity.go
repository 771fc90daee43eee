package model

import (
	"fmt"
	"strings"
)

// Severity represents the priority level of an audit issue.
// Rules carry a configured severity and issues inherit it unless the
// evaluator overrides it.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityLow indicates minor issues with limited impact.
	// Examples: missing Twitter Card tags, a slightly long URL.
	SeverityLow Severity = iota

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: thin content, missing Open Graph tags, heading level skips.
	SeverityMedium

	// SeverityHigh indicates serious issues that hurt page discoverability.
	// Examples: missing meta description, multiple H1 headings, no structured data.
	SeverityHigh

	// SeverityCritical indicates issues that likely block indexing or ranking.
	// Examples: missing title, robots noindex on an indexable page.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a severity name to a Severity value.
// Matching is case-insensitive. Returns an error for unrecognized names
// so malformed rule files are rejected at load time.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	case "CRITICAL":
		return SeverityCritical, nil
	default:
		return SeverityLow, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalYAML serializes the severity as its name.
func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}

// UnmarshalYAML parses a severity name from a rule file.
func (s *Severity) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Category groups rules by the aspect of the page they audit.
// Issues inherit the category of their rule group.
type Category string

const (
	// CategorySEO covers classic search-engine optimization rules
	// (title, meta description, headings, links, canonical).
	CategorySEO Category = "SEO"

	// CategoryGEO covers generative-engine optimization rules:
	// structured data and content signals consumed by LLM-backed search.
	CategoryGEO Category = "GEO"

	// CategoryVoice covers brand voice and tone rules, evaluated semantically.
	CategoryVoice Category = "Voice"

	// CategoryBrand covers brand standards rules (naming, terminology, claims).
	CategoryBrand Category = "Brand"
)

// Categories lists all known categories in display order.
func Categories() []Category {
	return []Category{CategorySEO, CategoryGEO, CategoryVoice, CategoryBrand}
}

// ParseCategory converts a category name to a Category value.
// Matching is case-insensitive.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SEO":
		return CategorySEO, nil
	case "GEO":
		return CategoryGEO, nil
	case "VOICE":
		return CategoryVoice, nil
	case "BRAND":
		return CategoryBrand, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}
