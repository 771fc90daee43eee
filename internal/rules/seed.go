package rules

import (
	"errors"
	"fmt"
	"os"

	"github.com/pagelint/pagelint/internal/model"
)

// ErrRulesFileExists is returned when Seed would overwrite an existing file.
var ErrRulesFileExists = errors.New("rules file already exists")

// DefaultRules returns the seeded rule set grouped by category. Seeded rules
// are protected: they can be disabled or have their instruction edited, but
// not removed.
func DefaultRules() map[model.Category][]model.Rule {
	seo := []model.Rule{
		{ID: "title-missing", Name: "Page title missing", CheckID: "title.missing", Severity: model.SeverityCritical},
		{ID: "title-length", Name: "Page title length", CheckID: "title.length", Severity: model.SeverityHigh},
		{ID: "meta-description-missing", Name: "Meta description missing", CheckID: "meta.description.missing", Severity: model.SeverityHigh},
		{ID: "meta-description-length", Name: "Meta description length", CheckID: "meta.description.length", Severity: model.SeverityMedium},
		{ID: "h1-count", Name: "Exactly one H1", CheckID: "heading.h1.count", Severity: model.SeverityHigh},
		{ID: "heading-hierarchy", Name: "Heading hierarchy", CheckID: "heading.hierarchy", Severity: model.SeverityLow},
		{ID: "image-alt", Name: "Image alt text", CheckID: "image.alt.missing", Severity: model.SeverityMedium},
		{ID: "thin-content", Name: "Thin content", CheckID: "content.word-count", Severity: model.SeverityMedium},
		{ID: "url-length", Name: "URL length", CheckID: "url.length", Severity: model.SeverityLow},
		{ID: "url-format", Name: "URL format", CheckID: "url.format", Severity: model.SeverityLow},
		{ID: "internal-links", Name: "Internal link count", CheckID: "link.internal.count", Severity: model.SeverityMedium},
		{ID: "canonical-missing", Name: "Canonical URL missing", CheckID: "canonical.missing", Severity: model.SeverityHigh},
		{ID: "robots-noindex", Name: "Page blocked by noindex", CheckID: "robots.noindex", Severity: model.SeverityCritical},
		{ID: "og-tags", Name: "Open Graph tags", CheckID: "meta.og.missing", Severity: model.SeverityMedium},
		{ID: "twitter-card", Name: "Twitter Card tags", CheckID: "meta.twitter.missing", Severity: model.SeverityLow},
		{ID: "viewport-missing", Name: "Viewport meta missing", CheckID: "meta.viewport.missing", Severity: model.SeverityHigh},
		{ID: "hreflang-xdefault", Name: "Hreflang x-default", CheckID: "hreflang.xdefault.missing", Severity: model.SeverityLow},
	}

	geo := []model.Rule{
		{ID: "schema-missing", Name: "Structured data missing", CheckID: "schema.missing", Severity: model.SeverityHigh},
		{ID: "schema-faq", Name: "FAQ or HowTo schema", CheckID: "schema.faq.missing", Severity: model.SeverityMedium,
			Instruction: "Does the page contain question-and-answer content that should be marked up as FAQ structured data?"},
		{ID: "schema-breadcrumb", Name: "Breadcrumb schema", CheckID: "schema.breadcrumb.missing", Severity: model.SeverityLow},
		{ID: "schema-localbusiness", Name: "Local business schema", CheckID: "schema.localbusiness.missing", Severity: model.SeverityMedium},
		{ID: "answer-ready", Name: "Answer-ready content",
			Instruction: "Does the page answer its main topic in a concise, self-contained paragraph near the top that an answer engine could quote directly?",
			Severity:    model.SeverityMedium},
	}

	voice := []model.Rule{
		{ID: "conversational-headings", Name: "Conversational headings",
			Instruction: "Are the page headings phrased the way a person would ask the question aloud, rather than as keyword fragments?",
			Severity:    model.SeverityLow},
		{ID: "readability", Name: "Readability",
			Instruction: "Is the main body copy readable at roughly an 8th-grade level, with short sentences and no unexplained jargon?",
			Severity:    model.SeverityMedium},
	}

	brand := []model.Rule{
		{ID: "brand-tone", Name: "Brand tone of voice",
			Instruction: "Does the copy keep a warm, welcoming tone consistent with a premium hospitality brand, avoiding hard-sell language?",
			Severity:    model.SeverityMedium},
		{ID: "brand-naming", Name: "Consistent product naming",
			Instruction: "Are property, room, and amenity names used consistently across the page without abbreviations or outdated names?",
			Severity:    model.SeverityLow},
	}

	seeded := map[model.Category][]model.Rule{
		model.CategorySEO:   seo,
		model.CategoryGEO:   geo,
		model.CategoryVoice: voice,
		model.CategoryBrand: brand,
	}
	for category, group := range seeded {
		for i := range group {
			group[i].Category = category
			group[i].Enabled = true
			group[i].Protected = true
		}
	}
	return seeded
}

// Seed writes the default rule set for a site. It refuses to overwrite an
// existing rules file so site-specific edits survive re-running init.
func (s *Store) Seed(siteID string) (string, error) {
	path := s.FilePath(siteID)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%w: %s", ErrRulesFileExists, path)
	}

	file := &ruleFile{Categories: DefaultRules()}
	if err := s.write(siteID, file); err != nil {
		return "", err
	}
	return path, nil
}
