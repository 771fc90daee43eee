package check

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pagelint/pagelint/internal/model"
)

// Structural thresholds. These follow common search-engine guidance and are
// deliberately simple: each threshold belongs to exactly one check, so the
// admin-configurable rule set stays closed over enable/disable.
const (
	// MinTitleLength and MaxTitleLength bound the acceptable <title> length.
	// Shorter titles waste the snippet; longer ones get truncated in results.
	MinTitleLength = 30
	MaxTitleLength = 60

	// MinMetaDescriptionLength and MaxMetaDescriptionLength bound the meta
	// description. 120-160 characters renders fully in result snippets.
	MinMetaDescriptionLength = 120
	MaxMetaDescriptionLength = 160

	// MinWordCount is the thin-content floor for body text.
	MinWordCount = 300

	// MaxURLLength is the recommended URL length ceiling.
	MaxURLLength = 75

	// MinInternalLinks is the minimum internal links a page should carry.
	MinInternalLinks = 3
)

// result is the outcome of one predicate: whether the page violates the
// rule, plus the human-readable finding texts.
type result struct {
	violated    bool
	title       string
	description string
}

// predicate is one deterministic structural check over a parsed page.
// Predicates are pure and never fail on missing optional fields.
type predicate func(page *model.PageContext) result

// registry maps check identifiers to their predicates. Rule files reference
// checks by these identifiers.
var registry = map[string]predicate{
	"title.missing":                checkTitleMissing,
	"title.length":                 checkTitleLength,
	"meta.description.missing":     checkMetaDescriptionMissing,
	"meta.description.length":      checkMetaDescriptionLength,
	"heading.h1.count":             checkH1Count,
	"heading.hierarchy":            checkHeadingHierarchy,
	"image.alt.missing":            checkImageAltMissing,
	"content.word-count":           checkWordCount,
	"url.length":                   checkURLLength,
	"url.format":                   checkURLFormat,
	"link.internal.count":          checkInternalLinkCount,
	"canonical.missing":            checkCanonicalMissing,
	"robots.noindex":               checkRobotsNoindex,
	"meta.og.missing":              checkOpenGraphMissing,
	"meta.twitter.missing":         checkTwitterCardMissing,
	"meta.viewport.missing":        checkViewportMissing,
	"hreflang.xdefault.missing":    checkHreflangXDefaultMissing,
	"schema.missing":               checkSchemaMissing,
	"schema.faq.missing":           checkFAQSchemaMissing,
	"schema.breadcrumb.missing":    checkBreadcrumbSchemaMissing,
	"schema.localbusiness.missing": checkLocalBusinessSchemaMissing,
}

// KnownCheckIDs returns all registered check identifiers.
// Useful for validating rule files and generating documentation.
func KnownCheckIDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}

func checkTitleMissing(page *model.PageContext) result {
	if strings.TrimSpace(page.Title) != "" {
		return result{}
	}
	return result{
		violated:    true,
		title:       "Missing page title",
		description: "The page has no <title> element. Add a descriptive title so search engines and browsers can label the page.",
	}
}

func checkTitleLength(page *model.PageContext) result {
	title := strings.TrimSpace(page.Title)
	// Absence is title.missing's job; this check only judges length.
	if title == "" {
		return result{}
	}
	if n := len(title); n < MinTitleLength || n > MaxTitleLength {
		return result{
			violated: true,
			title:    "Page title length out of range",
			description: fmt.Sprintf("The title is %d characters; aim for %d-%d so it renders fully in search results.",
				n, MinTitleLength, MaxTitleLength),
		}
	}
	return result{}
}

func checkMetaDescriptionMissing(page *model.PageContext) result {
	if strings.TrimSpace(page.Meta("description")) != "" {
		return result{}
	}
	return result{
		violated:    true,
		title:       "Missing meta description",
		description: "The page has no meta description. Add one so search engines show an accurate snippet.",
	}
}

func checkMetaDescriptionLength(page *model.PageContext) result {
	desc := strings.TrimSpace(page.Meta("description"))
	if desc == "" {
		return result{}
	}
	if n := len(desc); n < MinMetaDescriptionLength || n > MaxMetaDescriptionLength {
		return result{
			violated: true,
			title:    "Meta description length out of range",
			description: fmt.Sprintf("The meta description is %d characters; aim for %d-%d.",
				n, MinMetaDescriptionLength, MaxMetaDescriptionLength),
		}
	}
	return result{}
}

func checkH1Count(page *model.PageContext) result {
	n := len(page.HeadingsAtLevel(1))
	switch {
	case n == 0:
		return result{
			violated:    true,
			title:       "Missing H1 heading",
			description: "The page has no H1 heading. Every page should have exactly one H1 describing its topic.",
		}
	case n > 1:
		return result{
			violated:    true,
			title:       "Multiple H1 headings",
			description: fmt.Sprintf("The page has %d H1 headings. Keep exactly one and demote the rest.", n),
		}
	default:
		return result{}
	}
}

func checkHeadingHierarchy(page *model.PageContext) result {
	prev := 0
	for _, h := range page.Headings {
		if prev > 0 && h.Level > prev+1 {
			return result{
				violated: true,
				title:    "Heading level skip",
				description: fmt.Sprintf("Heading %q jumps from h%d to h%d. Keep heading levels sequential for accessibility and crawlers.",
					h.Text, prev, h.Level),
			}
		}
		prev = h.Level
	}
	return result{}
}

func checkImageAltMissing(page *model.PageContext) result {
	var missing int
	for _, img := range page.Images {
		if strings.TrimSpace(img.Alt) == "" {
			missing++
		}
	}
	if missing == 0 {
		return result{}
	}
	return result{
		violated: true,
		title:    "Images missing alt text",
		description: fmt.Sprintf("%d of %d images have no alt text. Add descriptive alt attributes for accessibility and image search.",
			missing, len(page.Images)),
	}
}

func checkWordCount(page *model.PageContext) result {
	if page.WordCount >= MinWordCount {
		return result{}
	}
	return result{
		violated: true,
		title:    "Thin content",
		description: fmt.Sprintf("The page body has %d words; pages under %d words rarely rank or get cited. Expand the content.",
			page.WordCount, MinWordCount),
	}
}

func checkURLLength(page *model.PageContext) result {
	if len(page.URL) <= MaxURLLength {
		return result{}
	}
	return result{
		violated: true,
		title:    "URL too long",
		description: fmt.Sprintf("The URL is %d characters; keep URLs under %d characters.",
			len(page.URL), MaxURLLength),
	}
}

func checkURLFormat(page *model.PageContext) result {
	u, err := url.Parse(page.URL)
	if err != nil {
		return result{}
	}
	path := u.Path
	if strings.Contains(path, "_") {
		return result{
			violated:    true,
			title:       "Underscores in URL path",
			description: "The URL path contains underscores. Use hyphens as word separators.",
		}
	}
	if path != strings.ToLower(path) {
		return result{
			violated:    true,
			title:       "Uppercase characters in URL path",
			description: "The URL path contains uppercase characters. Use lowercase paths to avoid duplicate-content variants.",
		}
	}
	return result{}
}

func checkInternalLinkCount(page *model.PageContext) result {
	n := page.InternalLinkCount()
	if n >= MinInternalLinks {
		return result{}
	}
	return result{
		violated: true,
		title:    "Too few internal links",
		description: fmt.Sprintf("The page has %d internal links; link to at least %d related pages so crawlers can discover them.",
			n, MinInternalLinks),
	}
}

func checkCanonicalMissing(page *model.PageContext) result {
	if page.CanonicalURL != "" {
		return result{}
	}
	return result{
		violated:    true,
		title:       "Missing canonical URL",
		description: "The page has no <link rel=\"canonical\">. Declare a canonical URL to consolidate ranking signals.",
	}
}

func checkRobotsNoindex(page *model.PageContext) result {
	robots := strings.ToLower(page.Meta("robots"))
	if !strings.Contains(robots, "noindex") {
		return result{}
	}
	return result{
		violated:    true,
		title:       "Page blocked by robots noindex",
		description: "The meta robots tag contains noindex, so the page is excluded from search indexes. Remove it if the page should rank.",
	}
}

func checkOpenGraphMissing(page *model.PageContext) result {
	for name := range page.MetaTags {
		if strings.HasPrefix(name, "og:") {
			return result{}
		}
	}
	return result{
		violated:    true,
		title:       "Missing Open Graph tags",
		description: "The page has no og: meta tags. Add og:title, og:description, and og:image so shares render rich previews.",
	}
}

func checkTwitterCardMissing(page *model.PageContext) result {
	for name := range page.MetaTags {
		if strings.HasPrefix(name, "twitter:") {
			return result{}
		}
	}
	return result{
		violated:    true,
		title:       "Missing Twitter Card tags",
		description: "The page has no twitter: meta tags. Add twitter:card and twitter:title for link previews.",
	}
}

func checkViewportMissing(page *model.PageContext) result {
	if page.Meta("viewport") != "" {
		return result{}
	}
	return result{
		violated:    true,
		title:       "Missing viewport meta tag",
		description: "The page has no viewport meta tag, so mobile rendering falls back to desktop width. Add one.",
	}
}

func checkHreflangXDefaultMissing(page *model.PageContext) result {
	// Only meaningful on pages that declare alternates at all.
	if len(page.Hreflangs) == 0 {
		return result{}
	}
	if _, ok := page.Hreflangs["x-default"]; ok {
		return result{}
	}
	return result{
		violated:    true,
		title:       "Missing x-default hreflang",
		description: "The page declares hreflang alternates but no x-default. Add one so unmatched locales get a canonical variant.",
	}
}

func checkSchemaMissing(page *model.PageContext) result {
	if len(page.StructuredData) > 0 {
		return result{}
	}
	return result{
		violated:    true,
		title:       "No structured data",
		description: "The page has no JSON-LD structured data. Add schema.org markup so search and answer engines can parse the content.",
	}
}

func checkFAQSchemaMissing(page *model.PageContext) result {
	if hasSchemaType(page, "FAQPage", "HowTo") {
		return result{}
	}
	return result{
		violated:    true,
		title:       "Missing FAQ or HowTo schema",
		description: "The page has no FAQPage or HowTo structured data. Question-and-answer markup makes content citable by answer engines.",
	}
}

func checkBreadcrumbSchemaMissing(page *model.PageContext) result {
	if hasSchemaType(page, "BreadcrumbList") {
		return result{}
	}
	return result{
		violated:    true,
		title:       "Missing breadcrumb schema",
		description: "The page has no BreadcrumbList structured data. Breadcrumb markup helps engines understand the site hierarchy.",
	}
}

func checkLocalBusinessSchemaMissing(page *model.PageContext) result {
	if hasSchemaType(page, "LocalBusiness", "Hotel", "Resort", "Organization") {
		return result{}
	}
	return result{
		violated:    true,
		title:       "Missing local business schema",
		description: "The page has no LocalBusiness, Hotel, or Organization structured data. Location markup feeds maps and local answers.",
	}
}

// hasSchemaType reports whether any JSON-LD block declares one of the given
// @type values. A substring match on the quoted type name is sufficient here:
// blocks are raw JSON-LD and schema.org type names are distinctive.
func hasSchemaType(page *model.PageContext, types ...string) bool {
	for _, block := range page.StructuredData {
		for _, t := range types {
			if strings.Contains(block, `"`+t+`"`) {
				return true
			}
		}
	}
	return false
}
