package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"
)

// PageContext is the parsed snapshot of one web page for a single audit pass.
// It is constructed once by the fetch layer and never mutated afterwards;
// the pipeline owns it exclusively for the duration of one page's audit.
//
// Design decision: We store both the parsed structure and a bounded slice of
// raw markup because:
// 1. Structural predicates need typed fields (title, headings, meta tags)
// 2. Semantic evaluation needs raw content, capped so prompts stay bounded
// 3. The hash allows change detection between runs
type PageContext struct {
	// URL is the full URL of the audited page.
	URL string `json:"url"`

	// FetchedAt is when the page was retrieved.
	FetchedAt time.Time `json:"fetched_at"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Title is the page title extracted from the <title> tag.
	// Empty if the page has no title element.
	Title string `json:"title,omitempty"`

	// MetaTags maps meta tag names (and og:/twitter: properties) to content.
	// Keys are lower-cased.
	MetaTags map[string]string `json:"meta_tags,omitempty"`

	// Headings contains all h1-h6 elements in document order.
	Headings []Heading `json:"headings,omitempty"`

	// StructuredData contains the raw text of every JSON-LD script block.
	StructuredData []string `json:"structured_data,omitempty"`

	// Links contains all anchor elements with resolved targets.
	Links []Link `json:"links,omitempty"`

	// Images contains all img elements.
	Images []Image `json:"images,omitempty"`

	// CanonicalURL is the href of <link rel="canonical">, if present.
	CanonicalURL string `json:"canonical_url,omitempty"`

	// Hreflangs maps hreflang values to their alternate URLs.
	Hreflangs map[string]string `json:"hreflangs,omitempty"`

	// Lang is the lang attribute of the <html> element.
	Lang string `json:"lang,omitempty"`

	// WordCount is the number of words in the rendered body text.
	WordCount int `json:"word_count"`

	// RawContent is the page markup truncated to the configured character
	// cap. Content beyond the cap is dropped, not summarized. Used only for
	// semantic evaluation prompts.
	RawContent string `json:"-"`

	// Hash is the SHA-256 hash of the full (untruncated) response body.
	// Used for change detection between runs.
	Hash string `json:"hash"`
}

// Heading is one h1-h6 element.
type Heading struct {
	// Level is the heading level, 1 through 6.
	Level int `json:"level"`

	// Text is the heading's inner text, whitespace-collapsed.
	Text string `json:"text"`
}

// Link is one anchor element with a resolved absolute target.
type Link struct {
	// URL is the resolved absolute target.
	URL string `json:"url"`

	// Text is the anchor's inner text.
	Text string `json:"text,omitempty"`

	// Internal is true when the target shares the page's host.
	Internal bool `json:"internal"`

	// Rel is the rel attribute.
	Rel string `json:"rel,omitempty"`
}

// Image is one img element.
type Image struct {
	// Source is the src attribute.
	Source string `json:"source"`

	// Alt is the alt attribute. Empty means missing alt text.
	Alt string `json:"alt,omitempty"`
}

// ComputeHash calculates the SHA-256 hash of the given body and sets Hash.
// Call this with the full response body before truncation.
func (p *PageContext) ComputeHash(body []byte) {
	if len(body) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(body)
	p.Hash = hex.EncodeToString(hash[:])
}

// Meta returns the content of the named meta tag.
// Names are matched lower-cased; returns empty string if absent.
func (p *PageContext) Meta(name string) string {
	return p.MetaTags[strings.ToLower(name)]
}

// HeadingsAtLevel returns all headings at the given level in document order.
func (p *PageContext) HeadingsAtLevel(level int) []Heading {
	var out []Heading
	for _, h := range p.Headings {
		if h.Level == level {
			out = append(out, h)
		}
	}
	return out
}

// InternalLinkCount returns the number of links pointing at the page's host.
func (p *PageContext) InternalLinkCount() int {
	var n int
	for _, l := range p.Links {
		if l.Internal {
			n++
		}
	}
	return n
}

// TruncateRawContent caps RawContent at max characters.
// Call this after construction to enforce the semantic-evaluation bound.
func (p *PageContext) TruncateRawContent(max int) {
	p.RawContent = CapContent(p.RawContent, max)
}

// CapContent caps s at max bytes. A multi-byte UTF-8 rune split by the cap
// is dropped whole so the result stays valid UTF-8. A max of zero or less
// means no cap.
func CapContent(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	s = s[:max]
	for i := 0; i < utf8.UTFMax-1 && s != ""; i++ {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size > 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
