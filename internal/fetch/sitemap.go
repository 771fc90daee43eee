package fetch

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrEmptySitemap is returned when a sitemap yields no usable URLs.
var ErrEmptySitemap = errors.New("sitemap contains no urls")

// SitemapEntry is one URL from a sitemap with its last modification time.
// LastMod is zero when the sitemap omits it.
type SitemapEntry struct {
	URL     string
	LastMod time.Time
}

// sitemapXML matches both <urlset> and <sitemapindex> documents; the two
// share enough structure that one type decodes either.
type sitemapXML struct {
	XMLName  xml.Name     `xml:""`
	URLs     []sitemapURL `xml:"url"`
	Sitemaps []sitemapURL `xml:"sitemap"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// FetchSitemap retrieves and parses a sitemap. Sitemap index files are
// followed one level deep; a child sitemap that fails to load is skipped so
// one broken shard cannot empty the page set.
func (f *Fetcher) FetchSitemap(ctx context.Context, sitemapURL string) ([]SitemapEntry, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	doc, err := f.getSitemap(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var entries []SitemapEntry
	entries = append(entries, toEntries(doc.URLs)...)

	for _, child := range doc.Sitemaps {
		if child.Loc == "" {
			continue
		}
		childDoc, err := f.getSitemap(ctx, strings.TrimSpace(child.Loc))
		if err != nil {
			continue
		}
		entries = append(entries, toEntries(childDoc.URLs)...)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySitemap, sitemapURL)
	}
	return entries, nil
}

// getSitemap fetches and decodes one sitemap document.
func (f *Fetcher) getSitemap(ctx context.Context, url string) (*sitemapXML, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap %q: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read errors surface below.

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d for sitemap %q", ErrHTTPStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read sitemap %q: %w", url, err)
	}

	var doc sitemapXML
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode sitemap %q: %w", url, err)
	}
	return &doc, nil
}

// toEntries converts raw sitemap URLs, parsing lastmod where present.
func toEntries(urls []sitemapURL) []SitemapEntry {
	var entries []SitemapEntry
	for _, u := range urls {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" {
			continue
		}
		entries = append(entries, SitemapEntry{
			URL:     loc,
			LastMod: parseLastMod(u.LastMod),
		})
	}
	return entries
}

// parseLastMod accepts the date formats sitemaps use in the wild.
// Returns the zero time when the value is absent or unparseable.
func parseLastMod(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SelectPages applies the audit-source policy to sitemap entries:
// keep URLs modified within days (entries without lastmod are kept so a
// sparse sitemap still gets audited), restrict to the subfolder prefix when
// given, and cap the result at maxPages. Entries keep sitemap order.
func SelectPages(entries []SitemapEntry, days, maxPages int, subfolder string, now time.Time) []string {
	cutoff := now.AddDate(0, 0, -days)

	var pages []string
	for _, e := range entries {
		if days > 0 && !e.LastMod.IsZero() && e.LastMod.Before(cutoff) {
			continue
		}
		if subfolder != "" && !matchesSubfolder(e.URL, subfolder) {
			continue
		}
		pages = append(pages, e.URL)
		if maxPages > 0 && len(pages) >= maxPages {
			break
		}
	}
	return pages
}

// matchesSubfolder reports whether a URL's path starts with the prefix.
func matchesSubfolder(pageURL, subfolder string) bool {
	idx := strings.Index(pageURL, "://")
	path := pageURL
	if idx >= 0 {
		rest := pageURL[idx+3:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			path = rest[slash:]
		} else {
			path = "/"
		}
	}
	if !strings.HasPrefix(subfolder, "/") {
		subfolder = "/" + subfolder
	}
	return strings.HasPrefix(path, subfolder)
}
