package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchSitemapURLSet(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc><lastmod>2026-08-20</lastmod></url>
  <url><loc> https://example.com/rooms </loc><lastmod>2026-08-01T10:30:00+00:00</lastmod></url>
  <url><loc>https://example.com/contact</loc></url>
  <url><loc></loc></url>
</urlset>`)
	}))
	defer ts.Close()

	f := NewFetcher(ts.Client())
	entries, err := f.FetchSitemap(context.Background(), ts.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("FetchSitemap() error = %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3 (empty loc skipped)", len(entries))
	}
	if entries[1].URL != "https://example.com/rooms" {
		t.Errorf("loc not trimmed: %q", entries[1].URL)
	}
	if entries[0].LastMod.IsZero() {
		t.Error("date-only lastmod not parsed")
	}
	if entries[1].LastMod.IsZero() {
		t.Error("RFC3339 lastmod not parsed")
	}
	if !entries[2].LastMod.IsZero() {
		t.Error("missing lastmod should be zero time")
	}
}

func TestFetchSitemapIndex(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/pages.xml</loc></sitemap>
  <sitemap><loc>%s/broken.xml</loc></sitemap>
</sitemapindex>`, ts.URL, ts.URL)
	})
	mux.HandleFunc("/pages.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<urlset><url><loc>https://example.com/a</loc></url><url><loc>https://example.com/b</loc></url></urlset>`)
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	f := NewFetcher(ts.Client())
	entries, err := f.FetchSitemap(context.Background(), ts.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("FetchSitemap() error = %v", err)
	}
	// The broken child shard is skipped, not fatal.
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2 from the healthy shard", len(entries))
	}
}

func TestFetchSitemapEmpty(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<urlset></urlset>`)
	}))
	defer ts.Close()

	f := NewFetcher(ts.Client())
	if _, err := f.FetchSitemap(context.Background(), ts.URL+"/sitemap.xml"); !errors.Is(err, ErrEmptySitemap) {
		t.Errorf("error = %v, want ErrEmptySitemap", err)
	}
}

func TestSelectPages(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	entries := []SitemapEntry{
		{URL: "https://example.com/fresh", LastMod: now.AddDate(0, 0, -2)},
		{URL: "https://example.com/stale", LastMod: now.AddDate(0, 0, -30)},
		{URL: "https://example.com/blog/post", LastMod: now.AddDate(0, 0, -1)},
		{URL: "https://example.com/undated"},
	}

	tests := []struct {
		name      string
		days      int
		maxPages  int
		subfolder string
		want      []string
	}{
		{
			name: "recency filter drops stale pages",
			days: 7, maxPages: 20,
			want: []string{"https://example.com/fresh", "https://example.com/blog/post", "https://example.com/undated"},
		},
		{
			name: "zero days disables the filter",
			days: 0, maxPages: 20,
			want: []string{"https://example.com/fresh", "https://example.com/stale", "https://example.com/blog/post", "https://example.com/undated"},
		},
		{
			name: "subfolder restricts to a path prefix",
			days: 7, maxPages: 20, subfolder: "/blog",
			want: []string{"https://example.com/blog/post"},
		},
		{
			name: "subfolder without leading slash",
			days: 7, maxPages: 20, subfolder: "blog",
			want: []string{"https://example.com/blog/post"},
		},
		{
			name: "page cap keeps sitemap order",
			days: 7, maxPages: 2,
			want: []string{"https://example.com/fresh", "https://example.com/blog/post"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SelectPages(entries, tt.days, tt.maxPages, tt.subfolder, now)
			if len(got) != len(tt.want) {
				t.Fatalf("SelectPages() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("page[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseLastMod(t *testing.T) {
	t.Parallel()

	if parseLastMod("not a date").IsZero() != true {
		t.Error("garbage lastmod should be zero time")
	}
	if parseLastMod("2026-01-15").IsZero() {
		t.Error("date-only form should parse")
	}
	if parseLastMod("2026-01-15T08:00:00Z").IsZero() {
		t.Error("RFC3339 form should parse")
	}
}
