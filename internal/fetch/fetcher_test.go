package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchPage(t *testing.T) {
	t.Parallel()

	var gotUA, gotHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("X-Audit-Key")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Home</title></head><body><p>Welcome to the resort.</p></body></html>`))
	}))
	defer ts.Close()

	f := NewFetcher(ts.Client(),
		WithUserAgent("pagelint-test/1.0"),
		WithHeaders(map[string]string{"X-Audit-Key": "secret"}),
	)

	page, err := f.FetchPage(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if gotUA != "pagelint-test/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotHeader != "secret" {
		t.Errorf("site header not sent, got %q", gotHeader)
	}
	if page.Title != "Home" {
		t.Errorf("Title = %q", page.Title)
	}
	if page.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", page.StatusCode)
	}
	if page.Hash == "" {
		t.Error("Hash not set")
	}
	if page.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
	if page.RawContent == "" {
		t.Error("RawContent not kept")
	}
}

func TestFetchPageHTTPError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer ts.Close()

	f := NewFetcher(ts.Client())
	_, err := f.FetchPage(context.Background(), ts.URL+"/missing")
	if !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("error = %v, want ErrHTTPStatus", err)
	}
}

func TestFetchPageNotHTML(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer ts.Close()

	f := NewFetcher(ts.Client())
	_, err := f.FetchPage(context.Background(), ts.URL+"/brochure.pdf")
	if !errors.Is(err, ErrNotHTML) {
		t.Errorf("error = %v, want ErrNotHTML", err)
	}
}

func TestFetchPageBodyLimit(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>" + strings.Repeat("padding ", 1000) + "</body></html>"))
	}))
	defer ts.Close()

	f := NewFetcher(ts.Client(), WithMaxBodySize(64))
	page, err := f.FetchPage(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(page.RawContent) > 64 {
		t.Errorf("RawContent = %d bytes, want at most 64", len(page.RawContent))
	}
}

func TestFetchPageContentCap(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>" + strings.Repeat("x", 500) + "</body></html>"))
	}))
	defer ts.Close()

	f := NewFetcher(ts.Client(), WithContentCap(100))
	page, err := f.FetchPage(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(page.RawContent) != 100 {
		t.Errorf("RawContent = %d chars, want capped at 100", len(page.RawContent))
	}
}

func TestFetchPageTimeout(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	f := NewFetcher(ts.Client(), WithTimeout(20*time.Millisecond))
	if _, err := f.FetchPage(context.Background(), ts.URL+"/"); err == nil {
		t.Error("FetchPage() succeeded, want timeout error")
	}
}

func TestIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"", true},
		{"application/json", false},
		{"image/png", false},
	}
	for _, tt := range tests {
		if got := isHTML(tt.contentType); got != tt.want {
			t.Errorf("isHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
