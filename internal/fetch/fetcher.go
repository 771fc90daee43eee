package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/pagelint/pagelint/internal/model"
)

// Fetch errors. Page-level failures are recorded and the run continues;
// only the pipeline decides whether a run with zero pages is fatal.
var (
	// ErrNotHTML is returned when the response is not an HTML document.
	ErrNotHTML = errors.New("response is not html")

	// ErrHTTPStatus is returned for non-2xx responses.
	ErrHTTPStatus = errors.New("unexpected http status")
)

// Fetcher retrieves pages and parses them into PageContexts.
//
// Design decision: We use a struct with the http.Client rather than
// passing the client on each call because:
//  1. Client configuration (timeouts, headers) should be consistent
//  2. Connection pooling works better with a shared client
//  3. Easier to test with mock transport
type Fetcher struct {
	// client is the HTTP client used for all page requests.
	client *http.Client

	// userAgent is the User-Agent header sent with requests.
	userAgent string

	// headers are extra headers sent with every request for this site.
	headers map[string]string

	// maxBodySize limits the response body size to prevent memory
	// exhaustion from unexpectedly large responses.
	maxBodySize int64

	// contentCap bounds PageContext.RawContent in characters.
	contentCap int

	// timeout is the per-request timeout applied when the caller's
	// context carries no deadline.
	timeout time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sets extra per-site request headers.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithContentCap bounds the raw content kept for semantic evaluation,
// in characters. Zero disables the cap.
func WithContentCap(n int) FetcherOption {
	return func(f *Fetcher) {
		f.contentCap = n
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a page fetcher using the given HTTP client.
//
// Design decision: We accept an external http.Client rather than creating
// one internally so tests can supply a mock transport and callers can share
// connection pools.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   "pagelint/1.0 (+https://github.com/pagelint/pagelint)",
		maxBodySize: 5 * 1024 * 1024, // 5MB
		contentCap:  50000,
		timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchPage retrieves one URL and parses it into an immutable PageContext.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (*model.PageContext, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	body, resp, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, fmt.Errorf("%w: %q", ErrNotHTML, contentType)
	}

	// Decode to UTF-8 before parsing; origin charsets vary.
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}

	parser, err := NewParser(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", pageURL, err)
	}

	page, err := parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	page.URL = pageURL
	page.FetchedAt = time.Now()
	page.StatusCode = resp.StatusCode
	page.ComputeHash(body)
	page.RawContent = string(body)
	page.TruncateRawContent(f.contentCap)

	return page, nil
}

// get performs the HTTP request and reads a bounded body.
func (f *Fetcher) get(ctx context.Context, pageURL string) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %q: %w", pageURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read errors surface below.

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("%w: %d for %q", ErrHTTPStatus, resp.StatusCode, pageURL)
	}

	limited := io.LimitReader(resp.Body, f.maxBodySize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, nil, fmt.Errorf("read body of %q: %w", pageURL, err)
	}

	return body, resp, nil
}

// isHTML reports whether a Content-Type header denotes an HTML document.
func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml") ||
		ct == "" // Some origins omit the header for HTML.
}
