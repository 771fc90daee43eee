// Package fetch retrieves web pages and turns them into PageContexts.
//
// The Fetcher performs bounded HTTP requests with per-site headers and a
// per-request timeout, decodes origin charsets to UTF-8, and hands the body
// to the Parser, a DOM walker that extracts the title, meta tags, headings,
// links, images, canonical and hreflang annotations, JSON-LD blocks, and a
// word count. The package also parses sitemap.xml (including one level of
// sitemap index nesting) and selects audit targets by lastmod recency,
// subfolder prefix, and page cap.
package fetch
