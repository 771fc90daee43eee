package fetch

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/pagelint/pagelint/internal/model"
)

// Parser extracts the audit-relevant structure from HTML content.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
//  4. Standard library extension, well-maintained
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative URLs and classifying links as internal or external.
	baseURL *url.URL
}

// NewParser creates a new HTML parser with the given base URL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse reads HTML content and fills the structural fields of a PageContext.
// The caller is responsible for URL, status, timing, hashing, and raw
// content capping.
func (p *Parser) Parse(content io.Reader) (*model.PageContext, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	page := &model.PageContext{
		URL:      p.baseURL.String(),
		MetaTags: make(map[string]string),
	}

	// Collect visible text for word counting.
	var textContent strings.Builder

	var walk func(n *html.Node, inBody bool)
	walk = func(n *html.Node, inBody bool) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				// JSON-LD blocks are the one script kind we keep.
				if n.Data == "script" && strings.EqualFold(getAttr(n, "type"), "application/ld+json") {
					if text := innerText(n); text != "" {
						page.StructuredData = append(page.StructuredData, text)
					}
				}
				return // Never count script/style text as page content.
			case "body":
				inBody = true
			}
			p.processElement(n, page)
		case html.TextNode:
			if inBody {
				textContent.WriteString(n.Data)
				textContent.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inBody)
		}
	}

	walk(doc, false)

	page.WordCount = len(strings.Fields(textContent.String()))
	return page, nil
}

// processElement extracts data from one HTML element node.
func (p *Parser) processElement(n *html.Node, page *model.PageContext) {
	switch n.Data {
	case "html":
		if lang := getAttr(n, "lang"); lang != "" {
			page.Lang = lang
		}

	case "title":
		if page.Title == "" {
			page.Title = collapseSpace(innerText(n))
		}

	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, err := strconv.Atoi(n.Data[1:])
		if err != nil {
			return
		}
		page.Headings = append(page.Headings, model.Heading{
			Level: level,
			Text:  collapseSpace(innerText(n)),
		})

	case "a":
		href := getAttr(n, "href")
		resolved := p.resolveURL(href)
		if resolved == "" {
			return
		}
		page.Links = append(page.Links, model.Link{
			URL:      resolved,
			Text:     collapseSpace(innerText(n)),
			Internal: p.isInternal(resolved),
			Rel:      getAttr(n, "rel"),
		})

	case "img":
		if src := getAttr(n, "src"); src != "" {
			page.Images = append(page.Images, model.Image{
				Source: p.resolveURL(src),
				Alt:    getAttr(n, "alt"),
			})
		}

	case "meta":
		// OpenGraph and Twitter Cards use property instead of name.
		name := getAttr(n, "name")
		if name == "" {
			name = getAttr(n, "property")
		}
		content := getAttr(n, "content")
		if name != "" && content != "" {
			page.MetaTags[strings.ToLower(name)] = content
		}

	case "link":
		href := getAttr(n, "href")
		if href == "" {
			return
		}
		switch strings.ToLower(getAttr(n, "rel")) {
		case "canonical":
			page.CanonicalURL = p.resolveURL(href)
		case "alternate":
			if hreflang := getAttr(n, "hreflang"); hreflang != "" {
				if page.Hreflangs == nil {
					page.Hreflangs = make(map[string]string)
				}
				page.Hreflangs[strings.ToLower(hreflang)] = p.resolveURL(href)
			}
		}
	}
}

// resolveURL resolves a relative URL against the base URL.
//
// Design decision: We resolve URLs rather than storing them as-is because:
//  1. Makes deduplication easier
//  2. Allows proper link classification
//  3. Reduces ambiguity in results
func (p *Parser) resolveURL(href string) string {
	if href == "" {
		return ""
	}

	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return p.baseURL.ResolveReference(u).String()
}

// isInternal reports whether a resolved link targets the page's own host.
// A www. prefix difference does not make a link external.
func (p *Parser) isInternal(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	host := u.Hostname()
	baseHost := p.baseURL.Hostname()
	if strings.EqualFold(host, baseHost) {
		return true
	}
	return strings.EqualFold(strings.TrimPrefix(host, "www."), strings.TrimPrefix(baseHost, "www."))
}

// innerText concatenates all descendant text of a node.
func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// collapseSpace normalizes runs of whitespace to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
