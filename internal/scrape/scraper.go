// Package scrape provides bounded page fetching for the enrichment tools:
// a local net/http scraper with per-host politeness, an optional Jina
// Reader fallback, and a chain that tries them in order. LinkedIn is
// refused at every layer; identity tools work from search snippets only.
package scrape

import (
	"context"
	"net/url"
	"strings"
)

// Result holds a fetched page.
type Result struct {
	URL        string
	Title      string
	HTML       string // raw page, empty for markdown-only sources
	Text       string // plaintext/markdown suitable for LLM extraction
	StatusCode int
	Source     string // e.g. "local_http", "jina"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}

// IsLinkedInURL reports whether a URL points at linkedin.com (any
// subdomain). Such URLs are never fetched.
func IsLinkedInURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.Contains(strings.ToLower(raw), "linkedin.com")
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		// Schemeless input like "linkedin.com/in/x".
		host = strings.ToLower(strings.SplitN(raw, "/", 2)[0])
	}
	return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
}
