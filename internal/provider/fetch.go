package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Fetcher retrieves raw HTML for a URL. Implementations follow redirects,
// send a polite user-agent, and bound the body size before returning.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// FetchCacheKey builds the base cache key for a fetched page.
func FetchCacheKey(url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return "scrape:" + hex.EncodeToString(sum[:16])
}
