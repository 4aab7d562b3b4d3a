package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// SearchAdapter is the search contract the tools consume.
type SearchAdapter interface {
	Search(ctx context.Context, query string) (*serper.SearchResponse, error)
}

// serperAdapter wraps the Serper client with the adapter's own small retry
// policy (transient errors only).
type serperAdapter struct {
	client  serper.Client
	retry   resilience.RetryConfig
	timeout time.Duration
}

// NewSearchAdapter creates the Serper-backed search adapter.
func NewSearchAdapter(client serper.Client) SearchAdapter {
	return &serperAdapter{
		client: client,
		retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: 300 * time.Millisecond,
			OnRetry:        resilience.RetryLogger("serper", "search"),
		},
		timeout: 5 * time.Second,
	}
}

func (a *serperAdapter) Search(ctx context.Context, query string) (*serper.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, eris.New("search: empty query")
	}

	return resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*serper.SearchResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		return a.client.Search(ctx, query)
	})
}

// SearchCacheKey builds the base cache key for a query. The query is hashed
// so arbitrary user strings cannot break the key scheme.
func SearchCacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "search:" + hex.EncodeToString(sum[:16])
}
