package tools

import (
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/internal/scrape"
)

// Deps carries the provider adapters and reliability services every tool
// shares. Built once at process init.
type Deps struct {
	Search   provider.SearchAdapter
	LLM      provider.StructuredExtractor
	Fetch    provider.Fetcher
	Email    provider.EmailFinder
	Chain    *scrape.Chain
	Services *provider.Services
}
