package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/flight"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// fakeSearch serves canned results keyed by query substring.
type fakeSearch struct {
	responses map[string]*serper.SearchResponse
	calls     []string
}

func (f *fakeSearch) Search(_ context.Context, query string) (*serper.SearchResponse, error) {
	f.calls = append(f.calls, query)
	for sub, resp := range f.responses {
		if strings.Contains(query, sub) {
			return resp, nil
		}
	}
	return &serper.SearchResponse{}, nil
}

// fakeExtractor returns canned raw JSON per schema name.
type fakeExtractor struct {
	bySchema map[string]string
	calls    []string
}

func (f *fakeExtractor) Extract(_ context.Context, req provider.ExtractRequest) (json.RawMessage, error) {
	f.calls = append(f.calls, req.Schema.Name)
	if raw, ok := f.bySchema[req.Schema.Name]; ok {
		return json.RawMessage(raw), nil
	}
	return json.RawMessage(`{}`), nil
}

// fakeFetcher serves canned HTML keyed by URL substring.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) FetchHTML(_ context.Context, url string, _ time.Duration) (string, error) {
	for sub, html := range f.pages {
		if strings.Contains(url, sub) {
			return html, nil
		}
	}
	return "", context.DeadlineExceeded
}

// fakeEmail returns canned finder results.
type fakeEmail struct {
	byLinkedIn *provider.EmailResult
	byName     *provider.EmailResult
	liCalls    int
	nameCalls  int
}

func (f *fakeEmail) ByLinkedIn(_ context.Context, _ string) (*provider.EmailResult, error) {
	f.liCalls++
	if f.byLinkedIn == nil {
		return &provider.EmailResult{}, nil
	}
	return f.byLinkedIn, nil
}

func (f *fakeEmail) ByNameCompany(_ context.Context, _, _, _ string) (*provider.EmailResult, error) {
	f.nameCalls++
	if f.byName == nil {
		return &provider.EmailResult{}, nil
	}
	return f.byName, nil
}

// testDeps wires the fakes into a full Deps with memory-only reliability
// services.
func testDeps(t *testing.T, search *fakeSearch, llm *fakeExtractor, fetch *fakeFetcher, email *fakeEmail) *Deps {
	t.Helper()
	if search == nil {
		search = &fakeSearch{}
	}
	if llm == nil {
		llm = &fakeExtractor{}
	}
	if fetch == nil {
		fetch = &fakeFetcher{}
	}
	if email == nil {
		email = &fakeEmail{}
	}
	return &Deps{
		Search: search,
		LLM:    llm,
		Fetch:  fetch,
		Email:  email,
		Services: provider.NewServices(
			cache.New(cache.DefaultConfig(), nil),
			flight.NewGroup(),
			resilience.NewBreakerRegistry(resilience.DefaultCircuitBreakerConfig()),
		),
	}
}
