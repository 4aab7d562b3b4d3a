package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/flight"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/tools"
)

func newTestExecutor(t *testing.T, execs map[string]tools.ExecuteFunc) *Executor {
	t.Helper()
	services := provider.NewServices(
		cache.New(cache.DefaultConfig(), nil),
		flight.NewGroup(),
		resilience.NewBreakerRegistry(resilience.DefaultCircuitBreakerConfig()),
	)
	return NewExecutor(stubRegistry(t, execs), services)
}

func returning(out map[string]any) tools.ExecuteFunc {
	return func(context.Context, model.NormalizedInput, map[string]any) (map[string]any, error) {
		return out, nil
	}
}

func TestEnrich_DirectLookupOK(t *testing.T) {
	e := newTestExecutor(t, map[string]tools.ExecuteFunc{
		"company.verify_domain": returning(map[string]any{
			model.FieldCompany:    "Quartzline",
			model.FieldDomain:     "quartzline.com",
			model.FieldWebsiteURL: "https://quartzline.com",
			model.MetaConfidence:  0.9,
		}),
	})

	res := e.Enrich(context.Background(), model.EnrichRequest{
		RowID:        "row-1",
		ExistingData: map[string]string{"website": "quartzline.com"},
		TargetField:  model.FieldCompany,
	})

	if res.State != model.StateOK {
		t.Fatalf("expected OK, got %s (%s)", res.State, res.Diagnostics.Reason)
	}
	if res.Outputs[model.FieldCompany] != "Quartzline" {
		t.Errorf("unexpected company: %v", res.Outputs[model.FieldCompany])
	}
	if res.Outputs[model.MetaConfidence] != 0.9 {
		t.Errorf("metadata must ride along, got %v", res.Outputs[model.MetaConfidence])
	}
	if res.Diagnostics.Classification != string(model.SigCompanyDomain) {
		t.Errorf("unexpected classification: %s", res.Diagnostics.Classification)
	}
	if res.Diagnostics.Strategy != string(model.StrategyDirectLookup) {
		t.Errorf("unexpected strategy: %s", res.Diagnostics.Strategy)
	}
}

func TestEnrich_ShortCircuitSkipsLaterSteps(t *testing.T) {
	var profileCalls atomic.Int32
	e := newTestExecutor(t, map[string]tools.ExecuteFunc{
		"person.resolve_name_company": returning(map[string]any{
			model.FieldLinkedInURL: "https://www.linkedin.com/in/jane-rivera-1a2b3c",
			model.MetaConfidence:   0.9,
		}),
		"person.profile_public": func(context.Context, model.NormalizedInput, map[string]any) (map[string]any, error) {
			profileCalls.Add(1)
			return map[string]any{model.FieldBio: "should not run"}, nil
		},
	})

	res := e.Enrich(context.Background(), model.EnrichRequest{
		RowID:        "row-2",
		ExistingData: map[string]string{"name": "Jane Rivera", "company": "Quartzline"},
		TargetField:  model.FieldLinkedInURL,
	})

	if res.State != model.StateOK {
		t.Fatalf("expected OK, got %s (%s)", res.State, res.Diagnostics.Reason)
	}
	if res.Diagnostics.Reason != "target satisfied early" {
		t.Errorf("unexpected reason: %q", res.Diagnostics.Reason)
	}
	if profileCalls.Load() != 0 {
		t.Error("profile step must be skipped once the target is confidently filled")
	}
}

func TestEnrich_FallbackOnEmptyPrimary(t *testing.T) {
	e := newTestExecutor(t, map[string]tools.ExecuteFunc{
		"person.resolve_name_company": returning(map[string]any{}),
		"person.search_linkedin": returning(map[string]any{
			model.FieldLinkedInURL: "https://www.linkedin.com/in/jane-rivera-1a2b3c",
			model.MetaConfidence:   0.7,
		}),
	})

	res := e.Enrich(context.Background(), model.EnrichRequest{
		RowID:        "row-3",
		ExistingData: map[string]string{"name": "Jane Rivera", "company": "Quartzline"},
		TargetField:  model.FieldLinkedInURL,
	})

	if res.State != model.StateOK {
		t.Fatalf("expected OK from fallback, got %s (%s)", res.State, res.Diagnostics.Reason)
	}
	last := res.Diagnostics.Steps[len(res.Diagnostics.Steps)-1]
	if last.ToolID != "person.search_linkedin" || !last.Fallback {
		t.Errorf("expected a fallback search step, got %+v", last)
	}
}

func TestEnrich_CanFailErrorYieldsPartial(t *testing.T) {
	e := newTestExecutor(t, map[string]tools.ExecuteFunc{
		"person.resolve_name_company": returning(map[string]any{
			model.FieldTitle:     "VP Engineering",
			model.MetaConfidence: 0.7,
		}),
		"person.profile_public": func(context.Context, model.NormalizedInput, map[string]any) (map[string]any, error) {
			return nil, eris.New("scrape blocked")
		},
	})

	res := e.Enrich(context.Background(), model.EnrichRequest{
		RowID:        "row-4",
		ExistingData: map[string]string{"name": "Jane Rivera", "company": "Quartzline"},
		TargetField:  model.FieldBio,
	})

	if res.State != model.StatePartial {
		t.Fatalf("expected PARTIAL, got %s (%s)", res.State, res.Diagnostics.Reason)
	}
	if res.Outputs[model.FieldTitle] != "VP Engineering" {
		t.Errorf("partial output must survive, got %v", res.Outputs)
	}
	if res.Outputs[model.FieldBio] != nil {
		t.Errorf("failed step must not contribute, got %v", res.Outputs[model.FieldBio])
	}
}

func TestEnrich_CircuitOpen(t *testing.T) {
	e := newTestExecutor(t, map[string]tools.ExecuteFunc{
		"person.resolve_name_company": func(context.Context, model.NormalizedInput, map[string]any) (map[string]any, error) {
			return nil, &resilience.CircuitOpenError{Provider: "serper", NextRetry: time.Now().Add(30 * time.Second)}
		},
	})

	res := e.Enrich(context.Background(), model.EnrichRequest{
		RowID:        "row-5",
		ExistingData: map[string]string{"name": "Jane Rivera", "company": "Quartzline"},
		TargetField:  model.FieldLinkedInURL,
	})

	if res.State != model.StateCircuitOpen {
		t.Fatalf("expected CIRCUIT_OPEN, got %s (%s)", res.State, res.Diagnostics.Reason)
	}
}

func TestEnrich_NotFoundWhenNothingProduced(t *testing.T) {
	e := newTestExecutor(t, nil) // every step returns an empty map

	res := e.Enrich(context.Background(), model.EnrichRequest{
		RowID:        "row-6",
		ExistingData: map[string]string{"name": "Jane Rivera", "company": "Quartzline"},
		TargetField:  model.FieldLinkedInURL,
	})

	if res.State != model.StateNotFound {
		t.Fatalf("expected NOT_FOUND, got %s (%s)", res.State, res.Diagnostics.Reason)
	}
	if len(res.Outputs) != 0 {
		t.Errorf("expected empty outputs, got %v", res.Outputs)
	}
}

func TestEnrich_InvalidInputEmptyRow(t *testing.T) {
	e := newTestExecutor(t, nil)

	res := e.Enrich(context.Background(), model.EnrichRequest{
		RowID:        "row-7",
		ExistingData: map[string]string{},
		TargetField:  model.FieldCompany,
	})

	if res.State != model.StateInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %s", res.State)
	}
	if res.Diagnostics.Reason != "No existing data in row" {
		t.Errorf("unexpected reason: %q", res.Diagnostics.Reason)
	}
}

func TestEnrich_DeadlineYieldsPartial(t *testing.T) {
	e := newTestExecutor(t, map[string]tools.ExecuteFunc{
		"person.resolve_name_company": func(ctx context.Context, _ model.NormalizedInput, _ map[string]any) (map[string]any, error) {
			time.Sleep(60 * time.Millisecond)
			return map[string]any{model.FieldTitle: "VP Engineering"}, nil
		},
	})

	deadline := time.Now().Add(20 * time.Millisecond)
	res := e.Enrich(context.Background(), model.EnrichRequest{
		RowID:        "row-8",
		ExistingData: map[string]string{"name": "Jane Rivera", "company": "Quartzline"},
		TargetField:  model.FieldBio,
		Deadline:     &deadline,
	})

	if res.State != model.StatePartial {
		t.Fatalf("expected PARTIAL on deadline, got %s (%s)", res.State, res.Diagnostics.Reason)
	}
	if res.Outputs[model.FieldTitle] != "VP Engineering" {
		t.Errorf("work done before the deadline must survive, got %v", res.Outputs)
	}
}

func TestEnrich_MergeSemantics(t *testing.T) {
	// First writer wins for user fields; metadata always overwrites.
	e := newTestExecutor(t, map[string]tools.ExecuteFunc{
		"company.verify_domain": returning(map[string]any{
			model.FieldCompany:   "Quartzline",
			model.MetaConfidence: 0.9,
		}),
		"company.profile": returning(map[string]any{
			model.FieldCompany:   "Quartzline Industrial Flooring BV",
			model.FieldIndustry:  "Industrial Manufacturing",
			model.MetaConfidence: 0.7,
		}),
	})

	res := e.Enrich(context.Background(), model.EnrichRequest{
		RowID:        "row-9",
		ExistingData: map[string]string{"website": "quartzline.com"},
		TargetField:  model.FieldIndustry,
	})

	if res.State != model.StateOK {
		t.Fatalf("expected OK, got %s (%s)", res.State, res.Diagnostics.Reason)
	}
	if res.Outputs[model.FieldCompany] != "Quartzline" {
		t.Errorf("first write must win for user fields, got %v", res.Outputs[model.FieldCompany])
	}
	if res.Outputs[model.MetaConfidence] != 0.7 {
		t.Errorf("metadata must reflect the latest step, got %v", res.Outputs[model.MetaConfidence])
	}
}

func TestEnrich_ConcurrentCellsCoalesce(t *testing.T) {
	var executions atomic.Int32
	e := newTestExecutor(t, map[string]tools.ExecuteFunc{
		"company.verify_domain": func(context.Context, model.NormalizedInput, map[string]any) (map[string]any, error) {
			executions.Add(1)
			time.Sleep(50 * time.Millisecond)
			return map[string]any{model.FieldCompany: "Quartzline", model.MetaConfidence: 0.9}, nil
		},
	})

	req := model.EnrichRequest{
		RowID:        "row-10",
		ExistingData: map[string]string{"website": "quartzline.com"},
		TargetField:  model.FieldCompany,
	}

	var wg sync.WaitGroup
	results := make([]model.EnrichResult, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.Enrich(context.Background(), req)
		}()
	}
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Errorf("expected a single coalesced execution, got %d", got)
	}
	for _, res := range results {
		if res.State != model.StateOK {
			t.Errorf("every waiter sees the shared result, got %s", res.State)
		}
	}
}
