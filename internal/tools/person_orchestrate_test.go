package tools

import (
	"context"
	"testing"

	"github.com/sells-group/enrich-cli/internal/model"
)

func TestOrchestratePersonResolution_Anchored(t *testing.T) {
	llm := &fakeExtractor{bySchema: map[string]string{
		"linkedin_pick":   `{"selectedUrl":"https://www.linkedin.com/in/jane-rivera-1a2b3c","nameMatch":true,"companyMatch":true,"titlePresent":true,"confidence":0.9,"reason":"clear match"}`,
		"person_identity": `{"name":"Jane Rivera","title":"VP Engineering","company":"Quartzline","location":"Denver","bestUrl":null,"confidence":0.9}`,
	}}
	search := linkedInSearchFixture()
	search.responses["jane-rivera-1a2b3c"] = search.responses["site:linkedin.com/in"]
	d := testDeps(t, search, llm, nil, nil)

	out, err := orchestratePersonResolution(context.Background(), d, "Jane Rivera", "Quartzline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["resolutionStatus"] != "anchored" || out["linkedinAnchored"] != true {
		t.Errorf("expected anchored resolution, got %v / %v", out["resolutionStatus"], out["linkedinAnchored"])
	}
	if out[model.FieldLinkedInURL] != "https://www.linkedin.com/in/jane-rivera-1a2b3c" {
		t.Errorf("unexpected linkedin url: %v", out[model.FieldLinkedInURL])
	}
	conf := out[model.MetaConfidence].(float64)
	if conf <= 0 || conf > 0.95 {
		t.Errorf("blended confidence out of range: %v", conf)
	}
}

func TestOrchestratePersonResolution_UnanchoredFallback(t *testing.T) {
	// The selector refuses every candidate, so resolution proceeds without
	// a URL anchor.
	llm := &fakeExtractor{bySchema: map[string]string{
		"linkedin_pick":   `{"selectedUrl":null,"nameMatch":false,"companyMatch":false,"titlePresent":false,"confidence":0.1,"reason":"no candidate matches"}`,
		"person_identity": `{"name":"Jane Rivera","title":null,"company":"Quartzline","location":null,"bestUrl":null,"confidence":0.6}`,
	}}
	search := linkedInSearchFixture()
	search.responses[`"Quartzline" LinkedIn`] = search.responses["site:linkedin.com/in"]
	d := testDeps(t, search, llm, nil, nil)

	out, err := orchestratePersonResolution(context.Background(), d, "Jane Rivera", "Quartzline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["linkedinAnchored"] != false {
		t.Error("refusal must yield an unanchored resolution")
	}
	if out["resolutionStatus"] != "ambiguous" {
		t.Errorf("expected ambiguous status, got %v", out["resolutionStatus"])
	}
}

func TestOrchestratePersonResolution_NotFound(t *testing.T) {
	d := testDeps(t, &fakeSearch{}, nil, nil, nil)
	out, err := orchestratePersonResolution(context.Background(), d, "Nobody Atall", "Ghost Co")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["resolutionStatus"] != "not_found" {
		t.Errorf("expected not_found, got %v", out["resolutionStatus"])
	}
}
