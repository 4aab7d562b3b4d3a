package tools

import (
	"context"
	"testing"

	"github.com/sells-group/enrich-cli/pkg/serper"
)

func linkedInSearchFixture() *fakeSearch {
	return &fakeSearch{responses: map[string]*serper.SearchResponse{
		"site:linkedin.com/in": {Organic: []serper.OrganicResult{
			{
				Title:    "Jane Rivera - VP Engineering - Quartzline | LinkedIn",
				Link:     "https://www.linkedin.com/in/jane-rivera-1a2b3c",
				Snippet:  "Jane Rivera. VP Engineering at Quartzline.",
				Position: 1,
			},
			{
				Title:    "Jane Rivera - Teacher | LinkedIn",
				Link:     "https://www.linkedin.com/in/jane-rivera-teach",
				Snippet:  "Jane Rivera. Teacher at Springfield Elementary.",
				Position: 2,
			},
		}},
	}}
}

func TestFindLinkedInProfile_AnchorsOnClearMatch(t *testing.T) {
	llm := &fakeExtractor{bySchema: map[string]string{
		"linkedin_pick": `{"selectedUrl":"https://www.linkedin.com/in/jane-rivera-1a2b3c","nameMatch":true,"companyMatch":true,"titlePresent":true,"confidence":0.9,"reason":"name, company and title all match"}`,
	}}
	d := testDeps(t, linkedInSearchFixture(), llm, nil, nil)

	anchor, err := findLinkedInProfile(context.Background(), d, "Jane Rivera", "Quartzline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anchor.URL != "https://www.linkedin.com/in/jane-rivera-1a2b3c" {
		t.Errorf("unexpected anchor url: %q", anchor.URL)
	}
	// local = 0.4+0.3+0.2+0.1 = 1.0; blended = 0.6*1.0 + 0.4*0.9 = 0.96.
	if anchor.Confidence < 0.95 || anchor.Confidence > 0.97 {
		t.Errorf("unexpected blended confidence: %v", anchor.Confidence)
	}
	if anchor.CandidatesFound != 2 {
		t.Errorf("expected 2 candidates, got %d", anchor.CandidatesFound)
	}
}

func TestFindLinkedInProfile_RefusalReturnsNoURL(t *testing.T) {
	llm := &fakeExtractor{bySchema: map[string]string{
		"linkedin_pick": `{"selectedUrl":null,"nameMatch":false,"companyMatch":false,"titlePresent":false,"confidence":0.1,"reason":"no candidate works at the stated company"}`,
	}}
	d := testDeps(t, linkedInSearchFixture(), llm, nil, nil)

	anchor, err := findLinkedInProfile(context.Background(), d, "Jane Rivera", "Nonexistent Co")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anchor.URL != "" {
		t.Errorf("refusal must not yield a URL, got %q", anchor.URL)
	}
	if anchor.MatchReason == "" {
		t.Error("refusal must carry the selector's reason")
	}
}

func TestFindLinkedInProfile_BelowThresholdRejected(t *testing.T) {
	// Only a weak name match; local = 0.4, llm = 0.3, blended = 0.36.
	llm := &fakeExtractor{bySchema: map[string]string{
		"linkedin_pick": `{"selectedUrl":"https://www.linkedin.com/in/jane-rivera-teach","nameMatch":true,"companyMatch":false,"titlePresent":false,"confidence":0.3,"reason":"name matches but company does not"}`,
	}}
	d := testDeps(t, linkedInSearchFixture(), llm, nil, nil)

	anchor, err := findLinkedInProfile(context.Background(), d, "Jane Rivera", "Quartzline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anchor.URL != "" {
		t.Errorf("sub-threshold match must be rejected, got %q", anchor.URL)
	}
	if anchor.Confidence >= 0.50 {
		t.Errorf("expected confidence below threshold, got %v", anchor.Confidence)
	}
}

func TestFindLinkedInProfile_FabricatedURLRejected(t *testing.T) {
	// The selector returns a URL that is not a linkedin.com/in profile.
	llm := &fakeExtractor{bySchema: map[string]string{
		"linkedin_pick": `{"selectedUrl":"https://example.com/jane","nameMatch":true,"companyMatch":true,"titlePresent":true,"confidence":0.9,"reason":"made up"}`,
	}}
	d := testDeps(t, linkedInSearchFixture(), llm, nil, nil)

	anchor, err := findLinkedInProfile(context.Background(), d, "Jane Rivera", "Quartzline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anchor.URL != "" {
		t.Errorf("non-profile URL must be rejected, got %q", anchor.URL)
	}
}

func TestFindLinkedInProfile_NoResults(t *testing.T) {
	d := testDeps(t, &fakeSearch{}, nil, nil, nil)
	anchor, err := findLinkedInProfile(context.Background(), d, "Nobody", "Nowhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anchor.URL != "" || anchor.CandidatesFound != 0 {
		t.Errorf("unexpected anchor: %+v", anchor)
	}
}
