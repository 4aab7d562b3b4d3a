package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

func TestResolveCompanyName_CleanWinner(t *testing.T) {
	search := &fakeSearch{responses: map[string]*serper.SearchResponse{
		"official website": {Organic: []serper.OrganicResult{
			{
				Title:    "Quartzline — Industrial Flooring",
				Link:     "https://quartzline.com",
				Snippet:  "Quartzline is the official website of Quartzline industrial flooring systems.",
				Position: 1,
			},
			{
				Title:    "Quartzline Inc. | LinkedIn",
				Link:     "https://www.linkedin.com/company/quartzline",
				Snippet:  "Quartzline on LinkedIn",
				Position: 2,
			},
		}},
	}}
	d := testDeps(t, search, nil, nil, nil)

	out, err := resolveCompanyName(context.Background(), d, "Quartzline Inc.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[model.FieldDomain] != "quartzline.com" {
		t.Errorf("expected quartzline.com, got %v", out[model.FieldDomain])
	}
	conf := out[model.MetaConfidence].(float64)
	if conf < 0.65 {
		t.Errorf("expected at least MEDIUM confidence, got %v", conf)
	}
	if conf > 0.95 {
		t.Errorf("confidence above absolute cap: %v", conf)
	}
	if out["confidenceLevel"] == "FAIL" {
		t.Error("clean winner must not be FAIL")
	}
}

func TestResolveCompanyName_DirectoryDomainsRejected(t *testing.T) {
	search := &fakeSearch{responses: map[string]*serper.SearchResponse{
		"official website": {Organic: []serper.OrganicResult{
			{Title: "Acme | LinkedIn", Link: "https://linkedin.com/company/acme", Position: 1},
			{Title: "Acme - Crunchbase", Link: "https://www.crunchbase.com/organization/acme", Position: 2},
			{Title: "Acme (@acme) / X", Link: "https://x.com/acme", Position: 3},
		}},
	}}
	d := testDeps(t, search, nil, nil, nil)

	out, err := resolveCompanyName(context.Background(), d, "Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out[model.FieldDomain]; ok {
		t.Errorf("directory-only results must not yield a domain, got %v", out)
	}
	if out[model.MetaConfidence].(float64) != 0.0 {
		t.Errorf("expected zero confidence, got %v", out[model.MetaConfidence])
	}
}

func TestResolveCompanyName_MultipleStrongCandidatesCapped(t *testing.T) {
	search := &fakeSearch{responses: map[string]*serper.SearchResponse{
		"official website": {Organic: []serper.OrganicResult{
			{
				Title: "Vertex — official website", Link: "https://vertex.com",
				Snippet: "Vertex official website for vertex software products and services.", Position: 1,
			},
			{
				Title: "Vertex — official website", Link: "https://vertex.io",
				Snippet: "Vertex official website for vertex software products and services.", Position: 2,
			},
		}},
	}}
	d := testDeps(t, search, nil, nil, nil)

	out, err := resolveCompanyName(context.Background(), d, "Vertex")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf := out[model.MetaConfidence].(float64); conf > 0.90 {
		t.Errorf("ambiguous result must be capped at 0.90, got %v", conf)
	}
}

func TestResolveCompanyName_EmptyAfterNormalization(t *testing.T) {
	d := testDeps(t, nil, nil, nil, nil)
	if _, err := resolveCompanyName(context.Background(), d, "Inc."); err == nil {
		t.Fatal("expected error for a name that is only a legal suffix")
	}
}

func TestCanonicalNameFromTitle(t *testing.T) {
	cases := []struct {
		title, input, want string
	}{
		{"Acme — Industrial Robots", "acme inc", "Acme"},
		{"Globex | Home", "Globex Corp", "Globex"},
		{"Initech Inc.", "initech", "Initech"},
		{"x", "Fallback Name", "Fallback Name"},
	}
	for _, tc := range cases {
		if got := canonicalNameFromTitle(tc.title, tc.input); got != tc.want {
			t.Errorf("canonicalNameFromTitle(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestScoreNameCandidate_GenericNamePenalty(t *testing.T) {
	c := nameCandidate{
		Title:    "Global Tech Solutions — official website",
		Snippet:  "Global tech solutions official website with a reasonably long snippet for scoring.",
		URL:      "https://globaltechsolutions.com",
		Position: 1,
	}
	scoreNameCandidate(&c, "global tech solutions", 1)
	if !c.Penalty {
		t.Error("expected generic-name penalty to fire")
	}
	if !strings.Contains(strings.Join(c.Reasons, "; "), "Generic company name") {
		t.Errorf("expected a Generic company name reason, got %v", c.Reasons)
	}
}
