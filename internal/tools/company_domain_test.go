package tools

import (
	"context"
	"testing"

	"github.com/sells-group/enrich-cli/internal/model"
)

func TestVerifyDomain_Valid(t *testing.T) {
	fetch := &fakeFetcher{pages: map[string]string{"quartzline.com": profileHomepage}}
	d := testDeps(t, nil, nil, fetch, nil)

	out, err := verifyDomain(context.Background(), d, "https://www.quartzline.com/products")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[model.FieldDomain] != "quartzline.com" {
		t.Errorf("unexpected domain: %v", out[model.FieldDomain])
	}
	if out["status"] != "valid" {
		t.Errorf("unexpected status: %v", out["status"])
	}
	if out[model.FieldWebsiteURL] != "https://quartzline.com" {
		t.Errorf("unexpected website: %v", out[model.FieldWebsiteURL])
	}
	if out[model.FieldCompany] != "Quartzline" {
		t.Errorf("unexpected company from title: %v", out[model.FieldCompany])
	}
}

func TestVerifyDomain_Unreachable(t *testing.T) {
	d := testDeps(t, nil, nil, &fakeFetcher{}, nil)
	out, err := verifyDomain(context.Background(), d, "ghost.example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["status"] != "unreachable" {
		t.Errorf("unexpected status: %v", out["status"])
	}
	if out[model.MetaConfidence].(float64) != 0.0 {
		t.Errorf("expected zero confidence, got %v", out[model.MetaConfidence])
	}
}

func TestVerifyDomain_Malformed(t *testing.T) {
	d := testDeps(t, nil, nil, nil, nil)
	for _, raw := range []string{"", "not a domain", "no-tld", "ends."} {
		if _, err := verifyDomain(context.Background(), d, raw); err == nil {
			t.Errorf("expected rejection for %q", raw)
		}
	}
}
