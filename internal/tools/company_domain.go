package tools

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/classify"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/internal/scrape"
)

// pageMeta is the cached metadata snapshot of a fetched homepage.
type pageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	HTML        string `json:"html,omitempty"`
}

// NewDomainVerifier validates a claimed domain and confirms it serves a
// real page with non-empty metadata.
func NewDomainVerifier(d *Deps) ToolDefinition {
	return ToolDefinition{
		ID:              "company.verify_domain",
		Name:            "Company Identity From Domain",
		EntityType:      model.EntityCompany,
		Strategies:      []model.Strategy{model.StrategyDirectLookup},
		RequiredInputs:  []string{model.FieldDomain},
		ExpectedOutputs: []string{model.FieldCompany, model.FieldDomain, model.FieldWebsiteURL},
		Priority:        10,
		CostCents:       0,
		Tier:            TierFree,
		CanFail:         false,
		FallbackToolID:  "company.resolve_name",
		Execute: func(ctx context.Context, in model.NormalizedInput, _ map[string]any) (map[string]any, error) {
			return verifyDomain(ctx, d, in.Domain)
		},
	}
}

func verifyDomain(ctx context.Context, d *Deps, raw string) (map[string]any, error) {
	domain := classify.NormalizeDomain(raw)
	if !classify.IsValidDomain(domain) {
		return nil, eris.Errorf("verify_domain: %q is not a well-formed domain", raw)
	}

	website := "https://" + domain
	meta, err := fetchPageMeta(ctx, d, website)
	if err != nil {
		return map[string]any{
			model.FieldDomain:    domain,
			"status":             "unreachable",
			model.MetaConfidence: 0.0,
			model.MetaReason:     eris.ToString(err, false),
		}, nil
	}

	status := "valid"
	confidence := 0.9
	if meta.Title == "" && meta.Description == "" {
		status = "no_metadata"
		confidence = 0.3
	}

	out := map[string]any{
		model.FieldDomain:     domain,
		model.FieldWebsiteURL: website,
		"status":              status,
		model.MetaConfidence:  confidence,
		model.MetaSource:      "fetch",
	}
	if meta.Title != "" {
		out[model.FieldCompany] = canonicalNameFromTitle(meta.Title, domain)
	}
	return out, nil
}

// fetchPageMeta fetches a page through the reliability stack and extracts
// title + meta description. The raw HTML rides along for downstream tiers.
func fetchPageMeta(ctx context.Context, d *Deps, pageURL string) (*pageMeta, error) {
	return provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  provider.FetchCacheKey(pageURL),
		Provider:  "scrape",
		CostCents: 0,
	}, func(ctx context.Context) (*pageMeta, error) {
		html, err := d.Fetch.FetchHTML(ctx, pageURL, 8*time.Second)
		if err != nil {
			return nil, err
		}
		return &pageMeta{
			Title:       scrape.ExtractTitle(html),
			Description: scrape.ExtractMetaDescription(html),
			HTML:        html,
		}, nil
	})
}
