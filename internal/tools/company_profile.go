package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/classify"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
)

// profileExtraction is the schema-bound shape both LLM tiers return.
type profileExtraction struct {
	Description *string  `json:"description"`
	Industry    *string  `json:"industry"`
	Founded     *string  `json:"founded"`
	Location    *string  `json:"location"`
	Confidence  *float64 `json:"confidence"`
}

var profileSchema = provider.Schema{
	Name: "company_profile",
	Properties: map[string]provider.Field{
		"description": {Type: "string", Description: "one-sentence description of what the company does"},
		"industry":    {Type: "string", Description: "primary industry"},
		"founded":     {Type: "string", Description: "founding year if stated"},
		"location":    {Type: "string", Description: "headquarters city/country if stated"},
		"confidence":  {Type: "number", Description: "0..1 confidence the fields describe this exact company"},
	},
}

// NewCompanyProfiler produces description/industry/founded/location via a
// three-tier waterfall: homepage metadata, search snippets, deep scrape.
// Each tier is skipped when the previous one met its confidence floor.
func NewCompanyProfiler(d *Deps) ToolDefinition {
	return ToolDefinition{
		ID:         "company.profile",
		Name:       "Fetch Company Profile",
		EntityType: model.EntityCompany,
		Strategies: []model.Strategy{
			model.StrategyDirectLookup,
			model.StrategyHypothesisAndScore,
			model.StrategySearchAndValidate,
		},
		RequiredInputs: []string{model.FieldDomain},
		OptionalInputs: []string{model.FieldCanonicalCompanyName, model.FieldCompany},
		ExpectedOutputs: []string{
			model.FieldDescription, model.FieldIndustry,
			model.FieldFounded, model.FieldLocation,
		},
		Priority:  20,
		CostCents: 3,
		Tier:      TierCheap,
		CanFail:   true,
		Execute: func(ctx context.Context, in model.NormalizedInput, acc map[string]any) (map[string]any, error) {
			domain := firstNonEmpty(stringAt(acc, model.FieldDomain), in.Domain)
			company := firstNonEmpty(stringAt(acc, model.FieldCanonicalCompanyName), in.Company, in.Name)
			return fetchCompanyProfile(ctx, d, domain, company)
		},
	}
}

func fetchCompanyProfile(ctx context.Context, d *Deps, domain, company string) (map[string]any, error) {
	domain = classify.NormalizeDomain(domain)
	website := "https://" + domain

	// Tier 1: homepage title + meta description only.
	if ext := profileTierLightweight(ctx, d, website); accepted(ext, 0.75) {
		return profileOutputs(ext, 1), nil
	}

	// Tier 2: search snippets + knowledge graph.
	if ext := profileTierSearch(ctx, d, domain, company); accepted(ext, 0.60) {
		return profileOutputs(ext, 2), nil
	}

	// Tier 3: deep scrape of the most descriptive homepage section.
	if ext := profileTierScrape(ctx, d, website); ext != nil {
		return profileOutputs(ext, 3), nil
	}

	return map[string]any{
		model.FieldDescription: nil,
		model.FieldIndustry:    nil,
		model.FieldFounded:     nil,
		model.FieldLocation:    nil,
		model.MetaConfidence:   0.0,
		model.MetaReason:       "all profile tiers failed",
	}, nil
}

func accepted(ext *profileExtraction, floor float64) bool {
	return ext != nil && ext.Confidence != nil && *ext.Confidence >= floor
}

func profileTierLightweight(ctx context.Context, d *Deps, website string) *profileExtraction {
	meta, err := fetchPageMeta(ctx, d, website)
	if err != nil || (meta.Title == "" && meta.Description == "") {
		return nil
	}
	evidence := fmt.Sprintf("Page title: %s\nMeta description: %s", meta.Title, meta.Description)
	return extractProfile(ctx, d, website+"#t1", evidence)
}

func profileTierSearch(ctx context.Context, d *Deps, domain, company string) *profileExtraction {
	query := firstNonEmpty(company, domain) + " company"
	resp, err := cachedSearch(ctx, d, query)
	if err != nil {
		return nil
	}

	var b strings.Builder
	if kg := resp.KnowledgeGraph; kg != nil {
		fmt.Fprintf(&b, "Knowledge graph: %s (%s) — %s\n", kg.Title, kg.Type, kg.Description)
		for k, v := range kg.Attributes {
			fmt.Fprintf(&b, "  %s: %s\n", k, v)
		}
	}
	for i, r := range resp.Organic {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "Result: %s — %s\n", r.Title, r.Snippet)
	}
	if b.Len() == 0 {
		return nil
	}
	return extractProfile(ctx, d, domain+"#t2", b.String())
}

func profileTierScrape(ctx context.Context, d *Deps, website string) *profileExtraction {
	meta, err := fetchPageMeta(ctx, d, website)
	if err != nil || meta.HTML == "" {
		return nil
	}
	body := descriptiveSection(meta.HTML)
	if body == "" {
		return nil
	}
	return extractProfile(ctx, d, website+"#t3", truncate(body, 2000))
}

// descriptiveSection picks the most descriptive part of a homepage: the
// about section when one exists, then hero, then main, then body.
func descriptiveSection(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, iframe, svg").Remove()

	for _, sel := range []string{
		`section:contains("About")`,
		`div[class*="about"]`,
		`section[class*="hero"]`,
		"main",
		"body",
	} {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return spaceRe.ReplaceAllString(text, " ")
		}
	}
	return ""
}

func extractProfile(ctx context.Context, d *Deps, cacheSuffix, evidence string) *profileExtraction {
	ext, err := provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  "profile:" + provider.SearchCacheKey(cacheSuffix),
		Provider:  "anthropic",
		CostCents: 3,
	}, func(ctx context.Context) (*profileExtraction, error) {
		var out profileExtraction
		err := provider.ExtractInto(ctx, d.LLM, provider.ExtractRequest{
			System: "You describe companies from evidence. Use only what the evidence states.",
			Prompt: "Evidence about a company:\n\n" + evidence +
				"\n\nExtract the company profile fields.",
			Schema: profileSchema,
		}, &out)
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		zap.L().Debug("tools: profile extraction failed", zap.Error(err))
		return nil
	}
	return ext
}

func profileOutputs(ext *profileExtraction, tier int) map[string]any {
	conf := 0.5
	if ext.Confidence != nil {
		conf = clamp01(*ext.Confidence)
	}
	out := map[string]any{
		model.MetaConfidence: conf,
		model.MetaTier:       tier,
		model.MetaSource:     "llm",
	}
	if ext.Description != nil && *ext.Description != "" {
		out[model.FieldDescription] = *ext.Description
	}
	if ext.Industry != nil && *ext.Industry != "" {
		out[model.FieldIndustry] = *ext.Industry
	}
	if ext.Founded != nil && *ext.Founded != "" {
		out[model.FieldFounded] = *ext.Founded
	}
	if ext.Location != nil && *ext.Location != "" {
		out[model.FieldLocation] = *ext.Location
	}
	return out
}
