package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/classify"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/internal/scrape"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// aggregatorHosts are contact-database and magazine sites whose profile
// pages are stale or paywalled; the fallback scrape never touches them.
var aggregatorHosts = []string{
	"linkedin.com", "facebook.com", "x.com", "twitter.com", "instagram.com",
	"zoominfo.com", "apollo.io", "rocketreach.co", "lusha.com", "hunter.io",
	"clearbit.com", "leadiq.com", "seamless.ai", "contactout.com",
	"signalhire.com", "forbes.com", "bloomberg.com", "businessinsider.com",
}

type personExtraction struct {
	Name     *string  `json:"name"`
	Title    *string  `json:"title"`
	Company  *string  `json:"company"`
	Location *string  `json:"location"`
	BestURL  *string  `json:"bestUrl"`
	Conf     *float64 `json:"confidence"`
}

var personSchema = provider.Schema{
	Name: "person_identity",
	Properties: map[string]provider.Field{
		"name":       {Type: "string", Description: "the person's full name exactly as stated"},
		"title":      {Type: "string", Description: "current job title if stated"},
		"company":    {Type: "string", Description: "current employer if stated"},
		"location":   {Type: "string", Description: "location if stated"},
		"bestUrl":    {Type: "string", Description: "the most promising non-LinkedIn URL for a follow-up read, or null"},
		"confidence": {Type: "number", Description: "0..1 confidence the fields describe the target person"},
	},
}

// personResolution is the resolver's internal result, shared with the
// orchestrator.
type personResolution struct {
	Fields            map[string]string
	LinkedInURL       string
	Confidence        float64
	Source            string
	FieldsFromSnippet []string
	FieldsFromScrape  []string
}

// NewPersonResolver resolves a person's identity from search snippets about
// their LinkedIn profile. Snippets come first; at most one non-LinkedIn
// page is scraped when snippets leave gaps. linkedin.com is never fetched.
func NewPersonResolver(d *Deps) ToolDefinition {
	return ToolDefinition{
		ID:         "person.resolve_linkedin",
		Name:       "Resolve Person From LinkedIn",
		EntityType: model.EntityPerson,
		Strategies: []model.Strategy{model.StrategyDirectLookup, model.StrategySearchAndValidate},
		// Any one of linkedinUrl / name / company suffices; enforced at
		// execute time rather than by the planner's input filter.
		RequiredInputs: nil,
		OptionalInputs: []string{model.FieldLinkedInURL, model.FieldName, model.FieldCompany},
		ExpectedOutputs: []string{
			model.FieldName, model.FieldTitle, model.FieldCompany,
			model.FieldLocation, model.FieldLinkedInURL,
		},
		Priority:       10,
		CostCents:      3,
		Tier:           TierCheap,
		CanFail:        false,
		FallbackToolID: "person.search_linkedin",
		Execute: func(ctx context.Context, in model.NormalizedInput, acc map[string]any) (map[string]any, error) {
			liURL := firstNonEmpty(stringAt(acc, model.FieldLinkedInURL), in.LinkedInURL)
			res, err := resolvePerson(ctx, d, liURL, in.Name, in.Company)
			if err != nil {
				return nil, err
			}
			return personResolutionOutputs(res), nil
		},
	}
}

func personResolutionOutputs(res *personResolution) map[string]any {
	out := map[string]any{
		model.MetaConfidence: res.Confidence,
		model.MetaSource:     res.Source,
		"fieldsFromSnippets": res.FieldsFromSnippet,
		"fieldsFromScrape":   res.FieldsFromScrape,
	}
	for field, val := range res.Fields {
		out[field] = val
	}
	if res.LinkedInURL != "" {
		out[model.FieldLinkedInURL] = res.LinkedInURL
	}
	return out
}

func resolvePerson(ctx context.Context, d *Deps, liURL, name, company string) (*personResolution, error) {
	query := personQuery(liURL, name, company)
	if query == "" {
		return nil, eris.New("resolve_person: need a linkedin url or a name")
	}

	resp, err := cachedSearch(ctx, d, query)
	if err != nil {
		return nil, err
	}
	if len(resp.Organic) == 0 {
		return &personResolution{Source: "failed"}, nil
	}

	ext := extractPersonFromSnippets(ctx, d, query, name, company, resp)
	res := &personResolution{
		Fields:      map[string]string{},
		LinkedInURL: liURL,
		Source:      "snippets",
	}
	if ext != nil {
		mergePersonFields(res, ext, &res.FieldsFromSnippet)
	}

	// Three of the four core fields from snippets alone is enough; a scrape
	// would add latency without adding identity.
	if len(res.FieldsFromSnippet) < 3 {
		scrapeURL := pickScrapeURL(ext, resp)
		if scrapeURL != "" {
			if scraped := extractPersonFromPage(ctx, d, scrapeURL, name, company); scraped != nil {
				mergePersonFields(res, scraped, &res.FieldsFromScrape)
				if len(res.FieldsFromScrape) > 0 {
					res.Source = "snippets+scrape"
				}
			}
		}
	}

	if len(res.Fields) == 0 {
		return &personResolution{Source: "failed"}, nil
	}

	conf := 0.0
	if _, ok := res.Fields[model.FieldName]; ok {
		conf += 0.30
	}
	if _, ok := res.Fields[model.FieldTitle]; ok {
		conf += 0.25
	}
	if _, ok := res.Fields[model.FieldCompany]; ok {
		conf += 0.25
	}
	if _, ok := res.Fields[model.FieldLocation]; ok {
		conf += 0.20
	}
	if res.Source == "snippets" {
		conf = capAt(conf, 0.75)
	} else {
		conf = capAt(conf, 0.80)
	}
	res.Confidence = conf
	return res, nil
}

func personQuery(liURL, name, company string) string {
	if slug := classify.PersonLinkedInSlug(liURL); slug != "" {
		return fmt.Sprintf(`site:linkedin.com/in "%s"`, slug)
	}
	if name != "" && company != "" {
		return fmt.Sprintf(`"%s" "%s" LinkedIn`, name, company)
	}
	if name != "" {
		return fmt.Sprintf(`"%s" LinkedIn profile`, name)
	}
	return ""
}

func extractPersonFromSnippets(ctx context.Context, d *Deps, cacheKey, name, company string, resp *serper.SearchResponse) *personExtraction {
	var b strings.Builder
	fmt.Fprintf(&b, "Target person: %s", firstNonEmpty(name, "(unknown name)"))
	if company != "" {
		fmt.Fprintf(&b, " at %s", company)
	}
	b.WriteString("\n\nSearch results:\n")
	for i, r := range resp.Organic {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Link, r.Title, r.Snippet)
	}
	b.WriteString("\nExtract only facts the results state about this person. Do not infer.")

	ext, err := provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  "person:" + provider.SearchCacheKey(cacheKey),
		Provider:  "anthropic",
		CostCents: 2,
	}, func(ctx context.Context) (*personExtraction, error) {
		var out personExtraction
		if err := provider.ExtractInto(ctx, d.LLM, provider.ExtractRequest{
			System: "You extract a person's identity fields from search snippets. Use only what the snippets state.",
			Prompt: b.String(),
			Schema: personSchema,
		}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		zap.L().Debug("tools: person snippet extraction failed", zap.Error(err))
		return nil
	}
	return ext
}

// pickScrapeURL chooses the single follow-up page: the extractor's pick
// when it is allowed, else the first non-blocked organic hit.
func pickScrapeURL(ext *personExtraction, resp *serper.SearchResponse) string {
	if ext != nil && ext.BestURL != nil && *ext.BestURL != "" && !isBlockedHost(*ext.BestURL) {
		return *ext.BestURL
	}
	for _, r := range resp.Organic {
		if !isBlockedHost(r.Link) {
			return r.Link
		}
	}
	return ""
}

func isBlockedHost(raw string) bool {
	host := hostOf(raw)
	if host == "" {
		return true
	}
	for _, blocked := range aggregatorHosts {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

func extractPersonFromPage(ctx context.Context, d *Deps, pageURL, name, company string) *personExtraction {
	if scrape.IsLinkedInURL(pageURL) {
		return nil
	}
	result, err := provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  provider.FetchCacheKey(pageURL),
		Provider:  "scrape",
		CostCents: 0,
	}, func(ctx context.Context) (*scrape.Result, error) {
		return d.Chain.Scrape(ctx, pageURL)
	})
	if err != nil || result == nil || strings.TrimSpace(result.Text) == "" {
		return nil
	}

	body := truncate(result.Text, 8000)
	ext, err := provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  "personpage:" + provider.FetchCacheKey(pageURL),
		Provider:  "anthropic",
		CostCents: 2,
	}, func(ctx context.Context) (*personExtraction, error) {
		var out personExtraction
		if err := provider.ExtractInto(ctx, d.LLM, provider.ExtractRequest{
			System: "You extract a person's identity fields from a web page. Return null for any field the page does not explicitly state.",
			Prompt: fmt.Sprintf("Target person: %s at %s\n\nPage %s:\n\n%s",
				firstNonEmpty(name, "(unknown)"), firstNonEmpty(company, "(unknown)"), pageURL, body),
			Schema: personSchema,
		}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		zap.L().Debug("tools: person page extraction failed", zap.Error(err))
		return nil
	}
	return ext
}

// mergePersonFields copies non-empty extraction fields into the resolution
// without overwriting anything already present.
func mergePersonFields(res *personResolution, ext *personExtraction, filled *[]string) {
	set := func(field string, val *string) {
		if val == nil || strings.TrimSpace(*val) == "" {
			return
		}
		if _, exists := res.Fields[field]; exists {
			return
		}
		res.Fields[field] = strings.TrimSpace(*val)
		*filled = append(*filled, field)
	}
	set(model.FieldName, ext.Name)
	set(model.FieldTitle, ext.Title)
	set(model.FieldCompany, ext.Company)
	set(model.FieldLocation, ext.Location)
}
