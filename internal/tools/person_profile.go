package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/internal/scrape"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

const maxBioRunes = 300

// preferredProfileHosts are worth scraping when snippets come up short:
// developer and writing platforms where people describe themselves.
var preferredProfileHosts = []string{
	"github.com", "medium.com", "substack.com", "dev.to",
	"indiehackers.com", "producthunt.com",
}

type publicProfileExtraction struct {
	Bio             *string  `json:"bio"`
	Twitter         *string  `json:"twitter"`
	GitHub          *string  `json:"github"`
	PersonalWebsite *string  `json:"personalWebsite"`
	Confidence      *float64 `json:"confidence"`
}

var publicProfileSchema = provider.Schema{
	Name: "person_public_profile",
	Properties: map[string]provider.Field{
		"bio":             {Type: "string", Description: "a short factual bio assembled only from stated facts"},
		"twitter":         {Type: "string", Description: "the person's twitter/x profile URL if stated"},
		"github":          {Type: "string", Description: "the person's github profile URL if stated"},
		"personalWebsite": {Type: "string", Description: "the person's own website or blog URL if stated"},
		"confidence":      {Type: "number", Description: "0..1 confidence the facts are about the target person"},
	},
}

// NewPublicProfileFetcher decorates an already-confirmed person with public
// bio and social links. It never decides identity; callers run it only
// after resolution succeeded.
func NewPublicProfileFetcher(d *Deps) ToolDefinition {
	return ToolDefinition{
		ID:         "person.profile_public",
		Name:       "Fetch Person Public Profile",
		EntityType: model.EntityPerson,
		Strategies: []model.Strategy{
			model.StrategyDirectLookup,
			model.StrategyHypothesisAndScore,
			model.StrategySearchAndValidate,
		},
		RequiredInputs: []string{model.FieldName},
		OptionalInputs: []string{model.FieldCompany},
		ExpectedOutputs: []string{
			model.FieldBio, model.FieldTwitter, model.FieldGitHub,
			model.FieldPersonalWebsite,
		},
		Priority:  60,
		CostCents: 3,
		Tier:      TierCheap,
		CanFail:   true,
		Execute: func(ctx context.Context, in model.NormalizedInput, acc map[string]any) (map[string]any, error) {
			company := firstNonEmpty(stringAt(acc, model.FieldCompany), in.Company)
			return fetchPublicProfile(ctx, d, in.Name, company)
		},
	}
}

func fetchPublicProfile(ctx context.Context, d *Deps, name, company string) (map[string]any, error) {
	results := publicProfileResults(ctx, d, name, company)
	if len(results) == 0 {
		return map[string]any{
			model.MetaConfidence: 0.0,
			model.MetaReason:     "no public results for person",
		}, nil
	}

	// Snippets first.
	ext := extractPublicProfile(ctx, d, "snips:"+name+"|"+company, name, company, renderProfileEvidence(results))
	if hasAnyProfileField(ext) {
		return publicProfileOutputs(ext, "snippets", ""), nil
	}

	// One scrape of the most promising page.
	pageURL := pickProfilePage(results)
	if pageURL == "" {
		return map[string]any{
			model.MetaConfidence: 0.0,
			model.MetaReason:     "snippets empty and no scrapeable page",
		}, nil
	}
	page, err := provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  provider.FetchCacheKey(pageURL),
		Provider:  "scrape",
		CostCents: 0,
	}, func(ctx context.Context) (*scrape.Result, error) {
		return d.Chain.Scrape(ctx, pageURL)
	})
	if err != nil || page == nil || strings.TrimSpace(page.Text) == "" {
		return map[string]any{
			model.MetaConfidence: 0.0,
			model.MetaReason:     "profile page scrape failed",
		}, nil
	}

	ext = extractPublicProfile(ctx, d, "page:"+pageURL, name, company,
		fmt.Sprintf("Page %s:\n\n%s", pageURL, truncate(page.Text, 6000)))
	if !hasAnyProfileField(ext) {
		return map[string]any{
			model.MetaConfidence: 0.0,
			model.MetaReason:     "nothing stated about person on scraped page",
		}, nil
	}
	return publicProfileOutputs(ext, "scrape", pageURL), nil
}

// publicProfileResults runs the four deterministic queries and dedupes
// hits by URL.
func publicProfileResults(ctx context.Context, d *Deps, name, company string) []serper.OrganicResult {
	queries := []string{
		fmt.Sprintf(`"%s" "%s"`, name, company),
		fmt.Sprintf(`"%s" twitter`, name),
		fmt.Sprintf(`"%s" github`, name),
		fmt.Sprintf(`"%s" personal website blog`, name),
	}
	seen := map[string]bool{}
	var out []serper.OrganicResult
	for _, q := range queries {
		resp, err := cachedSearch(ctx, d, q)
		if err != nil {
			continue
		}
		for _, r := range resp.Organic {
			if r.Link == "" || seen[r.Link] {
				continue
			}
			seen[r.Link] = true
			out = append(out, r)
		}
	}
	return out
}

func renderProfileEvidence(results []serper.OrganicResult) string {
	var b strings.Builder
	for i, r := range results {
		if i >= 12 {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Link, r.Title, r.Snippet)
	}
	return b.String()
}

func extractPublicProfile(ctx context.Context, d *Deps, cacheSuffix, name, company, evidence string) *publicProfileExtraction {
	ext, err := provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  "pubprofile:" + provider.SearchCacheKey(cacheSuffix),
		Provider:  "anthropic",
		CostCents: 2,
	}, func(ctx context.Context) (*publicProfileExtraction, error) {
		var out publicProfileExtraction
		if err := provider.ExtractInto(ctx, d.LLM, provider.ExtractRequest{
			System: "You assemble a person's public profile from evidence. Use only stated facts; never infer handles or URLs.",
			Prompt: fmt.Sprintf("Target person: %s at %s\n\nEvidence:\n%s",
				name, firstNonEmpty(company, "(unknown company)"), evidence),
			Schema: publicProfileSchema,
		}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		zap.L().Debug("tools: public profile extraction failed", zap.Error(err))
		return nil
	}
	return ext
}

func hasAnyProfileField(ext *publicProfileExtraction) bool {
	if ext == nil {
		return false
	}
	for _, v := range []*string{ext.Bio, ext.Twitter, ext.GitHub, ext.PersonalWebsite} {
		if v != nil && strings.TrimSpace(*v) != "" {
			return true
		}
	}
	return false
}

// pickProfilePage prefers developer/writing platforms and about/team pages,
// skipping aggregators and social networks.
func pickProfilePage(results []serper.OrganicResult) string {
	for _, r := range results {
		host := hostOf(r.Link)
		for _, pref := range preferredProfileHosts {
			if host == pref || strings.HasSuffix(host, "."+pref) {
				return r.Link
			}
		}
	}
	for _, r := range results {
		low := strings.ToLower(r.Link)
		if !isBlockedHost(r.Link) && (strings.Contains(low, "/about") || strings.Contains(low, "/team")) {
			return r.Link
		}
	}
	for _, r := range results {
		if !isBlockedHost(r.Link) {
			return r.Link
		}
	}
	return ""
}

func publicProfileOutputs(ext *publicProfileExtraction, source, scrapedURL string) map[string]any {
	conf := 0.5
	if ext.Confidence != nil {
		conf = clamp01(*ext.Confidence)
	}
	out := map[string]any{
		model.MetaConfidence: conf,
		model.MetaSource:     source,
	}
	if scrapedURL != "" {
		out["scrapedUrl"] = scrapedURL
	}
	if ext.Bio != nil && strings.TrimSpace(*ext.Bio) != "" {
		out[model.FieldBio] = truncate(strings.TrimSpace(*ext.Bio), maxBioRunes)
	}
	setURLIfHost(out, model.FieldTwitter, ext.Twitter, "twitter.com", "x.com")
	setURLIfHost(out, model.FieldGitHub, ext.GitHub, "github.com")
	if ext.PersonalWebsite != nil {
		u := strings.TrimSpace(*ext.PersonalWebsite)
		// A personal site may live anywhere, but never on a social network.
		if u != "" && hostOf(u) != "" && !isBlockedHost(u) {
			out[model.FieldPersonalWebsite] = u
		}
	}
	return out
}

// setURLIfHost keeps an extracted URL only when it lives on the expected
// hostname family. Violators are dropped, not corrected.
func setURLIfHost(out map[string]any, field string, val *string, hosts ...string) {
	if val == nil {
		return
	}
	u := strings.TrimSpace(*val)
	host := hostOf(u)
	if u == "" || host == "" {
		return
	}
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			out[field] = u
			return
		}
	}
}
