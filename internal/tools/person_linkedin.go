package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/enrich-cli/internal/classify"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

type linkedInPick struct {
	SelectedURL  *string  `json:"selectedUrl"`
	NameMatch    *bool    `json:"nameMatch"`
	CompanyMatch *bool    `json:"companyMatch"`
	TitlePresent *bool    `json:"titlePresent"`
	Confidence   *float64 `json:"confidence"`
	Reason       *string  `json:"reason"`
}

var linkedInPickSchema = provider.Schema{
	Name: "linkedin_pick",
	Properties: map[string]provider.Field{
		"selectedUrl":  {Type: "string", Description: "the candidate URL that matches, or null to refuse"},
		"nameMatch":    {Type: "boolean", Description: "true if the selected result's title contains the person's name"},
		"companyMatch": {Type: "boolean", Description: "true if the selected result mentions the company"},
		"titlePresent": {Type: "boolean", Description: "true if the selected result states a job title"},
		"confidence":   {Type: "number", Description: "0..1 confidence this is the right person"},
		"reason":       {Type: "string", Description: "one sentence explaining the selection or refusal"},
	},
}

// linkedInAnchor is the finder's internal result, consumed by the
// name+company orchestrator and the email waterfall.
type linkedInAnchor struct {
	URL             string
	Confidence      float64
	CandidatesFound int
	MatchReason     string
}

// NewLinkedInFinder locates a person's LinkedIn profile URL from name and
// company. It only ever selects among real search hits; URLs are never
// fabricated.
func NewLinkedInFinder(d *Deps) ToolDefinition {
	return ToolDefinition{
		ID:              "person.search_linkedin",
		Name:            "Find LinkedIn Profile",
		EntityType:      model.EntityPerson,
		Strategies:      []model.Strategy{model.StrategyHypothesisAndScore, model.StrategySearchAndValidate},
		RequiredInputs:  []string{model.FieldName, model.FieldCompany},
		ExpectedOutputs: []string{model.FieldLinkedInURL},
		Priority:        10,
		CostCents:       2,
		Tier:            TierCheap,
		CanFail:         false,
		Execute: func(ctx context.Context, in model.NormalizedInput, _ map[string]any) (map[string]any, error) {
			anchor, err := findLinkedInProfile(ctx, d, in.Name, in.Company)
			if err != nil {
				return nil, err
			}
			out := map[string]any{
				model.MetaConfidence: anchor.Confidence,
				model.MetaSource:     "search+llm",
				"candidatesFound":    anchor.CandidatesFound,
				"matchReason":        anchor.MatchReason,
			}
			if anchor.URL != "" {
				out[model.FieldLinkedInURL] = anchor.URL
			} else {
				out[model.MetaReason] = anchor.MatchReason
			}
			return out, nil
		},
	}
}

func findLinkedInProfile(ctx context.Context, d *Deps, name, company string) (*linkedInAnchor, error) {
	candidates, err := linkedInCandidates(ctx, d, name, company)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &linkedInAnchor{MatchReason: "no linkedin.com/in results"}, nil
	}
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}

	pick, err := pickLinkedInCandidate(ctx, d, name, company, candidates)
	if err != nil {
		return nil, err
	}

	reason := ""
	if pick.Reason != nil {
		reason = *pick.Reason
	}
	if pick.SelectedURL == nil || *pick.SelectedURL == "" {
		return &linkedInAnchor{CandidatesFound: len(candidates), MatchReason: firstNonEmpty(reason, "selector refused all candidates")}, nil
	}
	selected := *pick.SelectedURL
	if !classify.IsPersonLinkedInURL(selected) {
		return &linkedInAnchor{CandidatesFound: len(candidates), MatchReason: "selector returned a non-profile URL"}, nil
	}

	local := 0.0
	if pick.NameMatch != nil && *pick.NameMatch {
		local += 0.4
	}
	if pick.CompanyMatch != nil && *pick.CompanyMatch {
		local += 0.3
	}
	if pick.TitlePresent != nil && *pick.TitlePresent {
		local += 0.2
	}
	if candidates[0].Link == selected {
		local += 0.1
	}
	llm := 0.0
	if pick.Confidence != nil {
		llm = clamp01(*pick.Confidence)
	}
	blended := 0.6*local + 0.4*llm

	if blended < 0.50 {
		return &linkedInAnchor{
			CandidatesFound: len(candidates),
			Confidence:      blended,
			MatchReason:     firstNonEmpty(reason, "below confidence threshold"),
		}, nil
	}
	return &linkedInAnchor{
		URL:             selected,
		Confidence:      blended,
		CandidatesFound: len(candidates),
		MatchReason:     reason,
	}, nil
}

// linkedInCandidates searches for profile hits, with a broader retry when
// the site-restricted query comes back empty.
func linkedInCandidates(ctx context.Context, d *Deps, name, company string) ([]serper.OrganicResult, error) {
	queries := []string{
		fmt.Sprintf(`"%s" "%s" site:linkedin.com/in`, name, company),
		fmt.Sprintf(`"%s" "%s" LinkedIn`, name, company),
	}
	for _, q := range queries {
		resp, err := cachedSearch(ctx, d, q)
		if err != nil {
			return nil, err
		}
		var hits []serper.OrganicResult
		for _, r := range resp.Organic {
			if classify.IsPersonLinkedInURL(r.Link) {
				hits = append(hits, r)
			}
		}
		if len(hits) > 0 {
			return hits, nil
		}
	}
	return nil, nil
}

func pickLinkedInCandidate(ctx context.Context, d *Deps, name, company string, candidates []serper.OrganicResult) (*linkedInPick, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Person: %s\nCompany: %s\n\nCandidates:\n", name, company)
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, c.Link, c.Title, c.Snippet)
	}
	b.WriteString("\nSelect the candidate URL that is this exact person, or refuse with null. Never guess: if no candidate clearly matches both the name and the company, refuse.")

	return provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  "lipick:" + provider.SearchCacheKey(name+"|"+company),
		Provider:  "anthropic",
		CostCents: 2,
	}, func(ctx context.Context) (*linkedInPick, error) {
		var pick linkedInPick
		if err := provider.ExtractInto(ctx, d.LLM, provider.ExtractRequest{
			System: "You match people to LinkedIn search results. You may only pick a URL from the candidate list.",
			Prompt: b.String(),
			Schema: linkedInPickSchema,
		}, &pick); err != nil {
			return nil, err
		}
		return &pick, nil
	})
}
