package tools

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// directoryDomains are never acceptable as a company's own website.
var directoryDomains = map[string]bool{
	"linkedin.com":   true,
	"crunchbase.com": true,
	"bloomberg.com":  true,
	"forbes.com":     true,
	"wikipedia.org":  true,
	"yelp.com":       true,
	"glassdoor.com":  true,
	"indeed.com":     true,
	"zoominfo.com":   true,
	"apollo.io":      true,
	"g2.com":         true,
	"capterra.com":   true,
	"facebook.com":   true,
	"x.com":          true,
	"twitter.com":    true,
	"instagram.com":  true,
	"youtube.com":    true,
}

// genericNameWords drag a match's confidence down when they appear in the
// company name; "Global Tech Solutions" matches half the internet.
var genericNameWords = []string{
	"global", "solutions", "technologies", "services", "consulting",
	"partners", "group", "international", "digital", "systems",
	"software", "tech",
}

var titleTaglineRe = regexp.MustCompile(`\s+[|\x{2014}\x{2013}-]\s+.*$`)

type nameCandidate struct {
	Domain   string
	URL      string
	Title    string
	Snippet  string
	Position int
	Score    float64
	Penalty  bool
	Reasons  []string
}

// NewCompanyNameResolver answers exactly one question: which real-world
// company does this name string most likely refer to? It is search-driven
// and fully deterministic; no LLM ever picks the name.
func NewCompanyNameResolver(d *Deps) ToolDefinition {
	return ToolDefinition{
		ID:              "company.resolve_name",
		Name:            "Company Identity From Name",
		EntityType:      model.EntityCompany,
		Strategies:      []model.Strategy{model.StrategyHypothesisAndScore, model.StrategySearchAndValidate},
		RequiredInputs:  []string{model.FieldCompany},
		OptionalInputs:  []string{model.FieldName},
		ExpectedOutputs: []string{model.FieldCanonicalCompanyName, model.FieldWebsiteURL, model.FieldDomain},
		Priority:        10,
		CostCents:       1,
		Tier:            TierCheap,
		CanFail:         false,
		Execute: func(ctx context.Context, in model.NormalizedInput, _ map[string]any) (map[string]any, error) {
			return resolveCompanyName(ctx, d, firstNonEmpty(in.Company, in.Name))
		},
	}
}

func resolveCompanyName(ctx context.Context, d *Deps, rawName string) (map[string]any, error) {
	normalized := normalizeCompanyName(rawName)
	if normalized == "" {
		return nil, eris.Errorf("resolve_name: nothing identifying in %q", rawName)
	}

	query := fmt.Sprintf("%s official website - landing page", rawName)
	resp, err := cachedSearch(ctx, d, query)
	if err != nil {
		return nil, err
	}

	candidates := extractNameCandidates(resp, 10)
	if len(candidates) == 0 {
		return map[string]any{
			model.MetaConfidence: 0.0,
			model.MetaReason:     "no non-directory candidates in search results",
		}, nil
	}

	for i := range candidates {
		scoreNameCandidate(&candidates[i], normalized, len(candidates))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	top := &candidates[0]
	// Two strong candidates within 0.10 of each other means the name alone
	// cannot disambiguate; the penalty lands on the top candidate only.
	if len(candidates) > 1 && top.Score-candidates[1].Score < 0.10 {
		top.Score -= 0.20
		top.Penalty = true
		top.Reasons = append(top.Reasons, "multiple strong candidates")
	}

	confidence := clamp01(top.Score)
	if top.Penalty || len(candidates) > 1 {
		confidence = capAt(confidence, 0.90)
	} else {
		confidence = capAt(confidence, 0.95)
	}

	level := confidenceBucket(confidence)
	out := map[string]any{
		model.MetaConfidence: confidence,
		model.MetaSource:     "search",
		"confidenceLevel":    level,
	}
	if level == "FAIL" {
		out[model.MetaReason] = "no candidate above floor: " + strings.Join(top.Reasons, "; ")
		return out, nil
	}

	out[model.FieldCanonicalCompanyName] = canonicalNameFromTitle(top.Title, rawName)
	out[model.FieldWebsiteURL] = top.URL
	out[model.FieldDomain] = top.Domain
	if level == "LOW" {
		out[model.MetaReason] = strings.Join(top.Reasons, "; ")
	}
	return out, nil
}

// extractNameCandidates keeps one candidate per unique hostname from the
// top organic results, dropping directory and social domains.
func extractNameCandidates(resp *serper.SearchResponse, limit int) []nameCandidate {
	seen := map[string]bool{}
	var out []nameCandidate
	for i, r := range resp.Organic {
		if i >= limit {
			break
		}
		host := hostOf(r.Link)
		if host == "" || seen[host] || isDirectoryDomain(host) {
			continue
		}
		seen[host] = true
		out = append(out, nameCandidate{
			Domain:   host,
			URL:      r.Link,
			Title:    r.Title,
			Snippet:  r.Snippet,
			Position: r.Position,
		})
	}
	return out
}

func isDirectoryDomain(host string) bool {
	for dir := range directoryDomains {
		if host == dir || strings.HasSuffix(host, "."+dir) {
			return true
		}
	}
	return false
}

func scoreNameCandidate(c *nameCandidate, normalizedName string, candidateCount int) {
	title := strings.ToLower(c.Title)
	snippet := strings.ToLower(c.Snippet)

	// Official website match: the normalized name appears in both the title
	// and the snippet.
	if normalizedName != "" && strings.Contains(title, normalizedName) && strings.Contains(snippet, normalizedName) {
		c.Score += 0.40
	} else if normalizedName != "" && strings.Contains(title, normalizedName) {
		c.Score += 0.20
		c.Reasons = append(c.Reasons, "name in title only")
	} else {
		c.Reasons = append(c.Reasons, "name not in title")
	}

	// The query carried "official website"; reward results that echo the
	// intent.
	if strings.Contains(title, "official") || strings.Contains(snippet, "official website") ||
		strings.Contains(snippet, "official site") {
		c.Score += 0.25
	}

	// Domain quality.
	if strings.HasPrefix(strings.ToLower(c.URL), "https://") {
		c.Score += 0.05
	}
	switch {
	case c.Position > 0 && c.Position <= 3:
		c.Score += 0.10
	case c.Position > 0 && c.Position <= 5:
		c.Score += 0.05
	}

	// External corroboration is a weak signal only.
	if strings.Contains(snippet, "linkedin") || strings.Contains(snippet, "github") ||
		strings.Contains(snippet, "product hunt") {
		c.Score += 0.10
	}

	// Name uniqueness.
	words := strings.Fields(normalizedName)
	if len(words) >= 2 || (len(normalizedName) >= 4 && candidateCount <= 3) {
		c.Score += 0.10
	}

	for _, w := range genericNameWords {
		if containsWord(normalizedName, w) {
			c.Score -= 0.15
			c.Penalty = true
			c.Reasons = append(c.Reasons, "Generic company name word: "+w)
			break
		}
	}

	if strings.Contains(snippet, "for sale") || strings.Contains(snippet, "parked") ||
		strings.Contains(snippet, "coming soon") || len(c.Snippet) < 50 {
		c.Score -= 0.10
		c.Penalty = true
		c.Reasons = append(c.Reasons, "weak homepage signals")
	}
}

func containsWord(s, word string) bool {
	for _, tok := range strings.Fields(s) {
		if tok == word {
			return true
		}
	}
	return false
}

func confidenceBucket(c float64) string {
	switch {
	case c >= 0.85:
		return "HIGH"
	case c >= 0.65:
		return "MEDIUM"
	case c >= 0.40:
		return "LOW"
	default:
		return "FAIL"
	}
}

// canonicalNameFromTitle derives a display name from the winning result's
// title, stripping taglines and legal suffixes. Falls back to the input for
// garbage-length titles.
func canonicalNameFromTitle(title, input string) string {
	name := strings.TrimSpace(titleTaglineRe.ReplaceAllString(title, ""))
	name = strings.TrimSpace(legalSuffixRe.ReplaceAllString(name, ""))
	if len(name) < 2 || len(name) > 80 {
		return strings.TrimSpace(input)
	}
	return name
}

// cachedSearch runs a query through the full reliability stack.
func cachedSearch(ctx context.Context, d *Deps, query string) (*serper.SearchResponse, error) {
	return provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  provider.SearchCacheKey(query),
		Provider:  "serper",
		CostCents: 1,
	}, func(ctx context.Context) (*serper.SearchResponse, error) {
		return d.Search.Search(ctx, query)
	})
}
