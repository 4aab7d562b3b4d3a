package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/classify"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// employeeBuckets is the closed set of reportable size ranges.
var employeeBuckets = []struct {
	label string
	re    *regexp.Regexp
	min   int
	max   int
}{
	{"1-10", regexp.MustCompile(`\b(?:1\s*[-–to]+\s*10|2\s*[-–to]+\s*10)\b`), 1, 10},
	{"11-50", regexp.MustCompile(`\b11\s*[-–to]+\s*50\b`), 11, 50},
	{"51-200", regexp.MustCompile(`\b51\s*[-–to]+\s*200\b`), 51, 200},
	{"201-500", regexp.MustCompile(`\b201\s*[-–to]+\s*500\b`), 201, 500},
	{"501-1000", regexp.MustCompile(`\b501\s*[-–to]+\s*1,?000\b`), 501, 1000},
	{"1001-5000", regexp.MustCompile(`\b1,?001\s*[-–to]+\s*5,?000\b`), 1001, 5000},
	{"5001-10000", regexp.MustCompile(`\b5,?001\s*[-–to]+\s*10,?000\b`), 5001, 10000},
	{"10001+", regexp.MustCompile(`\b10,?001\s*\+`), 10001, 1 << 30},
}

var linkedInCompanySlugRe = regexp.MustCompile(`(?i)linkedin\.com/company/([A-Za-z0-9\-_%\.]+)`)

// linkedInSubpages disqualify a hit from being the company's main page.
var linkedInSubpages = []string{"/school/", "/showcase/", "/jobs/", "/people/", "/about/", "/life/"}

type sizeExtraction struct {
	CompanyName      *string  `json:"companyName"`
	EmployeeCount    *string  `json:"employeeCount"`
	Industry         *string  `json:"industry"`
	Location         *string  `json:"location"`
	HasJobsSection   *bool    `json:"hasJobsSection"`
	IsActivelyHiring *bool    `json:"isActivelyHiring"`
	Confidence       *float64 `json:"confidence"`
}

var sizeSchema = provider.Schema{
	Name: "company_size",
	Properties: map[string]provider.Field{
		"companyName":      {Type: "string", Description: "company name as stated in the evidence"},
		"employeeCount":    {Type: "string", Description: "employee count or range exactly as stated, e.g. \"51-200\" or \"about 300\""},
		"industry":         {Type: "string", Description: "industry if stated"},
		"location":         {Type: "string", Description: "headquarters location if stated"},
		"hasJobsSection":   {Type: "boolean", Description: "true if the evidence mentions open roles or a jobs page"},
		"isActivelyHiring": {Type: "boolean", Description: "true if the evidence says the company is hiring"},
		"confidence":       {Type: "number", Description: "0..1 confidence the evidence is about this exact company"},
	},
}

// NewSizeEstimator estimates head count and hiring posture from LinkedIn
// search snippets. linkedin.com itself is never fetched; every signal comes
// from search results about the company page.
func NewSizeEstimator(d *Deps) ToolDefinition {
	return ToolDefinition{
		ID:         "company.size",
		Name:       "Estimate Company Size",
		EntityType: model.EntityCompany,
		Strategies: []model.Strategy{
			model.StrategyDirectLookup,
			model.StrategyHypothesisAndScore,
			model.StrategySearchAndValidate,
		},
		RequiredInputs: []string{model.FieldCompany},
		OptionalInputs: []string{model.FieldCanonicalCompanyName, model.FieldDomain},
		ExpectedOutputs: []string{
			model.FieldEmployeeCountRange, model.FieldHiringStatus,
			model.FieldLinkedInCompanyURL,
		},
		Priority:  40,
		CostCents: 4,
		Tier:      TierCheap,
		CanFail:   true,
		Execute: func(ctx context.Context, in model.NormalizedInput, acc map[string]any) (map[string]any, error) {
			company := firstNonEmpty(stringAt(acc, model.FieldCanonicalCompanyName), in.Company, in.Name)
			domain := firstNonEmpty(stringAt(acc, model.FieldDomain), in.Domain)
			return estimateCompanySize(ctx, d, company, domain)
		},
	}
}

func estimateCompanySize(ctx context.Context, d *Deps, company, domain string) (map[string]any, error) {
	liURL, slug, urlScore := resolveLinkedInCompanyURL(ctx, d, company, domain)
	if liURL == "" {
		return map[string]any{
			model.FieldEmployeeCountRange: "unknown",
			model.FieldHiringStatus:       "unknown",
			model.MetaConfidence:          0.0,
			model.MetaReason:              "no linkedin company page found",
		}, nil
	}

	evidence := collectSizeEvidence(ctx, d, liURL, slug)
	if evidence == "" {
		return map[string]any{
			model.FieldLinkedInCompanyURL: liURL,
			model.FieldEmployeeCountRange: "unknown",
			model.FieldHiringStatus:       "unknown",
			model.MetaConfidence:          urlScore * 0.5,
			model.MetaReason:              "no size evidence in snippets",
		}, nil
	}

	ext, err := provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  "size:" + provider.SearchCacheKey(liURL),
		Provider:  "anthropic",
		CostCents: 3,
	}, func(ctx context.Context) (*sizeExtraction, error) {
		var out sizeExtraction
		if err := provider.ExtractInto(ctx, d.LLM, provider.ExtractRequest{
			System: "You read search snippets about a company's LinkedIn page. Use only what the snippets state.",
			Prompt: "Snippets about " + company + ":\n\n" + evidence + "\n\nExtract the size signals.",
			Schema: sizeSchema,
		}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		zap.L().Debug("tools: size extraction failed", zap.Error(err))
		return map[string]any{
			model.FieldLinkedInCompanyURL: liURL,
			model.FieldEmployeeCountRange: "unknown",
			model.FieldHiringStatus:       "unknown",
			model.MetaConfidence:          urlScore * 0.5,
		}, nil
	}

	bucket := "unknown"
	if ext.EmployeeCount != nil {
		bucket = normalizeEmployeeCount(*ext.EmployeeCount)
	}

	extConf := 0.5
	if ext.Confidence != nil {
		extConf = clamp01(*ext.Confidence)
	}
	confidence := (urlScore + extConf) / 2
	if bucket == "unknown" {
		confidence *= 0.7
	}
	confidence = capAt(confidence, 0.95)

	out := map[string]any{
		model.FieldLinkedInCompanyURL: liURL,
		model.FieldEmployeeCountRange: bucket,
		model.FieldHiringStatus:       deriveHiringStatus(ext, bucket),
		model.MetaConfidence:          confidence,
		model.MetaSource:              "linkedin-snippets",
	}
	if ext.CompanyName != nil && *ext.CompanyName != "" {
		out[model.FieldCompany] = *ext.CompanyName
	}
	if ext.Industry != nil && *ext.Industry != "" {
		out[model.FieldIndustry] = *ext.Industry
	}
	if ext.Location != nil && *ext.Location != "" {
		out[model.FieldLocation] = *ext.Location
	}
	return out, nil
}

// resolveLinkedInCompanyURL finds the company's LinkedIn page URL via
// site-restricted searches. Returns ("", "", 0) when nothing clears the
// 0.60 confidence floor.
func resolveLinkedInCompanyURL(ctx context.Context, d *Deps, company, domain string) (string, string, float64) {
	queries := []string{}
	if domain != "" {
		queries = append(queries, fmt.Sprintf(`site:linkedin.com/company "%s"`, classify.NormalizeDomain(domain)))
	}
	if company != "" {
		queries = append(queries, fmt.Sprintf(`site:linkedin.com/company "%s"`, company))
	}

	normName := strings.ReplaceAll(normalizeCompanyName(company), " ", "-")
	var bestURL, bestSlug string
	var bestScore float64
	for _, q := range queries {
		resp, err := cachedSearch(ctx, d, q)
		if err != nil {
			continue
		}
		for _, r := range resp.Organic {
			slug, ok := validLinkedInCompanySlug(r.Link)
			if !ok {
				continue
			}
			score := scoreLinkedInCandidate(r, slug, normName, domain)
			if score > bestScore {
				bestScore = score
				bestSlug = slug
				bestURL = "https://www.linkedin.com/company/" + slug
			}
		}
		if bestScore >= 0.60 {
			break
		}
	}
	if bestScore < 0.60 {
		return "", "", 0
	}
	return bestURL, bestSlug, bestScore
}

// validLinkedInCompanySlug extracts and validates the slug of a company
// page URL, rejecting subpages and implausible slugs.
func validLinkedInCompanySlug(link string) (string, bool) {
	for _, sub := range linkedInSubpages {
		if strings.Contains(link, sub) {
			return "", false
		}
	}
	m := linkedInCompanySlugRe.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	slug := strings.ToLower(strings.TrimRight(m[1], "/"))
	if len(slug) < 2 || len(slug) > 100 {
		return "", false
	}
	if _, err := strconv.Atoi(slug); err == nil {
		return "", false
	}
	return slug, true
}

func scoreLinkedInCandidate(r serper.OrganicResult, slug, normName, domain string) float64 {
	score := 0.3
	if r.Position > 0 && r.Position <= 3 {
		score += 0.2
	}
	lowTitle := strings.ToLower(r.Title)
	lowSnippet := strings.ToLower(r.Snippet)
	if domain != "" {
		stem := domainStem(classify.NormalizeDomain(domain))
		if stem != "" && (strings.Contains(lowTitle, stem) || strings.Contains(lowSnippet, stem)) {
			score += 0.15
		}
	}
	if normName != "" {
		plain := strings.ReplaceAll(normName, "-", " ")
		if strings.Contains(lowTitle, plain) {
			score += 0.2
		}
		switch {
		case slug == normName:
			score += 0.3
		case strings.Contains(slug, normName) || strings.Contains(normName, slug):
			score += 0.15
		}
	}
	return capAt(score, 1)
}

// collectSizeEvidence gathers snippets about the company page without ever
// fetching linkedin.com.
func collectSizeEvidence(ctx context.Context, d *Deps, liURL, slug string) string {
	queries := []string{
		fmt.Sprintf(`site:linkedin.com "%s" employees`, slug),
		fmt.Sprintf(`"%s" company size employees`, liURL),
	}

	var b strings.Builder
	for _, q := range queries {
		resp, err := cachedSearch(ctx, d, q)
		if err != nil {
			continue
		}
		if kg := resp.KnowledgeGraph; kg != nil {
			fmt.Fprintf(&b, "Knowledge graph: %s — %s\n", kg.Title, kg.Description)
			for k, v := range kg.Attributes {
				fmt.Fprintf(&b, "  %s: %s\n", k, v)
			}
		}
		for _, r := range resp.Organic {
			fmt.Fprintf(&b, "%s — %s\n", r.Title, r.Snippet)
		}
	}
	return strings.TrimSpace(b.String())
}

// normalizeEmployeeCount maps a stated count onto the closed bucket set.
func normalizeEmployeeCount(raw string) string {
	low := strings.ToLower(strings.TrimSpace(raw))
	if low == "" {
		return "unknown"
	}
	for _, b := range employeeBuckets {
		if b.re.MatchString(low) {
			return b.label
		}
	}
	// A bare number maps to the bucket containing it. Counts at or above the
	// 10,000 boundary read as the top bucket, with or without a trailing "+".
	if m := regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})*|\d+)\b`).FindString(low); m != "" {
		n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
		if err == nil && n > 0 {
			if n >= 10000 {
				return "10001+"
			}
			for _, b := range employeeBuckets {
				if n >= b.min && n <= b.max {
					return b.label
				}
			}
		}
	}
	return "unknown"
}

// deriveHiringStatus combines the two hiring signals. Both present means
// actively hiring, one means occasional, none with other evidence means not
// hiring, and no evidence at all stays unknown.
func deriveHiringStatus(ext *sizeExtraction, bucket string) string {
	hiring := ext.IsActivelyHiring != nil && *ext.IsActivelyHiring
	jobs := ext.HasJobsSection != nil && *ext.HasJobsSection
	switch {
	case hiring && jobs:
		return "actively_hiring"
	case hiring || jobs:
		return "occasionally_hiring"
	case bucket != "unknown" || (ext.CompanyName != nil && *ext.CompanyName != ""):
		return "not_hiring"
	default:
		return "unknown"
	}
}
