package tools

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrich-cli/internal/classify"
	"github.com/sells-group/enrich-cli/internal/model"
)

// trustedPaths are the only pages crawled for social links. Anything deeper
// is as likely to link someone else's profile as the company's own.
var trustedPaths = []string{"/", "/about", "/about-us", "/company", "/contact", "/contact-us"}

// socialPlatform describes one platform's URL grammar.
type socialPlatform struct {
	field     string
	hosts     []string
	reject    []*regexp.Regexp
	canonical *regexp.Regexp // first capture group is the handle
}

var socialPlatforms = []socialPlatform{
	{
		field: model.FieldTwitter,
		hosts: []string{"twitter.com", "x.com"},
		reject: []*regexp.Regexp{
			regexp.MustCompile(`/intent/`),
			regexp.MustCompile(`/share\b`),
			regexp.MustCompile(`/status/`),
			regexp.MustCompile(`/hashtag/`),
			regexp.MustCompile(`/search\b`),
		},
		canonical: regexp.MustCompile(`(?i)(?:twitter|x)\.com/([A-Za-z0-9_]{1,15})/?$`),
	},
	{
		field: model.FieldLinkedIn,
		hosts: []string{"linkedin.com"},
		reject: []*regexp.Regexp{
			regexp.MustCompile(`/in/`),
			regexp.MustCompile(`/school/`),
			regexp.MustCompile(`/jobs/`),
			regexp.MustCompile(`/posts/`),
			regexp.MustCompile(`/pulse/`),
			regexp.MustCompile(`/feed/`),
		},
		canonical: regexp.MustCompile(`(?i)linkedin\.com/company/([A-Za-z0-9\-_%\.]+)/?`),
	},
	{
		field: model.FieldGitHub,
		hosts: []string{"github.com"},
		reject: []*regexp.Regexp{
			regexp.MustCompile(`/blob/`),
			regexp.MustCompile(`/tree/`),
			regexp.MustCompile(`/issues/`),
			regexp.MustCompile(`/pull/`),
			regexp.MustCompile(`/releases/`),
			regexp.MustCompile(`/topics/`),
		},
		canonical: regexp.MustCompile(`(?i)github\.com/([A-Za-z0-9\-]+)/?$`),
	},
	{
		field: model.FieldFacebook,
		hosts: []string{"facebook.com", "fb.com"},
		reject: []*regexp.Regexp{
			regexp.MustCompile(`/sharer`),
			regexp.MustCompile(`/share\.php`),
			regexp.MustCompile(`/events/`),
			regexp.MustCompile(`/groups/`),
			regexp.MustCompile(`/photo`),
		},
		canonical: regexp.MustCompile(`(?i)(?:facebook|fb)\.com/([A-Za-z0-9\.\-]+)/?$`),
	},
	{
		field: model.FieldInstagram,
		hosts: []string{"instagram.com"},
		reject: []*regexp.Regexp{
			regexp.MustCompile(`/p/`),
			regexp.MustCompile(`/reel/`),
			regexp.MustCompile(`/explore/`),
			regexp.MustCompile(`/stories/`),
		},
		canonical: regexp.MustCompile(`(?i)instagram\.com/([A-Za-z0-9_\.]+)/?$`),
	},
}

// socialCandidate is one anchor found on a crawled page.
type socialCandidate struct {
	Platform string
	URL      string
	Handle   string
	Path     string // trusted path the anchor was found on
	InFooter bool
	InHeader bool
	Score    float64
}

// SocialLink is the per-platform output value.
type SocialLink struct {
	URL        string  `json:"url"`
	Handle     string  `json:"handle"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// NewSocialsExtractor finds a company's own social profiles by crawling a
// fixed set of trusted pages and reading anchors. Extraction is purely
// deterministic: no LLM, no handle guessing.
func NewSocialsExtractor(d *Deps) ToolDefinition {
	return ToolDefinition{
		ID:         "company.socials",
		Name:       "Fetch Company Socials",
		EntityType: model.EntityCompany,
		Strategies: []model.Strategy{
			model.StrategyDirectLookup,
			model.StrategyHypothesisAndScore,
			model.StrategySearchAndValidate,
		},
		RequiredInputs: []string{model.FieldDomain},
		OptionalInputs: []string{model.FieldCanonicalCompanyName, model.FieldCompany},
		ExpectedOutputs: []string{
			model.FieldTwitter, model.FieldLinkedIn, model.FieldGitHub,
			model.FieldFacebook, model.FieldInstagram,
		},
		Priority:  30,
		CostCents: 0,
		Tier:      TierFree,
		CanFail:   true,
		Execute: func(ctx context.Context, in model.NormalizedInput, acc map[string]any) (map[string]any, error) {
			domain := firstNonEmpty(stringAt(acc, model.FieldDomain), in.Domain)
			company := firstNonEmpty(stringAt(acc, model.FieldCanonicalCompanyName), in.Company, in.Name)
			return extractSocials(ctx, d, domain, company)
		},
	}
}

func extractSocials(ctx context.Context, d *Deps, domain, company string) (map[string]any, error) {
	domain = classify.NormalizeDomain(domain)
	base := "https://" + domain

	var (
		mu         sync.Mutex
		candidates []socialCandidate
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(len(trustedPaths))
	for _, path := range trustedPaths {
		g.Go(func() error {
			meta, err := fetchPageMeta(gCtx, d, base+strings.TrimSuffix(path, "/"))
			if err != nil {
				// Missing trusted pages are expected; drop silently.
				return nil
			}
			found := anchorsOnPage(meta.HTML, path)
			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	normName := strings.ReplaceAll(normalizeCompanyName(company), " ", "")
	normDomain := domainStem(domain)
	for i := range candidates {
		scoreSocialCandidate(&candidates[i], normName, normDomain)
	}

	out := map[string]any{model.MetaSource: "crawl"}
	for _, p := range socialPlatforms {
		out[p.field] = bestSocial(candidates, p.field)
	}
	return out, nil
}

// anchorsOnPage extracts candidate social anchors from one page's HTML.
func anchorsOnPage(html, path string) []socialCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []socialCandidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		host := hostOf(href)
		if host == "" {
			return
		}
		for _, p := range socialPlatforms {
			if !hostMatches(host, p.hosts) {
				continue
			}
			if rejected(href, p.reject) {
				return
			}
			m := p.canonical.FindStringSubmatch(href)
			if m == nil {
				return
			}
			out = append(out, socialCandidate{
				Platform: p.field,
				URL:      strings.TrimRight(href, "/"),
				Handle:   strings.ToLower(m[1]),
				Path:     path,
				InFooter: inContainer(a, "footer", `[class*="footer"]`, `[id*="footer"]`),
				InHeader: inContainer(a, "header", "nav"),
			})
			return
		}
	})
	return out
}

func hostMatches(host string, hosts []string) bool {
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func rejected(href string, rejects []*regexp.Regexp) bool {
	for _, re := range rejects {
		if re.MatchString(href) {
			return true
		}
	}
	return false
}

func inContainer(a *goquery.Selection, selectors ...string) bool {
	for _, sel := range selectors {
		if a.ParentsFiltered(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// scoreSocialCandidate estimates how likely the anchor points at the
// company's own profile rather than a shared or third-party one.
func scoreSocialCandidate(c *socialCandidate, normName, normDomain string) {
	score := 0.5
	if normName != "" {
		switch {
		case c.Handle == normName:
			if c.Platform == model.FieldLinkedIn {
				score += 0.35
			} else {
				score += 0.25
			}
		case strings.Contains(c.Handle, normName) || strings.Contains(normName, c.Handle):
			score += 0.15
		}
	}
	if c.Platform == model.FieldLinkedIn && strings.Contains(strings.ToLower(c.URL), "/company/") {
		score += 0.20
	}
	if normDomain != "" && c.Handle == normDomain {
		score += 0.10
	}
	if c.InFooter {
		score += 0.10
	}
	if c.Path == "/" {
		score += 0.05
	}
	c.Score = capAt(score, 0.98)
}

// bestSocial resolves conflicts per platform: highest score wins iff it
// clears 0.60 and beats the runner-up by 0.10. Ambiguity yields nil.
func bestSocial(candidates []socialCandidate, platform string) any {
	var best, second *socialCandidate
	seen := map[string]bool{}
	for i := range candidates {
		c := &candidates[i]
		if c.Platform != platform || seen[c.URL+"|"+c.Handle] {
			continue
		}
		seen[c.URL+"|"+c.Handle] = true
		switch {
		case best == nil || c.Score > best.Score:
			second = best
			best = c
		case second == nil || c.Score > second.Score:
			second = c
		}
	}
	if best == nil || best.Score < 0.60 {
		return nil
	}
	if second != nil && best.Handle != second.Handle && best.Score-second.Score < 0.10 {
		return nil
	}
	return SocialLink{
		URL:        best.URL,
		Handle:     best.Handle,
		Confidence: best.Score,
		Source:     best.Path,
	}
}

// domainStem returns the registrable label of a domain ("acme" for
// "acme.co.uk").
func domainStem(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
