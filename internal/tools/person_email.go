package tools

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/classify"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
)

// NewWorkEmailGuesser finds a person's work email LinkedIn-first: an
// anchored provider lookup when a profile URL is known (or findable),
// falling back to a name+domain lookup. Emails are never constructed by
// pattern; only what the provider returned is emitted.
func NewWorkEmailGuesser(d *Deps) ToolDefinition {
	return ToolDefinition{
		ID:         "person.email_work",
		Name:       "Guess Work Email",
		EntityType: model.EntityPerson,
		Strategies: []model.Strategy{
			model.StrategyDirectLookup,
			model.StrategyHypothesisAndScore,
			model.StrategySearchAndValidate,
		},
		RequiredInputs:  []string{model.FieldName, model.FieldDomain},
		OptionalInputs:  []string{model.FieldLinkedInURL, model.FieldCompany},
		ExpectedOutputs: []string{model.FieldWorkEmail, model.FieldEmail},
		Priority:        50,
		CostCents:       10,
		Tier:            TierPremium,
		CanFail:         true,
		Execute: func(ctx context.Context, in model.NormalizedInput, acc map[string]any) (map[string]any, error) {
			liURL := firstNonEmpty(stringAt(acc, model.FieldLinkedInURL), in.LinkedInURL)
			return guessWorkEmail(ctx, d, in.Name, in.Company, in.Domain, liURL)
		},
	}
}

func guessWorkEmail(ctx context.Context, d *Deps, name, company, domain, liURL string) (map[string]any, error) {
	first, last := splitPersonName(name)
	cleanDomain := classify.NormalizeDomain(domain)
	if first == "" || cleanDomain == "" {
		return nil, eris.New("work_email: need a first name and a domain")
	}

	// Path 1: a supplied LinkedIn anchor.
	if classify.IsPersonLinkedInURL(liURL) {
		if out := emailByLinkedIn(ctx, d, liURL, 1.0); out != nil {
			return out, nil
		}
	}

	// Path 2: find an anchor, then look up against it. The anchor's own
	// confidence discounts the provider's.
	if liURL == "" && company != "" {
		anchor, err := findLinkedInProfile(ctx, d, name, company)
		if err == nil && anchor.URL != "" && anchor.Confidence >= 0.5 {
			if out := emailByLinkedIn(ctx, d, anchor.URL, 0.9*anchor.Confidence+0.1); out != nil {
				return out, nil
			}
		}
	}

	// Path 3: plain name + domain.
	res, err := provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  "email:name:" + provider.SearchCacheKey(first+"."+last+"@"+cleanDomain),
		TTL:       d.Services.Cache.EmailVerifyTTL(),
		Provider:  "prospeo",
		CostCents: 10,
	}, func(ctx context.Context) (*provider.EmailResult, error) {
		return d.Email.ByNameCompany(ctx, first, last, cleanDomain)
	})
	if err != nil {
		if eris.Is(err, provider.ErrNegativeCached) {
			return notFoundEmail("previous lookup found nothing"), nil
		}
		return nil, err
	}
	if !res.Success || res.Email == "" {
		return notFoundEmail(firstNonEmpty(res.Error, "provider returned no email")), nil
	}
	return emailOutputs(res, "prospeo", 1.0), nil
}

// emailByLinkedIn runs the anchored lookup; nil means fall through to the
// next path.
func emailByLinkedIn(ctx context.Context, d *Deps, liURL string, confidenceScale float64) map[string]any {
	res, err := provider.Do(ctx, d.Services, provider.Call{
		CacheKey:  "email:li:" + provider.SearchCacheKey(liURL),
		TTL:       d.Services.Cache.EmailVerifyTTL(),
		Provider:  "prospeo",
		CostCents: 10,
	}, func(ctx context.Context) (*provider.EmailResult, error) {
		return d.Email.ByLinkedIn(ctx, liURL)
	})
	if err != nil || res == nil || !res.Success || res.Email == "" {
		return nil
	}
	return emailOutputs(res, "prospeo_linkedin", confidenceScale)
}

func emailOutputs(res *provider.EmailResult, source string, confidenceScale float64) map[string]any {
	confidence := clamp01(res.Confidence * confidenceScale)
	status := firstNonEmpty(res.EmailStatus, "unknown")
	// Catch-all acceptance and free/disposable mailboxes are weaker evidence.
	if status == "catch_all" {
		confidence = clamp01(confidence - 0.2)
	}
	if classify.IsFreeMailDomain(classify.EmailDomain(res.Email)) {
		confidence = clamp01(confidence - 0.2)
	}

	out := map[string]any{
		model.FieldWorkEmail: res.Email,
		model.FieldEmail:     res.Email,
		model.MetaConfidence: confidence,
		model.MetaSource:     source,
		"verificationStatus": status,
	}
	if res.PersonName != "" {
		out["providerPersonName"] = res.PersonName
	}
	if res.CurrentCompany != "" {
		out["providerCompany"] = res.CurrentCompany
	}
	if res.CurrentTitle != "" {
		out["providerTitle"] = res.CurrentTitle
	}
	if res.LinkedInURL != "" {
		out[model.FieldLinkedInURL] = res.LinkedInURL
	}
	return out
}

func notFoundEmail(reason string) map[string]any {
	return map[string]any{
		model.MetaConfidence: 0.0,
		model.MetaSource:     "not_found",
		"verificationStatus": "unknown",
		model.MetaReason:     strings.TrimSpace(reason),
	}
}
