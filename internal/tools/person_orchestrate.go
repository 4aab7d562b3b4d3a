package tools

import (
	"context"

	"github.com/sells-group/enrich-cli/internal/model"
)

// NewPersonOrchestrator resolves a person from name + company by first
// anchoring on a LinkedIn profile URL, then extracting identity fields
// around that anchor. When no anchor clears the confidence floor it falls
// back to unanchored resolution and says so.
func NewPersonOrchestrator(d *Deps) ToolDefinition {
	return ToolDefinition{
		ID:             "person.resolve_name_company",
		Name:           "Resolve Person From Name+Company",
		EntityType:     model.EntityPerson,
		Strategies:     []model.Strategy{model.StrategyHypothesisAndScore},
		RequiredInputs: []string{model.FieldName, model.FieldCompany},
		ExpectedOutputs: []string{
			model.FieldName, model.FieldTitle, model.FieldCompany,
			model.FieldLocation, model.FieldLinkedInURL,
		},
		Priority:       5,
		CostCents:      5,
		Tier:           TierCheap,
		CanFail:        false,
		FallbackToolID: "person.search_linkedin",
		Execute: func(ctx context.Context, in model.NormalizedInput, _ map[string]any) (map[string]any, error) {
			return orchestratePersonResolution(ctx, d, in.Name, in.Company)
		},
	}
}

func orchestratePersonResolution(ctx context.Context, d *Deps, name, company string) (map[string]any, error) {
	anchor, err := findLinkedInProfile(ctx, d, name, company)
	if err != nil {
		return nil, err
	}

	if anchor.URL == "" || anchor.Confidence < 0.5 {
		res, err := resolvePerson(ctx, d, "", name, company)
		if err != nil {
			return nil, err
		}
		out := personResolutionOutputs(res)
		out["linkedinAnchored"] = false
		if res.Source == "failed" || len(res.Fields) == 0 {
			out["resolutionStatus"] = "not_found"
		} else {
			out["resolutionStatus"] = "ambiguous"
		}
		return out, nil
	}

	res, err := resolvePerson(ctx, d, anchor.URL, name, company)
	if err != nil {
		return nil, err
	}
	res.LinkedInURL = anchor.URL
	res.Confidence = capAt(0.4*anchor.Confidence+0.6*res.Confidence, 0.95)

	out := personResolutionOutputs(res)
	out["linkedinAnchored"] = true
	out["resolutionStatus"] = "anchored"
	return out, nil
}
