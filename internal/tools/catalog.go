package tools

import "github.com/sells-group/enrich-cli/internal/model"

// Catalog builds the full tool registry. The catalog is append-only:
// placeholder entries reserve a producer for fields the planner may be
// asked for before their executors ship.
func Catalog(d *Deps) (*Registry, error) {
	return CatalogEnabled(d, nil)
}

// CatalogEnabled builds the registry, dropping tools the filter rejects.
// A nil filter keeps everything.
func CatalogEnabled(d *Deps, enabled func(id string) bool) (*Registry, error) {
	defs := catalogDefs(d)
	if enabled != nil {
		var kept []ToolDefinition
		for _, def := range defs {
			if enabled(def.ID) {
				kept = append(kept, def)
			}
		}
		defs = kept
	}
	return NewRegistry(defs...)
}

func catalogDefs(d *Deps) []ToolDefinition {
	return []ToolDefinition{
		// Company tools.
		NewCompanyNameResolver(d),
		NewDomainVerifier(d),
		NewCompanyProfiler(d),
		NewSocialsExtractor(d),
		NewSizeEstimator(d),

		// Person tools.
		NewPersonOrchestrator(d),
		NewLinkedInFinder(d),
		NewPersonResolver(d),
		NewWorkEmailGuesser(d),
		NewPublicProfileFetcher(d),

		// Placeholders: cataloged producers without executors yet. Running
		// one fails hard with ErrNotImplemented rather than inventing data.
		ToolDefinition{
			ID:         "company.tech_stack",
			Name:       "Detect Tech Stack",
			EntityType: model.EntityCompany,
			Strategies: []model.Strategy{
				model.StrategyDirectLookup,
				model.StrategyHypothesisAndScore,
				model.StrategySearchAndValidate,
			},
			RequiredInputs:  []string{model.FieldDomain},
			ExpectedOutputs: []string{model.FieldTechStack},
			Priority:        70,
			CostCents:       2,
			CanFail:         true,
		},
		ToolDefinition{
			ID:         "person.email_candidates",
			Name:       "Enumerate Email Candidates",
			EntityType: model.EntityPerson,
			Strategies: []model.Strategy{
				model.StrategyHypothesisAndScore,
				model.StrategySearchAndValidate,
			},
			RequiredInputs:  []string{model.FieldName, model.FieldDomain},
			ExpectedOutputs: []string{model.FieldEmailCandidates},
			Priority:        80,
			CostCents:       1,
			CanFail:         true,
		},
		ToolDefinition{
			ID:         "person.short_bio",
			Name:       "Summarize Short Bio",
			EntityType: model.EntityPerson,
			Strategies: []model.Strategy{
				model.StrategyDirectLookup,
				model.StrategyHypothesisAndScore,
				model.StrategySearchAndValidate,
			},
			RequiredInputs:  []string{model.FieldName},
			ExpectedOutputs: []string{model.FieldShortBio},
			Priority:        90,
			CostCents:       2,
			CanFail:         true,
		},
	}
}
