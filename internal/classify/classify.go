// Package classify turns a normalized row into a deterministic
// classification: entity type, identity strength, input signature,
// ambiguity risk, workflow strategy, and sensitivity level. It performs no
// I/O; the same input always yields the same result.
package classify

import (
	"fmt"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Classify is the single entry point. Signatures are checked in a fixed
// order with first match winning (spec order: person URL, company URL,
// bare domain, name+company, company-shaped name, bare name, work email).
func Classify(in model.NormalizedInput) model.ClassificationResult {
	available := in.AvailableFields()

	sig, entity := detectSignature(in)
	strength := identityStrength(in, sig)
	ambiguity := ambiguityRisk(in, sig, strength)
	strategy, failReason := pickStrategy(in, sig, strength)
	sensitivity := sensitivityFor(strength, ambiguity)

	result := model.ClassificationResult{
		EntityType:       entity,
		IdentityStrength: strength,
		InputSignature:   sig,
		AmbiguityRisk:    ambiguity,
		Strategy:         strategy,
		Sensitivity:      sensitivity,
		RequiredFields:   requiredFieldsFor(sig),
		AvailableFields:  available,
		FailReason:       failReason,
	}

	// Required-field override: a signature whose required inputs are not
	// actually present cannot run any tool.
	if result.Strategy != model.StrategyFailFast {
		if missing := missingFields(result.RequiredFields, available); len(missing) > 0 {
			result.Strategy = model.StrategyFailFast
			result.FailReason = fmt.Sprintf("missing required fields: %v", missing)
		}
	}

	result.Reason = describe(result)
	return result
}

func detectSignature(in model.NormalizedInput) (model.InputSignature, model.EntityType) {
	switch {
	case in.LinkedInURL != "" && IsPersonLinkedInURL(in.LinkedInURL):
		return model.SigPersonLinkedInURL, model.EntityPerson
	case in.LinkedInURL != "" && IsCompanyLinkedInURL(in.LinkedInURL):
		return model.SigCompanyLinkedInURL, model.EntityCompany
	case in.Domain != "" && in.Name == "" && in.Email == "" && IsValidDomain(in.Domain):
		return model.SigCompanyDomain, model.EntityCompany
	case in.Name != "" && !LooksLikeCompanyName(in.Name) && in.Company != "":
		return model.SigPersonNameCompany, model.EntityPerson
	case (in.Name != "" && LooksLikeCompanyName(in.Name)) || (in.Name == "" && in.Company != ""):
		return model.SigCompanyNameOnly, model.EntityCompany
	case in.Name != "" && in.Company == "" && in.Email == "" && in.LinkedInURL == "":
		return model.SigPersonNameOnly, model.EntityPerson
	case in.Email != "" && IsWellFormedEmail(in.Email) && !IsFreeMailDomain(EmailDomain(in.Email)):
		return model.SigPersonEmail, model.EntityPerson
	default:
		return model.SigUnknown, model.EntityUnknown
	}
}

func identityStrength(in model.NormalizedInput, sig model.InputSignature) model.IdentityStrength {
	switch sig {
	case model.SigPersonLinkedInURL, model.SigCompanyLinkedInURL:
		return model.IdentityStrong
	case model.SigCompanyDomain:
		if IsValidDomain(in.Domain) {
			return model.IdentityStrong
		}
		return model.IdentityInvalid
	case model.SigPersonNameCompany:
		if IsCommonFirstName(in.Name) && IsBigBrand(in.Company) {
			return model.IdentityWeak
		}
		return model.IdentityModerate
	case model.SigCompanyNameOnly:
		return model.IdentityModerate
	case model.SigPersonEmail:
		return model.IdentityModerate
	case model.SigPersonNameOnly:
		return model.IdentityWeak
	default:
		return model.IdentityInvalid
	}
}

func ambiguityRisk(in model.NormalizedInput, sig model.InputSignature, strength model.IdentityStrength) model.AmbiguityRisk {
	switch {
	case sig == model.SigPersonLinkedInURL || sig == model.SigCompanyLinkedInURL:
		return model.AmbiguityLow
	case strength == model.IdentityStrong:
		return model.AmbiguityLow
	case sig == model.SigPersonNameCompany && IsCommonFirstName(in.Name) && IsBigBrand(in.Company):
		return model.AmbiguityHigh
	case sig == model.SigCompanyNameOnly && HasGenericPrefix(companyNameOf(in)):
		return model.AmbiguityHigh
	case sig == model.SigPersonNameOnly:
		return model.AmbiguityHigh
	default:
		return model.AmbiguityMedium
	}
}

func pickStrategy(in model.NormalizedInput, sig model.InputSignature, strength model.IdentityStrength) (model.Strategy, string) {
	if strength == model.IdentityInvalid {
		reason := "input signature not recognized"
		if in.IsEmpty() {
			reason = "No existing data in row"
		} else if in.Domain != "" && !IsValidDomain(in.Domain) {
			reason = fmt.Sprintf("malformed domain %q", in.Domain)
		}
		return model.StrategyFailFast, reason
	}
	switch sig {
	case model.SigPersonLinkedInURL, model.SigCompanyLinkedInURL, model.SigCompanyDomain:
		return model.StrategyDirectLookup, ""
	case model.SigPersonNameCompany, model.SigCompanyNameOnly:
		return model.StrategyHypothesisAndScore, ""
	default:
		return model.StrategySearchAndValidate, ""
	}
}

// sensitivityFor is a total function over strength x ambiguity. Strong
// low-ambiguity identities get the broadest output surface; invalid or
// high-ambiguity ones are clamped down to no-external-calls.
func sensitivityFor(strength model.IdentityStrength, ambiguity model.AmbiguityRisk) model.SensitivityLevel {
	if strength == model.IdentityInvalid {
		return model.SensitivityRestricted
	}
	switch strength {
	case model.IdentityStrong:
		if ambiguity == model.AmbiguityLow {
			return model.SensitivityPublic
		}
		return model.SensitivityLimited
	case model.IdentityModerate:
		switch ambiguity {
		case model.AmbiguityLow:
			return model.SensitivityPublic
		case model.AmbiguityMedium:
			return model.SensitivityLimited
		default:
			return model.SensitivityPrivate
		}
	default: // WEAK
		if ambiguity == model.AmbiguityHigh {
			return model.SensitivityPrivate
		}
		return model.SensitivityLimited
	}
}

func requiredFieldsFor(sig model.InputSignature) []string {
	switch sig {
	case model.SigPersonLinkedInURL, model.SigCompanyLinkedInURL:
		return []string{model.FieldLinkedInURL}
	case model.SigCompanyDomain:
		return []string{model.FieldDomain}
	case model.SigPersonNameCompany:
		return []string{model.FieldName, model.FieldCompany}
	case model.SigCompanyNameOnly:
		return nil // either name or company suffices; presence already proven
	case model.SigPersonNameOnly:
		return []string{model.FieldName}
	case model.SigPersonEmail:
		return []string{model.FieldEmail}
	default:
		return nil
	}
}

func missingFields(required, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, f := range available {
		have[f] = true
	}
	var missing []string
	for _, f := range required {
		if !have[f] {
			missing = append(missing, f)
		}
	}
	return missing
}

func companyNameOf(in model.NormalizedInput) string {
	if in.Company != "" {
		return in.Company
	}
	return in.Name
}

func describe(r model.ClassificationResult) string {
	if r.Strategy == model.StrategyFailFast {
		return r.FailReason
	}
	return fmt.Sprintf("%s via %s (%s identity, %s ambiguity)",
		r.EntityType, r.InputSignature, r.IdentityStrength, r.AmbiguityRisk)
}
