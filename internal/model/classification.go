package model

// EntityType is the kind of real-world entity a row describes.
type EntityType string

const (
	EntityPerson  EntityType = "PERSON"
	EntityCompany EntityType = "COMPANY"
	EntityUnknown EntityType = "UNKNOWN"
)

// IdentityStrength grades how reliably the input pins a single entity.
type IdentityStrength string

const (
	IdentityStrong   IdentityStrength = "STRONG"
	IdentityModerate IdentityStrength = "MODERATE"
	IdentityWeak     IdentityStrength = "WEAK"
	IdentityInvalid  IdentityStrength = "INVALID"
)

// InputSignature is the shape of the identifying fields, checked in a fixed
// order with first match winning.
type InputSignature string

const (
	SigPersonLinkedInURL  InputSignature = "PERSON_LINKEDIN_URL"
	SigCompanyLinkedInURL InputSignature = "COMPANY_LINKEDIN_URL"
	SigCompanyDomain      InputSignature = "COMPANY_DOMAIN"
	SigPersonNameCompany  InputSignature = "PERSON_NAME_COMPANY"
	SigCompanyNameOnly    InputSignature = "COMPANY_NAME_ONLY"
	SigPersonNameOnly     InputSignature = "PERSON_NAME_ONLY"
	SigPersonEmail        InputSignature = "PERSON_EMAIL"
	SigUnknown            InputSignature = "UNKNOWN_SIGNATURE"
)

// AmbiguityRisk estimates how likely the input matches multiple entities.
type AmbiguityRisk string

const (
	AmbiguityLow    AmbiguityRisk = "LOW"
	AmbiguityMedium AmbiguityRisk = "MEDIUM"
	AmbiguityHigh   AmbiguityRisk = "HIGH"
)

// Strategy is the coarse policy the planner follows when composing steps.
type Strategy string

const (
	StrategyDirectLookup       Strategy = "DIRECT_LOOKUP"
	StrategyHypothesisAndScore Strategy = "HYPOTHESIS_AND_SCORE"
	StrategySearchAndValidate  Strategy = "SEARCH_AND_VALIDATE"
	StrategyFailFast           Strategy = "FAIL_FAST"
)

// SensitivityLevel caps what downstream tools may return. Derived from
// identity strength x ambiguity; RESTRICTED means no external calls.
type SensitivityLevel string

const (
	SensitivityPublic     SensitivityLevel = "PUBLIC"
	SensitivityLimited    SensitivityLevel = "LIMITED"
	SensitivityPrivate    SensitivityLevel = "PRIVATE"
	SensitivityRestricted SensitivityLevel = "RESTRICTED"
)

// ClassificationResult is the classifier's verdict for a normalized input.
type ClassificationResult struct {
	EntityType       EntityType       `json:"entityType"`
	IdentityStrength IdentityStrength `json:"identityStrength"`
	InputSignature   InputSignature   `json:"inputSignature"`
	AmbiguityRisk    AmbiguityRisk    `json:"ambiguityRisk"`
	Strategy         Strategy         `json:"strategy"`
	Sensitivity      SensitivityLevel `json:"sensitivityLevel"`
	RequiredFields   []string         `json:"requiredFields,omitempty"`
	AvailableFields  []string         `json:"availableFields,omitempty"`
	FailReason       string           `json:"failReason,omitempty"`
	Reason           string           `json:"reason,omitempty"`
}
