package model

// Canonical field names understood by the enrichment executor. Tool outputs
// and grid columns both use these keys; anything outside this set (other
// than "_"-prefixed metadata) is rejected at registry load.
const (
	FieldName        = "name"
	FieldCompany     = "company"
	FieldDomain      = "domain"
	FieldEmail       = "email"
	FieldLinkedInURL = "linkedinUrl"

	FieldCanonicalCompanyName = "canonicalCompanyName"
	FieldWebsiteURL           = "websiteUrl"
	FieldDescription          = "description"
	FieldIndustry             = "industry"
	FieldFounded              = "founded"
	FieldLocation             = "location"
	FieldEmployeeCountRange   = "employeeCountRange"
	FieldHiringStatus         = "hiringStatus"
	FieldLinkedInCompanyURL   = "linkedinCompanyUrl"
	FieldTwitter              = "twitter"
	FieldLinkedIn             = "linkedin"
	FieldGitHub               = "github"
	FieldFacebook             = "facebook"
	FieldInstagram            = "instagram"
	FieldTechStack            = "techStack"

	FieldTitle           = "title"
	FieldBio             = "bio"
	FieldPersonalWebsite = "personalWebsite"
	FieldWorkEmail       = "workEmail"
	FieldEmailCandidates = "emailCandidates"
	FieldShortBio        = "shortBio"
)

// MetaPrefix marks tool-emitted metadata keys (confidence, source, reason)
// that the executor propagates but never treats as user-visible fields.
const MetaPrefix = "_"

// Metadata keys emitted alongside tool outputs.
const (
	MetaConfidence = "_confidence"
	MetaSource     = "_source"
	MetaReason     = "_reason"
	MetaTier       = "_tier"
)

// knownFields is the closed set of canonical output field names.
var knownFields = map[string]bool{
	FieldName:                 true,
	FieldCompany:              true,
	FieldDomain:               true,
	FieldEmail:                true,
	FieldLinkedInURL:          true,
	FieldCanonicalCompanyName: true,
	FieldWebsiteURL:           true,
	FieldDescription:          true,
	FieldIndustry:             true,
	FieldFounded:              true,
	FieldLocation:             true,
	FieldEmployeeCountRange:   true,
	FieldHiringStatus:         true,
	FieldLinkedInCompanyURL:   true,
	FieldTwitter:              true,
	FieldLinkedIn:             true,
	FieldGitHub:               true,
	FieldFacebook:             true,
	FieldInstagram:            true,
	FieldTechStack:            true,
	FieldTitle:                true,
	FieldBio:                  true,
	FieldPersonalWebsite:      true,
	FieldWorkEmail:            true,
	FieldEmailCandidates:      true,
	FieldShortBio:             true,
}

// IsKnownField reports whether key is a canonical output field name.
func IsKnownField(key string) bool {
	return knownFields[key]
}

// IsMetaField reports whether key is tool metadata rather than a field.
func IsMetaField(key string) bool {
	return len(key) > 0 && key[:1] == MetaPrefix
}
