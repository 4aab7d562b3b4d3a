package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func TestClassify_Signatures(t *testing.T) {
	tests := []struct {
		name     string
		input    model.NormalizedInput
		wantSig  model.InputSignature
		wantType model.EntityType
	}{
		{
			name:     "person linkedin url",
			input:    model.NormalizedInput{LinkedInURL: "https://www.linkedin.com/in/karrisaarinen"},
			wantSig:  model.SigPersonLinkedInURL,
			wantType: model.EntityPerson,
		},
		{
			name:     "company linkedin url",
			input:    model.NormalizedInput{LinkedInURL: "https://linkedin.com/company/linear"},
			wantSig:  model.SigCompanyLinkedInURL,
			wantType: model.EntityCompany,
		},
		{
			name:     "bare domain",
			input:    model.NormalizedInput{Domain: "stripe.com"},
			wantSig:  model.SigCompanyDomain,
			wantType: model.EntityCompany,
		},
		{
			name:     "name plus company",
			input:    model.NormalizedInput{Name: "Karri Saarinen", Company: "Linear"},
			wantSig:  model.SigPersonNameCompany,
			wantType: model.EntityPerson,
		},
		{
			name:     "company-shaped name",
			input:    model.NormalizedInput{Name: "Acme Holdings LLC"},
			wantSig:  model.SigCompanyNameOnly,
			wantType: model.EntityCompany,
		},
		{
			name:     "company field only",
			input:    model.NormalizedInput{Company: "Linear"},
			wantSig:  model.SigCompanyNameOnly,
			wantType: model.EntityCompany,
		},
		{
			name:     "bare person name",
			input:    model.NormalizedInput{Name: "Karri Saarinen"},
			wantSig:  model.SigPersonNameOnly,
			wantType: model.EntityPerson,
		},
		{
			name:     "work email",
			input:    model.NormalizedInput{Email: "karri@linear.app"},
			wantSig:  model.SigPersonEmail,
			wantType: model.EntityPerson,
		},
		{
			name:     "free mail email is not a work email",
			input:    model.NormalizedInput{Email: "karri@gmail.com"},
			wantSig:  model.SigUnknown,
			wantType: model.EntityUnknown,
		},
		{
			name:     "empty row",
			input:    model.NormalizedInput{},
			wantSig:  model.SigUnknown,
			wantType: model.EntityUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input)
			assert.Equal(t, tt.wantSig, got.InputSignature)
			assert.Equal(t, tt.wantType, got.EntityType)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	in := model.NormalizedInput{Name: "John Smith", Company: "Google"}
	first := Classify(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(in))
	}
}

func TestClassify_CommonNameBigBrandDowngrade(t *testing.T) {
	got := Classify(model.NormalizedInput{Name: "John Smith", Company: "Google"})
	assert.Equal(t, model.IdentityWeak, got.IdentityStrength)
	assert.Equal(t, model.AmbiguityHigh, got.AmbiguityRisk)

	// An uncommon name at a small company stays MODERATE.
	got = Classify(model.NormalizedInput{Name: "Karri Saarinen", Company: "Linear"})
	assert.Equal(t, model.IdentityModerate, got.IdentityStrength)
}

func TestClassify_GenericCompanyPrefix(t *testing.T) {
	got := Classify(model.NormalizedInput{Company: "ABC Technologies"})
	assert.Equal(t, model.SigCompanyNameOnly, got.InputSignature)
	assert.Equal(t, model.AmbiguityHigh, got.AmbiguityRisk)
}

func TestClassify_Strategies(t *testing.T) {
	tests := []struct {
		input model.NormalizedInput
		want  model.Strategy
	}{
		{model.NormalizedInput{LinkedInURL: "linkedin.com/in/someone"}, model.StrategyDirectLookup},
		{model.NormalizedInput{Domain: "stripe.com"}, model.StrategyDirectLookup},
		{model.NormalizedInput{Name: "Karri Saarinen", Company: "Linear"}, model.StrategyHypothesisAndScore},
		{model.NormalizedInput{Company: "Linear"}, model.StrategyHypothesisAndScore},
		{model.NormalizedInput{Name: "Karri Saarinen"}, model.StrategySearchAndValidate},
		{model.NormalizedInput{Email: "karri@linear.app"}, model.StrategySearchAndValidate},
		{model.NormalizedInput{}, model.StrategyFailFast},
		{model.NormalizedInput{Domain: "not a domain"}, model.StrategyFailFast},
	}
	for _, tt := range tests {
		got := Classify(tt.input)
		assert.Equal(t, tt.want, got.Strategy, "input %+v", tt.input)
	}
}

func TestClassify_EmptyRowReason(t *testing.T) {
	got := Classify(model.NormalizedInput{})
	require.Equal(t, model.StrategyFailFast, got.Strategy)
	assert.Equal(t, "No existing data in row", got.FailReason)
}

func TestClassify_Sensitivity(t *testing.T) {
	// STRONG + LOW → PUBLIC.
	got := Classify(model.NormalizedInput{Domain: "stripe.com"})
	assert.Equal(t, model.SensitivityPublic, got.Sensitivity)

	// INVALID → RESTRICTED.
	got = Classify(model.NormalizedInput{})
	assert.Equal(t, model.SensitivityRestricted, got.Sensitivity)

	// WEAK + HIGH → PRIVATE.
	got = Classify(model.NormalizedInput{Name: "Karri Saarinen"})
	assert.Equal(t, model.SensitivityPrivate, got.Sensitivity)
}

func TestNormalizeDomain_Idempotent(t *testing.T) {
	inputs := []string{
		"https://www.Stripe.com/about",
		"stripe.com",
		"http://linear.app/",
		"WWW.EXAMPLE.CO.UK",
	}
	for _, s := range inputs {
		once := NormalizeDomain(s)
		assert.Equal(t, once, NormalizeDomain(once), "input %q", s)
	}
}

func TestPersonLinkedInSlug(t *testing.T) {
	slug := PersonLinkedInSlug("https://www.linkedin.com/in/karrisaarinen/")
	assert.Equal(t, "karrisaarinen", slug)
	assert.Equal(t, slug, PersonLinkedInSlug("linkedin.com/in/"+slug))
	assert.Empty(t, PersonLinkedInSlug("https://linkedin.com/company/linear"))
}

func TestFoldName_Diacritics(t *testing.T) {
	assert.Equal(t, "jose garcia", FoldName("José García"))
	assert.True(t, IsCommonFirstName("José Martínez"))
}

func TestLooksLikeCompanyName(t *testing.T) {
	assert.True(t, LooksLikeCompanyName("Acme Inc"))
	assert.True(t, LooksLikeCompanyName("Müller GmbH"))
	assert.True(t, LooksLikeCompanyName("Northwind Holdings"))
	assert.False(t, LooksLikeCompanyName("Karri Saarinen"))
}
