package classify

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	personLinkedInRe  = regexp.MustCompile(`(?i)linkedin\.com/in/([A-Za-z0-9\-_%]+)`)
	companyLinkedInRe = regexp.MustCompile(`(?i)linkedin\.com/company/([A-Za-z0-9\-_%\.]+)`)

	// domainRe accepts a bare RFC-952-style hostname with at least one dot
	// and a 2+ char alphabetic TLD. Schemes and paths must be stripped first.
	domainRe = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9\-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// IsPersonLinkedInURL reports whether s points at a linkedin.com/in/ profile.
func IsPersonLinkedInURL(s string) bool {
	return personLinkedInRe.MatchString(s)
}

// IsCompanyLinkedInURL reports whether s points at a linkedin.com/company/ page.
func IsCompanyLinkedInURL(s string) bool {
	return companyLinkedInRe.MatchString(s)
}

// PersonLinkedInSlug extracts the profile slug from a linkedin.com/in/ URL.
// Returns "" when s is not a person profile URL.
func PersonLinkedInSlug(s string) string {
	m := personLinkedInRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimRight(m[1], "/")
}

// NormalizeDomain strips scheme, leading www., path, and trailing dots from
// a domain-ish string and lowercases it. Idempotent.
func NormalizeDomain(s string) string {
	d := strings.ToLower(strings.TrimSpace(s))
	for _, prefix := range []string{"https://", "http://", "//"} {
		d = strings.TrimPrefix(d, prefix)
	}
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.Trim(d, ".")
}

// IsValidDomain reports whether s normalizes to a well-formed domain.
func IsValidDomain(s string) bool {
	return domainRe.MatchString(NormalizeDomain(s))
}

// IsWellFormedEmail reports whether s is a plausible email address.
func IsWellFormedEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// EmailDomain returns the lowercase domain part of an email, or "".
func EmailDomain(s string) string {
	at := strings.LastIndex(s, "@")
	if at < 0 || at == len(s)-1 {
		return ""
	}
	return strings.ToLower(s[at+1:])
}

// IsFreeMailDomain reports whether d is a known consumer mail provider.
func IsFreeMailDomain(d string) bool {
	return freeMailDomains[strings.ToLower(d)]
}

// LooksLikeCompanyName reports whether a "name" value reads as a company
// (carries a legal suffix token such as Inc, LLC, GmbH).
func LooksLikeCompanyName(name string) bool {
	tokens := strings.Fields(strings.ToLower(name))
	for _, t := range tokens {
		t = strings.Trim(t, ",")
		for _, suffix := range legalSuffixes {
			if t == suffix {
				return true
			}
		}
	}
	return false
}

// HasGenericPrefix reports whether a company name starts with a
// high-collision generic token (abc, best, global, ...).
func HasGenericPrefix(name string) bool {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(tokens) == 0 {
		return false
	}
	for _, p := range genericCompanyPrefixes {
		if tokens[0] == p {
			return true
		}
	}
	return false
}

// foldTransformer strips diacritics after NFD decomposition.
var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FoldName lowercases a personal or company name and strips diacritics so
// wordlist lookups behave for names like "José" or "Müller".
func FoldName(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// IsCommonFirstName reports whether the first token of name is a
// high-frequency given name.
func IsCommonFirstName(name string) bool {
	tokens := strings.Fields(FoldName(name))
	if len(tokens) == 0 {
		return false
	}
	return commonFirstNames[tokens[0]]
}

// IsBigBrand reports whether company matches a large global employer.
func IsBigBrand(company string) bool {
	return bigBrands[FoldName(company)]
}
