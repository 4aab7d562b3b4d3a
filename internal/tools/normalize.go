package tools

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	legalSuffixRe = regexp.MustCompile(`(?i)\b(incorporated|corporation|company|limited|pvt\.?\s+ltd\.?|inc\.?|llc\.?|ltd\.?|corp\.?|co\.?|gmbh|plc|ag|sa|bv|nv)\b\.?\s*$`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9\s]+`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// normalizeCompanyName lowercases a company name, strips trailing legal
// suffixes and punctuation, and collapses whitespace. Returns "" when
// nothing identifying survives.
func normalizeCompanyName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	// Suffixes can stack ("Acme Holdings Ltd."), so strip repeatedly.
	for {
		next := strings.TrimSpace(legalSuffixRe.ReplaceAllString(s, ""))
		if next == s {
			break
		}
		s = next
	}
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// splitPersonName splits a display name into (first, last). One token maps
// to first only; three or more map to first + the rest joined.
func splitPersonName(full string) (first, last string) {
	tokens := strings.Fields(strings.TrimSpace(full))
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return tokens[0], ""
	default:
		return tokens[0], strings.Join(tokens[1:], " ")
	}
}

// hostOf returns the lowercase hostname of a URL without a leading "www.",
// or "" when the URL does not parse.
func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" && u.Scheme == "" {
		// Schemeless "acme.com/about" parses as a path.
		candidate := strings.ToLower(strings.TrimSpace(raw))
		if i := strings.IndexAny(candidate, "/?#"); i >= 0 {
			candidate = candidate[:i]
		}
		if strings.Contains(candidate, ".") && !strings.ContainsAny(candidate, " \t") {
			host = candidate
		}
	}
	return strings.TrimPrefix(host, "www.")
}

// stringAt reads a string value out of the accumulated output map.
func stringAt(acc map[string]any, key string) string {
	if acc == nil {
		return ""
	}
	if v, ok := acc[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// floatAt reads a numeric value out of the accumulated output map.
func floatAt(acc map[string]any, key string) float64 {
	if acc == nil {
		return 0
	}
	switch v := acc[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// firstNonEmpty returns the first non-blank string.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func capAt(f, limit float64) float64 {
	if f > limit {
		return limit
	}
	return f
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
