package provider

import (
	"context"
	"strings"
	"time"

	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/pkg/prospeo"
)

// EmailResult is the normalized outcome of an email finder call.
type EmailResult struct {
	Success        bool    `json:"success"`
	Email          string  `json:"email,omitempty"`
	Confidence     float64 `json:"confidence"` // 0..1
	EmailStatus    string  `json:"emailStatus,omitempty"`
	LinkedInURL    string  `json:"linkedinUrl,omitempty"`
	PersonName     string  `json:"personName,omitempty"`
	CurrentCompany string  `json:"currentCompany,omitempty"`
	CurrentTitle   string  `json:"currentTitle,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// EmailFinder is the email discovery contract.
type EmailFinder interface {
	ByLinkedIn(ctx context.Context, profileURL string) (*EmailResult, error)
	ByNameCompany(ctx context.Context, firstName, lastName, domain string) (*EmailResult, error)
}

// prospeoFinder wraps the Prospeo client with the adapter retry policy.
type prospeoFinder struct {
	client prospeo.Client
	retry  resilience.RetryConfig
}

// NewEmailFinder creates the Prospeo-backed email finder.
func NewEmailFinder(client prospeo.Client) EmailFinder {
	return &prospeoFinder{
		client: client,
		retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: 500 * time.Millisecond,
			OnRetry:        resilience.RetryLogger("prospeo", "find"),
		},
	}
}

func (f *prospeoFinder) ByLinkedIn(ctx context.Context, profileURL string) (*EmailResult, error) {
	resp, err := resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*prospeo.FinderResponse, error) {
		return f.client.EmailFromLinkedIn(ctx, profileURL)
	})
	if err != nil {
		return nil, err
	}
	return normalizeFinder(resp), nil
}

func (f *prospeoFinder) ByNameCompany(ctx context.Context, firstName, lastName, domain string) (*EmailResult, error) {
	resp, err := resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*prospeo.FinderResponse, error) {
		return f.client.EmailFromName(ctx, firstName, lastName, domain)
	})
	if err != nil {
		return nil, err
	}
	return normalizeFinder(resp), nil
}

func normalizeFinder(resp *prospeo.FinderResponse) *EmailResult {
	conf := resp.Score / 100
	if conf > 1 {
		conf = 1
	}
	return &EmailResult{
		Success:        resp.Email != "",
		Email:          resp.Email,
		Confidence:     conf,
		EmailStatus:    NormalizeEmailStatus(resp.EmailStatus),
		LinkedInURL:    resp.LinkedInURL,
		PersonName:     resp.PersonName,
		CurrentCompany: resp.CurrentCompany,
		CurrentTitle:   resp.CurrentTitle,
	}
}

// NormalizeEmailStatus maps provider verification strings onto the four
// canonical states: valid, invalid, catch_all, unknown.
func NormalizeEmailStatus(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VALID", "DELIVERABLE":
		return "valid"
	case "INVALID", "UNDELIVERABLE":
		return "invalid"
	case "ACCEPT_ALL", "CATCH_ALL", "CATCHALL":
		return "catch_all"
	default:
		return "unknown"
	}
}
