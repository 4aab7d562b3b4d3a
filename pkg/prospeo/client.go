// Package prospeo provides a client for the Prospeo email finder API.
package prospeo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.prospeo.io"

// Client performs Prospeo email finder operations.
type Client interface {
	// EmailFromLinkedIn resolves a work email from a LinkedIn profile URL.
	EmailFromLinkedIn(ctx context.Context, profileURL string) (*FinderResponse, error)
	// EmailFromName resolves a work email from a person's name and a
	// company domain.
	EmailFromName(ctx context.Context, firstName, lastName, domain string) (*FinderResponse, error)
}

// FinderResponse is the normalized response from either finder endpoint.
type FinderResponse struct {
	Email          string  `json:"email"`
	EmailStatus    string  `json:"emailStatus"` // VALID, INVALID, ACCEPT_ALL, UNKNOWN
	Score          float64 `json:"score"`       // 0..100
	LinkedInURL    string  `json:"linkedinUrl,omitempty"`
	PersonName     string  `json:"personName,omitempty"`
	CurrentCompany string  `json:"currentCompany,omitempty"`
	CurrentTitle   string  `json:"currentTitle,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Prospeo API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type linkedinFinderRequest struct {
	URL string `json:"url"`
}

type nameFinderRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company"`
}

// apiEnvelope is the wire shape of every Prospeo response.
type apiEnvelope struct {
	Error    bool   `json:"error"`
	Message  string `json:"message,omitempty"`
	Response struct {
		Email struct {
			Email       string `json:"email"`
			EmailStatus string `json:"email_status"`
			Score       int    `json:"score"`
		} `json:"email"`
		LinkedInURL string `json:"linkedin_url"`
		FullName    string `json:"full_name"`
		Company     struct {
			Name string `json:"name"`
		} `json:"company"`
		JobTitle string `json:"job_title"`
	} `json:"response"`
}

func (c *httpClient) EmailFromLinkedIn(ctx context.Context, profileURL string) (*FinderResponse, error) {
	return c.post(ctx, "/linkedin-email-finder", linkedinFinderRequest{URL: profileURL})
}

func (c *httpClient) EmailFromName(ctx context.Context, firstName, lastName, domain string) (*FinderResponse, error) {
	return c.post(ctx, "/email-finder", nameFinderRequest{
		FirstName: firstName,
		LastName:  lastName,
		Company:   domain,
	})
}

func (c *httpClient) post(ctx context.Context, path string, payload any) (*FinderResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "prospeo: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "prospeo: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "prospeo: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "prospeo: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("prospeo: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var env apiEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, eris.Wrap(err, "prospeo: unmarshal response")
	}
	if env.Error {
		return nil, eris.Errorf("prospeo: api error: %s", env.Message)
	}

	return &FinderResponse{
		Email:          env.Response.Email.Email,
		EmailStatus:    env.Response.Email.EmailStatus,
		Score:          float64(env.Response.Email.Score),
		LinkedInURL:    env.Response.LinkedInURL,
		PersonName:     env.Response.FullName,
		CurrentCompany: env.Response.Company.Name,
		CurrentTitle:   env.Response.JobTitle,
	}, nil
}
