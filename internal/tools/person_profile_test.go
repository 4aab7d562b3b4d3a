package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

func TestFetchPublicProfile_SnippetsFirst(t *testing.T) {
	search := &fakeSearch{responses: map[string]*serper.SearchResponse{
		"github": {Organic: []serper.OrganicResult{
			{Title: "janerivera (Jane Rivera) · GitHub", Link: "https://github.com/janerivera", Snippet: "VP Engineering at Quartzline. Building flooring telemetry."},
		}},
	}}
	llm := &fakeExtractor{bySchema: map[string]string{
		"person_public_profile": `{"bio":"VP Engineering at Quartzline, building flooring telemetry.","twitter":null,"github":"https://github.com/janerivera","personalWebsite":null,"confidence":0.8}`,
	}}
	d := testDeps(t, search, llm, nil, nil)

	out, err := fetchPublicProfile(context.Background(), d, "Jane Rivera", "Quartzline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[model.FieldGitHub] != "https://github.com/janerivera" {
		t.Errorf("unexpected github: %v", out[model.FieldGitHub])
	}
	if out[model.MetaSource] != "snippets" {
		t.Errorf("expected snippet-first success, got %v", out[model.MetaSource])
	}
	if _, scraped := out["scrapedUrl"]; scraped {
		t.Error("snippet success must not scrape")
	}
}

func TestFetchPublicProfile_NoResults(t *testing.T) {
	d := testDeps(t, &fakeSearch{}, nil, nil, nil)
	out, err := fetchPublicProfile(context.Background(), d, "Jane Rivera", "Quartzline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[model.MetaConfidence].(float64) != 0.0 {
		t.Errorf("expected zero confidence, got %v", out[model.MetaConfidence])
	}
}

func TestPublicProfileOutputs_ValidatesHosts(t *testing.T) {
	bio := strings.Repeat("long bio ", 60)
	badTwitter := "https://example.com/not-twitter"
	goodGitHub := "https://github.com/janerivera"
	site := "https://janerivera.dev"
	ext := &publicProfileExtraction{
		Bio:             &bio,
		Twitter:         &badTwitter,
		GitHub:          &goodGitHub,
		PersonalWebsite: &site,
	}

	out := publicProfileOutputs(ext, "snippets", "")
	if _, ok := out[model.FieldTwitter]; ok {
		t.Error("twitter URL on the wrong host must be dropped")
	}
	if out[model.FieldGitHub] != goodGitHub {
		t.Errorf("unexpected github: %v", out[model.FieldGitHub])
	}
	if out[model.FieldPersonalWebsite] != site {
		t.Errorf("unexpected personal website: %v", out[model.FieldPersonalWebsite])
	}
	got := out[model.FieldBio].(string)
	if len([]rune(got)) > maxBioRunes {
		t.Errorf("bio exceeds cap: %d runes", len([]rune(got)))
	}
}

func TestPickProfilePage(t *testing.T) {
	results := []serper.OrganicResult{
		{Link: "https://www.linkedin.com/in/jane"},
		{Link: "https://zoominfo.com/p/jane"},
		{Link: "https://quartzline.com/team"},
		{Link: "https://github.com/janerivera"},
	}
	if got := pickProfilePage(results); got != "https://github.com/janerivera" {
		t.Errorf("expected preferred host first, got %q", got)
	}

	noPreferred := results[:3]
	if got := pickProfilePage(noPreferred); got != "https://quartzline.com/team" {
		t.Errorf("expected team page over aggregators, got %q", got)
	}
}
