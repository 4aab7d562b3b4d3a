package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sells-group/enrich-cli/pkg/jina"
)

func jinaServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestJinaAdapter_Scrape(t *testing.T) {
	content := strings.Repeat("Acme builds industrial robots. ", 10)
	srv := jinaServer(t, `{"code": 200, "data": {"title": "Acme", "url": "https://acme.com", "content": "`+content+`"}}`, http.StatusOK)
	defer srv.Close()

	j := NewJinaAdapter(jina.NewClient("key", jina.WithBaseURL(srv.URL)))
	res, err := j.Scrape(context.Background(), "https://acme.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Acme" || res.Source != "jina" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.HTML != "" {
		t.Error("jina results are markdown-only; HTML must be empty")
	}
}

func TestJinaAdapter_ShortContentNeedsFallback(t *testing.T) {
	srv := jinaServer(t, `{"code": 200, "data": {"title": "x", "url": "https://a.com", "content": "tiny"}}`, http.StatusOK)
	defer srv.Close()

	j := NewJinaAdapter(jina.NewClient("key", jina.WithBaseURL(srv.URL)))
	if _, err := j.Scrape(context.Background(), "https://a.com"); err == nil {
		t.Fatal("expected fallback error for thin content")
	}
}

func TestJinaAdapter_RefusesLinkedIn(t *testing.T) {
	j := NewJinaAdapter(jina.NewClient("key"))
	if j.Supports("https://linkedin.com/in/x") {
		t.Error("Supports must be false for linkedin")
	}
	if _, err := j.Scrape(context.Background(), "https://linkedin.com/in/x"); err == nil {
		t.Fatal("expected refusal")
	}
}

func TestJinaAdapter_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	j := &JinaAdapter{
		client:  jina.NewClient("key", jina.WithBaseURL("http://127.0.0.1:0")),
		breaker: newCircuitBreaker(2, 30*time.Second, time.Minute),
	}

	j.breaker.recordFailure()
	j.breaker.recordFailure()

	if j.Supports("https://example.com") {
		t.Error("expected open circuit to disable the adapter")
	}
	if _, err := j.Scrape(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected circuit-open error")
	}
}

func TestNeedsFallback(t *testing.T) {
	long := strings.Repeat("real content ", 20)
	cases := []struct {
		name string
		resp *jina.ReadResponse
		want bool
	}{
		{"nil", nil, true},
		{"bad code", &jina.ReadResponse{Code: 500}, true},
		{"thin", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: "x"}}, true},
		{"challenge", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: "Just a moment... " + strings.Repeat("x", 100)}}, true},
		{"good", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: long}}, false},
	}
	for _, tc := range cases {
		if got := needsFallback(tc.resp); got != tc.want {
			t.Errorf("%s: needsFallback = %v, want %v", tc.name, got, tc.want)
		}
	}
}
