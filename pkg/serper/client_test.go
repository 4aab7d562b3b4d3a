package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "stripe official website", body["q"])

		_, _ = w.Write([]byte(`{
			"organic": [
				{"title": "Stripe | Payments", "link": "https://stripe.com", "snippet": "Online payments.", "position": 1}
			],
			"knowledgeGraph": {"title": "Stripe", "type": "Company", "attributes": {"Founded": "2010"}}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.Search(context.Background(), "stripe official website")
	require.NoError(t, err)

	require.Len(t, resp.Organic, 1)
	assert.Equal(t, "https://stripe.com", resp.Organic[0].Link)
	assert.Equal(t, 1, resp.Organic[0].Position)
	require.NotNil(t, resp.KnowledgeGraph)
	assert.Equal(t, "Stripe", resp.KnowledgeGraph.Title)
	assert.Equal(t, "2010", resp.KnowledgeGraph.Attributes["Founded"])
}

func TestSearch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSearch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}
