package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchClient_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "lego demand" {
			t.Errorf("query = %q, want %q", got, "lego demand")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"Heading": "Lego",
			"AbstractText": "Lego is a line of plastic construction toys.",
			"RelatedTopics": [
				{"Text": "Lego Group - Danish toy company", "FirstURL": "https://example.com/1"},
				{"Text": "Lego set - A themed collection", "FirstURL": "https://example.com/2"},
				{"Text": "Lego Star Wars - Licensed theme", "FirstURL": "https://example.com/3"},
				{"Text": "One past the cap", "FirstURL": "https://example.com/4"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewSearchClient()
	c.baseURL = srv.URL + "/"

	results, err := c.Lookup(context.Background(), "lego demand")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (capped)", len(results))
	}
	if results[0].Title != "Lego" || results[0].Snippet == "" {
		t.Errorf("abstract result = %+v", results[0])
	}
	if results[1].Title != "Lego Group" {
		t.Errorf("topic title = %q, want %q", results[1].Title, "Lego Group")
	}
}

func TestSearchClient_EmptyAndErrorResponses(t *testing.T) {
	t.Run("empty body yields no results and no error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"Heading":"","AbstractText":"","RelatedTopics":[]}`))
		}))
		defer srv.Close()

		c := NewSearchClient()
		c.baseURL = srv.URL + "/"
		results, err := c.Lookup(context.Background(), "nothing")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("got %d results, want 0", len(results))
		}
	})

	t.Run("server error is returned to the caller", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewSearchClient()
		c.baseURL = srv.URL + "/"
		if _, err := c.Lookup(context.Background(), "boom"); err == nil {
			t.Fatal("expected an error for a 500 response")
		}
	})
}
