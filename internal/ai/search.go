package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxSearchResults = 3

// SearchResult is one hit from the market-news lookup.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchClient queries the DuckDuckGo instant answer API. Results may be
// empty; transport and decode failures are returned for the caller to
// recover from with a simulated narrative.
type SearchClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewSearchClient() *SearchClient {
	return &SearchClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.duckduckgo.com/",
	}
}

type ddgResponse struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Lookup returns up to three title/snippet pairs for the query.
func (c *SearchClient) Lookup(ctx context.Context, query string) ([]SearchResult, error) {
	u := fmt.Sprintf("%s?q=%s&format=json&no_html=1&skip_disambig=1", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var body ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	var results []SearchResult
	if body.AbstractText != "" {
		results = append(results, SearchResult{Title: body.Heading, Snippet: body.AbstractText})
	}
	for _, topic := range body.RelatedTopics {
		if len(results) >= maxSearchResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		title := topic.Text
		if i := strings.Index(title, " - "); i > 0 {
			title = title[:i]
		}
		results = append(results, SearchResult{Title: title, Snippet: topic.Text})
	}
	return results, nil
}
