// Package search gives the researcher its lookups: Exa web/news search,
// readable-content extraction and an RSS fallback for headline feeds.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"

	"giggle/types"
)

const (
	defaultEndpoint = "https://api.exa.ai"
	searchTimeout   = 30 * time.Second

	// maxResults is the Exa API cap per request.
	maxResults = 20
)

// Client wraps the Exa search API.
// Docs: https://docs.exa.ai/reference/search
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// ClientOption customises a search Client.
type ClientOption func(*Client)

// WithEndpoint overrides the API endpoint, used by tests.
func WithEndpoint(u string) ClientOption {
	return func(c *Client) { c.endpoint = u }
}

// NewClient creates an Exa search client.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("exa api key is required")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: searchTimeout},
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type exaRequest struct {
	Query              string       `json:"query,omitempty"`
	URL                string       `json:"url,omitempty"`
	NumResults         int          `json:"numResults"`
	Type               string       `json:"type,omitempty"`
	Contents           *exaContents `json:"contents,omitempty"`
	StartPublishedDate string       `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string       `json:"endPublishedDate,omitempty"`
}

type exaContents struct {
	Text bool `json:"text"`
}

type exaResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		PublishedDate string  `json:"publishedDate"`
		Text          string  `json:"text"`
		Score         float64 `json:"score"`
	} `json:"results"`
}

// WebSearch performs a general web search, optionally including full page
// text in the results.
func (c *Client) WebSearch(ctx context.Context, query string, numResults int, includeContent bool) ([]types.SearchResult, error) {
	req := exaRequest{
		Query:      query,
		NumResults: clampResults(numResults),
		Type:       "auto",
	}
	if includeContent {
		req.Contents = &exaContents{Text: true}
	}
	results, err := c.search(ctx, "/search", req)
	if err != nil {
		return nil, fmt.Errorf("web search %q: %w", query, err)
	}
	logrus.WithFields(logrus.Fields{"query": query, "results": len(results)}).Debug("web search done")
	return results, nil
}

// NewsSearch searches for articles published within the last daysBack days.
func (c *Client) NewsSearch(ctx context.Context, query string, numResults, daysBack int) ([]types.SearchResult, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	end := time.Now()
	start := end.AddDate(0, 0, -daysBack)

	req := exaRequest{
		Query:              query + " news",
		NumResults:         clampResults(numResults),
		Type:               "auto",
		Contents:           &exaContents{Text: true},
		StartPublishedDate: start.Format("2006-01-02"),
		EndPublishedDate:   end.Format("2006-01-02"),
	}
	results, err := c.search(ctx, "/search", req)
	if err != nil {
		return nil, fmt.Errorf("news search %q: %w", query, err)
	}
	return results, nil
}

// FindSimilar returns pages similar to the given URL.
func (c *Client) FindSimilar(ctx context.Context, url string, numResults int) ([]types.SearchResult, error) {
	req := exaRequest{
		URL:        url,
		NumResults: clampResults(numResults),
	}
	results, err := c.search(ctx, "/findSimilar", req)
	if err != nil {
		return nil, fmt.Errorf("find similar to %s: %w", url, err)
	}
	return results, nil
}

func (c *Client) search(ctx context.Context, path string, payload exaRequest) ([]types.SearchResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var parsed exaResponse
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("x-api-key", c.apiKey)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("exa returned %d", resp.StatusCode)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return retry.Unrecoverable(fmt.Errorf("exa returned %d: %s", resp.StatusCode, string(raw)))
			}
			return json.NewDecoder(resp.Body).Decode(&parsed)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, types.SearchResult{
			Title:     r.Title,
			URL:       r.URL,
			Snippet:   snippet(r.Text, 300),
			Content:   r.Text,
			Published: r.PublishedDate,
			Score:     r.Score,
		})
	}
	return results, nil
}

func clampResults(n int) int {
	if n <= 0 {
		return 10
	}
	if n > maxResults {
		return maxResults
	}
	return n
}

func snippet(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
