package search

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"giggle/types"
)

// FeedPresets maps friendly names to news feed URLs used when no Exa key is
// configured.
var FeedPresets = map[string]string{
	"gn": "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
	"hn": "https://hnrss.org/newest?q=%s",
}

// DefaultFeedPreset is used when the caller doesn't pick one.
const DefaultFeedPreset = "gn"

// FeedSearch queries an RSS news feed for headlines matching the query. It is
// the zero-credential fallback for NewsSearch.
func FeedSearch(ctx context.Context, preset, query string, maxCount int) ([]types.SearchResult, error) {
	tmpl, ok := FeedPresets[preset]
	if !ok {
		tmpl = FeedPresets[DefaultFeedPreset]
	}
	feedURL := fmt.Sprintf(tmpl, url.QueryEscape(query))

	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	if maxCount <= 0 || maxCount > len(feed.Items) {
		maxCount = len(feed.Items)
	}

	results := make([]types.SearchResult, 0, maxCount)
	for i := 0; i < maxCount; i++ {
		item := feed.Items[i]

		published := ""
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.Format(time.RFC3339)
		} else if item.UpdatedParsed != nil {
			published = item.UpdatedParsed.Format(time.RFC3339)
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		results = append(results, types.SearchResult{
			Title:     item.Title,
			URL:       item.Link,
			Snippet:   snippet(summary, 300),
			Published: published,
		})
	}
	return results, nil
}
