package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"giggle/search"
	"giggle/types"
)

// SearchService is the slice of the search layer the research tools need.
type SearchService interface {
	WebSearch(ctx context.Context, query string, numResults int, includeContent bool) ([]types.SearchResult, error)
	NewsSearch(ctx context.Context, query string, numResults, daysBack int) ([]types.SearchResult, error)
	FindSimilar(ctx context.Context, url string, numResults int) ([]types.SearchResult, error)
}

type searchTools struct {
	searcher SearchService

	// extract is swapped out in tests; production uses search.Extract.
	extract func(url string, maxLength int) (*types.ExtractedPage, error)
}

func newSearchTools(searcher SearchService) *searchTools {
	return &searchTools{searcher: searcher, extract: search.Extract}
}

func (t *searchTools) webSearchDefinition() mcp.Tool {
	return mcp.NewTool("web_search",
		mcp.WithDescription("Neural web search. Returns titles, URLs and text snippets as JSON."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query."),
		),
		mcp.WithNumber("num_results",
			mcp.Description("Number of results (default 10, max 20)."),
		),
		mcp.WithBoolean("include_content",
			mcp.Description("Include full page text in results."),
		),
	)
}

func (t *searchTools) handleWebSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := t.searcher.WebSearch(ctx, query, req.GetInt("num_results", 10), req.GetBool("include_content", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}
	return jsonResult(results)
}

func (t *searchTools) newsSearchDefinition() mcp.Tool {
	return mcp.NewTool("search_news",
		mcp.WithDescription("Search recent news coverage for a query, restricted to a trailing date window."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("News search query."),
		),
		mcp.WithNumber("num_results",
			mcp.Description("Number of results (default 10, max 20)."),
		),
		mcp.WithNumber("days_back",
			mcp.Description("How many days back to search (default 30)."),
		),
	)
}

func (t *searchTools) handleNewsSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := t.searcher.NewsSearch(ctx, query, req.GetInt("num_results", 10), req.GetInt("days_back", 30))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No news found."), nil
	}
	return jsonResult(results)
}

func (t *searchTools) extractDefinition() mcp.Tool {
	return mcp.NewTool("extract_content",
		mcp.WithDescription("Fetch a URL and extract its readable article text."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL of the page to extract."),
		),
		mcp.WithNumber("max_length",
			mcp.Description("Truncate the extracted text to this many characters (0 means no limit)."),
		),
	)
}

func (t *searchTools) handleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := t.extract(url, req.GetInt("max_length", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page)
}

func (t *searchTools) findSimilarDefinition() mcp.Tool {
	return mcp.NewTool("find_similar",
		mcp.WithDescription("Find pages similar to a known good source URL."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Reference URL."),
		),
		mcp.WithNumber("num_results",
			mcp.Description("Number of results (default 10, max 20)."),
		),
	)
}

func (t *searchTools) handleFindSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := t.searcher.FindSimilar(ctx, url, req.GetInt("num_results", 10))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No similar pages found."), nil
	}
	return jsonResult(results)
}
