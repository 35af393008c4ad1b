package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giggle/types"
)

type fakeNotionStore struct {
	topics      map[string]*types.Topic
	backlog     *types.Topic
	transitions []string
	pages       []string
}

func (f *fakeNotionStore) SelectTopicFromBacklog(ctx context.Context) (*types.Topic, error) {
	return f.backlog, nil
}

func (f *fakeNotionStore) QueryTopicsByStatus(ctx context.Context, status types.Status, limit int) ([]*types.Topic, error) {
	var out []*types.Topic
	for _, topic := range f.topics {
		if topic.Status == status {
			out = append(out, topic)
		}
	}
	return out, nil
}

func (f *fakeNotionStore) TransitionTopic(ctx context.Context, pageID string, to types.Status) error {
	topic, ok := f.topics[pageID]
	if !ok {
		return fmt.Errorf("topic %s not found", pageID)
	}
	if !types.CanTransition(topic.Status, to) {
		return fmt.Errorf("illegal transition %s -> %s", topic.Status, to)
	}
	f.transitions = append(f.transitions, pageID+"->"+string(to))
	topic.Status = to
	return nil
}

func (f *fakeNotionStore) GetTopicDetails(ctx context.Context, pageID string) (*types.Topic, error) {
	topic, ok := f.topics[pageID]
	if !ok {
		return nil, fmt.Errorf("topic %s not found", pageID)
	}
	return topic, nil
}

func (f *fakeNotionStore) CreateResearchPage(ctx context.Context, topic *types.Topic, digest *types.Digest) (string, error) {
	f.pages = append(f.pages, topic.PageID)
	return "research-1", nil
}

type fakeSearchService struct {
	results []types.SearchResult
	err     error
}

func (f *fakeSearchService) WebSearch(ctx context.Context, query string, numResults int, includeContent bool) ([]types.SearchResult, error) {
	return f.results, f.err
}

func (f *fakeSearchService) NewsSearch(ctx context.Context, query string, numResults, daysBack int) ([]types.SearchResult, error) {
	return f.results, f.err
}

func (f *fakeSearchService) FindSimilar(ctx context.Context, url string, numResults int) ([]types.SearchResult, error) {
	return f.results, f.err
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestHandleSelectTopic(t *testing.T) {
	store := &fakeNotionStore{backlog: &types.Topic{PageID: "p1", Title: "Quantum networking", Status: types.StatusCandidate}}
	nt := newNotionTools(store)

	result, err := nt.handleSelectTopic(context.Background(), callReq(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Quantum networking")
}

func TestHandleSelectTopicEmptyBacklog(t *testing.T) {
	nt := newNotionTools(&fakeNotionStore{})
	result, err := nt.handleSelectTopic(context.Background(), callReq(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "backlog is empty")
}

func TestHandleQueryTopics(t *testing.T) {
	store := &fakeNotionStore{topics: map[string]*types.Topic{
		"p1": {PageID: "p1", Title: "One", Status: types.StatusBacklog},
	}}
	nt := newNotionTools(store)

	result, err := nt.handleQueryTopics(context.Background(), callReq(map[string]any{"status": "Backlog"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "One")

	result, err = nt.handleQueryTopics(context.Background(), callReq(map[string]any{"status": "Bogus"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleUpdateStatus(t *testing.T) {
	store := &fakeNotionStore{topics: map[string]*types.Topic{
		"p1": {PageID: "p1", Status: types.StatusBacklog},
	}}
	nt := newNotionTools(store)

	result, err := nt.handleUpdateStatus(context.Background(), callReq(map[string]any{
		"page_id": "p1", "status": "Candidate",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, []string{"p1->Candidate"}, store.transitions)

	// illegal transition surfaces as a tool error, not a Go error
	result, err = nt.handleUpdateStatus(context.Background(), callReq(map[string]any{
		"page_id": "p1", "status": "Published",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleCreateResearchPage(t *testing.T) {
	store := &fakeNotionStore{topics: map[string]*types.Topic{
		"p1": {PageID: "p1", Title: "One", Status: types.StatusResearch},
	}}
	nt := newNotionTools(store)

	digest, _ := json.Marshal(types.Digest{ExecutiveSummary: "summary"})
	result, err := nt.handleCreateResearchPage(context.Background(), callReq(map[string]any{
		"page_id": "p1", "digest_json": string(digest),
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "research-1")
	assert.Equal(t, []string{"p1"}, store.pages)

	result, err = nt.handleCreateResearchPage(context.Background(), callReq(map[string]any{
		"page_id": "p1", "digest_json": "{}",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleWebSearch(t *testing.T) {
	st := newSearchTools(&fakeSearchService{results: []types.SearchResult{
		{Title: "Result", URL: "https://example.com"},
	}})

	result, err := st.handleWebSearch(context.Background(), callReq(map[string]any{"query": "quantum"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "https://example.com")
}

func TestHandleWebSearchMissingQuery(t *testing.T) {
	st := newSearchTools(&fakeSearchService{})
	result, err := st.handleWebSearch(context.Background(), callReq(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleExtract(t *testing.T) {
	st := newSearchTools(&fakeSearchService{})
	st.extract = func(url string, maxLength int) (*types.ExtractedPage, error) {
		return &types.ExtractedPage{URL: url, Title: "Page", Content: "body text"}, nil
	}

	result, err := st.handleExtract(context.Background(), callReq(map[string]any{"url": "https://example.com"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "body text")
}

func TestNewRegistersTools(t *testing.T) {
	s := New(&fakeNotionStore{}, &fakeSearchService{})
	require.NotNil(t, s)
}
