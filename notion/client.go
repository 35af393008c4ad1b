// Package notion is the client for the topic task database. Topics live as
// rows of a Notion database whose "Status" select field drives the pipeline
// state machine.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"

	"giggle/types"
)

const (
	defaultBaseURL = "https://api.notion.com"
	notionVersion  = "2022-06-28"
	requestTimeout = 30 * time.Second

	// maxPageSize is the Notion API cap on query page_size.
	maxPageSize = 100
)

// Client talks to the Notion API for a single topic database.
type Client struct {
	httpClient *http.Client
	apiKey     string
	databaseID string
	baseURL    string
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a Notion client for the given database.
func NewClient(apiKey, databaseID string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("notion api key is required")
	}
	if databaseID == "" {
		return nil, fmt.Errorf("notion database id is required")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		apiKey:     apiKey,
		databaseID: databaseID,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// QueryTopicsByStatus returns up to limit topics whose Status select equals
// status, oldest first.
func (c *Client) QueryTopicsByStatus(ctx context.Context, status types.Status, limit int) ([]*types.Topic, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	payload := map[string]interface{}{
		"filter": map[string]interface{}{
			"property": "Status",
			"select":   map[string]string{"equals": string(status)},
		},
		"sorts": []map[string]string{
			{"timestamp": "created_time", "direction": "ascending"},
		},
		"page_size": limit,
	}

	var parsed struct {
		Results []page `json:"results"`
	}
	url := fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, c.databaseID)
	if err := c.do(ctx, http.MethodPost, url, payload, &parsed); err != nil {
		return nil, fmt.Errorf("query topics by status %q: %w", status, err)
	}

	topics := make([]*types.Topic, 0, len(parsed.Results))
	for i := range parsed.Results {
		topics = append(topics, parsed.Results[i].toTopic())
	}
	logrus.WithFields(logrus.Fields{"status": status, "count": len(topics)}).Debug("queried topics")
	return topics, nil
}

// SelectTopicFromBacklog picks the oldest Backlog topic and promotes it to
// Candidate. A failed status update is logged but not fatal; the caller still
// gets the topic data. Returns nil when the backlog is empty.
func (c *Client) SelectTopicFromBacklog(ctx context.Context) (*types.Topic, error) {
	backlog, err := c.QueryTopicsByStatus(ctx, types.StatusBacklog, maxPageSize)
	if err != nil {
		return nil, err
	}
	if len(backlog) == 0 {
		logrus.Info("no backlog topics found")
		return nil, nil
	}

	selected := backlog[0]
	if err := c.setStatus(ctx, selected.PageID, types.StatusCandidate); err != nil {
		logrus.WithError(err).WithField("page_id", selected.PageID).
			Warn("failed to promote topic to Candidate")
	} else {
		selected.Status = types.StatusCandidate
	}
	return selected, nil
}

// GetTopicDetails fetches a single topic page by ID.
func (c *Client) GetTopicDetails(ctx context.Context, pageID string) (*types.Topic, error) {
	var p page
	url := fmt.Sprintf("%s/v1/pages/%s", c.baseURL, pageID)
	if err := c.do(ctx, http.MethodGet, url, nil, &p); err != nil {
		return nil, fmt.Errorf("get topic %s: %w", pageID, err)
	}
	return p.toTopic(), nil
}

// TransitionTopic moves a topic to a new status, enforcing the pipeline
// state machine against the status currently stored in Notion. This is what
// keeps a retried agent run from re-walking a topic that already moved on.
func (c *Client) TransitionTopic(ctx context.Context, pageID string, to types.Status) error {
	current, err := c.GetTopicDetails(ctx, pageID)
	if err != nil {
		return err
	}
	if current.Status == to {
		return nil
	}
	if !types.CanTransition(current.Status, to) {
		return fmt.Errorf("illegal status transition %s -> %s for topic %s", current.Status, to, pageID)
	}
	return c.setStatus(ctx, pageID, to)
}

// setStatus writes the Status select field without transition checks.
func (c *Client) setStatus(ctx context.Context, pageID string, status types.Status) error {
	payload := map[string]interface{}{
		"properties": map[string]interface{}{
			"Status": map[string]interface{}{
				"select": map[string]string{"name": string(status)},
			},
		},
	}
	url := fmt.Sprintf("%s/v1/pages/%s", c.baseURL, pageID)
	if err := c.do(ctx, http.MethodPatch, url, payload, nil); err != nil {
		return fmt.Errorf("update topic %s status to %s: %w", pageID, status, err)
	}
	logrus.WithFields(logrus.Fields{"page_id": pageID, "status": status}).Info("topic status updated")
	return nil
}

// CreateResearchPage creates a child page under the topic holding the digest
// and citation list. Returns the new page ID.
func (c *Client) CreateResearchPage(ctx context.Context, topic *types.Topic, digest *types.Digest) (string, error) {
	payload := map[string]interface{}{
		"parent": map[string]string{"page_id": topic.PageID},
		"properties": map[string]interface{}{
			"title": map[string]interface{}{
				"title": []interface{}{textBlock(cleanText("Research Digest: " + topic.Title))},
			},
		},
		"children": digestBlocks(topic, digest),
	}

	var parsed struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	url := fmt.Sprintf("%s/v1/pages", c.baseURL)
	if err := c.do(ctx, http.MethodPost, url, payload, &parsed); err != nil {
		return "", fmt.Errorf("create research page for topic %s: %w", topic.PageID, err)
	}
	logrus.WithFields(logrus.Fields{"page_id": parsed.ID, "topic": topic.PageID}).
		Info("research page created")
	return parsed.ID, nil
}

// do issues one API request, retrying on 429 and 5xx responses.
func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reqBody []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = b
	}

	return retry.Do(
		func() error {
			var reader io.Reader
			if reqBody != nil {
				reader = bytes.NewReader(reqBody)
			}
			req, err := http.NewRequestWithContext(ctx, method, url, reader)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("Notion-Version", notionVersion)
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("notion returned %d", resp.StatusCode)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				return retry.Unrecoverable(fmt.Errorf("notion returned %d: %s", resp.StatusCode, string(raw)))
			}
			if out != nil {
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

// PageURL builds the public URL for a Notion page ID.
func PageURL(pageID string) string {
	return "https://www.notion.so/" + strings.ReplaceAll(pageID, "-", "")
}
