package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"giggle/types"
)

// NotionStore is the slice of the Notion client the topic tools need.
type NotionStore interface {
	SelectTopicFromBacklog(ctx context.Context) (*types.Topic, error)
	QueryTopicsByStatus(ctx context.Context, status types.Status, limit int) ([]*types.Topic, error)
	TransitionTopic(ctx context.Context, pageID string, to types.Status) error
	GetTopicDetails(ctx context.Context, pageID string) (*types.Topic, error)
	CreateResearchPage(ctx context.Context, topic *types.Topic, digest *types.Digest) (string, error)
}

type notionTools struct {
	store NotionStore
}

func newNotionTools(store NotionStore) *notionTools {
	return &notionTools{store: store}
}

func (t *notionTools) selectTopicDefinition() mcp.Tool {
	return mcp.NewTool("select_topic_from_backlog",
		mcp.WithDescription("Pick the oldest topic from the Backlog and promote it to Candidate. Returns the topic as JSON, or a notice when the backlog is empty."),
	)
}

func (t *notionTools) handleSelectTopic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := t.store.SelectTopicFromBacklog(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if topic == nil {
		return mcp.NewToolResultText("The backlog is empty."), nil
	}
	return jsonResult(topic)
}

func (t *notionTools) queryTopicsDefinition() mcp.Tool {
	return mcp.NewTool("query_topics_by_status",
		mcp.WithDescription("List topics in a given lifecycle status, oldest first."),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("One of: Idea, Backlog, Candidate, Research, Scripting, Rendering, Published, Failed."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of topics to return (default 20, max 100)."),
		),
	)
}

func (t *notionTools) handleQueryTopics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	statusArg, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := types.Status(statusArg)
	if !types.ValidStatus(status) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", statusArg)), nil
	}

	limit := req.GetInt("limit", 20)
	topics, err := t.store.QueryTopicsByStatus(ctx, status, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(topics) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No topics with status %s.", status)), nil
	}
	return jsonResult(topics)
}

func (t *notionTools) updateStatusDefinition() mcp.Tool {
	return mcp.NewTool("update_topic_status",
		mcp.WithDescription("Move a topic to a new lifecycle status. Illegal transitions are rejected."),
		mcp.WithString("page_id",
			mcp.Required(),
			mcp.Description("Notion page ID of the topic."),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("Target status."),
		),
	)
}

func (t *notionTools) handleUpdateStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := req.RequireString("page_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	statusArg, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := types.Status(statusArg)
	if !types.ValidStatus(status) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", statusArg)), nil
	}

	if err := t.store.TransitionTopic(ctx, pageID, status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Topic %s moved to %s.", pageID, status)), nil
}

func (t *notionTools) topicDetailsDefinition() mcp.Tool {
	return mcp.NewTool("get_topic_details",
		mcp.WithDescription("Fetch a topic's full brief: title, angle, stance, audience, must-hit points, red lines."),
		mcp.WithString("page_id",
			mcp.Required(),
			mcp.Description("Notion page ID of the topic."),
		),
	)
}

func (t *notionTools) handleTopicDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := req.RequireString("page_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topic, err := t.store.GetTopicDetails(ctx, pageID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(topic)
}

func (t *notionTools) createResearchPageDefinition() mcp.Tool {
	return mcp.NewTool("create_research_page",
		mcp.WithDescription("Create a research digest page linked to a topic. The digest is passed as JSON with executive_summary, key_findings, recent_developments, supporting_evidence and citations."),
		mcp.WithString("page_id",
			mcp.Required(),
			mcp.Description("Notion page ID of the topic the research belongs to."),
		),
		mcp.WithString("digest_json",
			mcp.Required(),
			mcp.Description("Research digest as a JSON object."),
		),
	)
}

func (t *notionTools) handleCreateResearchPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := req.RequireString("page_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	digestJSON, err := req.RequireString("digest_json")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var digest types.Digest
	if err := json.Unmarshal([]byte(digestJSON), &digest); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid digest_json: %v", err)), nil
	}
	if digest.ExecutiveSummary == "" {
		return mcp.NewToolResultError("digest_json must include executive_summary"), nil
	}

	topic, err := t.store.GetTopicDetails(ctx, pageID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	researchPageID, err := t.store.CreateResearchPage(ctx, topic, &digest)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Research page created: %s", researchPageID)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
