// Package mcpserver exposes the topic database and the search layer as MCP
// tools over stdio, so an MCP-capable model can drive the pipeline's
// building blocks interactively.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all tools registered.
func New(notion NotionStore, searcher SearchService) *server.MCPServer {
	s := server.NewMCPServer(
		"giggle",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	nt := newNotionTools(notion)
	s.AddTool(nt.selectTopicDefinition(), nt.handleSelectTopic)
	s.AddTool(nt.queryTopicsDefinition(), nt.handleQueryTopics)
	s.AddTool(nt.updateStatusDefinition(), nt.handleUpdateStatus)
	s.AddTool(nt.topicDetailsDefinition(), nt.handleTopicDetails)
	s.AddTool(nt.createResearchPageDefinition(), nt.handleCreateResearchPage)

	st := newSearchTools(searcher)
	s.AddTool(st.webSearchDefinition(), st.handleWebSearch)
	s.AddTool(st.newsSearchDefinition(), st.handleNewsSearch)
	s.AddTool(st.extractDefinition(), st.handleExtract)
	s.AddTool(st.findSimilarDefinition(), st.handleFindSimilar)

	return s
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func serverInstructions() string {
	return `These tools operate a Notion-backed topic database and a web
research layer for a video content pipeline.

Topic lifecycle: Idea -> Backlog -> Candidate -> Research -> Scripting ->
Rendering -> Published, with Failed reachable from the working states and
Failed -> Backlog for retries. Use select_topic_from_backlog to pull the
oldest backlog topic and promote it, update_topic_status for explicit
transitions, and create_research_page to attach a research digest to a topic.

Use web_search and search_news to gather sources, extract_content to pull
readable article text from a URL, and find_similar to expand from a known
good source.`
}
