// Command giggle-mcp serves the topic database and search layer as MCP tools
// over stdio. Point an MCP-capable client at this binary to drive the
// pipeline's building blocks interactively.
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"giggle/config"
	"giggle/mcpserver"
	"giggle/notion"
	"giggle/search"
)

func main() {
	// stdout is the MCP transport, so logs must go to stderr.
	logrus.SetOutput(os.Stderr)

	settings := config.Load()
	if settings.NotionAPIKey == "" || settings.NotionDatabaseID == "" {
		logrus.Fatal("NOTION_API_KEY and EG_NOTION_DB_ID are required")
	}
	if settings.ExaAPIKey == "" {
		logrus.Fatal("EXA_API_KEY is required for the search tools")
	}

	notionClient, err := notion.NewClient(settings.NotionAPIKey, settings.NotionDatabaseID)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create notion client")
	}

	searchClient, err := search.NewClient(settings.ExaAPIKey)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create search client")
	}

	srv := mcpserver.New(notionClient, searchClient)
	if err := mcpserver.ServeStdio(srv); err != nil {
		logrus.WithError(err).Fatal("mcp server exited")
	}
}
