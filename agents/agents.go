// Package agents holds the LLM-backed steps of the content pipeline: topic
// selection, research and scriptwriting. Each agent is a thin struct around
// the Notion, search and Cohere clients; the orchestrator wires them into a
// run.
package agents

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeModelJSON parses a JSON object out of a model reply, tolerating code
// fences and prose around the object.
func decodeModelJSON(reply string, out interface{}) error {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in model reply")
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), out); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}
