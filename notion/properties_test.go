package notion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giggle/types"
)

const samplePage = `{
	"id": "page-123",
	"url": "https://www.notion.so/page-123",
	"created_time": "2026-08-01T10:00:00.000Z",
	"properties": {
		"Topic": {"type": "title", "title": [
			{"plain_text": "Quantum "}, {"plain_text": "networking"}
		]},
		"Angle": {"type": "rich_text", "rich_text": [{"plain_text": "explainer for beginners"}]},
		"Stance": {"type": "select", "select": {"name": "optimistic"}},
		"Audience": {"type": "multi_select", "multi_select": [
			{"name": "developers"}, {"name": "students"}
		]},
		"Time Window": {"type": "date", "date": {"start": "2026-08-01", "end": "2026-08-31"}},
		"Status": {"type": "select", "select": {"name": "Backlog"}}
	}
}`

func TestPageToTopic(t *testing.T) {
	var p page
	require.NoError(t, json.Unmarshal([]byte(samplePage), &p))

	topic := p.toTopic()
	assert.Equal(t, "page-123", topic.PageID)
	assert.Equal(t, "Quantum networking", topic.Title)
	assert.Equal(t, "explainer for beginners", topic.Angle)
	assert.Equal(t, "optimistic", topic.Stance)
	assert.Equal(t, "developers, students", topic.Audience)
	assert.Equal(t, "2026-08-01 to 2026-08-31", topic.TimeWindow)
	assert.Equal(t, types.StatusBacklog, topic.Status)
	assert.Equal(t, "https://www.notion.so/page-123", topic.NotionURL)
}

func TestFlattenProperty(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"plain string", "hello", "hello"},
		{"select option", map[string]interface{}{"name": "Backlog"}, "Backlog"},
		{"empty select", map[string]interface{}{"type": "select", "select": nil}, ""},
		{"date without end", map[string]interface{}{
			"type": "date",
			"date": map[string]interface{}{"start": "2026-08-01"},
		}, "2026-08-01"},
		{"list of fragments", []interface{}{"a", "", "b"}, "a, b"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, flattenProperty(c.in))
		})
	}
}

func TestPageURL(t *testing.T) {
	assert.Equal(t,
		"https://www.notion.so/abc123def456",
		PageURL("abc-123-def-456"))
}
