package notion

import (
	"fmt"
	"strings"
	"time"

	"giggle/types"
)

// page is the slice of a Notion page response this package needs.
type page struct {
	ID          string                 `json:"id"`
	URL         string                 `json:"url"`
	CreatedTime time.Time              `json:"created_time"`
	Properties  map[string]interface{} `json:"properties"`
}

// toTopic flattens a page's properties into a Topic.
func (p *page) toTopic() *types.Topic {
	prop := func(name string) string { return flattenProperty(p.Properties[name]) }

	notionURL := p.URL
	if notionURL == "" {
		notionURL = PageURL(p.ID)
	}

	return &types.Topic{
		PageID:     p.ID,
		NotionURL:  notionURL,
		Title:      prop("Topic"),
		Angle:      prop("Angle"),
		Stance:     prop("Stance"),
		Audience:   prop("Audience"),
		MustHit:    prop("Must Hit"),
		RedLines:   prop("Red lines"),
		GeoFocus:   prop("Geo Focus"),
		TimeWindow: prop("Time Window"),
		Status:     types.Status(prop("Status")),
		CreatedAt:  p.CreatedTime,
	}
}

// flattenProperty converts a Notion property value to a plain string.
// Handles title, rich_text, select, multi_select and date property types;
// anything else falls back to a best-effort string.
func flattenProperty(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := flattenProperty(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		if name, ok := val["name"].(string); ok { // select / multi_select option
			return name
		}
		if text, ok := val["plain_text"].(string); ok { // rich text fragment
			return text
		}
		switch val["type"] {
		case "title":
			return joinRichText(val["title"])
		case "rich_text":
			return joinRichText(val["rich_text"])
		case "select":
			return flattenProperty(val["select"])
		case "multi_select":
			return flattenProperty(val["multi_select"])
		case "date":
			return flattenDate(val["date"])
		}
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func joinRichText(v interface{}) string {
	items, ok := v.([]interface{})
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			if text, ok := m["plain_text"].(string); ok {
				b.WriteString(text)
			}
		}
	}
	return b.String()
}

func flattenDate(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	start, _ := m["start"].(string)
	end, _ := m["end"].(string)
	if end != "" {
		return start + " to " + end
	}
	return start
}
