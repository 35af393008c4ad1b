package notion

import (
	"regexp"
	"strings"

	"giggle/types"
)

// Notion caps a single rich text fragment at 2000 characters.
const maxTextLen = 2000

var (
	mdLinkRe   = regexp.MustCompile(`\[.*?\]\(.*?\)`)
	bareURLRe  = regexp.MustCompile(`\(https?://[^\s\)]+\)`)
	newlinesRe = regexp.MustCompile(`\n\s*\n`)
)

// digestBlocks renders a research digest as Notion block content:
// heading + paragraph for the summary, bulleted lists for findings and
// evidence, and bookmark blocks for citations.
func digestBlocks(topic *types.Topic, digest *types.Digest) []map[string]interface{} {
	blocks := []map[string]interface{}{
		heading(1, cleanText("Research Digest: "+topic.Title)),
	}

	if s := cleanText(digest.ExecutiveSummary); s != "" {
		blocks = append(blocks, heading(2, "Executive Summary"), paragraph(s))
	}

	blocks = appendBulletSection(blocks, "Key Findings", digest.KeyFindings)
	blocks = appendBulletSection(blocks, "Recent Developments", digest.RecentDevelopments)
	blocks = appendBulletSection(blocks, "Supporting Evidence", digest.SupportingEvidence)

	if len(digest.Citations) > 0 {
		blocks = append(blocks, heading(2, "Citations"))
		for _, c := range digest.Citations {
			if c.URL == "" {
				continue
			}
			blocks = append(blocks, bookmark(c.URL, cleanText(c.Title)))
		}
	}

	return blocks
}

func appendBulletSection(blocks []map[string]interface{}, title string, items []string) []map[string]interface{} {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if s := cleanText(item); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return blocks
	}
	blocks = append(blocks, heading(2, title))
	for _, s := range cleaned {
		blocks = append(blocks, bullet(s))
	}
	return blocks
}

func heading(level int, text string) map[string]interface{} {
	key := "heading_1"
	if level == 2 {
		key = "heading_2"
	}
	return map[string]interface{}{
		"object": "block",
		"type":   key,
		key: map[string]interface{}{
			"rich_text": []interface{}{textBlock(text)},
		},
	}
}

func paragraph(text string) map[string]interface{} {
	return map[string]interface{}{
		"object": "block",
		"type":   "paragraph",
		"paragraph": map[string]interface{}{
			"rich_text": []interface{}{textBlock(text)},
		},
	}
}

func bullet(text string) map[string]interface{} {
	return map[string]interface{}{
		"object": "block",
		"type":   "bulleted_list_item",
		"bulleted_list_item": map[string]interface{}{
			"rich_text": []interface{}{textBlock(text)},
		},
	}
}

func bookmark(url, caption string) map[string]interface{} {
	b := map[string]interface{}{"url": url}
	if caption != "" {
		b["caption"] = []interface{}{textBlock(caption)}
	}
	return map[string]interface{}{
		"object":   "block",
		"type":     "bookmark",
		"bookmark": b,
	}
}

func textBlock(text string) map[string]interface{} {
	if len(text) > maxTextLen {
		text = text[:maxTextLen-1] + "…"
	}
	return map[string]interface{}{
		"type": "text",
		"text": map[string]interface{}{"content": text},
	}
}

// cleanText strips markdown symbols and link artifacts that don't translate
// to Notion rich text.
func cleanText(text string) string {
	if text == "" {
		return ""
	}
	for _, sym := range []string{"####", "###", "##", "**", "*"} {
		text = strings.ReplaceAll(text, sym, "")
	}
	text = mdLinkRe.ReplaceAllString(text, "")
	text = bareURLRe.ReplaceAllString(text, "")
	text = newlinesRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
