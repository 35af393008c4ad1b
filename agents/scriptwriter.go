package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"giggle/types"
)

const scriptPreamble = "You are a scriptwriter for short vertical videos. " +
	"Turn the research digest into a spoken narration script of roughly 150-200 words: " +
	"a hook in the first sentence, plain conversational sentences, no headings, no markdown, " +
	"no stage directions, no emoji. The script is read aloud verbatim."

// ScriptStore is the slice of the Notion client the scriptwriter needs.
type ScriptStore interface {
	TransitionTopic(ctx context.Context, pageID string, to types.Status) error
}

// Scriptwriter turns a research digest into a narration script.
type Scriptwriter struct {
	store ScriptStore
	llm   Chatter
}

// NewScriptwriter creates a scriptwriter agent.
func NewScriptwriter(store ScriptStore, llm Chatter) *Scriptwriter {
	return &Scriptwriter{store: store, llm: llm}
}

// WriteScript moves the topic to Scripting and produces the narration text.
func (s *Scriptwriter) WriteScript(ctx context.Context, report *types.ResearchReport) (string, error) {
	if err := s.store.TransitionTopic(ctx, report.Topic.PageID, types.StatusScripting); err != nil {
		return "", err
	}

	reply, err := s.llm.Chat(ctx, scriptPreamble, scriptPrompt(report))
	if err != nil {
		return "", fmt.Errorf("write script for %q: %w", report.Topic.Title, err)
	}

	script := cleanScript(reply)
	if script == "" {
		return "", fmt.Errorf("model produced an empty script for %q", report.Topic.Title)
	}
	logrus.WithFields(logrus.Fields{
		"topic": report.Topic.Title,
		"words": len(strings.Fields(script)),
	}).Info("script written")
	return script, nil
}

func scriptPrompt(report *types.ResearchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", report.Topic.Title)
	if report.Topic.Stance != "" {
		fmt.Fprintf(&b, "Stance: %s\n", report.Topic.Stance)
	}
	if report.Topic.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", report.Topic.Audience)
	}
	fmt.Fprintf(&b, "\nSummary:\n%s\n", report.Digest.ExecutiveSummary)
	if len(report.Digest.KeyFindings) > 0 {
		b.WriteString("\nKey findings:\n")
		for _, f := range report.Digest.KeyFindings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}

// cleanScript strips formatting the model sometimes adds despite
// instructions: code fences, markdown emphasis, surrounding quotes.
func cleanScript(reply string) string {
	script := strings.TrimSpace(reply)
	script = strings.TrimPrefix(script, "```")
	script = strings.TrimSuffix(script, "```")
	for _, sym := range []string{"**", "*", "#"} {
		script = strings.ReplaceAll(script, sym, "")
	}
	script = strings.Trim(script, "\"' \n")
	return strings.TrimSpace(script)
}
