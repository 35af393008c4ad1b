package agents

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giggle/types"
)

func testReport() *types.ResearchReport {
	return &types.ResearchReport{
		Topic: types.Topic{PageID: "t1", Title: "Quantum networking", Status: types.StatusResearch},
		Digest: types.Digest{
			ExecutiveSummary: "Quantum networks are leaving the lab.",
			KeyFindings:      []string{"First metro link deployed"},
		},
	}
}

func TestWriteScript(t *testing.T) {
	store := &fakeResearchStore{}
	llm := &fakeChatter{reply: "**Here's** the thing about quantum networks. They're real now."}

	sw := NewScriptwriter(store, llm)
	script, err := sw.WriteScript(context.Background(), testReport())
	require.NoError(t, err)

	assert.Equal(t, []string{"Scripting"}, store.transitions)
	assert.Equal(t, "Here's the thing about quantum networks. They're real now.", script)

	require.Len(t, llm.seen, 1)
	assert.Contains(t, llm.seen[0], "Quantum networking")
	assert.Contains(t, llm.seen[0], "First metro link deployed")
}

func TestWriteScriptModelError(t *testing.T) {
	sw := NewScriptwriter(&fakeResearchStore{}, &fakeChatter{err: fmt.Errorf("down")})
	_, err := sw.WriteScript(context.Background(), testReport())
	require.Error(t, err)
}

func TestWriteScriptEmptyReply(t *testing.T) {
	sw := NewScriptwriter(&fakeResearchStore{}, &fakeChatter{reply: "```\n```"})
	_, err := sw.WriteScript(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty script")
}

func TestCleanScript(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"```\nfenced\n```", "fenced"},
		{"\"quoted\"", "quoted"},
		{"# Heading\ntext", "Heading\ntext"},
		{"**bold** words", "bold words"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, cleanScript(c.in), "in=%q", c.in)
	}
}
