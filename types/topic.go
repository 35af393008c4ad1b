package types

import (
	"fmt"
	"time"
)

// Status is the value of the "Status" select field on a topic row in the
// Notion task database. Every status write goes through CanTransition so a
// retried or concurrent agent run cannot move a topic backwards.
type Status string

const (
	StatusIdea      Status = "Idea"
	StatusBacklog   Status = "Backlog"
	StatusCandidate Status = "Candidate"
	StatusResearch  Status = "Research"
	StatusScripting Status = "Scripting"
	StatusRendering Status = "Rendering"
	StatusPublished Status = "Published"
	StatusFailed    Status = "Failed"
)

// transitions maps each status to the statuses it may move to.
var transitions = map[Status][]Status{
	StatusIdea:      {StatusBacklog},
	StatusBacklog:   {StatusCandidate},
	StatusCandidate: {StatusResearch, StatusFailed},
	StatusResearch:  {StatusScripting, StatusFailed},
	StatusScripting: {StatusRendering, StatusFailed},
	StatusRendering: {StatusPublished, StatusFailed},
	StatusPublished: {},
	StatusFailed:    {StatusBacklog},
}

// CanTransition reports whether moving a topic from one status to another is
// a legal step in the pipeline.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether a topic in this status is done being processed.
func (s Status) Terminal() bool {
	return s == StatusPublished || s == StatusFailed
}

// Topic represents a single row of the Notion topic database with its
// properties flattened to plain strings.
type Topic struct {
	PageID     string    `json:"page_id"`
	NotionURL  string    `json:"notion_url,omitempty"`
	Title      string    `json:"topic"`
	Angle      string    `json:"angle,omitempty"`
	Stance     string    `json:"stance,omitempty"`
	Audience   string    `json:"audience,omitempty"`
	MustHit    string    `json:"must_hit,omitempty"`
	RedLines   string    `json:"red_lines,omitempty"`
	GeoFocus   string    `json:"geo_focus,omitempty"`
	TimeWindow string    `json:"time_window,omitempty"`
	Status     Status    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Validate checks the minimum fields a topic needs before it can enter the
// pipeline.
func (t *Topic) Validate() error {
	if t.PageID == "" {
		return fmt.Errorf("topic missing page_id")
	}
	if t.Title == "" {
		return fmt.Errorf("topic %s missing title", t.PageID)
	}
	return nil
}
