package types

import "time"

// Citation is a single source referenced by a research digest.
type Citation struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Snippet   string `json:"snippet,omitempty"`
	Published string `json:"published,omitempty"`
}

// Digest is the structured output of the researcher: a synthesized summary
// plus the bullet points and evidence that back it.
type Digest struct {
	ExecutiveSummary   string     `json:"executive_summary"`
	KeyFindings        []string   `json:"key_findings"`
	RecentDevelopments []string   `json:"recent_developments,omitempty"`
	SupportingEvidence []string   `json:"supporting_evidence,omitempty"`
	Citations          []Citation `json:"citations"`
}

// ResearchReport ties a digest back to the topic it was produced for.
type ResearchReport struct {
	Topic      Topic     `json:"topic"`
	Digest     Digest    `json:"digest"`
	ResearchAt time.Time `json:"researched_at"`
	PageURL    string    `json:"page_url,omitempty"`
}

// SearchResult is one hit from a web or news search.
type SearchResult struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Snippet   string  `json:"snippet,omitempty"`
	Content   string  `json:"content,omitempty"`
	Published string  `json:"published,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

// ExtractedPage is the readable content pulled from a single URL.
type ExtractedPage struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Byline    string    `json:"byline,omitempty"`
	WordCount int       `json:"word_count"`
	FetchedAt time.Time `json:"fetched_at"`
	Error     string    `json:"error,omitempty"`
}
