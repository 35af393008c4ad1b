package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"giggle/search"
	"giggle/types"
)

const (
	researchPreamble = "You are a research specialist preparing a video topic. " +
		"Synthesize the provided sources into a research digest. Reply with a single JSON object with fields: " +
		`"executive_summary" (a 5-6 sentence paragraph), "key_findings" (4-6 bullet strings), ` +
		`"recent_developments" (bullet strings), "supporting_evidence" (statistics, quotes and data points as bullet strings). ` +
		"Use only information from the sources. Respect the stance and avoid the red lines."

	webResultCount  = 8
	newsResultCount = 5
	newsDaysBack    = 30
	extractTopN     = 3
	extractMaxChars = 4000
	sourceMaxChars  = 1500
)

// ResearchStore is the slice of the Notion client the researcher needs.
type ResearchStore interface {
	TransitionTopic(ctx context.Context, pageID string, to types.Status) error
	CreateResearchPage(ctx context.Context, topic *types.Topic, digest *types.Digest) (string, error)
}

// Searcher performs web and news lookups.
type Searcher interface {
	WebSearch(ctx context.Context, query string, numResults int, includeContent bool) ([]types.SearchResult, error)
	NewsSearch(ctx context.Context, query string, numResults, daysBack int) ([]types.SearchResult, error)
}

// Researcher turns a candidate topic into a digest with citations, saved
// back to Notion as a child page of the topic.
type Researcher struct {
	store    ResearchStore
	searcher Searcher // nil falls back to RSS headline search
	llm      Chatter
}

// NewResearcher creates a researcher agent.
func NewResearcher(store ResearchStore, searcher Searcher, llm Chatter) *Researcher {
	return &Researcher{store: store, searcher: searcher, llm: llm}
}

// Research walks the research workflow for one topic: status to Research,
// gather sources, synthesize the digest, write the research page.
func (r *Researcher) Research(ctx context.Context, topic *types.Topic) (*types.ResearchReport, error) {
	if err := topic.Validate(); err != nil {
		return nil, err
	}
	if err := r.store.TransitionTopic(ctx, topic.PageID, types.StatusResearch); err != nil {
		return nil, err
	}

	sources, err := r.gatherSources(ctx, topic)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources found for topic %q", topic.Title)
	}
	logrus.WithFields(logrus.Fields{"topic": topic.Title, "sources": len(sources)}).
		Info("sources gathered")

	digest, err := r.synthesize(ctx, topic, sources)
	if err != nil {
		return nil, err
	}
	digest.Citations = citations(sources)

	pageID, err := r.store.CreateResearchPage(ctx, topic, digest)
	if err != nil {
		return nil, err
	}

	return &types.ResearchReport{
		Topic:      *topic,
		Digest:     *digest,
		ResearchAt: time.Now(),
		PageURL:    pageID,
	}, nil
}

// gatherSources runs web and news searches and enriches the best hits with
// extracted page content. Without a search client it falls back to RSS
// headlines plus extraction.
func (r *Researcher) gatherSources(ctx context.Context, topic *types.Topic) ([]types.SearchResult, error) {
	query := strings.TrimSpace(topic.Title + " " + topic.Angle)

	if r.searcher == nil {
		return r.gatherFromFeeds(ctx, query)
	}

	web, err := r.searcher.WebSearch(ctx, query, webResultCount, true)
	if err != nil {
		return nil, fmt.Errorf("gather web sources: %w", err)
	}

	news, err := r.searcher.NewsSearch(ctx, query, newsResultCount, newsDaysBack)
	if err != nil {
		// News is an enrichment; research can proceed on web hits alone.
		logrus.WithError(err).Warn("news search failed, continuing with web results")
	}

	return dedupeByURL(append(web, news...)), nil
}

func (r *Researcher) gatherFromFeeds(ctx context.Context, query string) ([]types.SearchResult, error) {
	headlines, err := search.FeedSearch(ctx, search.DefaultFeedPreset, query, webResultCount)
	if err != nil {
		return nil, fmt.Errorf("feed fallback: %w", err)
	}

	urls := make([]string, 0, extractTopN)
	for _, h := range headlines {
		if len(urls) == extractTopN {
			break
		}
		urls = append(urls, h.URL)
	}
	pages := search.ExtractAll(urls, extractMaxChars)

	for i := range headlines {
		for _, p := range pages {
			if p.Error == "" && p.URL == headlines[i].URL {
				headlines[i].Content = p.Content
			}
		}
	}
	return headlines, nil
}

// synthesize asks the model for a structured digest of the sources. A reply
// that fails to parse as JSON degrades to a plain-text summary rather than
// failing the run.
func (r *Researcher) synthesize(ctx context.Context, topic *types.Topic, sources []types.SearchResult) (*types.Digest, error) {
	reply, err := r.llm.Chat(ctx, researchPreamble, researchPrompt(topic, sources))
	if err != nil {
		return nil, fmt.Errorf("synthesize digest: %w", err)
	}

	var digest types.Digest
	if err := decodeModelJSON(reply, &digest); err != nil {
		logrus.WithError(err).Warn("digest reply was not JSON, using raw text summary")
		digest = types.Digest{ExecutiveSummary: strings.TrimSpace(reply)}
	}
	if digest.ExecutiveSummary == "" {
		return nil, fmt.Errorf("model produced an empty digest for topic %q", topic.Title)
	}
	return &digest, nil
}

func researchPrompt(topic *types.Topic, sources []types.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic.Title)
	if topic.Angle != "" {
		fmt.Fprintf(&b, "Angle: %s\n", topic.Angle)
	}
	if topic.Stance != "" {
		fmt.Fprintf(&b, "Stance: %s\n", topic.Stance)
	}
	if topic.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", topic.Audience)
	}
	if topic.MustHit != "" {
		fmt.Fprintf(&b, "Must hit: %s\n", topic.MustHit)
	}
	if topic.RedLines != "" {
		fmt.Fprintf(&b, "Red lines: %s\n", topic.RedLines)
	}

	b.WriteString("\nSources:\n")
	for i, s := range sources {
		content := s.Content
		if content == "" {
			content = s.Snippet
		}
		if len(content) > sourceMaxChars {
			content = content[:sourceMaxChars] + "..."
		}
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, s.Title, s.URL, content)
	}
	return b.String()
}

func citations(sources []types.SearchResult) []types.Citation {
	cites := make([]types.Citation, 0, len(sources))
	for _, s := range sources {
		if s.URL == "" {
			continue
		}
		cites = append(cites, types.Citation{
			Title:     s.Title,
			URL:       s.URL,
			Snippet:   s.Snippet,
			Published: s.Published,
		})
	}
	return cites
}

func dedupeByURL(results []types.SearchResult) []types.SearchResult {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}
