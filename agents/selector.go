package agents

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"giggle/dedupe"
	"giggle/types"
)

const selectorPreamble = "You are a strategic content topic selector for a YouTube channel. " +
	"Given a numbered list of backlog topics, choose the single most promising one " +
	"considering timeliness, audience appeal and how well the angle can carry a short video. " +
	"Reply with only the number of your choice."

// TopicStore is the slice of the Notion client the selector needs.
type TopicStore interface {
	QueryTopicsByStatus(ctx context.Context, status types.Status, limit int) ([]*types.Topic, error)
	TransitionTopic(ctx context.Context, pageID string, to types.Status) error
}

// Chatter is a single-turn chat model.
type Chatter interface {
	Chat(ctx context.Context, preamble, message string) (string, error)
}

// Selector chooses one topic from the backlog and promotes it to Candidate.
type Selector struct {
	store TopicStore
	llm   Chatter      // optional; oldest backlog topic wins without it
	guard *dedupe.Guard // optional; skips near-duplicates of published topics
}

// NewSelector creates a topic selector. llm and guard may be nil.
func NewSelector(store TopicStore, llm Chatter, guard *dedupe.Guard) *Selector {
	return &Selector{store: store, llm: llm, guard: guard}
}

// SelectTopic picks a backlog topic, promotes it to Candidate and returns it.
// Returns (nil, nil) when the backlog is empty or every topic is a
// near-duplicate of something already published.
func (s *Selector) SelectTopic(ctx context.Context) (*types.Topic, error) {
	backlog, err := s.store.QueryTopicsByStatus(ctx, types.StatusBacklog, 100)
	if err != nil {
		return nil, fmt.Errorf("load backlog: %w", err)
	}
	if len(backlog) == 0 {
		logrus.Info("backlog is empty, nothing to select")
		return nil, nil
	}

	ranked := s.rank(ctx, backlog)

	for _, topic := range ranked {
		dup, err := s.isNearDuplicate(ctx, topic)
		if err != nil {
			logrus.WithError(err).Warn("similarity guard unavailable, accepting topic")
		} else if dup {
			continue
		}

		if err := s.store.TransitionTopic(ctx, topic.PageID, types.StatusCandidate); err != nil {
			return nil, fmt.Errorf("promote topic %s: %w", topic.PageID, err)
		}
		topic.Status = types.StatusCandidate
		logrus.WithFields(logrus.Fields{"page_id": topic.PageID, "topic": topic.Title}).
			Info("topic selected from backlog")
		return topic, nil
	}

	logrus.Info("every backlog topic is a near-duplicate of published work")
	return nil, nil
}

// rank orders the backlog with the model's pick first. Any model failure
// falls back to the stored order (oldest first).
func (s *Selector) rank(ctx context.Context, backlog []*types.Topic) []*types.Topic {
	if s.llm == nil || len(backlog) < 2 {
		return backlog
	}

	var b strings.Builder
	for i, t := range backlog {
		fmt.Fprintf(&b, "%d. %s", i+1, t.Title)
		if t.Angle != "" {
			fmt.Fprintf(&b, " (angle: %s)", t.Angle)
		}
		if t.TimeWindow != "" {
			fmt.Fprintf(&b, " [window: %s]", t.TimeWindow)
		}
		b.WriteString("\n")
	}

	reply, err := s.llm.Chat(ctx, selectorPreamble, b.String())
	if err != nil {
		logrus.WithError(err).Warn("selector model failed, using oldest backlog topic")
		return backlog
	}

	pick := parseChoice(reply, len(backlog))
	if pick < 0 {
		logrus.WithField("reply", reply).Warn("unparseable selector reply, using oldest backlog topic")
		return backlog
	}

	ranked := make([]*types.Topic, 0, len(backlog))
	ranked = append(ranked, backlog[pick])
	for i, t := range backlog {
		if i != pick {
			ranked = append(ranked, t)
		}
	}
	return ranked
}

func (s *Selector) isNearDuplicate(ctx context.Context, topic *types.Topic) (bool, error) {
	if s.guard == nil {
		return false, nil
	}
	res, err := s.guard.Check(ctx, topic.Title+" "+topic.Angle)
	if err != nil {
		return false, err
	}
	if res.IsDuplicate {
		logrus.WithFields(logrus.Fields{
			"topic": topic.Title,
			"match": res.MatchingID,
			"score": res.SimilarityScore,
		}).Info("skipping near-duplicate backlog topic")
	}
	return res.IsDuplicate, nil
}

// parseChoice extracts a 1-based list index from a model reply. Returns the
// 0-based index, or -1 when no usable number is present.
func parseChoice(reply string, n int) int {
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return r < '0' || r > '9'
	})
	for _, f := range fields {
		if v, err := strconv.Atoi(f); err == nil && v >= 1 && v <= n {
			return v - 1
		}
	}
	return -1
}
