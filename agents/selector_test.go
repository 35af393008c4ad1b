package agents

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giggle/types"
)

type fakeStore struct {
	backlog     []*types.Topic
	transitions []string
	failOn      string
}

func (f *fakeStore) QueryTopicsByStatus(ctx context.Context, status types.Status, limit int) ([]*types.Topic, error) {
	if status != types.StatusBacklog {
		return nil, nil
	}
	return f.backlog, nil
}

func (f *fakeStore) TransitionTopic(ctx context.Context, pageID string, to types.Status) error {
	if pageID == f.failOn {
		return fmt.Errorf("transition failed for %s", pageID)
	}
	f.transitions = append(f.transitions, pageID+"->"+string(to))
	return nil
}

type fakeChatter struct {
	reply string
	err   error
	seen  []string
}

func (f *fakeChatter) Chat(ctx context.Context, preamble, message string) (string, error) {
	f.seen = append(f.seen, message)
	return f.reply, f.err
}

func backlogOf(ids ...string) []*types.Topic {
	topics := make([]*types.Topic, 0, len(ids))
	for _, id := range ids {
		topics = append(topics, &types.Topic{
			PageID: id,
			Title:  "Topic " + id,
			Status: types.StatusBacklog,
		})
	}
	return topics
}

func TestSelectTopicEmptyBacklog(t *testing.T) {
	s := NewSelector(&fakeStore{}, nil, nil)
	topic, err := s.SelectTopic(context.Background())
	require.NoError(t, err)
	assert.Nil(t, topic)
}

func TestSelectTopicWithoutModelPicksOldest(t *testing.T) {
	store := &fakeStore{backlog: backlogOf("t1", "t2")}
	s := NewSelector(store, nil, nil)

	topic, err := s.SelectTopic(context.Background())
	require.NoError(t, err)
	require.NotNil(t, topic)
	assert.Equal(t, "t1", topic.PageID)
	assert.Equal(t, types.StatusCandidate, topic.Status)
	assert.Equal(t, []string{"t1->Candidate"}, store.transitions)
}

func TestSelectTopicModelChoice(t *testing.T) {
	store := &fakeStore{backlog: backlogOf("t1", "t2", "t3")}
	llm := &fakeChatter{reply: "I would go with option 2."}
	s := NewSelector(store, llm, nil)

	topic, err := s.SelectTopic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t2", topic.PageID)
}

func TestSelectTopicModelFailureFallsBack(t *testing.T) {
	store := &fakeStore{backlog: backlogOf("t1", "t2")}
	llm := &fakeChatter{err: fmt.Errorf("model unavailable")}
	s := NewSelector(store, llm, nil)

	topic, err := s.SelectTopic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", topic.PageID)
}

func TestSelectTopicPromotionFailure(t *testing.T) {
	store := &fakeStore{backlog: backlogOf("t1"), failOn: "t1"}
	s := NewSelector(store, nil, nil)

	_, err := s.SelectTopic(context.Background())
	require.Error(t, err)
}

func TestParseChoice(t *testing.T) {
	cases := []struct {
		reply string
		n     int
		want  int
	}{
		{"2", 5, 1},
		{"I pick 3.", 5, 2},
		{"option 1 looks best", 5, 0},
		{"7", 5, -1},
		{"none of them", 5, -1},
		{"0", 5, -1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parseChoice(c.reply, c.n), "reply=%q", c.reply)
	}
}
