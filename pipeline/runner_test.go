package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giggle/types"
)

type fakeSelector struct {
	topic *types.Topic
	err   error
}

func (f *fakeSelector) SelectTopic(ctx context.Context) (*types.Topic, error) {
	return f.topic, f.err
}

type fakeResearcher struct {
	err error
}

func (f *fakeResearcher) Research(ctx context.Context, topic *types.Topic) (*types.ResearchReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.ResearchReport{
		Topic: *topic,
		Digest: types.Digest{
			ExecutiveSummary: "summary",
			Citations:        []types.Citation{{Title: "src", URL: "https://example.com"}},
		},
	}, nil
}

type fakeScriptwriter struct {
	err error
}

func (f *fakeScriptwriter) WriteScript(ctx context.Context, report *types.ResearchReport) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "narration script", nil
}

type fakeArtifacts struct {
	digests int
	scripts int
}

func (f *fakeArtifacts) PutDigest(ctx context.Context, pageID string, digest *types.Digest) (string, error) {
	f.digests++
	return "digests/" + pageID + ".json", nil
}

func (f *fakeArtifacts) PutScript(ctx context.Context, pageID, script string) (string, error) {
	f.scripts++
	return "scripts/" + pageID + ".txt", nil
}

type fakePublisher struct {
	published []types.RenderRequest
	err       error
}

func (f *fakePublisher) Publish(key string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload.(types.RenderRequest))
	return nil
}

type fakeLease struct {
	held     map[string]string
	pending  map[string]string
	acquired bool
	denied   bool
}

func newFakeLease() *fakeLease {
	return &fakeLease{held: map[string]string{}, pending: map[string]string{}}
}

func (f *fakeLease) Acquire(ctx context.Context, pageID, owner string) (bool, error) {
	if f.denied {
		return false, nil
	}
	f.held[pageID] = owner
	f.acquired = true
	return true, nil
}

func (f *fakeLease) Release(ctx context.Context, pageID string) error {
	delete(f.held, pageID)
	return nil
}

func (f *fakeLease) MarkPending(ctx context.Context, pageID, renderUUID string) error {
	f.pending[pageID] = renderUUID
	return nil
}

func (f *fakeLease) PendingUUID(ctx context.Context, pageID string) (string, error) {
	return f.pending[pageID], nil
}

func (f *fakeLease) ClearPending(ctx context.Context, pageID string) error {
	delete(f.pending, pageID)
	return nil
}

type fakeStatusStore struct {
	transitions []string
	err         error
}

func (f *fakeStatusStore) TransitionTopic(ctx context.Context, pageID string, to types.Status) error {
	if f.err != nil {
		return f.err
	}
	f.transitions = append(f.transitions, pageID+"->"+string(to))
	return nil
}

func runnerTopic() *types.Topic {
	return &types.Topic{PageID: "p1", Title: "Quantum networking", Status: types.StatusCandidate}
}

func newTestRunner(deps RunnerDeps) (*Runner, *StateManager) {
	if deps.State == nil {
		deps.State = NewStateManager()
	}
	if deps.Selector == nil {
		deps.Selector = &fakeSelector{topic: runnerTopic()}
	}
	if deps.Researcher == nil {
		deps.Researcher = &fakeResearcher{}
	}
	if deps.Scriptwriter == nil {
		deps.Scriptwriter = &fakeScriptwriter{}
	}
	if deps.Artifacts == nil {
		deps.Artifacts = &fakeArtifacts{}
	}
	if deps.Producer == nil {
		deps.Producer = &fakePublisher{}
	}
	if deps.Lease == nil {
		deps.Lease = newFakeLease()
	}
	if deps.Store == nil {
		deps.Store = &fakeStatusStore{}
	}
	return NewRunner(deps), deps.State
}

func TestRunHappyPath(t *testing.T) {
	producer := &fakePublisher{}
	lease := newFakeLease()
	store := &fakeStatusStore{}
	artifacts := &fakeArtifacts{}
	r, state := newTestRunner(RunnerDeps{
		Producer:  producer,
		Lease:     lease,
		Store:     store,
		Artifacts: artifacts,
	})

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, types.RunWaiting, state.State())
	assert.Equal(t, 1, artifacts.digests)
	assert.Equal(t, 1, artifacts.scripts)
	assert.Equal(t, []string{"p1->Rendering"}, store.transitions)

	require.Len(t, producer.published, 1)
	req := producer.published[0]
	assert.Equal(t, "p1", req.PageID)
	assert.Equal(t, "narration script", req.Script)
	assert.NotEmpty(t, req.UUID)

	assert.Equal(t, req.UUID, lease.pending["p1"])
	assert.Equal(t, req.UUID, state.RenderUUID())
	// lease stays held until the render result arrives
	assert.Contains(t, lease.held, "p1")
}

func TestRunEmptyBacklogGoesIdle(t *testing.T) {
	r, state := newTestRunner(RunnerDeps{Selector: &fakeSelector{}})
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, types.RunIdle, state.State())
}

func TestRunRejectedWhenBusy(t *testing.T) {
	r, state := newTestRunner(RunnerDeps{})
	state.SetState(types.RunResearching)
	err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
}

func TestRunLeaseDeniedGoesIdle(t *testing.T) {
	lease := newFakeLease()
	lease.denied = true
	producer := &fakePublisher{}
	r, state := newTestRunner(RunnerDeps{Lease: lease, Producer: producer})

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, types.RunIdle, state.State())
	assert.Empty(t, producer.published)
}

func TestRunResearchFailureMarksTopicFailed(t *testing.T) {
	store := &fakeStatusStore{}
	lease := newFakeLease()
	r, state := newTestRunner(RunnerDeps{
		Researcher: &fakeResearcher{err: fmt.Errorf("search api down")},
		Store:      store,
		Lease:      lease,
	})

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.RunError, state.State())
	assert.Contains(t, state.Status().Error, "search api down")
	assert.Contains(t, store.transitions, "p1->Failed")
	// lease is released so a retry can pick the topic up again
	assert.NotContains(t, lease.held, "p1")
}

func TestRunDispatchFailure(t *testing.T) {
	r, state := newTestRunner(RunnerDeps{
		Producer: &fakePublisher{err: fmt.Errorf("kafka down")},
	})
	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.RunError, state.State())
}
