package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"giggle/types"
)

// ErrBusy is returned when a run is requested while another is in flight.
var ErrBusy = errors.New("a pipeline run is already in progress")

// TopicSelector picks the next topic to work on.
type TopicSelector interface {
	SelectTopic(ctx context.Context) (*types.Topic, error)
}

// TopicResearcher gathers sources and writes the digest.
type TopicResearcher interface {
	Research(ctx context.Context, topic *types.Topic) (*types.ResearchReport, error)
}

// ScriptWriter turns a digest into narration text.
type ScriptWriter interface {
	WriteScript(ctx context.Context, report *types.ResearchReport) (string, error)
}

// ArtifactStore persists digests and scripts between pipeline stages.
type ArtifactStore interface {
	PutDigest(ctx context.Context, pageID string, digest *types.Digest) (string, error)
	PutScript(ctx context.Context, pageID, script string) (string, error)
}

// Publisher sends the render request to the render worker.
type Publisher interface {
	Publish(key string, payload any) error
}

// Leaser guards each topic against concurrent runs.
type Leaser interface {
	Acquire(ctx context.Context, pageID, owner string) (bool, error)
	Release(ctx context.Context, pageID string) error
	MarkPending(ctx context.Context, pageID, renderUUID string) error
}

// StatusStore is the slice of the Notion client the runner needs.
type StatusStore interface {
	TransitionTopic(ctx context.Context, pageID string, to types.Status) error
}

// Runner executes one pipeline run: select, research, script, dispatch.
// The render stage completes asynchronously via the results consumer.
type Runner struct {
	state        *StateManager
	selector     TopicSelector
	researcher   TopicResearcher
	scriptwriter ScriptWriter
	artifacts    ArtifactStore
	producer     Publisher
	lease        Leaser
	store        StatusStore
}

// RunnerDeps bundles the runner's collaborators.
type RunnerDeps struct {
	State        *StateManager
	Selector     TopicSelector
	Researcher   TopicResearcher
	Scriptwriter ScriptWriter
	Artifacts    ArtifactStore
	Producer     Publisher
	Lease        Leaser
	Store        StatusStore
}

// NewRunner creates a pipeline runner.
func NewRunner(deps RunnerDeps) *Runner {
	return &Runner{
		state:        deps.State,
		selector:     deps.Selector,
		researcher:   deps.Researcher,
		scriptwriter: deps.Scriptwriter,
		artifacts:    deps.Artifacts,
		producer:     deps.Producer,
		lease:        deps.Lease,
		store:        deps.Store,
	}
}

// Run executes the synchronous stages of one run. It is called by the API
// handler (in a goroutine) or by the cron trigger.
func (r *Runner) Run(ctx context.Context) error {
	if !r.state.TryStart() {
		return ErrBusy
	}

	runID := uuid.NewString()
	topic, err := r.selectTopic(ctx, runID)
	if err != nil {
		r.state.SetError(err)
		return err
	}
	if topic == nil {
		// Nothing to do; not an error.
		r.state.SetState(types.RunIdle)
		return nil
	}

	if err := r.produce(ctx, topic); err != nil {
		r.state.SetError(err)
		r.failTopic(topic.PageID)
		if relErr := r.lease.Release(context.WithoutCancel(ctx), topic.PageID); relErr != nil {
			logrus.WithError(relErr).Warn("failed to release topic lease")
		}
		return err
	}
	return nil
}

// selectTopic picks a topic and takes its lease. Returns (nil, nil) when the
// backlog is empty or the chosen topic is already leased by another run.
func (r *Runner) selectTopic(ctx context.Context, runID string) (*types.Topic, error) {
	r.state.AddLog("selecting topic from backlog")
	topic, err := r.selector.SelectTopic(ctx)
	if err != nil {
		return nil, fmt.Errorf("select topic: %w", err)
	}
	if topic == nil {
		r.state.AddLog("backlog is empty")
		return nil, nil
	}

	acquired, err := r.lease.Acquire(ctx, topic.PageID, runID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		r.state.AddLog(fmt.Sprintf("topic %q is leased by another run, skipping", topic.Title))
		return nil, nil
	}

	r.state.SetTopic(topic)
	r.state.AddLog(fmt.Sprintf("selected topic %q", topic.Title))
	return topic, nil
}

// produce runs research, scripting and render dispatch for the leased topic.
func (r *Runner) produce(ctx context.Context, topic *types.Topic) error {
	r.state.SetState(types.RunResearching)
	r.state.AddLog("researching topic")
	report, err := r.researcher.Research(ctx, topic)
	if err != nil {
		return fmt.Errorf("research: %w", err)
	}
	r.state.SetCitations(report.Digest.Citations)
	r.state.AddLog(fmt.Sprintf("research digest ready with %d citations", len(report.Digest.Citations)))

	digestKey, err := r.artifacts.PutDigest(ctx, topic.PageID, &report.Digest)
	if err != nil {
		return fmt.Errorf("store digest: %w", err)
	}

	r.state.SetState(types.RunScripting)
	r.state.AddLog("writing narration script")
	script, err := r.scriptwriter.WriteScript(ctx, report)
	if err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	if _, err := r.artifacts.PutScript(ctx, topic.PageID, script); err != nil {
		return fmt.Errorf("store script: %w", err)
	}

	r.state.SetState(types.RunDispatching)
	renderUUID := uuid.NewString()
	request := types.RenderRequest{
		UUID:      renderUUID,
		PageID:    topic.PageID,
		Title:     topic.Title,
		Script:    script,
		DigestKey: digestKey,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.TransitionTopic(ctx, topic.PageID, types.StatusRendering); err != nil {
		return fmt.Errorf("mark topic rendering: %w", err)
	}
	if err := r.producer.Publish(topic.PageID, request); err != nil {
		return fmt.Errorf("dispatch render request: %w", err)
	}
	if err := r.lease.MarkPending(ctx, topic.PageID, renderUUID); err != nil {
		return err
	}

	r.state.SetRenderUUID(renderUUID)
	r.state.SetState(types.RunWaiting)
	r.state.AddLog(fmt.Sprintf("render request %s dispatched, waiting for result", renderUUID))
	return nil
}

// failTopic best-effort marks the topic Failed in Notion after a run error.
func (r *Runner) failTopic(pageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.store.TransitionTopic(ctx, pageID, types.StatusFailed); err != nil {
		logrus.WithError(err).WithField("page_id", pageID).
			Warn("failed to mark topic as failed")
	}
}
