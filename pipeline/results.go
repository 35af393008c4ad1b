package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"giggle/kafka"
	"giggle/types"
)

// PublishRecorder remembers published topics so the selector can steer away
// from near-duplicates later.
type PublishRecorder interface {
	Record(ctx context.Context, id, text string) error
}

// ResultLease is the slice of the lease guard the results consumer needs.
type ResultLease interface {
	PendingUUID(ctx context.Context, pageID string) (string, error)
	ClearPending(ctx context.Context, pageID string) error
	Release(ctx context.Context, pageID string) error
}

// ResultHandler finishes a run when the render worker reports back. It
// updates Notion, records the published topic for dedupe, drops the lease
// and closes out the run state.
type ResultHandler struct {
	state    *StateManager
	store    StatusStore
	lease    ResultLease
	recorder PublishRecorder
}

// NewResultHandler creates the handler for the render-results topic.
func NewResultHandler(state *StateManager, store StatusStore, lease ResultLease, recorder PublishRecorder) *ResultHandler {
	return &ResultHandler{state: state, store: store, lease: lease, recorder: recorder}
}

// MessageHandler adapts the handler to the Kafka consumer.
func (h *ResultHandler) MessageHandler() kafka.MessageHandler {
	return &kafka.TypedMessageHandler[types.RenderResult]{
		Validate: func(r *types.RenderResult) bool {
			return r.UUID != "" && r.PageID != ""
		},
		Process:    h.Handle,
		AlwaysMark: true,
	}
}

// Handle processes one render result.
func (h *ResultHandler) Handle(ctx context.Context, result *types.RenderResult) error {
	log := logrus.WithFields(logrus.Fields{
		"uuid":    result.UUID,
		"page_id": result.PageID,
		"status":  result.Status,
	})

	pending, err := h.lease.PendingUUID(ctx, result.PageID)
	if err != nil {
		return err
	}
	if pending != result.UUID {
		// Stale reply from a previous dispatch; drop it.
		log.WithField("pending", pending).Warn("ignoring render result with stale uuid")
		return nil
	}

	if result.Succeeded() {
		if err := h.store.TransitionTopic(ctx, result.PageID, types.StatusPublished); err != nil {
			return fmt.Errorf("mark topic published: %w", err)
		}
		if h.recorder != nil {
			topic := h.state.Topic()
			if topic != nil && topic.PageID == result.PageID {
				if err := h.recorder.Record(ctx, topic.PageID, topic.Title); err != nil {
					log.WithError(err).Warn("failed to record published topic")
				}
			}
		}
		log.WithField("video_url", result.VideoURL).Info("topic published")
	} else {
		if err := h.store.TransitionTopic(ctx, result.PageID, types.StatusFailed); err != nil {
			return fmt.Errorf("mark topic failed: %w", err)
		}
		log.Warn("render failed")
	}

	if err := h.lease.ClearPending(ctx, result.PageID); err != nil {
		log.WithError(err).Warn("failed to clear pending dispatch")
	}
	if err := h.lease.Release(ctx, result.PageID); err != nil {
		log.WithError(err).Warn("failed to release topic lease")
	}

	// Only close out the in-memory run if this result belongs to it.
	if h.state.RenderUUID() == result.UUID {
		h.state.CompleteRun(result)
	}
	return nil
}
