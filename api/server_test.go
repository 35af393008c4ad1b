package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giggle/pipeline"
	"giggle/types"
)

type emptySelector struct{ calls chan struct{} }

func (s *emptySelector) SelectTopic(ctx context.Context) (*types.Topic, error) {
	if s.calls != nil {
		s.calls <- struct{}{}
	}
	return nil, nil
}

func newTestServer(state *pipeline.StateManager, selector pipeline.TopicSelector) *Server {
	runner := pipeline.NewRunner(pipeline.RunnerDeps{
		State:    state,
		Selector: selector,
	})
	return NewServer(state, runner, "0")
}

func TestHandleStatus(t *testing.T) {
	state := pipeline.NewStateManager()
	state.AddLog("hello")
	s := newTestServer(state, &emptySelector{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pipeline/status", nil)
	s.httpServer.Handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var status types.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, types.RunIdle, status.State)
	require.Len(t, status.Logs, 1)
	assert.Equal(t, "hello", status.Logs[0].Message)
}

func TestHandleStartConflict(t *testing.T) {
	state := pipeline.NewStateManager()
	state.SetState(types.RunResearching)
	s := newTestServer(state, &emptySelector{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/start", nil)
	s.httpServer.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleStartAccepted(t *testing.T) {
	state := pipeline.NewStateManager()
	selector := &emptySelector{calls: make(chan struct{}, 1)}
	s := newTestServer(state, selector)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/start", nil)
	s.httpServer.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	select {
	case <-selector.calls:
	case <-time.After(time.Second):
		t.Fatal("run was not started")
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(pipeline.NewStateManager(), &emptySelector{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.httpServer.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
