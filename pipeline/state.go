// Package pipeline drives a topic from backlog selection through research,
// scripting and render dispatch, then finishes the run when the render
// worker reports back over Kafka.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"giggle/types"
)

const maxLogs = 50

// StateManager holds the run state with thread-safe access. The HTTP API,
// the runner goroutine and the render-results consumer all touch it.
type StateManager struct {
	mu sync.RWMutex

	state      types.RunState
	topic      *types.Topic
	citations  []types.Citation
	renderUUID string
	result     *types.RenderResult
	lastErr    error

	// Logs (ring buffer)
	logs []types.LogEntry
}

// NewStateManager creates a manager in the idle state.
func NewStateManager() *StateManager {
	return &StateManager{
		state: types.RunIdle,
		logs:  make([]types.LogEntry, 0),
	}
}

// AddLog appends a log entry, evicting the oldest past maxLogs.
func (m *StateManager) AddLog(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(message)
}

// SetState sets the current run state.
func (m *StateManager) SetState(state types.RunState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// State returns the current run state.
func (m *StateManager) State() types.RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// TryStart atomically claims the pipeline for a new run. It returns false
// when a run is already in flight.
func (m *StateManager) TryStart() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Busy() {
		return false
	}
	m.state = types.RunSelecting
	m.topic = nil
	m.citations = nil
	m.renderUUID = ""
	m.result = nil
	m.lastErr = nil
	m.appendLog("pipeline run started")
	return true
}

// SetTopic records the topic chosen for this run.
func (m *StateManager) SetTopic(topic *types.Topic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topic = topic
}

// Topic returns the topic of the current run, nil when none was selected yet.
func (m *StateManager) Topic() *types.Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.topic
}

// SetCitations records the citations gathered during research.
func (m *StateManager) SetCitations(citations []types.Citation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.citations = citations
}

// SetRenderUUID records the UUID of the dispatched render request.
func (m *StateManager) SetRenderUUID(uuid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renderUUID = uuid
}

// RenderUUID returns the UUID of the in-flight render, if any.
func (m *StateManager) RenderUUID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.renderUUID
}

// SetError moves the run into the error state and logs the cause.
func (m *StateManager) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = types.RunError
	m.lastErr = err
	m.appendLog(fmt.Sprintf("error: %v", err))
}

// CompleteRun records the render result and ends the run. A failed result
// moves the state to error instead of complete.
func (m *StateManager) CompleteRun(result *types.RenderResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
	if result.Succeeded() {
		m.state = types.RunComplete
		m.appendLog("render complete, video published")
	} else {
		m.state = types.RunError
		if result.Error != nil {
			m.lastErr = fmt.Errorf("render failed: %s", *result.Error)
		} else {
			m.lastErr = fmt.Errorf("render failed")
		}
		m.appendLog(m.lastErr.Error())
	}
}

// Status returns a snapshot for the API and the dashboard.
func (m *StateManager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp := types.StatusResponse{
		State:        m.state,
		Topic:        m.topic,
		Logs:         append([]types.LogEntry{}, m.logs...),
		Citations:    append([]types.Citation{}, m.citations...),
		RenderUUID:   m.renderUUID,
		RenderResult: m.result,
	}
	if m.lastErr != nil {
		resp.Error = m.lastErr.Error()
	}
	return resp
}

// appendLog must be called with the lock held.
func (m *StateManager) appendLog(message string) {
	m.logs = append(m.logs, types.LogEntry{
		Timestamp: time.Now(),
		Message:   message,
	})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}
