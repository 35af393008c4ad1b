package types

import "time"

// RunState represents the orchestrator state machine for a single pipeline
// run. A run walks one topic from selection through render dispatch; the
// rendering itself completes asynchronously via Kafka.
type RunState string

const (
	RunIdle        RunState = "idle"
	RunSelecting   RunState = "selecting"
	RunResearching RunState = "researching"
	RunScripting   RunState = "scripting"
	RunDispatching RunState = "dispatching"
	RunWaiting     RunState = "waiting"
	RunComplete    RunState = "complete"
	RunError       RunState = "error"
)

// Busy reports whether a new run may not start yet.
func (s RunState) Busy() bool {
	return s != RunIdle && s != RunComplete && s != RunError
}

// LogEntry represents a single log line with timestamp.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// RenderRequest is the message the orchestrator publishes for the render
// worker once a script is ready.
type RenderRequest struct {
	UUID      string    `json:"uuid"`
	PageID    string    `json:"page_id"`
	Title     string    `json:"title"`
	Script    string    `json:"script"`
	DigestKey string    `json:"digest_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RenderResult is the message the render worker publishes when a video has
// been produced (or production failed).
type RenderResult struct {
	UUID     string  `json:"uuid"`
	PageID   string  `json:"page_id"`
	Status   string  `json:"status"` // "success" or "failure"
	VideoID  string  `json:"video_id,omitempty"`
	VideoURL string  `json:"video_url,omitempty"`
	S3Key    string  `json:"s3_key,omitempty"`
	Error    *string `json:"error,omitempty"`
}

// Succeeded reports whether the render finished with a usable video.
func (r *RenderResult) Succeeded() bool {
	return r.Status == "success"
}

// WordTimestamp is a single narrated word with its start/end offsets in
// seconds, as returned by the voiceover service.
type WordTimestamp struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// StatusResponse is the JSON response for GET /api/pipeline/status.
type StatusResponse struct {
	State        RunState      `json:"state"`
	Topic        *Topic        `json:"topic,omitempty"`
	Logs         []LogEntry    `json:"logs"`
	Citations    []Citation    `json:"citations,omitempty"`
	RenderUUID   string        `json:"render_uuid,omitempty"`
	RenderResult *RenderResult `json:"render_result,omitempty"`
	Error        string        `json:"error,omitempty"`
}
