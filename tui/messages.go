package tui

import (
	"time"

	"giggle/types"
)

// statusUpdateMsg carries a status snapshot from the orchestrator.
type statusUpdateMsg struct {
	Status *types.StatusResponse
	Err    error
}

// tickMsg triggers the next poll.
type tickMsg struct {
	Time time.Time
}

// startedMsg reports the outcome of a start request.
type startedMsg struct {
	Err error
}
