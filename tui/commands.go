package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const pollInterval = 500 * time.Millisecond

// pollStatus fetches the orchestrator status.
func pollStatus(client *Client) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return statusUpdateMsg{Status: status, Err: err}
	}
}

// triggerStart asks the orchestrator to begin a run.
func triggerStart(client *Client) tea.Cmd {
	return func() tea.Msg {
		return startedMsg{Err: client.Start()}
	}
}

// tickCmd schedules the next poll.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg{Time: t}
	})
}
