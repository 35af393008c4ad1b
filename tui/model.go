package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"giggle/types"
)

// Model is the dashboard state, synced from the orchestrator by polling.
type Model struct {
	client *Client

	status    types.StatusResponse
	connected bool
	startErr  error
}

// NewModel creates a dashboard model for the orchestrator at baseURL.
func NewModel(baseURL string) Model {
	return Model{
		client: NewClient(baseURL),
		status: types.StatusResponse{State: types.RunIdle},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		pollStatus(m.client),
		tickCmd(),
	)
}

// stateText renders the headline for the current run state.
func (m Model) stateText() string {
	if !m.connected {
		return errorStyle.Render("not connected to orchestrator")
	}

	switch m.status.State {
	case types.RunIdle:
		return highlightStyle.Render("idle") + "\n\n" +
			infoStyle.Render("press 's' to start a pipeline run")
	case types.RunSelecting:
		return statusStyle.Render("selecting topic from backlog...")
	case types.RunResearching:
		return statusStyle.Render("researching topic...")
	case types.RunScripting:
		return statusStyle.Render("writing narration script...")
	case types.RunDispatching:
		return statusStyle.Render("dispatching render request...")
	case types.RunWaiting:
		return statusStyle.Render("waiting for render worker (uuid: " + m.status.RenderUUID + ")...")
	case types.RunComplete:
		return highlightStyle.Render("run complete")
	case types.RunError:
		msg := m.status.Error
		if msg == "" {
			msg = "unknown error"
		}
		return errorStyle.Render("error: " + msg)
	default:
		return ""
	}
}
