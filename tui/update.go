package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tickMsg:
		return m, tea.Batch(pollStatus(m.client), tickCmd())
	case statusUpdateMsg:
		return m.handleStatusUpdate(msg)
	case startedMsg:
		if msg.Err != nil {
			m.startErr = msg.Err
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "s", "S":
		if m.connected && !m.status.State.Busy() {
			m.startErr = nil
			return m, triggerStart(m.client)
		}
	case "r", "R":
		return m, pollStatus(m.client)
	}
	return m, nil
}

func (m Model) handleStatusUpdate(msg statusUpdateMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.connected = false
		return m, nil
	}
	m.connected = true
	m.status = *msg.Status
	return m, nil
}
