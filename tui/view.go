package tui

import (
	"fmt"
	"strings"

	"giggle/types"
)

const maxVisibleLogs = 12

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("giggle pipeline dashboard"))
	b.WriteString("\n\n")

	b.WriteString(m.stateText())
	b.WriteString("\n\n")

	if m.startErr != nil {
		b.WriteString(errorStyle.Render("start failed: " + m.startErr.Error()))
		b.WriteString("\n\n")
	}

	if topic := m.status.Topic; topic != nil {
		b.WriteString(infoStyle.Render(fmt.Sprintf("topic: %s [%s]", topic.Title, topic.Status)))
		b.WriteString("\n")
		if topic.Angle != "" {
			b.WriteString(infoStyle.Render("angle: " + topic.Angle))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(m.status.Citations) > 0 {
		b.WriteString(infoStyle.Render(fmt.Sprintf("sources: %d", len(m.status.Citations))))
		b.WriteString("\n")
		for i, c := range m.status.Citations {
			if i >= 5 {
				b.WriteString(infoStyle.Render(fmt.Sprintf("   ... and %d more", len(m.status.Citations)-5)))
				b.WriteString("\n")
				break
			}
			b.WriteString(infoStyle.Render("   " + c.URL))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if logs := m.status.Logs; len(logs) > 0 {
		b.WriteString(infoStyle.Render("recent activity:"))
		b.WriteString("\n")
		start := 0
		if len(logs) > maxVisibleLogs {
			start = len(logs) - maxVisibleLogs
		}
		for _, entry := range logs[start:] {
			line := fmt.Sprintf("   %s %s", entry.Timestamp.Format("15:04:05"), entry.Message)
			b.WriteString(infoStyle.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.status.State == types.RunComplete && m.status.RenderResult != nil {
		b.WriteString(boxStyle.Render(m.formatResult()))
		b.WriteString("\n\n")
	}

	if m.status.State.Busy() {
		b.WriteString(infoStyle.Render("press 'q' to detach (run continues)"))
	} else {
		b.WriteString(infoStyle.Render("press 's' to start a run | 'r' to refresh | 'q' to quit"))
	}

	return b.String()
}

// formatResult renders the render worker's final report.
func (m Model) formatResult() string {
	result := m.status.RenderResult
	var b strings.Builder

	b.WriteString(highlightStyle.Render("Render Result"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Status: %s\n", statusStyle.Render(result.Status)))
	if result.VideoURL != "" {
		b.WriteString(fmt.Sprintf("Video: %s\n", result.VideoURL))
	}
	if result.S3Key != "" {
		b.WriteString(fmt.Sprintf("Archive: %s\n", result.S3Key))
	}
	if result.Error != nil && *result.Error != "" {
		b.WriteString(errorStyle.Render("Error: " + *result.Error))
		b.WriteString("\n")
	}
	return b.String()
}
