// Command giggle-dash is a terminal dashboard for the orchestrator. It polls
// the HTTP API and shows run state, topic, citations and recent activity.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"giggle/config"
	"giggle/tui"
)

func main() {
	url := flag.String("url", config.GetEnvOrDefault("EG_ORCHESTRATOR_URL", "http://localhost:8080"), "orchestrator base URL")
	flag.Parse()

	p := tea.NewProgram(tui.NewModel(*url), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard error: %v\n", err)
		os.Exit(1)
	}
}
