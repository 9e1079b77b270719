// Package chat is the interactive terminal front end: a bubbletea
// program wrapping the agent loop, plus the first-run onboarding flow.
package chat

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the chat TUI and blocks until the user quits.
func Run(opts Options) error {
	program := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
