package chat

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"spaceblack/internal/brain"
)

const helpText = `Available commands:
  /config    change provider, API key, model or search backend
  /soul      show the agent's current SOUL.md
  /memory    show today's memory log
  /schedule  list scheduled tasks
  /help      this listing

Type exit or quit to leave.`

// runCommand dispatches a slash command. The command itself is already
// in the history; this appends the result.
func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	command, _, _ := strings.Cut(strings.TrimSpace(input), " ")
	switch strings.ToLower(command) {
	case "/help":
		m.append("system", helpText)

	case "/soul":
		soul := brain.ReadFileSafe(m.opts.Paths.SoulFile, "No soul file yet.")
		m.append("assistant", soul)

	case "/memory":
		m.append("assistant", m.todaysMemory())

	case "/schedule":
		m.append("system", m.scheduleListing())

	case "/config":
		m.wizard = newConfigWizard(m.opts.Config)
		m.append("system", m.wizard.prompt())

	default:
		m.append("system", fmt.Sprintf("Unknown command %s. Try /help.", command))
	}
	return m, nil
}

func (m Model) todaysMemory() string {
	now := time.Now()
	content := brain.ReadFileSafe(brain.MemoryFilePath(m.opts.Paths, now), "")
	day := now.Format("2006-01-02")
	if content == "" {
		return fmt.Sprintf("No memory entries for %s yet.", day)
	}
	return fmt.Sprintf("## Memory %s\n\n%s", day, content)
}

func (m Model) scheduleListing() string {
	entries, err := m.opts.Schedule.List()
	if err != nil {
		return "Could not read the schedule: " + err.Error()
	}
	if len(entries) == 0 {
		return "No scheduled tasks."
	}
	var sb strings.Builder
	sb.WriteString("Scheduled tasks:\n")
	for _, entry := range entries {
		fmt.Fprintf(&sb, "  %s — %s\n", entry.Time, entry.Task)
	}
	return strings.TrimRight(sb.String(), "\n")
}
