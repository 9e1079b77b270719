package chat

import (
	"fmt"
	"strings"
)

func (m Model) View() string {
	if !m.ready {
		return "Starting up..."
	}

	var sb strings.Builder
	sb.WriteString(m.viewport.View())
	sb.WriteByte('\n')

	if m.isLoading {
		sb.WriteString(m.spinner.View() + m.styles.System.Render(" thinking...") + "\n")
	} else {
		sb.WriteByte('\n')
	}

	sb.WriteString(m.textarea.View())
	sb.WriteByte('\n')
	sb.WriteString(m.styles.Footer.Render(m.footerText()))
	return sb.String()
}

// footerText shows the active backend plus key hints.
func (m Model) footerText() string {
	backend := fmt.Sprintf("%s (%s)", m.opts.Config.Provider, m.opts.Agent.Client().Model())
	return fmt.Sprintf(" %s • /help for commands • exit to quit", backend)
}

func (m Model) renderHistory() string {
	var sb strings.Builder
	for _, msg := range m.history {
		switch msg.Role {
		case "user":
			sb.WriteString(m.styles.UserLabel.Render("You") + "\n")
			sb.WriteString(msg.Content)
			sb.WriteString("\n\n")
		case "system":
			sb.WriteString(m.styles.System.Render("· "+msg.Content) + "\n\n")
		case "error":
			sb.WriteString(m.styles.ErrorLine.Render("Error: "+msg.Content) + "\n\n")
		default:
			sb.WriteString(m.styles.BotLabel.Render("ghost") + "\n")
			sb.WriteString(m.renderMarkdown(msg.Content))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderMarkdown renders agent output, falling back to plain text when
// glamour chokes.
func (m Model) renderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()
	if m.renderer != nil && content != "" {
		if rendered, err := m.renderer.Render(content); err == nil {
			return rendered
		}
	}
	return content
}
