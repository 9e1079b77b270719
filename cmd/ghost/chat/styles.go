// Package chat is the interactive terminal interface: a bubbletea chat
// over the agent, plus the onboarding and config wizards.
package chat

import "github.com/charmbracelet/lipgloss"

// Theme holds the color scheme for the TUI.
type Theme struct {
	Primary lipgloss.Color // user label, footer highlights
	Accent  lipgloss.Color // agent label
	Muted   lipgloss.Color // system lines, footer
	Error   lipgloss.Color
	IsDark  bool
}

// DarkTheme is the default space-black look.
func DarkTheme() Theme {
	return Theme{
		Primary: lipgloss.Color("#7aa2f7"),
		Accent:  lipgloss.Color("#9ece6a"),
		Muted:   lipgloss.Color("#565f89"),
		Error:   lipgloss.Color("#f7768e"),
		IsDark:  true,
	}
}

// LightTheme inverts for light terminals.
func LightTheme() Theme {
	return Theme{
		Primary: lipgloss.Color("#2959aa"),
		Accent:  lipgloss.Color("#33635c"),
		Muted:   lipgloss.Color("#9699a3"),
		Error:   lipgloss.Color("#8c4351"),
		IsDark:  false,
	}
}

// Styles are the composed lipgloss styles used by the views.
type Styles struct {
	Theme     Theme
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	System    lipgloss.Style
	ErrorLine lipgloss.Style
	Footer    lipgloss.Style
	Spinner   lipgloss.Style
	Prompt    lipgloss.Style
}

// NewStyles builds the style set for a theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme:     theme,
		UserLabel: lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		BotLabel:  lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		System:    lipgloss.NewStyle().Foreground(theme.Muted).Italic(true),
		ErrorLine: lipgloss.NewStyle().Foreground(theme.Error),
		Footer:    lipgloss.NewStyle().Foreground(theme.Muted),
		Spinner:   lipgloss.NewStyle().Foreground(theme.Accent),
		Prompt:    lipgloss.NewStyle().Foreground(theme.Primary),
	}
}

// stylesFor maps the config theme name to a style set.
func stylesFor(theme string) Styles {
	if theme == "light" {
		return NewStyles(LightTheme())
	}
	return NewStyles(DarkTheme())
}
