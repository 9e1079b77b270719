package chat

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"spaceblack/internal/config"
	"spaceblack/internal/llm"
)

// wizardStep is the /config wizard state machine.
type wizardStep int

const (
	stepProvider wizardStep = iota
	stepAPIKey
	stepModel
	stepSearch
)

// configWizard collects new settings one answer at a time inside the
// chat input.
type configWizard struct {
	step     wizardStep
	cfg      *config.Config
	provider config.ProviderInfo
	apiKey   string
	model    string
}

func newConfigWizard(cfg *config.Config) *configWizard {
	return &configWizard{step: stepProvider, cfg: cfg}
}

// prompt renders the question for the current step.
func (w *configWizard) prompt() string {
	switch w.step {
	case stepProvider:
		var sb strings.Builder
		sb.WriteString("Configuration. Pick a provider (number or name, empty keeps current):\n")
		for i, p := range config.Providers() {
			marker := " "
			if p.ID == w.cfg.Provider {
				marker = "*"
			}
			fmt.Fprintf(&sb, "  %d. %s%s\n", i+1, p.Name, marker)
		}
		return strings.TrimRight(sb.String(), "\n")
	case stepAPIKey:
		if w.provider.EnvVar == "" {
			return "" // no key needed, step is skipped
		}
		return fmt.Sprintf("API key for %s (%s, empty keeps the current value):", w.provider.Name, w.provider.EnvVar)
	case stepModel:
		models := config.ChatModels(w.provider.ID)
		var sb strings.Builder
		fmt.Fprintf(&sb, "Model for %s (number, name, or empty for %s):\n", w.provider.Name, config.DefaultModel(w.provider.ID))
		for i, model := range models {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, model)
		}
		return strings.TrimRight(sb.String(), "\n")
	default:
		return `Search backend: "brave" (needs BRAVE_API_KEY) or "duckduckgo" (empty keeps current):`
	}
}

// handle consumes one answer and returns the next prompt, or done=true.
func (w *configWizard) handle(input string) (next string, done bool, err error) {
	input = strings.TrimSpace(input)
	switch w.step {
	case stepProvider:
		id := w.cfg.Provider
		if input != "" {
			id = resolveProviderChoice(input)
			if id == "" {
				return "", false, fmt.Errorf("unknown provider %q", input)
			}
		}
		p, _ := config.LookupProvider(id)
		w.provider = p
		w.step = stepAPIKey
		if p.EnvVar == "" {
			w.step = stepModel // ollama needs no key
		}
		return w.prompt(), false, nil

	case stepAPIKey:
		w.apiKey = input
		w.step = stepModel
		return w.prompt(), false, nil

	case stepModel:
		w.model = resolveModelChoice(w.provider.ID, input)
		w.step = stepSearch
		return w.prompt(), false, nil

	default: // stepSearch
		switch strings.ToLower(input) {
		case "":
		case "brave", "duckduckgo":
			w.cfg.SearchProvider = strings.ToLower(input)
		default:
			return "", false, fmt.Errorf("search backend must be brave or duckduckgo")
		}
		return "", true, nil
	}
}

// resolveProviderChoice accepts a 1-based index or a provider id/name.
func resolveProviderChoice(input string) string {
	providers := config.Providers()
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(providers) {
			return providers[n-1].ID
		}
		return ""
	}
	lower := strings.ToLower(input)
	for _, p := range providers {
		if strings.ToLower(p.ID) == lower || strings.ToLower(p.Name) == lower {
			return p.ID
		}
	}
	return ""
}

// resolveModelChoice accepts a 1-based index into the provider's model
// list, a literal model name, or empty for the default.
func resolveModelChoice(providerID, input string) string {
	if input == "" {
		return config.DefaultModel(providerID)
	}
	models := config.ChatModels(providerID)
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(models) {
		return models[n-1]
	}
	return input
}

// updateWizard feeds chat input into the active wizard.
func (m Model) updateWizard(input string) (tea.Model, tea.Cmd) {
	if strings.EqualFold(input, "cancel") {
		m.wizard = nil
		m.append("system", "Configuration cancelled.")
		return m, nil
	}

	next, done, err := m.wizard.handle(input)
	if err != nil {
		m.append("system", err.Error()+" Try again, or type cancel.")
		return m, nil
	}
	if !done {
		if next != "" {
			m.append("system", next)
		}
		return m, nil
	}

	wizard := m.wizard
	m.wizard = nil
	if err := m.applyConfig(wizard); err != nil {
		m.append("error", err.Error())
		return m, nil
	}
	m.append("system", fmt.Sprintf("Configuration saved: %s (%s).", m.opts.Config.Provider, m.opts.Agent.Client().Model()))
	return m, nil
}

// applyConfig persists the wizard's answers and swaps the live client.
func (m *Model) applyConfig(w *configWizard) error {
	cfg := m.opts.Config
	cfg.Provider = w.provider.ID
	cfg.Model = w.model

	if w.apiKey != "" && w.provider.EnvVar != "" {
		if err := config.SetEnvValue(config.EnvPath(m.opts.Workspace), w.provider.EnvVar, w.apiKey); err != nil {
			return fmt.Errorf("save API key: %w", err)
		}
	}
	if err := cfg.Save(config.Path(m.opts.Workspace)); err != nil {
		return err
	}

	client, err := llm.NewClient(cfg.Provider, cfg.Model)
	if err != nil {
		return err
	}
	m.opts.Agent.SetClient(client)
	return nil
}
