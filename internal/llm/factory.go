package llm

import (
	"fmt"
	"os"

	"spaceblack/internal/config"
)

// NewClient builds a Client for the given provider and model. The API
// key is read from the provider's environment variable; config.LoadEnv
// should have populated the process environment before this is called.
func NewClient(providerID, model string) (Client, error) {
	p, ok := config.LookupProvider(providerID)
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q", providerID)
	}
	if model == "" {
		model = config.DefaultModel(providerID)
	}

	apiKey := ""
	if p.EnvVar != "" {
		apiKey = os.Getenv(p.EnvVar)
		if apiKey == "" {
			return nil, fmt.Errorf("llm: %s not set (required for %s)", p.EnvVar, p.Name)
		}
	}

	switch p.Protocol {
	case "gemini":
		cfg := DefaultGeminiConfig(apiKey)
		cfg.Model = model
		return NewGeminiClientWithConfig(cfg), nil
	case "openai":
		cfg := DefaultOpenAIConfig(apiKey)
		cfg.BaseURL = p.BaseURL
		cfg.Model = model
		return NewOpenAIClientWithConfig(cfg), nil
	case "anthropic":
		cfg := DefaultAnthropicConfig(apiKey)
		cfg.Model = model
		return NewAnthropicClientWithConfig(cfg), nil
	default:
		return nil, fmt.Errorf("llm: provider %q has unsupported protocol %q", providerID, p.Protocol)
	}
}
