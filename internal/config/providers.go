package config

// ProviderInfo describes an LLM provider: how to authenticate and which
// chat models it serves. The wire protocol family decides which client
// implementation speaks to it.
type ProviderInfo struct {
	ID         string
	Name       string
	EnvVar     string // API key environment variable; empty for local providers
	BaseURL    string // OpenAI-compatible endpoint, where applicable
	Protocol   string // "gemini", "openai" or "anthropic"
	ChatModels []string
}

// providers is the central provider/model registry.
var providers = []ProviderInfo{
	{
		ID:       "google",
		Name:     "Google (Gemini)",
		EnvVar:   "GOOGLE_API_KEY",
		Protocol: "gemini",
		ChatModels: []string{
			"gemini-2.5-flash",
			"gemini-2.5-pro",
			"gemini-2.0-flash",
			"gemini-2.0-flash-lite",
			"gemini-1.5-pro",
			"gemini-1.5-flash",
		},
	},
	{
		ID:       "openai",
		Name:     "OpenAI",
		EnvVar:   "OPENAI_API_KEY",
		BaseURL:  "https://api.openai.com/v1",
		Protocol: "openai",
		ChatModels: []string{
			"gpt-4o",
			"gpt-4o-mini",
			"o1",
			"o1-mini",
			"o3-mini",
			"gpt-4-turbo",
		},
	},
	{
		ID:       "anthropic",
		Name:     "Anthropic",
		EnvVar:   "ANTHROPIC_API_KEY",
		Protocol: "anthropic",
		ChatModels: []string{
			"claude-3-7-sonnet-latest",
			"claude-3-5-sonnet-latest",
			"claude-3-5-haiku-latest",
			"claude-3-opus-latest",
		},
	},
	{
		ID:       "groq",
		Name:     "Groq",
		EnvVar:   "GROQ_API_KEY",
		BaseURL:  "https://api.groq.com/openai/v1",
		Protocol: "openai",
		ChatModels: []string{
			"llama-3.3-70b-versatile",
			"llama-3.1-8b-instant",
			"mixtral-8x7b-32768",
			"gemma2-9b-it",
			"deepseek-r1-distill-llama-70b",
		},
	},
	{
		ID:       "mistral",
		Name:     "Mistral AI",
		EnvVar:   "MISTRAL_API_KEY",
		BaseURL:  "https://api.mistral.ai/v1",
		Protocol: "openai",
		ChatModels: []string{
			"mistral-large-latest",
			"mistral-small-latest",
			"open-mistral-nemo",
			"codestral-latest",
			"ministral-8b-latest",
		},
	},
	{
		ID:       "ollama",
		Name:     "Ollama (Local)",
		EnvVar:   "", // runs locally, no key
		BaseURL:  "http://localhost:11434/v1",
		Protocol: "openai",
		ChatModels: []string{
			"llama3.2",
			"llama3.1",
			"mistral",
			"phi3",
			"qwen2.5",
			"deepseek-r1",
		},
	},
	{
		ID:       "xai",
		Name:     "xAI",
		EnvVar:   "XAI_API_KEY",
		BaseURL:  "https://api.x.ai/v1",
		Protocol: "openai",
		ChatModels: []string{
			"grok-2-latest",
			"grok-2",
			"grok-beta",
		},
	},
}

// Providers returns all registered providers in display order.
func Providers() []ProviderInfo {
	out := make([]ProviderInfo, len(providers))
	copy(out, providers)
	return out
}

// LookupProvider finds a provider by ID.
func LookupProvider(id string) (ProviderInfo, bool) {
	for _, p := range providers {
		if p.ID == id {
			return p, true
		}
	}
	return ProviderInfo{}, false
}

// ChatModels returns the chat model list for a provider, or nil if unknown.
func ChatModels(providerID string) []string {
	p, ok := LookupProvider(providerID)
	if !ok {
		return nil
	}
	return p.ChatModels
}

// DefaultModel returns the recommended model for a provider. The first
// registry entry is the recommendation.
func DefaultModel(providerID string) string {
	models := ChatModels(providerID)
	if len(models) == 0 {
		return ""
	}
	return models[0]
}

// EnvVar returns the API key environment variable for a provider.
func EnvVar(providerID string) string {
	p, _ := LookupProvider(providerID)
	return p.EnvVar
}
