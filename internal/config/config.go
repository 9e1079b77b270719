// Package config holds all Space Black configuration from config.json.
// The config file lives in the workspace root next to the brain/ directory,
// with API keys kept separately in .env.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileName is the config file name inside the workspace.
const DefaultFileName = "config.json"

// SkillConfig holds per-skill enablement and settings.
type SkillConfig struct {
	Enabled       bool   `json:"enabled"`
	APIKey        string `json:"api_key,omitempty"`         // github/openweather keys
	BotToken      string `json:"bot_token,omitempty"`       // telegram/discord bot token
	AllowedUserID string `json:"allowed_user_id,omitempty"` // telegram/discord owner lock
	ChatID        string `json:"chat_id,omitempty"`         // telegram target chat
	Channel       string `json:"channel,omitempty"`         // discord channel ID
	GuildID       string `json:"guild_id,omitempty"`        // discord guild ID
}

// Config is the single source of truth for runtime configuration.
//
// Supported providers: google, openai, anthropic, groq, mistral, ollama, xai.
// Model defaults per provider live in providers.go.
type Config struct {
	// LLM provider selection
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Web search backend: "brave" (default, needs BRAVE_API_KEY) or "duckduckgo".
	SearchProvider string `json:"search_provider,omitempty"`

	// TUI theme ("dark" or "light")
	Theme string `json:"theme,omitempty"`

	// DebugMode enables categorized file logging under brain/logs/.
	DebugMode bool `json:"debug_mode,omitempty"`

	// Skills enablement (telegram, discord, github, openweather, ...)
	Skills map[string]SkillConfig `json:"skills,omitempty"`
}

// Default returns the configuration used when no config.json exists yet.
func Default() *Config {
	return &Config{
		Provider:       "google",
		Model:          "gemini-2.5-flash",
		SearchProvider: "brave",
		Theme:          "dark",
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, DefaultFileName)
}

// Load reads config.json from the given path. A missing file returns the
// defaults rather than an error; the runtime treats absence as
// "not onboarded yet".
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Provider == "" {
		cfg.Provider = "google"
	}
	if cfg.SearchProvider == "" {
		cfg.SearchProvider = "brave"
	}
	return cfg, nil
}

// Exists reports whether a config file has been written for the workspace.
func Exists(workspace string) bool {
	_, err := os.Stat(Path(workspace))
	return err == nil
}

// Save writes the config as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SkillEnabled reports whether a named skill is switched on.
func (c *Config) SkillEnabled(name string) bool {
	sc, ok := c.Skills[name]
	return ok && sc.Enabled
}

// SetSkill updates a skill entry, allocating the map on first use.
func (c *Config) SetSkill(name string, sc SkillConfig) {
	if c.Skills == nil {
		c.Skills = make(map[string]SkillConfig)
	}
	c.Skills[name] = sc
}
