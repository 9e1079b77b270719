// Package skills manages optional integrations: each skill lives in its
// own directory under skills/ with a skill.yaml manifest, and registers
// tools (or background bots) when its credentials are configured.
package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"spaceblack/internal/config"
)

// Manifest is the skill.yaml file describing one skill.
type Manifest struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	EnvVars     []string `yaml:"env_vars"`
	Enabled     bool     `yaml:"enabled"`
}

// Skill is a loaded manifest plus its resolved availability.
type Skill struct {
	Manifest
	Dir     string
	Missing []string // env vars that are not set
}

// Available reports whether the skill can run: enabled and no missing
// credentials.
func (s *Skill) Available() bool {
	return s.Enabled && len(s.Missing) == 0
}

// Registry holds the loaded skills.
type Registry struct {
	skills map[string]*Skill
}

// NewRegistry returns an empty skill registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]*Skill)}
}

// LoadDir walks a skills directory, parsing every skill.yaml one level
// down. Missing directory is not an error; a user without skills has
// an empty registry.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read skills dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(dir, entry.Name(), "skill.yaml")
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			continue // directory without a manifest is not a skill
		}
		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("parse %s: %w", manifestPath, err)
		}
		if m.Name == "" {
			m.Name = entry.Name()
		}
		r.Add(&Skill{
			Manifest: m,
			Dir:      filepath.Join(dir, entry.Name()),
			Missing:  missingEnvVars(m.EnvVars),
		})
	}
	return nil
}

// Add registers a skill, replacing any previous one with the same name.
func (r *Registry) Add(s *Skill) {
	r.skills[s.Name] = s
}

// Get returns a skill by name, nil when absent.
func (r *Registry) Get(name string) *Skill {
	return r.skills[name]
}

// All returns the skills sorted by name.
func (r *Registry) All() []*Skill {
	out := make([]*Skill, 0, len(r.skills))
	for _, s := range r.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Summary renders a short availability listing for the system prompt.
// Returns "" when no skills are loaded.
func (r *Registry) Summary() string {
	all := r.All()
	if len(all) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Installed skills:\n")
	for _, s := range all {
		status := "available"
		switch {
		case !s.Enabled:
			status = "disabled"
		case len(s.Missing) > 0:
			status = "unavailable (missing " + strings.Join(s.Missing, ", ") + ")"
		}
		fmt.Fprintf(&sb, "- %s: %s [%s]\n", s.Name, s.Description, status)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func missingEnvVars(vars []string) []string {
	var missing []string
	for _, v := range vars {
		if os.Getenv(v) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

// credential resolves a skill credential with config.json taking
// priority over the environment, matching how the TUI stores keys.
func credential(cfg *config.Config, skill, field, envVar string) string {
	if sc, ok := cfg.Skills[skill]; ok {
		switch field {
		case "api_key":
			if sc.APIKey != "" {
				return sc.APIKey
			}
		case "bot_token":
			if sc.BotToken != "" {
				return sc.BotToken
			}
		}
	}
	return os.Getenv(envVar)
}
