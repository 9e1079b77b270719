package skills

import (
	"spaceblack/internal/config"
	"spaceblack/internal/tools"
)

// RegisterTools registers the tools of every enabled skill. The
// Discord bot is a background process, not a tool, and is started
// separately.
func RegisterTools(registry *tools.Registry, cfg *config.Config) error {
	type entry struct {
		name string
		tool func(*config.Config) *tools.Tool
	}
	for _, e := range []entry{
		{"github", GitHubActTool},
		{"telegram", TelegramSendTool},
		{"openweather", WeatherTool},
	} {
		if !cfg.SkillEnabled(e.name) {
			continue
		}
		if err := registry.Register(e.tool(cfg)); err != nil {
			return err
		}
	}
	return nil
}
