package builtin

import (
	"spaceblack/internal/brain"
	"spaceblack/internal/browser"
	"spaceblack/internal/config"
	"spaceblack/internal/llm"
	"spaceblack/internal/memindex"
	"spaceblack/internal/schedule"
	"spaceblack/internal/tools"
	"spaceblack/internal/vault"
)

// Deps carries the runtime state the builtin tools operate on.
type Deps struct {
	Brain    brain.Paths
	Vault    *vault.Vault
	Schedule *schedule.Store
	Index    *memindex.Index   // optional; search_memory skipped when nil
	Browser  *browser.Session  // optional; browser_act skipped when nil
	Client   func() llm.Client // resolved per call; reflect_and_evolve follows client swaps
	Config   *config.Config
}

// RegisterAll registers the standard tool set with the given registry.
func RegisterAll(registry *tools.Registry, deps Deps) error {
	allTools := []*tools.Tool{
		// Memory and persona
		UpdateMemoryTool(deps.Brain, deps.Index),
		UpdateUserProfileTool(deps.Brain),
		ReflectAndEvolveTool(deps.Brain, deps.Client),

		// System
		ExecuteTerminalCommandTool(),
		ReadFileTool(),
		WriteFileTool(),
		ListDirectoryTool(),

		// Vault
		GetSecretTool(deps.Vault),
		SetSecretTool(deps.Vault),
		ListSecretsTool(deps.Vault),

		// Web
		WebSearchTool(deps.Config),

		// Scheduling
		ScheduleTaskTool(deps.Schedule),
	}

	if deps.Index != nil {
		allTools = append(allTools, SearchMemoryTool(deps.Index))
	}
	if deps.Browser != nil {
		allTools = append(allTools, BrowserActTool(deps.Browser))
	}

	for _, tool := range allTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
