package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"spaceblack/internal/agent"
	"spaceblack/internal/brain"
	"spaceblack/internal/browser"
	"spaceblack/internal/config"
	"spaceblack/internal/llm"
	"spaceblack/internal/logging"
	"spaceblack/internal/memindex"
	"spaceblack/internal/schedule"
	"spaceblack/internal/skills"
	"spaceblack/internal/tools"
	"spaceblack/internal/tools/builtin"
	"spaceblack/internal/vault"
)

// Runtime bundles everything a ghost process needs: brain, tools,
// client, agent and the optional background pieces.
type Runtime struct {
	Workspace string
	Config    *config.Config
	Paths     brain.Paths
	Vault     *vault.Vault
	Schedule  *schedule.Store
	Watcher   *schedule.Watcher
	Index     *memindex.Index
	Browser   *browser.Session
	Registry  *tools.Registry
	Skills    *skills.Registry
	Client    llm.Client
	Agent     *agent.Agent
}

// buildRuntime assembles the full runtime for a workspace. The brain
// is initialized on the spot; a missing config falls back to defaults
// so the onboarding wizard can run inside the same process.
func buildRuntime(workspace string) (*Runtime, error) {
	cfg, err := config.Load(config.Path(workspace))
	if err != nil {
		return nil, err
	}

	paths := brain.NewPaths(workspace)
	if err := brain.EnsureInitialized(paths); err != nil {
		return nil, fmt.Errorf("initialize brain: %w", err)
	}

	rt := &Runtime{
		Workspace: workspace,
		Config:    cfg,
		Paths:     paths,
		Vault:     vault.New(filepath.Join(paths.VaultDir, "secrets.json")),
		Schedule:  schedule.NewStore(paths.ScheduleFile),
	}

	// The memory index is an enhancement; the agent works without it.
	index, err := memindex.Open(filepath.Join(paths.MemoryDir, "index.db"))
	if err != nil {
		logging.Memory("Memory index unavailable: %v", err)
	} else {
		rt.Index = index
		if err := index.IngestDir(context.Background(), paths.MemoryDir); err != nil {
			logging.Memory("Memory backfill failed: %v", err)
		}
	}

	watcher, err := schedule.NewWatcher(paths.ScheduleFile)
	if err != nil {
		logging.Daemon("Schedule watcher unavailable: %v", err)
	} else {
		rt.Watcher = watcher
	}

	client, err := llm.NewClient(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}
	rt.Client = client

	rt.Browser = browser.NewSession(browser.DefaultConfig())

	registry := tools.NewRegistry()
	if err := builtin.RegisterAll(registry, builtin.Deps{
		Brain:    paths,
		Vault:    rt.Vault,
		Schedule: rt.Schedule,
		Index:    rt.Index,
		Browser:  rt.Browser,
		// Resolved through the agent so /config provider switches reach
		// the soul-evolution tool too.
		Client: func() llm.Client {
			if rt.Agent != nil {
				return rt.Agent.Client()
			}
			return client
		},
		Config: cfg,
	}); err != nil {
		return nil, err
	}
	if err := skills.RegisterTools(registry, cfg); err != nil {
		return nil, err
	}
	rt.Registry = registry

	skillReg := skills.NewRegistry()
	if err := skillReg.LoadDir(filepath.Join(workspace, "skills")); err != nil {
		logging.Skills("Skill manifests unreadable: %v", err)
	}
	rt.Skills = skillReg

	rt.Agent = agent.New(client, registry, paths)
	if summary := skillReg.Summary(); summary != "" {
		rt.Agent.SetPromptExtra(summary)
	}
	return rt, nil
}

// StartBots launches enabled background bots (currently Discord) on
// the given context.
func (rt *Runtime) StartBots(ctx context.Context) {
	if !rt.Config.SkillEnabled("discord") {
		return
	}
	bot, err := skills.NewDiscordBot(rt.Config, rt.Agent)
	if err != nil {
		logging.Skills("Discord bot not started: %v", err)
		if logger != nil {
			logger.Warn("discord bot not started", zap.Error(err))
		}
		return
	}
	go func() {
		if err := bot.Start(ctx); err != nil {
			logging.Skills("Discord bot stopped: %v", err)
		}
	}()
}

// Close releases runtime resources.
func (rt *Runtime) Close() {
	if rt.Browser != nil {
		_ = rt.Browser.Shutdown()
	}
	if rt.Index != nil {
		_ = rt.Index.Close()
	}
}
