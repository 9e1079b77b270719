// Package brain manages the agent's persisted state: a directory of
// Markdown and JSON files that together form the system prompt, the
// long-term memory, and the background routine definitions.
//
// Layout:
//
//	brain/
//	  AGENTS.md      master instructions (read-only for the agent)
//	  IDENTITY.md    who the agent is
//	  SOUL.md        adaptive persona (rewritten by reflect_and_evolve)
//	  USER.md        persistent facts about the human
//	  TOOLS.md       environment-specific notes
//	  HEARTBEAT.md   background routine instructions
//	  SCHEDULE.json  one-shot scheduled tasks
//	  memory/        daily logs + heartbeat state
//	  vault/         secrets store
package brain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir is the brain directory name inside a workspace.
const Dir = "brain"

// Paths resolves the well-known brain file locations for a workspace.
type Paths struct {
	Root           string
	MemoryDir      string
	AgentsFile     string
	IdentityFile   string
	SoulFile       string
	SoulBackup     string
	UserFile       string
	ToolsFile      string
	HeartbeatFile  string
	HeartbeatState string
	ScheduleFile   string
	VaultDir       string
}

// NewPaths builds the path set for a workspace root.
func NewPaths(workspace string) Paths {
	root := filepath.Join(workspace, Dir)
	memory := filepath.Join(root, "memory")
	return Paths{
		Root:           root,
		MemoryDir:      memory,
		AgentsFile:     filepath.Join(root, "AGENTS.md"),
		IdentityFile:   filepath.Join(root, "IDENTITY.md"),
		SoulFile:       filepath.Join(root, "SOUL.md"),
		SoulBackup:     filepath.Join(root, "soul.bak"),
		UserFile:       filepath.Join(root, "USER.md"),
		ToolsFile:      filepath.Join(root, "TOOLS.md"),
		HeartbeatFile:  filepath.Join(root, "HEARTBEAT.md"),
		HeartbeatState: filepath.Join(memory, "heartbeat-state.json"),
		ScheduleFile:   filepath.Join(root, "SCHEDULE.json"),
		VaultDir:       filepath.Join(root, "vault"),
	}
}

// EnsureInitialized creates the brain directory tree and seeds every
// missing file with its default content. Files that already exist are
// never touched, so repeated runs are safe.
func EnsureInitialized(p Paths) error {
	for _, dir := range []string{p.Root, p.MemoryDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	seeds := []struct {
		path    string
		content string
	}{
		{p.IdentityFile, defaultIdentity},
		{p.HeartbeatFile, defaultHeartbeat},
		{p.UserFile, defaultUser},
		{p.AgentsFile, defaultAgents},
		{p.ToolsFile, defaultTools},
		{p.SoulFile, defaultSoul},
		{p.ScheduleFile, "[]"},
	}
	for _, seed := range seeds {
		if _, err := os.Stat(seed.path); err == nil {
			continue
		}
		content := strings.TrimSpace(seed.content)
		if err := os.WriteFile(seed.path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("seed %s: %w", seed.path, err)
		}
	}
	return nil
}

// ReadFileSafe reads a file, returning fallback when it is missing or
// unreadable. Content is returned trimmed.
func ReadFileSafe(path, fallback string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	return strings.TrimSpace(string(data))
}
