package brain

import (
	"fmt"
	"os"
	"os/user"
	"runtime"
	"time"
)

// BuildSystemPrompt assembles the system prompt from the brain files plus
// a dynamic host context block. Missing files degrade to safe fallbacks
// rather than failing the turn.
func BuildSystemPrompt(p Paths) string {
	agents := ReadFileSafe(p.AgentsFile, "SAFETY CRITICAL: Constitution missing.")
	identity := ReadFileSafe(p.IdentityFile, "Identity unknown.")
	soul := ReadFileSafe(p.SoulFile, "I am a helpful assistant.")
	userCtx := ReadFileSafe(p.UserFile, "User context unknown.")
	toolNotes := ReadFileSafe(p.ToolsFile, "")

	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	now := time.Now().Format("2006-01-02 15:04:05")

	prompt := fmt.Sprintf(`[SYSTEM CONTEXT]
OS: %s (%s)
User: %s
Home: %s
CWD: %s
Time: %s

[INSTRUCTIONS]
%s

[IDENTITY]
%s

[SOUL]
%s

[USER]
%s`, runtime.GOOS, runtime.GOARCH, username, home, cwd, now, agents, identity, soul, userCtx)

	if toolNotes != "" {
		prompt += "\n\n[LOCAL NOTES]\n" + toolNotes
	}
	return prompt
}
