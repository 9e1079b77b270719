package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"spaceblack/internal/logging"
	"spaceblack/internal/tools"
)

// commandTimeout bounds every shell invocation. The agent has no
// business running anything long-lived from a chat turn.
const commandTimeout = 10 * time.Second

// blockedPatterns are substrings that disqualify a command outright.
// Destructive file operations, persistence mechanisms, and the classic
// fork bomb.
var blockedPatterns = []string{
	"rm ",
	"mv ",
	"dd ",
	"crontab",
	"> /dev/null",
	":(){",
}

// blockedCommands are refused when they are the command itself. "at"
// must match as a word, not a substring, or every cat invocation dies.
var blockedCommands = []string{"at"}

// interactiveCommands would hang the agent waiting on a TTY.
var interactiveCommands = []string{
	"nano", "vim", "vi", "ssh", "python", "python3", "ipython",
}

// checkCommand vets a command against both blocklists.
func checkCommand(command string) error {
	lowered := strings.ToLower(command)
	for _, pattern := range blockedPatterns {
		if strings.Contains(lowered, pattern) {
			return fmt.Errorf("%w: %q matches forbidden pattern %q", tools.ErrCommandBlocked, command, pattern)
		}
	}

	fields := strings.Fields(lowered)
	if len(fields) > 0 {
		first := fields[0]
		for _, name := range blockedCommands {
			if first == name {
				return fmt.Errorf("%w: %q matches forbidden command %q", tools.ErrCommandBlocked, command, name)
			}
		}
		for _, tool := range interactiveCommands {
			if first == tool {
				return fmt.Errorf("%w: %s is interactive and would hang the session", tools.ErrCommandBlocked, tool)
			}
		}
	}
	return nil
}

// ExecuteTerminalCommandTool returns the shell execution tool.
func ExecuteTerminalCommandTool() *tools.Tool {
	return &tools.Tool{
		Name:        "execute_terminal_command",
		Description: "Run a non-interactive shell command and return its combined output. Destructive and interactive commands are refused.",
		Category:    tools.CategorySystem,
		Schema: tools.ToolSchema{
			Required: []string{"command"},
			Properties: map[string]tools.Property{
				"command": {
					Type:        "string",
					Description: "The shell command to run",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			command := strings.TrimSpace(tools.StringArg(args, "command", ""))
			if command == "" {
				return "", fmt.Errorf("command cannot be empty")
			}
			if err := checkCommand(command); err != nil {
				logging.Tools("blocked command: %s", command)
				return "", err
			}

			ctx, cancel := context.WithTimeout(ctx, commandTimeout)
			defer cancel()

			var cmd *exec.Cmd
			if runtime.GOOS == "windows" {
				cmd = exec.CommandContext(ctx, "cmd", "/C", command)
			} else {
				cmd = exec.CommandContext(ctx, "sh", "-c", command)
			}

			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out

			err := cmd.Run()
			output := strings.TrimSpace(out.String())

			if ctx.Err() == context.DeadlineExceeded {
				return "", fmt.Errorf("command timed out after %s", commandTimeout)
			}
			if err != nil {
				if output == "" {
					return "", fmt.Errorf("command failed: %w", err)
				}
				return fmt.Sprintf("Command failed (%v):\n%s", err, output), nil
			}
			if output == "" {
				return "(No output)", nil
			}
			return output, nil
		},
	}
}
