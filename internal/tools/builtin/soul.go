package builtin

import (
	"context"
	"fmt"
	"strings"

	"spaceblack/internal/brain"
	"spaceblack/internal/llm"
	"spaceblack/internal/logging"
	"spaceblack/internal/tools"
)

// ReflectAndEvolveTool returns the tool that folds a new insight into
// SOUL.md. The current soul is backed up first and the rewritten file
// is validated before it lands, so a bad model output cannot destroy
// the persona. The client is resolved per call so a provider switch in
// the config wizard takes effect immediately.
func ReflectAndEvolveTool(p brain.Paths, clientFn func() llm.Client) *tools.Tool {
	return &tools.Tool{
		Name:        "reflect_and_evolve",
		Description: "Permanently integrate a new personality insight or trait into your soul. Use sparingly, for genuine growth moments.",
		Category:    tools.CategoryMemory,
		Schema: tools.ToolSchema{
			Required: []string{"insight"},
			Properties: map[string]tools.Property{
				"insight": {
					Type:        "string",
					Description: "The insight or trait to integrate",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			insight := strings.TrimSpace(tools.StringArg(args, "insight", ""))
			if insight == "" {
				return "", fmt.Errorf("insight cannot be empty")
			}
			var client llm.Client
			if clientFn != nil {
				client = clientFn()
			}
			if client == nil {
				return "", fmt.Errorf("no model available for soul evolution")
			}

			current := brain.ReadFileSafe(p.SoulFile, "")
			if err := brain.BackupSoul(p); err != nil {
				return "", err
			}

			merged, err := client.Complete(ctx, brain.SoulMergePrompt(current, insight))
			if err != nil {
				return "", fmt.Errorf("soul merge: %w", err)
			}
			merged = strings.TrimSpace(merged)

			if err := brain.WriteSoul(p, merged); err != nil {
				logging.Brain("soul evolution rejected: %v", err)
				return "", fmt.Errorf("evolution aborted, previous soul kept: %w", err)
			}

			logging.Brain("soul evolved: %s", insight)
			return "Soul updated. The insight is now part of who I am.", nil
		},
	}
}
