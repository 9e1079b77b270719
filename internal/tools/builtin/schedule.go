package builtin

import (
	"context"
	"fmt"

	"spaceblack/internal/schedule"
	"spaceblack/internal/tools"
)

// ScheduleTaskTool returns the task scheduling tool. Entries are picked
// up by the daemon on its next tick.
func ScheduleTaskTool(store *schedule.Store) *tools.Tool {
	return &tools.Tool{
		Name:        "schedule_task",
		Description: "Schedule a one-shot task for a future time. The background daemon executes it when the time arrives.",
		Category:    tools.CategorySchedule,
		Schema: tools.ToolSchema{
			Required: []string{"time_str", "task"},
			Properties: map[string]tools.Property{
				"time_str": {
					Type:        "string",
					Description: "When to run, formatted as YYYY-MM-DD HH:MM (24h, local time)",
				},
				"task": {
					Type:        "string",
					Description: "What to do, phrased as an instruction to yourself",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			timeStr := tools.StringArg(args, "time_str", "")
			task := tools.StringArg(args, "task", "")
			if err := store.Add(timeStr, task); err != nil {
				return "", err
			}
			return fmt.Sprintf("Task scheduled for %s: %s", timeStr, task), nil
		},
	}
}
