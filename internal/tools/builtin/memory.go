package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spaceblack/internal/brain"
	"spaceblack/internal/logging"
	"spaceblack/internal/memindex"
	"spaceblack/internal/tools"
)

// UpdateMemoryTool returns the tool that appends to the daily log.
// When an index is provided, new entries are indexed as they land.
func UpdateMemoryTool(p brain.Paths, index *memindex.Index) *tools.Tool {
	return &tools.Tool{
		Name:        "update_memory",
		Description: "Save an important fact, event, or observation to today's memory log. Use this whenever you learn something worth remembering.",
		Category:    tools.CategoryMemory,
		Schema: tools.ToolSchema{
			Required: []string{"content"},
			Properties: map[string]tools.Property{
				"content": {
					Type:        "string",
					Description: "The fact or event to record, one concise sentence",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			content := strings.TrimSpace(tools.StringArg(args, "content", ""))
			if content == "" {
				return "", fmt.Errorf("content cannot be empty")
			}

			now := time.Now()
			name, wrote, err := brain.AppendMemory(p, now, content)
			if err != nil {
				return "", err
			}
			if !wrote {
				return fmt.Sprintf("Already logged recently in %s, skipped.", name), nil
			}

			if index != nil {
				day := now.Format("2006-01-02")
				if err := index.Add(ctx, day, now.Format("15:04:05"), content); err != nil {
					logging.Memory("index add failed: %v", err)
				}
			}
			return fmt.Sprintf("Memory saved to %s.", name), nil
		},
	}
}

// SearchMemoryTool returns the tool that queries the memory index.
func SearchMemoryTool(index *memindex.Index) *tools.Tool {
	return &tools.Tool{
		Name:        "search_memory",
		Description: "Search past daily memory logs by keyword. Returns matching entries, most recent first.",
		Category:    tools.CategoryMemory,
		Schema: tools.ToolSchema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query": {
					Type:        "string",
					Description: "Keywords to search for",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum results (default 10)",
					Default:     10,
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			query := tools.StringArg(args, "query", "")
			limit := tools.IntArg(args, "limit", 10)

			hits, err := index.Search(ctx, query, limit)
			if err != nil {
				return "", err
			}
			if len(hits) == 0 {
				return "No matching memories found.", nil
			}

			var sb strings.Builder
			for _, h := range hits {
				fmt.Fprintf(&sb, "%s %s — %s\n", h.Day, h.Stamp, h.Content)
			}
			return strings.TrimRight(sb.String(), "\n"), nil
		},
	}
}

// UpdateUserProfileTool returns the tool that edits USER.md facts.
func UpdateUserProfileTool(p brain.Paths) *tools.Tool {
	return &tools.Tool{
		Name:        "update_user_profile",
		Description: "Record or update a persistent fact about the user, such as their name, timezone, or preferences.",
		Category:    tools.CategoryMemory,
		Schema: tools.ToolSchema{
			Required: []string{"key", "value"},
			Properties: map[string]tools.Property{
				"key": {
					Type:        "string",
					Description: "Fact name, e.g. Name, Location, Preference",
				},
				"value": {
					Type:        "string",
					Description: "The fact's value",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			key := strings.TrimSpace(tools.StringArg(args, "key", ""))
			value := strings.TrimSpace(tools.StringArg(args, "value", ""))
			if key == "" || value == "" {
				return "", fmt.Errorf("key and value are both required")
			}
			if err := brain.UpdateUserProfile(p, key, value); err != nil {
				return "", err
			}
			return fmt.Sprintf("User profile updated: %s = %s", key, value), nil
		},
	}
}
