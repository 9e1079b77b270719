package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"spaceblack/internal/tools"
)

// maxReadBytes caps file reads so a stray binary cannot flood the
// model's context.
const maxReadBytes = 100 * 1024

// ReadFileTool returns the file reading tool.
func ReadFileTool() *tools.Tool {
	return &tools.Tool{
		Name:        "read_file",
		Description: "Read a text file and return its contents.",
		Category:    tools.CategorySystem,
		Schema: tools.ToolSchema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path": {
					Type:        "string",
					Description: "Path to the file",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path := expandHome(tools.StringArg(args, "path", ""))
			data, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("read %s: %w", path, err)
			}
			if len(data) > maxReadBytes {
				cut := maxReadBytes
				// Back off to a rune boundary; a split UTF-8 sequence
				// would feed the model invalid text.
				for cut > 0 && !utf8.RuneStart(data[cut]) {
					cut--
				}
				return string(data[:cut]) + "\n... (truncated)", nil
			}
			return string(data), nil
		},
	}
}

// WriteFileTool returns the file writing tool.
func WriteFileTool() *tools.Tool {
	return &tools.Tool{
		Name:        "write_file",
		Description: "Write content to a file, creating parent directories as needed. Overwrites existing files.",
		Category:    tools.CategorySystem,
		Schema: tools.ToolSchema{
			Required: []string{"path", "content"},
			Properties: map[string]tools.Property{
				"path": {
					Type:        "string",
					Description: "Path to the file",
				},
				"content": {
					Type:        "string",
					Description: "Content to write",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path := expandHome(tools.StringArg(args, "path", ""))
			content := tools.StringArg(args, "content", "")

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return "", fmt.Errorf("create directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return "", fmt.Errorf("write %s: %w", path, err)
			}
			return fmt.Sprintf("Wrote %d bytes to %s.", len(content), path), nil
		},
	}
}

// ListDirectoryTool returns the directory listing tool.
func ListDirectoryTool() *tools.Tool {
	return &tools.Tool{
		Name:        "list_directory",
		Description: "List the entries of a directory. Directories are suffixed with a slash.",
		Category:    tools.CategorySystem,
		Schema: tools.ToolSchema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path": {
					Type:        "string",
					Description: "Path to the directory",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path := expandHome(tools.StringArg(args, "path", ""))
			if path == "" {
				path = "."
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return "", fmt.Errorf("list %s: %w", path, err)
			}
			if len(entries) == 0 {
				return "(empty directory)", nil
			}

			names := make([]string, 0, len(entries))
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			sort.Strings(names)
			return strings.Join(names, "\n"), nil
		},
	}
}

// expandHome resolves a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
