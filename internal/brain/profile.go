package brain

import (
	"fmt"
	"os"
	"strings"
)

// UpdateUserProfile sets a `- **Key:** value` line in USER.md, replacing
// the existing line for the key or appending a new one. Keys are matched
// on the bold marker so prose mentioning the key is left alone.
func UpdateUserProfile(p Paths, key, value string) error {
	current := ReadFileSafe(p.UserFile, "")
	lines := strings.Split(current, "\n")

	marker := fmt.Sprintf("**%s:**", key)
	replacement := fmt.Sprintf("- **%s:** %s", key, value)

	found := false
	out := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		if strings.Contains(line, marker) {
			out = append(out, replacement)
			found = true
			continue
		}
		out = append(out, line)
	}
	if !found {
		out = append(out, replacement)
	}

	if err := os.WriteFile(p.UserFile, []byte(strings.Join(out, "\n")), 0o644); err != nil {
		return fmt.Errorf("write user profile: %w", err)
	}
	return nil
}
