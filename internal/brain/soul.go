package brain

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalidSoul is returned when a rewritten persona fails validation.
// The previous SOUL.md stays in place; a model that mangles its own
// persona must not be allowed to brick itself.
var ErrInvalidSoul = errors.New("invalid soul content")

// minSoulLength guards against the model returning an apology or a
// fragment instead of the full file.
const minSoulLength = 100

// ValidateSoul checks that rewritten persona content is plausible:
// substantial, and still carrying the file header the prompt demands.
func ValidateSoul(content string) error {
	if len(content) < minSoulLength {
		return fmt.Errorf("%w: too short (%d bytes)", ErrInvalidSoul, len(content))
	}
	if !strings.Contains(content, "# SOUL.md") {
		return fmt.Errorf("%w: missing # SOUL.md header", ErrInvalidSoul)
	}
	return nil
}

// BackupSoul copies the current SOUL.md to soul.bak before a rewrite.
func BackupSoul(p Paths) error {
	data, err := os.ReadFile(p.SoulFile)
	if err != nil {
		return fmt.Errorf("read soul: %w", err)
	}
	if err := os.WriteFile(p.SoulBackup, data, 0o644); err != nil {
		return fmt.Errorf("backup soul: %w", err)
	}
	return nil
}

// WriteSoul validates and installs a rewritten persona.
func WriteSoul(p Paths, content string) error {
	if err := ValidateSoul(content); err != nil {
		return err
	}
	if err := os.WriteFile(p.SoulFile, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write soul: %w", err)
	}
	return nil
}

// SoulMergePrompt is the instruction given to the model when folding a
// new insight into the persona.
func SoulMergePrompt(currentSoul, insight string) string {
	return fmt.Sprintf(`You are an AI personality architect.
Current Persona: %q
New Insight/Trait to Integrate: %q

Task: Rewrite the ENTIRE `+"`SOUL.md`"+` file to incorporate the new insight naturally.

CRITICAL RULES:
1. Output ONLY the new file content.
2. Do NOT add conversational filler (e.g. "Here is the new file").
3. The file MUST start with "# SOUL.md".
4. Keep the original structure (Core Truths, Boundaries, Vibe).`, currentSoul, insight)
}
