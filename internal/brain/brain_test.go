package brain

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func initBrain(t *testing.T) Paths {
	t.Helper()
	p := NewPaths(t.TempDir())
	if err := EnsureInitialized(p); err != nil {
		t.Fatalf("EnsureInitialized failed: %v", err)
	}
	return p
}

func TestEnsureInitializedSeedsFiles(t *testing.T) {
	p := initBrain(t)

	for _, path := range []string{
		p.AgentsFile, p.IdentityFile, p.SoulFile, p.UserFile,
		p.ToolsFile, p.HeartbeatFile, p.ScheduleFile,
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s not created: %v", filepath.Base(path), err)
		}
	}
	if got := ReadFileSafe(p.ScheduleFile, ""); got != "[]" {
		t.Errorf("SCHEDULE.json seeded with %q, want []", got)
	}
}

func TestEnsureInitializedIdempotent(t *testing.T) {
	p := initBrain(t)

	custom := "# SOUL.md\nMy customized persona, long since evolved."
	if err := os.WriteFile(p.SoulFile, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := EnsureInitialized(p); err != nil {
		t.Fatalf("second EnsureInitialized failed: %v", err)
	}
	if got := ReadFileSafe(p.SoulFile, ""); got != custom {
		t.Error("existing SOUL.md was overwritten on re-init")
	}
}

func TestReadFileSafeFallback(t *testing.T) {
	if got := ReadFileSafe("/nonexistent/path", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
}

func TestAppendMemoryAndDedup(t *testing.T) {
	p := initBrain(t)
	now := time.Date(2026, 8, 31, 9, 30, 0, 0, time.Local)

	name, wrote, err := AppendMemory(p, now, "User likes green tea")
	if err != nil {
		t.Fatalf("AppendMemory failed: %v", err)
	}
	if !wrote {
		t.Error("first append should write")
	}
	if name != "2026-08-31.md" {
		t.Errorf("file name = %s", name)
	}

	// Same content within the tail window is suppressed.
	_, wrote, err = AppendMemory(p, now.Add(time.Minute), "User likes green tea")
	if err != nil {
		t.Fatal(err)
	}
	if wrote {
		t.Error("duplicate append should be suppressed")
	}

	data, err := os.ReadFile(MemoryFilePath(p, now))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "[09:30:00] User likes green tea\n" {
		t.Errorf("log content = %q", got)
	}
}

func TestAppendMemoryDedupWindowIsThreeLines(t *testing.T) {
	p := initBrain(t)
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.Local)

	entries := []string{"first", "second", "third", "fourth"}
	for i, e := range entries {
		if _, _, err := AppendMemory(p, now.Add(time.Duration(i)*time.Minute), e); err != nil {
			t.Fatal(err)
		}
	}

	// "first" has scrolled out of the 3-line window, so it writes again.
	_, wrote, err := AppendMemory(p, now.Add(time.Hour), "first")
	if err != nil {
		t.Fatal(err)
	}
	if !wrote {
		t.Error("entry outside the dedup window should write")
	}
}

func TestCleanMemoryFile(t *testing.T) {
	p := initBrain(t)
	path := MemoryFilePath(p, time.Now())
	content := strings.Join([]string{
		"[09:00:00] checked the weather",
		"[09:01:00] checked the weather",
		"[09:02:00] something else",
		"[09:03:00] checked the weather",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	dropped, err := CleanMemoryFile(path)
	if err != nil {
		t.Fatalf("CleanMemoryFile failed: %v", err)
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("got %d lines, want 3: %q", len(lines), lines)
	}
}

func TestUpdateUserProfile(t *testing.T) {
	p := initBrain(t)

	if err := UpdateUserProfile(p, "Name", "Alex"); err != nil {
		t.Fatalf("UpdateUserProfile failed: %v", err)
	}
	content := ReadFileSafe(p.UserFile, "")
	if !strings.Contains(content, "- **Name:** Alex") {
		t.Errorf("profile missing entry: %s", content)
	}

	// Replacing updates in place instead of appending.
	if err := UpdateUserProfile(p, "Name", "Sam"); err != nil {
		t.Fatal(err)
	}
	content = ReadFileSafe(p.UserFile, "")
	if strings.Contains(content, "Alex") {
		t.Error("old value survived replacement")
	}
	if strings.Count(content, "**Name:**") != 1 {
		t.Errorf("expected exactly one Name line:\n%s", content)
	}
}

func TestSoulValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", "# SOUL.md\n" + strings.Repeat("A grounded persona. ", 10), false},
		{"too short", "# SOUL.md\nhi", true},
		{"missing header", strings.Repeat("Sure, here is your new soul file! ", 10), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSoul(tt.content)
			if tt.wantErr && !errors.Is(err, ErrInvalidSoul) {
				t.Errorf("expected ErrInvalidSoul, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSoulBackupAndWrite(t *testing.T) {
	p := initBrain(t)
	original := ReadFileSafe(p.SoulFile, "")

	if err := BackupSoul(p); err != nil {
		t.Fatalf("BackupSoul failed: %v", err)
	}
	if got := ReadFileSafe(p.SoulBackup, ""); got != original {
		t.Error("backup does not match original")
	}

	evolved := "# SOUL.md\n" + strings.Repeat("An evolved persona with new depth. ", 5)
	if err := WriteSoul(p, evolved); err != nil {
		t.Fatalf("WriteSoul failed: %v", err)
	}
	if got := ReadFileSafe(p.SoulFile, ""); !strings.Contains(got, "evolved persona") {
		t.Error("soul not updated")
	}

	// Invalid content must not land.
	if err := WriteSoul(p, "oops"); !errors.Is(err, ErrInvalidSoul) {
		t.Fatalf("expected ErrInvalidSoul, got %v", err)
	}
	if got := ReadFileSafe(p.SoulFile, ""); !strings.Contains(got, "evolved persona") {
		t.Error("invalid write clobbered the soul")
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	p := initBrain(t)
	prompt := BuildSystemPrompt(p)

	for _, section := range []string{"[SYSTEM CONTEXT]", "[INSTRUCTIONS]", "[IDENTITY]", "[SOUL]", "[USER]"} {
		if !strings.Contains(prompt, section) {
			t.Errorf("prompt missing %s section", section)
		}
	}
}
