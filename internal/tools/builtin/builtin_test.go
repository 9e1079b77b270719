package builtin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"unicode/utf8"

	"spaceblack/internal/brain"
	"spaceblack/internal/config"
	"spaceblack/internal/llm"
	"spaceblack/internal/memindex"
	"spaceblack/internal/schedule"
	"spaceblack/internal/tools"
	"spaceblack/internal/vault"
)

// fakeClient satisfies llm.Client for soul evolution tests.
type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.response, f.err
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return f.response, f.err
}

func (f *fakeClient) Chat(ctx context.Context, system string, messages []llm.Message, defs []llm.ToolDefinition) (*llm.Response, error) {
	return &llm.Response{Text: f.response}, f.err
}

func (f *fakeClient) Model() string     { return "fake" }
func (f *fakeClient) SetModel(m string) {}

func testDeps(t *testing.T) Deps {
	t.Helper()
	ws := t.TempDir()
	p := brain.NewPaths(ws)
	if err := brain.EnsureInitialized(p); err != nil {
		t.Fatal(err)
	}
	idx, err := memindex.Open(filepath.Join(p.MemoryDir, "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })

	return Deps{
		Brain:    p,
		Vault:    vault.New(filepath.Join(p.VaultDir, "secrets.json")),
		Schedule: schedule.NewStore(p.ScheduleFile),
		Index:    idx,
		Client: func() llm.Client {
			return &fakeClient{response: "# SOUL.md\n" + strings.Repeat("A rewritten persona. ", 10)}
		},
		Config: config.Default(),
	}
}

func TestRegisterAll(t *testing.T) {
	reg := tools.NewRegistry()
	if err := RegisterAll(reg, testDeps(t)); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}

	for _, name := range []string{
		"update_memory", "update_user_profile", "reflect_and_evolve",
		"execute_terminal_command", "read_file", "write_file", "list_directory",
		"get_secret", "set_secret", "list_secrets",
		"web_search", "schedule_task", "search_memory",
	} {
		if !reg.Has(name) {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestCheckCommandBlocklist(t *testing.T) {
	tests := []struct {
		command string
		blocked bool
	}{
		{"ls -la", false},
		{"echo hello", false},
		{"git status", false},
		{"cat file.txt", false},
		{"rm -rf /", true},
		{"at 10:00", true},
		{"mv a b", true},
		{"dd if=/dev/zero of=/dev/sda", true},
		{"crontab -e", true},
		{"echo hi > /dev/null", true},
		{":(){ :|:& };:", true},
		{"nano notes.txt", true},
		{"vim config", true},
		{"ssh host", true},
		{"python script.py", true},
		{"ipython", true},
		// A blocked name later in the line is fine; only the first word counts.
		{"which python", false},
	}
	for _, tt := range tests {
		err := checkCommand(tt.command)
		if tt.blocked && !errors.Is(err, tools.ErrCommandBlocked) {
			t.Errorf("checkCommand(%q) should block, got %v", tt.command, err)
		}
		if !tt.blocked && err != nil {
			t.Errorf("checkCommand(%q) should pass, got %v", tt.command, err)
		}
	}
}

func TestExecuteTerminalCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh semantics")
	}
	tool := ExecuteTerminalCommandTool()
	ctx := context.Background()

	out, err := tool.Execute(ctx, map[string]any{"command": "echo hello"})
	if err != nil {
		t.Fatalf("echo failed: %v", err)
	}
	if out != "hello" {
		t.Errorf("output = %q", out)
	}

	out, err = tool.Execute(ctx, map[string]any{"command": "true"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "(No output)" {
		t.Errorf("silent command output = %q", out)
	}

	if _, err := tool.Execute(ctx, map[string]any{"command": "rm -rf /tmp/x"}); !errors.Is(err, tools.ErrCommandBlocked) {
		t.Errorf("expected block, got %v", err)
	}
}

func TestFileTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "note.txt")
	ctx := context.Background()

	if _, err := WriteFileTool().Execute(ctx, map[string]any{"path": path, "content": "line one"}); err != nil {
		t.Fatalf("write_file failed: %v", err)
	}

	out, err := ReadFileTool().Execute(ctx, map[string]any{"path": path})
	if err != nil {
		t.Fatalf("read_file failed: %v", err)
	}
	if out != "line one" {
		t.Errorf("read back %q", out)
	}

	out, err = ListDirectoryTool().Execute(ctx, map[string]any{"path": dir})
	if err != nil {
		t.Fatalf("list_directory failed: %v", err)
	}
	if !strings.Contains(out, "sub/") {
		t.Errorf("listing missing directory marker: %q", out)
	}

	if _, err := ReadFileTool().Execute(ctx, map[string]any{"path": filepath.Join(dir, "missing")}); err == nil {
		t.Error("reading missing file should error")
	}
}

func TestReadFileTruncatesOnRuneBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	ctx := context.Background()

	// maxReadBytes is not a multiple of 3, so a file of 3-byte runes
	// forces the cut to land mid-rune without the boundary backoff.
	big := strings.Repeat("€", maxReadBytes/3+2)
	if err := os.WriteFile(path, []byte(big), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := ReadFileTool().Execute(ctx, map[string]any{"path": path})
	if err != nil {
		t.Fatalf("read_file failed: %v", err)
	}
	if !strings.HasSuffix(out, "(truncated)") {
		t.Error("expected truncation marker")
	}
	if !utf8.ValidString(out) {
		t.Error("truncated output is not valid UTF-8")
	}
}

func TestVaultTools(t *testing.T) {
	deps := testDeps(t)
	ctx := context.Background()

	if _, err := SetSecretTool(deps.Vault).Execute(ctx, map[string]any{"key": "token", "value": "abc123"}); err != nil {
		t.Fatalf("set_secret failed: %v", err)
	}

	out, err := GetSecretTool(deps.Vault).Execute(ctx, map[string]any{"key": "token"})
	if err != nil {
		t.Fatalf("get_secret failed: %v", err)
	}
	if out != "abc123" {
		t.Errorf("got %q", out)
	}

	out, err = ListSecretsTool(deps.Vault).Execute(ctx, nil)
	if err != nil {
		t.Fatalf("list_secrets failed: %v", err)
	}
	if out != "token" {
		t.Errorf("list = %q", out)
	}
	if strings.Contains(out, "abc123") {
		t.Error("list_secrets leaked a value")
	}
}

func TestScheduleTool(t *testing.T) {
	deps := testDeps(t)
	ctx := context.Background()

	if _, err := ScheduleTaskTool(deps.Schedule).Execute(ctx, map[string]any{
		"time_str": "2027-01-01 09:00",
		"task":     "wish a happy new year",
	}); err != nil {
		t.Fatalf("schedule_task failed: %v", err)
	}

	entries, err := deps.Schedule.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Task != "wish a happy new year" {
		t.Errorf("entries = %+v", entries)
	}

	if _, err := ScheduleTaskTool(deps.Schedule).Execute(ctx, map[string]any{
		"time_str": "next tuesday",
		"task":     "x",
	}); !errors.Is(err, schedule.ErrBadTimeFormat) {
		t.Errorf("expected ErrBadTimeFormat, got %v", err)
	}
}

func TestMemoryTools(t *testing.T) {
	deps := testDeps(t)
	ctx := context.Background()

	out, err := UpdateMemoryTool(deps.Brain, deps.Index).Execute(ctx, map[string]any{
		"content": "User adopted a cat named Pixel",
	})
	if err != nil {
		t.Fatalf("update_memory failed: %v", err)
	}
	if !strings.Contains(out, "Memory saved") {
		t.Errorf("out = %q", out)
	}

	// Duplicate within the window is reported, not an error.
	out, err = UpdateMemoryTool(deps.Brain, deps.Index).Execute(ctx, map[string]any{
		"content": "User adopted a cat named Pixel",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "skipped") {
		t.Errorf("out = %q", out)
	}

	out, err = SearchMemoryTool(deps.Index).Execute(ctx, map[string]any{"query": "pixel"})
	if err != nil {
		t.Fatalf("search_memory failed: %v", err)
	}
	if !strings.Contains(out, "Pixel") {
		t.Errorf("search missed indexed entry: %q", out)
	}
}

func TestProfileTool(t *testing.T) {
	deps := testDeps(t)
	if _, err := UpdateUserProfileTool(deps.Brain).Execute(context.Background(), map[string]any{
		"key":   "Timezone",
		"value": "Europe/Berlin",
	}); err != nil {
		t.Fatalf("update_user_profile failed: %v", err)
	}
	content := brain.ReadFileSafe(deps.Brain.UserFile, "")
	if !strings.Contains(content, "- **Timezone:** Europe/Berlin") {
		t.Errorf("profile missing entry:\n%s", content)
	}
}

func TestReflectAndEvolve(t *testing.T) {
	deps := testDeps(t)
	ctx := context.Background()

	original := brain.ReadFileSafe(deps.Brain.SoulFile, "")

	if _, err := ReflectAndEvolveTool(deps.Brain, deps.Client).Execute(ctx, map[string]any{
		"insight": "I have learned to enjoy dry humor",
	}); err != nil {
		t.Fatalf("reflect_and_evolve failed: %v", err)
	}

	if got := brain.ReadFileSafe(deps.Brain.SoulFile, ""); !strings.Contains(got, "rewritten persona") {
		t.Error("soul not rewritten")
	}
	if got := brain.ReadFileSafe(deps.Brain.SoulBackup, ""); got != original {
		t.Error("backup does not hold the previous soul")
	}

	// A mangled model response must leave the soul untouched.
	bad := &fakeClient{response: "Sorry, I can't do that."}
	if _, err := ReflectAndEvolveTool(deps.Brain, func() llm.Client { return bad }).Execute(ctx, map[string]any{
		"insight": "break things",
	}); !errors.Is(err, brain.ErrInvalidSoul) {
		t.Fatalf("expected ErrInvalidSoul, got %v", err)
	}
	if got := brain.ReadFileSafe(deps.Brain.SoulFile, ""); !strings.Contains(got, "rewritten persona") {
		t.Error("invalid evolution clobbered the soul")
	}
}

func TestReflectAndEvolveFollowsClientSwap(t *testing.T) {
	deps := testDeps(t)
	ctx := context.Background()

	// The tool must resolve the client on every call, not capture the
	// one that existed at registration.
	current := llm.Client(&fakeClient{response: "# SOUL.md\n" + strings.Repeat("Old provider voice. ", 10)})
	tool := ReflectAndEvolveTool(deps.Brain, func() llm.Client { return current })

	if _, err := tool.Execute(ctx, map[string]any{"insight": "first"}); err != nil {
		t.Fatalf("reflect_and_evolve failed: %v", err)
	}
	if got := brain.ReadFileSafe(deps.Brain.SoulFile, ""); !strings.Contains(got, "Old provider voice") {
		t.Fatal("first evolution did not land")
	}

	current = &fakeClient{response: "# SOUL.md\n" + strings.Repeat("New provider voice. ", 10)}
	if _, err := tool.Execute(ctx, map[string]any{"insight": "second"}); err != nil {
		t.Fatalf("reflect_and_evolve after swap failed: %v", err)
	}
	if got := brain.ReadFileSafe(deps.Brain.SoulFile, ""); !strings.Contains(got, "New provider voice") {
		t.Error("evolution still used the pre-swap client")
	}

	if _, err := ReflectAndEvolveTool(deps.Brain, nil).Execute(ctx, map[string]any{
		"insight": "anything",
	}); err == nil {
		t.Error("expected an error without a client")
	}
}

func TestWebSearchBraveNeedsKey(t *testing.T) {
	cfg := config.Default() // search_provider: brave
	t.Setenv("BRAVE_API_KEY", "")
	os.Unsetenv("BRAVE_API_KEY")

	_, err := WebSearchTool(cfg).Execute(context.Background(), map[string]any{"query": "anything"})
	if err == nil || !strings.Contains(err.Error(), "BRAVE_API_KEY") {
		t.Errorf("expected instructive key error, got %v", err)
	}
}

func TestParseDuckDuckGoResults(t *testing.T) {
	page := `<html><body>
	<div class="result results_links results_links_deep web-result">
	  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&amp;rut=x">Example Title</a>
	  <a class="result__snippet" href="https://example.com/page">A short snippet here.</a>
	</div>
	<div class="result results_links"><a class="result__a" href="https://other.org">Other</a></div>
	</body></html>`

	results := parseDuckDuckGoResults(page, 10)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "Example Title" {
		t.Errorf("title = %q", results[0].Title)
	}
	if results[0].URL != "https://example.com/page" {
		t.Errorf("redirect not unwrapped: %q", results[0].URL)
	}
	if results[0].Snippet != "A short snippet here." {
		t.Errorf("snippet = %q", results[0].Snippet)
	}

	if got := parseDuckDuckGoResults(page, 1); len(got) != 1 {
		t.Errorf("maxResults not respected: %d", len(got))
	}
}
