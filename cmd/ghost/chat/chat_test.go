package chat

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spaceblack/internal/brain"
	"spaceblack/internal/config"
	"spaceblack/internal/schedule"
)

func testModel(t *testing.T) Model {
	t.Helper()
	workspace := t.TempDir()
	paths := brain.NewPaths(workspace)
	if err := brain.EnsureInitialized(paths); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	return NewModel(Options{
		Workspace: workspace,
		Config:    cfg,
		Paths:     paths,
		Schedule:  schedule.NewStore(paths.ScheduleFile),
	})
}

func lastMessage(t *testing.T, m Model) Message {
	t.Helper()
	if len(m.history) == 0 {
		t.Fatal("empty history")
	}
	return m.history[len(m.history)-1]
}

func TestRunCommandHelp(t *testing.T) {
	m := testModel(t)
	next, _ := m.runCommand("/help")
	got := lastMessage(t, next.(Model))
	if got.Role != "system" || !strings.Contains(got.Content, "/schedule") {
		t.Fatalf("unexpected help output: %+v", got)
	}
}

func TestRunCommandUnknown(t *testing.T) {
	m := testModel(t)
	next, _ := m.runCommand("/frobnicate now")
	got := lastMessage(t, next.(Model))
	if !strings.Contains(got.Content, "Unknown command /frobnicate") {
		t.Fatalf("unexpected output: %q", got.Content)
	}
}

func TestRunCommandSoul(t *testing.T) {
	m := testModel(t)
	if err := os.WriteFile(m.opts.Paths.SoulFile, []byte("I am the ghost."), 0o644); err != nil {
		t.Fatal(err)
	}
	next, _ := m.runCommand("/soul")
	got := lastMessage(t, next.(Model))
	if got.Role != "assistant" || got.Content != "I am the ghost." {
		t.Fatalf("unexpected soul output: %+v", got)
	}
}

func TestScheduleListing(t *testing.T) {
	m := testModel(t)
	if got := m.scheduleListing(); got != "No scheduled tasks." {
		t.Fatalf("empty schedule: %q", got)
	}
	if err := m.opts.Schedule.Add("2099-01-02 15:04", "water the plants"); err != nil {
		t.Fatal(err)
	}
	got := m.scheduleListing()
	if !strings.Contains(got, "2099-01-02 15:04") || !strings.Contains(got, "water the plants") {
		t.Fatalf("unexpected listing: %q", got)
	}
}

func TestTodaysMemoryEmpty(t *testing.T) {
	m := testModel(t)
	if got := m.todaysMemory(); !strings.Contains(got, "No memory entries") {
		t.Fatalf("unexpected memory output: %q", got)
	}
}

func TestConfigCommandStartsWizard(t *testing.T) {
	m := testModel(t)
	next, _ := m.runCommand("/config")
	model := next.(Model)
	if model.wizard == nil {
		t.Fatal("wizard not started")
	}
	got := lastMessage(t, model)
	if !strings.Contains(got.Content, "Pick a provider") {
		t.Fatalf("unexpected wizard prompt: %q", got.Content)
	}
}

func TestWizardCancel(t *testing.T) {
	m := testModel(t)
	m.wizard = newConfigWizard(m.opts.Config)
	next, _ := m.updateWizard("cancel")
	model := next.(Model)
	if model.wizard != nil {
		t.Fatal("wizard still active after cancel")
	}
}

func TestWizardStepFlow(t *testing.T) {
	cfg := config.Default()
	w := newConfigWizard(cfg)

	next, done, err := w.handle("ollama")
	if err != nil || done {
		t.Fatalf("provider step: next=%q done=%v err=%v", next, done, err)
	}
	// Ollama has no API key, so the wizard jumps straight to models.
	if w.step != stepModel {
		t.Fatalf("expected model step, got %d", w.step)
	}

	if _, done, err = w.handle(""); err != nil || done {
		t.Fatalf("model step: done=%v err=%v", done, err)
	}
	if w.model != config.DefaultModel("ollama") {
		t.Fatalf("expected default model, got %q", w.model)
	}

	if _, done, err = w.handle("brave"); err != nil || !done {
		t.Fatalf("search step: done=%v err=%v", done, err)
	}
	if cfg.SearchProvider != "brave" {
		t.Fatalf("search provider not applied: %q", cfg.SearchProvider)
	}
}

func TestWizardRejectsBadInput(t *testing.T) {
	w := newConfigWizard(config.Default())
	if _, _, err := w.handle("not-a-provider"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if w.step != stepProvider {
		t.Fatal("step advanced despite error")
	}
}

func TestResolveProviderChoice(t *testing.T) {
	providers := config.Providers()
	if got := resolveProviderChoice("1"); got != providers[0].ID {
		t.Fatalf("index choice: %q", got)
	}
	if got := resolveProviderChoice("anthropic"); got != "anthropic" {
		t.Fatalf("name choice: %q", got)
	}
	if got := resolveProviderChoice("99"); got != "" {
		t.Fatalf("out of range should be empty, got %q", got)
	}
}

func TestResolveModelChoice(t *testing.T) {
	models := config.ChatModels("anthropic")
	if got := resolveModelChoice("anthropic", "2"); got != models[1] {
		t.Fatalf("index choice: %q", got)
	}
	if got := resolveModelChoice("anthropic", "my-custom-model"); got != "my-custom-model" {
		t.Fatalf("literal choice: %q", got)
	}
	if got := resolveModelChoice("anthropic", ""); got != config.DefaultModel("anthropic") {
		t.Fatalf("default choice: %q", got)
	}
}

func TestStylesForTheme(t *testing.T) {
	if !stylesFor("dark").Theme.IsDark {
		t.Fatal("dark theme should be dark")
	}
	if stylesFor("light").Theme.IsDark {
		t.Fatal("light theme should be light")
	}
	if !stylesFor("").Theme.IsDark {
		t.Fatal("unknown theme should fall back to dark")
	}
}

func TestOnboardingWithLocalProvider(t *testing.T) {
	workspace := t.TempDir()
	// Pick ollama by name, accept the default model, skip Brave.
	in := strings.NewReader("ollama\n\n\n")
	var out bytes.Buffer

	err := runOnboarding(workspace, in, &out, func(providerID, model string) error {
		t.Fatal("local provider should not be verified")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(config.Path(workspace))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "ollama" {
		t.Fatalf("provider = %q", cfg.Provider)
	}
	if cfg.Model != config.DefaultModel("ollama") {
		t.Fatalf("model = %q", cfg.Model)
	}
	if cfg.SearchProvider != "duckduckgo" {
		t.Fatalf("search = %q", cfg.SearchProvider)
	}
	if _, err := os.Stat(filepath.Join(workspace, "brain", "SOUL.md")); err != nil {
		t.Fatalf("brain not initialized: %v", err)
	}
}

func TestOnboardingVerifiesKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	workspace := t.TempDir()
	in := strings.NewReader("anthropic\nsk-test\n\nbrave-key\n")
	var out bytes.Buffer

	verified := false
	err := runOnboarding(workspace, in, &out, func(providerID, model string) error {
		verified = true
		if providerID != "anthropic" {
			t.Fatalf("provider = %q", providerID)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !verified {
		t.Fatal("key was never verified")
	}

	env, err := os.ReadFile(config.EnvPath(workspace))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(env), "ANTHROPIC_API_KEY=sk-test") {
		t.Fatalf(".env missing key: %q", env)
	}
	if !strings.Contains(string(env), "BRAVE_API_KEY=brave-key") {
		t.Fatalf(".env missing Brave key: %q", env)
	}
	cfg, err := config.Load(config.Path(workspace))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SearchProvider != "brave" {
		t.Fatalf("search = %q", cfg.SearchProvider)
	}
}

func TestOnboardingFailedVerificationAborts(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	workspace := t.TempDir()
	// Key fails verification, user declines to continue.
	in := strings.NewReader("anthropic\nsk-bad\n\nn\n")
	var out bytes.Buffer

	err := runOnboarding(workspace, in, &out, func(providerID, model string) error {
		return errors.New("401 unauthorized")
	})
	if err == nil {
		t.Fatal("expected onboarding to abort")
	}
	if config.Exists(workspace) {
		t.Fatal("config should not be written after abort")
	}
}

func TestOnboardingFailedVerificationCanContinue(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	workspace := t.TempDir()
	in := strings.NewReader("anthropic\nsk-new\n\ny\n\n")
	var out bytes.Buffer

	err := runOnboarding(workspace, in, &out, func(providerID, model string) error {
		return errors.New("key not yet active")
	})
	if err != nil {
		t.Fatal(err)
	}
	if !config.Exists(workspace) {
		t.Fatal("config should exist after continuing")
	}
}
