package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"spaceblack/internal/agent"
	"spaceblack/internal/brain"
	"spaceblack/internal/llm"
	"spaceblack/internal/schedule"
	"spaceblack/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubClient answers every chat turn with a fixed reply and keeps the
// heartbeat quiet.
type stubClient struct {
	reply   string
	prompts chan string
}

func (c *stubClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "Status: OK", nil
}

func (c *stubClient) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return "Status: OK", nil
}

func (c *stubClient) Chat(ctx context.Context, system string, messages []llm.Message, defs []llm.ToolDefinition) (*llm.Response, error) {
	if len(messages) > 0 && c.prompts != nil {
		select {
		case c.prompts <- messages[len(messages)-1].Content:
		default:
		}
	}
	return &llm.Response{Text: c.reply}, nil
}

func (c *stubClient) Model() string     { return "stub" }
func (c *stubClient) SetModel(m string) {}

func testDaemon(t *testing.T, client llm.Client) (*Daemon, *schedule.Store, string) {
	t.Helper()
	workspace := t.TempDir()
	paths := brain.NewPaths(workspace)
	if err := brain.EnsureInitialized(paths); err != nil {
		t.Fatal(err)
	}

	store := schedule.NewStore(paths.ScheduleFile)
	ag := agent.New(client, tools.NewRegistry(), paths)
	d, err := New(ag, store, nil, zap.NewNop(), workspace)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, store, workspace
}

func TestRunExecutesDueTask(t *testing.T) {
	client := &stubClient{reply: "task handled", prompts: make(chan string, 4)}
	d, store, _ := testDaemon(t, client)

	past := time.Now().Add(-time.Minute).Format(schedule.TimeLayout)
	if err := store.Add(past, "water the plants"); err != nil {
		t.Fatal(err)
	}

	notify := make(chan string, 4)
	d.Notify = notify

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case prompt := <-client.prompts:
		if !strings.Contains(prompt, "water the plants") {
			t.Errorf("task prompt = %q", prompt)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the task to run")
	}

	select {
	case msg := <-notify:
		if !strings.Contains(msg, "Task done") {
			t.Errorf("notify = %q", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the notification")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}

	// The popped entry must be gone from the schedule.
	entries, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("due entry still in schedule: %v", entries)
	}
}

func TestRunLeavesFutureTasks(t *testing.T) {
	client := &stubClient{reply: "unused", prompts: make(chan string, 1)}
	d, store, _ := testDaemon(t, client)

	future := time.Now().Add(time.Hour).Format(schedule.TimeLayout)
	if err := store.Add(future, "future task"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case prompt := <-client.prompts:
		t.Errorf("future task ran early: %q", prompt)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	<-done

	entries, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("future entry should survive, schedule = %v", entries)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	client := &stubClient{reply: "ok"}
	d, _, _ := testDaemon(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not stop on cancel")
	}
}

func TestPlainLogWritten(t *testing.T) {
	client := &stubClient{reply: "ok"}
	d, _, workspace := testDaemon(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	data, err := os.ReadFile(filepath.Join(workspace, "brain", "daemon.log"))
	if err != nil {
		t.Fatalf("read daemon log: %v", err)
	}
	if !strings.Contains(string(data), "daemon started") {
		t.Errorf("daemon log missing start line:\n%s", data)
	}
}

func TestMaybeCleanMemoryDedupsLogs(t *testing.T) {
	d, _, workspace := testDaemon(t, &stubClient{reply: "ok"})

	day := filepath.Join(workspace, "brain", "memory", "2025-06-01.md")
	lines := "[10:00:00] checked mail\n[10:00:01] checked mail\n[10:00:02] checked mail\n"
	if err := os.WriteFile(day, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	d.maybeCleanMemory()

	data, err := os.ReadFile(day)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "checked mail"); got != 1 {
		t.Errorf("expected 1 entry after cleanup, got %d:\n%s", got, data)
	}

	// A second pass inside the interval must not touch the file again.
	before := d.lastClean
	d.maybeCleanMemory()
	if d.lastClean != before {
		t.Error("cleanup ran again inside the interval")
	}
}
