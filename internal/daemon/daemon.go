// Package daemon runs the agent headless: a ticker fires scheduled
// tasks and heartbeats while a file watcher picks up external schedule
// edits.
package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spaceblack/internal/agent"
	"spaceblack/internal/brain"
	"spaceblack/internal/schedule"
)

// tickInterval is how often the daemon checks for due work. The
// schedule granularity is one minute, so checking faster buys nothing.
const tickInterval = time.Minute

// taskTimeout bounds one scheduled task run through the agent.
const taskTimeout = 5 * time.Minute

// cleanInterval is how often the daily memory logs get deduplicated.
const cleanInterval = 24 * time.Hour

// Daemon wires the agent, the schedule store and its watcher together.
type Daemon struct {
	agent    *agent.Agent
	store    *schedule.Store
	watcher  *schedule.Watcher
	log      *zap.Logger
	paths    brain.Paths
	plainLog *os.File // human-readable tee under brain/

	lastClean time.Time

	// Notify receives heartbeat alerts and task results. Optional; a
	// nil channel means log-only.
	Notify chan<- string
}

// New builds a daemon. workspace locates brain/daemon.log for the
// plain-text tee.
func New(ag *agent.Agent, store *schedule.Store, watcher *schedule.Watcher, log *zap.Logger, workspace string) (*Daemon, error) {
	plainPath := filepath.Join(workspace, "brain", "daemon.log")
	plainLog, err := os.OpenFile(plainPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open daemon log: %w", err)
	}
	return &Daemon{
		agent:    ag,
		store:    store,
		watcher:  watcher,
		log:      log,
		paths:    brain.NewPaths(workspace),
		plainLog: plainLog,
	}, nil
}

// Run blocks until the context is cancelled. The watcher goroutine and
// the tick loop share an errgroup so a failure in one stops both.
func (d *Daemon) Run(ctx context.Context) error {
	d.logf("daemon started")
	defer d.logf("daemon stopped")
	defer d.plainLog.Close()

	group, ctx := errgroup.WithContext(ctx)

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			d.log.Warn("schedule watcher unavailable", zap.Error(err))
		} else {
			group.Go(func() error {
				defer d.watcher.Stop()
				<-ctx.Done()
				return nil
			})
		}
	}

	group.Go(func() error {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		// First pass immediately so a restart does not sit on overdue
		// tasks for a minute.
		d.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-d.changed():
				d.logf("schedule file changed, rechecking")
				d.tick(ctx)
			case <-ticker.C:
				d.tick(ctx)
			}
		}
	})

	return group.Wait()
}

// changed returns the watcher channel, or a nil channel (blocks
// forever) when no watcher is attached.
func (d *Daemon) changed() <-chan struct{} {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Changed()
}

// tick pops and runs due tasks, then gives the heartbeat a chance.
func (d *Daemon) tick(ctx context.Context) {
	due, err := d.store.PopDue(time.Now())
	if err != nil {
		d.log.Error("schedule check failed", zap.Error(err))
	}
	for _, entry := range due {
		d.runTask(ctx, entry)
	}

	alert, err := d.agent.Heartbeat(ctx, false)
	if err != nil {
		d.log.Error("heartbeat failed", zap.Error(err))
		return
	}
	if alert != "" {
		d.logf("heartbeat alert: %s", alert)
		d.notify("[Heartbeat] " + alert)
	}

	d.maybeCleanMemory()
}

// maybeCleanMemory dedups the daily logs at most once per day.
func (d *Daemon) maybeCleanMemory() {
	if time.Since(d.lastClean) < cleanInterval {
		return
	}
	d.lastClean = time.Now()
	dropped, err := brain.CleanAllMemory(d.paths)
	if err != nil {
		d.log.Warn("memory cleanup failed", zap.Error(err))
		return
	}
	if dropped > 0 {
		d.logf("memory cleanup dropped %d duplicate entries", dropped)
	}
}

func (d *Daemon) runTask(ctx context.Context, entry schedule.Entry) {
	d.logf("running scheduled task: %s", entry.Task)
	d.log.Info("running scheduled task",
		zap.String("time", entry.Time),
		zap.String("task", entry.Task))

	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	prompt := fmt.Sprintf("[SCHEDULED TASK - %s]\nExecute this task now: %s", entry.Time, entry.Task)
	result, err := d.agent.Process(taskCtx, prompt)
	if err != nil {
		d.log.Error("scheduled task failed", zap.String("task", entry.Task), zap.Error(err))
		d.logf("task failed: %s: %v", entry.Task, err)
		d.notify(fmt.Sprintf("[Task failed] %s: %v", entry.Task, err))
		return
	}
	d.logf("task done: %s", entry.Task)
	d.notify(fmt.Sprintf("[Task done] %s\n%s", entry.Task, result))
}

func (d *Daemon) notify(message string) {
	if d.Notify == nil {
		return
	}
	select {
	case d.Notify <- message:
	default:
		// A stalled consumer must not wedge the tick loop.
	}
}

// logf writes a timestamped line to the human-readable daemon log.
func (d *Daemon) logf(format string, args ...any) {
	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
	_, _ = d.plainLog.WriteString(line)
}
