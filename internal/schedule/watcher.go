package schedule

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"spaceblack/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the schedule file and notifies when it changes, so
// the daemon reacts to external edits without waiting for the next
// tick. Rapid saves are debounced.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	debounceDur time.Duration
	pending     time.Time
	changed     chan struct{}
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for the given schedule file.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fsw,
		path:        path,
		debounceDur: 500 * time.Millisecond,
		changed:     make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Changed delivers one signal per settled burst of file changes.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Start begins watching. Non-blocking; events are processed in a
// goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	// Watch the directory: editors replace files on save, which drops
	// a watch on the file itself.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		// Not running: Stop must stay a no-op rather than wait for a
		// goroutine that never started.
		return err
	}
	logging.Daemon("schedule watcher: watching %s", dir)

	w.running = true
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for cleanup.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Daemon("schedule watcher: close error: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Daemon("schedule watcher: error: %v", err)
		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flushPending() {
	w.mu.Lock()
	fire := !w.pending.IsZero() && time.Since(w.pending) >= w.debounceDur
	if fire {
		w.pending = time.Time{}
	}
	w.mu.Unlock()

	if fire {
		select {
		case w.changed <- struct{}{}:
		default:
		}
	}
}
