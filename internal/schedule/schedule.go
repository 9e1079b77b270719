// Package schedule manages the agent's task schedule: a JSON file of
// timestamped one-shot tasks, plus a filesystem watcher that picks up
// external edits.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// TimeLayout is the timestamp format schedule entries use.
const TimeLayout = "2006-01-02 15:04"

// ErrBadTimeFormat is returned when a timestamp does not parse.
var ErrBadTimeFormat = errors.New("time must be formatted as YYYY-MM-DD HH:MM")

// Entry is a single scheduled task.
type Entry struct {
	Time string `json:"time"`
	Task string `json:"task"`
}

// At parses the entry's timestamp.
func (e Entry) At() (time.Time, error) {
	return time.ParseInLocation(TimeLayout, e.Time, time.Local)
}

// Store reads and writes the schedule file. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a store backed by the given schedule file.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

func (s *Store) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	return entries, nil
}

func (s *Store) save(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	sortEntries(entries)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}
	return nil
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time < entries[j].Time
	})
}

// List returns all entries sorted by time.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

// Add validates and appends a task, keeping the file sorted by time.
func (s *Store) Add(timeStr, task string) error {
	timeStr = strings.TrimSpace(timeStr)
	if _, err := time.ParseInLocation(TimeLayout, timeStr, time.Local); err != nil {
		return fmt.Errorf("%w: %q", ErrBadTimeFormat, timeStr)
	}
	task = strings.TrimSpace(task)
	if task == "" {
		return errors.New("task cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries = append(entries, Entry{Time: timeStr, Task: task})
	return s.save(entries)
}

// PopDue removes and returns every entry whose time is at or before now.
// Unparseable entries are popped too so they cannot wedge the schedule.
func (s *Store) PopDue(now time.Time) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}

	var due, remaining []Entry
	for _, e := range entries {
		at, err := e.At()
		if err != nil || !at.After(now) {
			due = append(due, e)
			continue
		}
		remaining = append(remaining, e)
	}
	if len(due) == 0 {
		return nil, nil
	}
	if err := s.save(remaining); err != nil {
		return nil, err
	}
	return due, nil
}
