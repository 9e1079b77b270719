// Package logging provides config-driven categorized file logging for
// Space Black. Logs are written to brain/logs/ with one file per category
// per day. Logging is controlled by debug_mode in config.json; when false
// no log files are written at all.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category identifies a subsystem log stream.
type Category string

const (
	CategoryBoot     Category = "boot"     // startup and initialization
	CategoryAgent    Category = "agent"    // reasoning loop turns
	CategoryAPI      Category = "api"      // LLM API calls
	CategoryTools    Category = "tools"    // tool dispatch and execution
	CategoryBrain    Category = "brain"    // brain file reads/writes
	CategoryMemory   Category = "memory"   // memory index operations
	CategoryBrowser  Category = "browser"  // browser automation
	CategoryDaemon   Category = "daemon"   // scheduler daemon
	CategorySkills   Category = "skills"   // external skill integrations
	CategorySchedule Category = "schedule" // schedule store and watcher
)

// Logger writes timestamped lines for one category.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	mu        sync.RWMutex
	loggers   = make(map[Category]*Logger)
	logsDir   string
	debugMode bool
)

// Initialize points the logging system at a workspace. When debug is
// false this is a silent no-op and every Logger becomes a no-op too.
func Initialize(workspace string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	debugMode = debug
	if !debug {
		logsDir = ""
		return nil
	}

	logsDir = filepath.Join(workspace, "brain", "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}
	return nil
}

// IsDebugMode reports whether file logging is active.
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debugMode
}

// Get returns (or creates) the logger for a category. Returns a no-op
// logger when debug mode is off or the file cannot be opened.
func Get(category Category) *Logger {
	mu.RLock()
	if !debugMode || logsDir == "" {
		mu.RUnlock()
		return &Logger{category: category}
	}
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date-prefixed file names make rotation a delete-by-glob.
	name := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02"), category)
	path := filepath.Join(logsDir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open %s: %v\n", path, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Close flushes and closes all open log files.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for cat, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
		}
		delete(loggers, cat)
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf("[INFO] "+format, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf("[DEBUG] "+format, args...)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf("[WARN] "+format, args...)
}

// Error logs an error.
func (l *Logger) Error(format string, args ...interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] "+format, args...)
}

// Agent logs to the agent category.
func Agent(format string, args ...interface{}) { Get(CategoryAgent).Info(format, args...) }

// Tools logs to the tools category.
func Tools(format string, args ...interface{}) { Get(CategoryTools).Info(format, args...) }

// API logs to the api category.
func API(format string, args ...interface{}) { Get(CategoryAPI).Info(format, args...) }

// Browser logs to the browser category.
func Browser(format string, args ...interface{}) { Get(CategoryBrowser).Info(format, args...) }

// Daemon logs to the daemon category.
func Daemon(format string, args ...interface{}) { Get(CategoryDaemon).Info(format, args...) }

// Brain logs to the brain category.
func Brain(format string, args ...interface{}) { Get(CategoryBrain).Info(format, args...) }

// Memory logs to the memory category.
func Memory(format string, args ...interface{}) { Get(CategoryMemory).Info(format, args...) }

// Skills logs to the skills category.
func Skills(format string, args ...interface{}) { Get(CategorySkills).Info(format, args...) }
