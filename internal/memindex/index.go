// Package memindex keeps a SQLite index over the agent's daily memory
// logs so old entries stay searchable by keyword.
package memindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"spaceblack/internal/logging"

	_ "modernc.org/sqlite"
)

// Index is the SQLite-backed memory index. Safe for concurrent use.
type Index struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Hit is one search result.
type Hit struct {
	Day     string // YYYY-MM-DD of the source log
	Stamp   string // HH:MM:SS within the day
	Content string
}

// Open initializes the index database at the given path.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.Memory("memindex: %s failed: %v", pragma, err)
		}
	}

	idx := &Index{db: db, dbPath: path}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day TEXT NOT NULL,
		stamp TEXT NOT NULL,
		content TEXT NOT NULL,
		UNIQUE(day, stamp, content)
	);
	CREATE INDEX IF NOT EXISTS idx_entries_day ON entries(day);
	`
	if _, err := i.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// Add records one memory entry. Duplicate entries are ignored.
func (i *Index) Add(ctx context.Context, day, stamp, content string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, err := i.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO entries (day, stamp, content) VALUES (?, ?, ?)",
		day, stamp, content)
	if err != nil {
		return fmt.Errorf("index entry: %w", err)
	}
	return nil
}

// memoryLine matches "[HH:MM:SS] content" lines in daily logs.
var memoryLine = regexp.MustCompile(`^\[(\d{2}:\d{2}:\d{2})\] (.+)$`)

// IngestDay parses a daily log's content and indexes every entry line.
// Returns the number of lines indexed.
func (i *Index) IngestDay(ctx context.Context, day, logContent string) (int, error) {
	count := 0
	for _, line := range strings.Split(logContent, "\n") {
		m := memoryLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if err := i.Add(ctx, day, m[1], m[2]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// IngestDir walks a memory directory and indexes every YYYY-MM-DD.md
// daily log found in it.
func (i *Index) IngestDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read memory dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !dayLogName.MatchString(name) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		day := strings.TrimSuffix(name, ".md")
		if _, err := i.IngestDay(ctx, day, string(data)); err != nil {
			return err
		}
	}
	return nil
}

var dayLogName = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)

// Search returns entries whose content matches every word in the query,
// most recent first, capped at limit.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("SELECT day, stamp, content FROM entries WHERE 1=1")
	args := make([]any, 0, len(words)+1)
	for _, w := range words {
		sb.WriteString(" AND lower(content) LIKE ?")
		args = append(args, "%"+w+"%")
	}
	sb.WriteString(" ORDER BY day DESC, stamp DESC LIMIT ?")
	args = append(args, limit)

	rows, err := i.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Day, &h.Stamp, &h.Content); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
