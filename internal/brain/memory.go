package brain

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// MemoryFilePath returns the daily log path for a date.
func MemoryFilePath(p Paths, day time.Time) string {
	return filepath.Join(p.MemoryDir, day.Format("2006-01-02")+".md")
}

// AppendMemory logs a timestamped entry to today's memory file. If the
// same content already appears in the last few lines the write is
// skipped: models tend to re-log the same observation every turn.
// Returns the file name written to and whether a write happened.
func AppendMemory(p Paths, now time.Time, content string) (string, bool, error) {
	if err := os.MkdirAll(p.MemoryDir, 0o755); err != nil {
		return "", false, fmt.Errorf("create memory dir: %w", err)
	}

	path := MemoryFilePath(p, now)
	name := filepath.Base(path)

	if data, err := os.ReadFile(path); err == nil {
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		tail := lines
		if len(tail) > 3 {
			tail = tail[len(tail)-3:]
		}
		for _, line := range tail {
			if strings.Contains(line, content) {
				return name, false, nil
			}
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", false, fmt.Errorf("open memory file: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("[%s] %s\n", now.Format("15:04:05"), content)
	if _, err := f.WriteString(entry); err != nil {
		return "", false, fmt.Errorf("append memory: %w", err)
	}
	return name, true, nil
}

var memoryLineRe = regexp.MustCompile(`^\[.*?\] (.*)`)

// CleanMemoryFile removes consecutive duplicate entries from a daily log,
// comparing content with the timestamp stripped. Returns how many lines
// were dropped.
func CleanMemoryFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read memory file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	last := ""
	dropped := 0

	for _, line := range lines {
		m := memoryLineRe.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		content := strings.TrimSpace(m[1])
		if content == last {
			dropped++
			continue
		}
		last = content
		out = append(out, line)
	}

	if dropped == 0 {
		return 0, nil
	}
	if err := os.WriteFile(path, []byte(strings.Join(out, "\n")), 0o644); err != nil {
		return 0, fmt.Errorf("write memory file: %w", err)
	}
	return dropped, nil
}

// CleanAllMemory runs CleanMemoryFile over every daily log.
func CleanAllMemory(p Paths) (int, error) {
	entries, err := os.ReadDir(p.MemoryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	total := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		n, err := CleanMemoryFile(filepath.Join(p.MemoryDir, e.Name()))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
