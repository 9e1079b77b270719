package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvFileName is the dotenv file holding API keys, next to config.json.
const EnvFileName = ".env"

// EnvPath returns the .env file path for a workspace.
func EnvPath(workspace string) string {
	return filepath.Join(workspace, EnvFileName)
}

// LoadEnv reads KEY=VALUE lines from the .env file into the process
// environment. Existing environment variables win; the file only fills
// gaps. A missing file is not an error.
func LoadEnv(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if key == "" {
			continue
		}
		if _, present := os.LookupEnv(key); !present {
			os.Setenv(key, value)
		}
	}
	return nil
}

// SetEnvValue updates or appends a single KEY=VALUE entry in the .env
// file, preserving all unrelated lines, and mirrors the value into the
// process environment. The file is created with 0600 since it holds keys.
func SetEnvValue(path, key, value string) error {
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		if trimmed := strings.TrimRight(string(data), "\n"); trimmed != "" {
			lines = strings.Split(trimmed, "\n")
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read env file: %w", err)
	}

	prefix := key + "="
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			continue
		}
		kept = append(kept, line)
	}
	kept = append(kept, prefix+value)

	out := strings.Join(kept, "\n") + "\n"
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	os.Setenv(key, value)
	return nil
}
