// Package vault stores small secrets for the agent in a JSON file with
// owner-only permissions. Values never leave the file through List.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrSecretNotFound is returned when a requested key is absent.
var ErrSecretNotFound = errors.New("secret not found")

// Vault is a file-backed secret store. Safe for concurrent use.
type Vault struct {
	mu   sync.Mutex
	path string
}

// New returns a vault backed by the given secrets file. The file and
// its directory are created on first write.
func New(path string) *Vault {
	return &Vault{path: path}
}

// Path returns the backing file location.
func (v *Vault) Path() string { return v.path }

func (v *Vault) load() (map[string]string, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read vault: %w", err)
	}
	secrets := map[string]string{}
	if len(data) == 0 {
		return secrets, nil
	}
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parse vault: %w", err)
	}
	return secrets, nil
}

func (v *Vault) save(secrets map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}
	data, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}
	if err := os.WriteFile(v.path, data, 0o600); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	// Tighten perms on files created before the mode was enforced.
	return os.Chmod(v.path, 0o600)
}

// Get returns the value for key, or ErrSecretNotFound.
func (v *Vault) Get(key string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.load()
	if err != nil {
		return "", err
	}
	value, ok := secrets[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	return value, nil
}

// Set stores a value under key, creating the vault file if needed.
func (v *Vault) Set(key, value string) error {
	if key == "" {
		return errors.New("secret key cannot be empty")
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.load()
	if err != nil {
		return err
	}
	secrets[key] = value
	return v.save(secrets)
}

// Delete removes a key. Deleting an absent key is not an error.
func (v *Vault) Delete(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.load()
	if err != nil {
		return err
	}
	delete(secrets, key)
	return v.save(secrets)
}

// List returns the stored key names, sorted. Values are never exposed.
func (v *Vault) List() ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, err := v.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(secrets))
	for k := range secrets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
