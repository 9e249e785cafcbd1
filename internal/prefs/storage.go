// Package prefs handles leaddeck user preferences persistence.
// Preferences are stored in ~/.config/leaddeck/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Storage is durable client-local key-value storage.
type Storage interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
}

const defaultPrefsPath = "~/.config/leaddeck/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// FileStorage keeps preferences as a flat TOML table.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage resolves path (empty uses the default location).
func NewFileStorage(path string) (*FileStorage, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	return &FileStorage{path: resolved}, nil
}

// Path returns the resolved file location.
func (s *FileStorage) Path() string { return s.path }

// Get returns the stored value for key. A missing file reads as empty.
func (s *FileStorage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores value under key. The file is replaced atomically so readers
// never see a half-written table. A file that does not parse is replaced;
// any other read failure is returned and nothing is written.
func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	switch {
	case errors.Is(err, errCorruptPrefs):
		values = map[string]string{}
	case err != nil:
		return err
	}
	values[key] = value

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(bytes); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

var errCorruptPrefs = errors.New("parse prefs")

func (s *FileStorage) read() (map[string]string, error) {
	bytes, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	values := map[string]string{}
	if err := toml.Unmarshal(bytes, &values); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptPrefs, err)
	}
	return values, nil
}

// MemoryStorage is an in-process Storage, used by tests and one-shot
// commands that must not touch the disk.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
	// FailWrites makes Set return an error, to exercise write failures.
	FailWrites bool
}

// NewMemoryStorage returns storage seeded with values.
func NewMemoryStorage(values map[string]string) *MemoryStorage {
	dup := make(map[string]string, len(values))
	for k, v := range values {
		dup[k] = v
	}
	return &MemoryStorage{values: dup}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errors.New("storage is read-only")
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
