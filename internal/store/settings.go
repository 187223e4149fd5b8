package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"orgctl/pkg/logging"
)

// SettingsStore is a small durable key/value document store.
type SettingsStore interface {
	// Get returns the raw value for key and whether it exists.
	Get(key string) ([]byte, bool, error)
	// Set replaces the value for key.
	Set(key string, value []byte) error
}

// Locker is implemented by settings stores that other processes share. Lock
// blocks until the caller holds the store exclusively.
type Locker interface {
	Lock() (unlock func(), err error)
}

// FileSettings keeps all keys in one JSON object on disk.
type FileSettings struct {
	mu   sync.Mutex
	path string
}

// NewFileSettings returns a file-backed settings store at path. The file is
// created on first Set.
func NewFileSettings(path string) *FileSettings {
	return &FileSettings{path: path}
}

// Path returns the backing file path.
func (f *FileSettings) Path() string {
	return f.path
}

func (f *FileSettings) readDocument() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read settings %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("settings %s are corrupt: %w", f.path, err)
	}
	return doc, nil
}

// Lock takes an advisory lock on a sibling ".lock" file. It serializes
// read-modify-write cycles between orgctl processes; Get and Set stay usable
// without it.
func (f *FileSettings) Lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create settings dir: %w", err)
	}
	fl := flock.New(f.path + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock settings %s: %w", f.path, err)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			logging.Warn("Settings", "Failed to unlock %s: %v", f.path, err)
		}
	}, nil
}

// Get implements SettingsStore.
func (f *FileSettings) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readDocument()
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

// Set implements SettingsStore. The whole document is rewritten atomically.
func (f *FileSettings) Set(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("value for %s is not valid JSON", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readDocument()
	if err != nil {
		return err
	}
	doc[key] = json.RawMessage(value)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(f.path, data, 0o600)
}

// MemorySettings is an in-memory SettingsStore, used by tests and dry runs.
type MemorySettings struct {
	mu   sync.Mutex
	data map[string][]byte
	// FailWrites makes the next n Set calls fail.
	FailWrites int
	Writes     int
}

// NewMemorySettings returns an empty in-memory store.
func NewMemorySettings() *MemorySettings {
	return &MemorySettings{data: make(map[string][]byte)}
}

// Get implements SettingsStore.
func (m *MemorySettings) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return append([]byte(nil), v...), ok, nil
}

// Set implements SettingsStore.
func (m *MemorySettings) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites > 0 {
		m.FailWrites--
		return fmt.Errorf("simulated write failure")
	}
	m.Writes++
	m.data[key] = append([]byte(nil), value...)
	return nil
}
