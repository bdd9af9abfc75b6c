package account

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileStore keeps an account's settings in a YAML file. Every change rewrites
// the file atomically.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
	loaded bool
}

// NewFileStore creates a store backed by path. The file is created on the
// first write; its directory is created with 0700 permissions.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value stored under key.
func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return "", false, err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

// Set stores value under key and persists the file.
func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return err
	}
	if cur, ok := f.values[key]; ok && cur == value {
		return nil
	}
	f.values[key] = value
	return f.save()
}

// Delete removes key and persists the file.
func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return err
	}
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.save()
}

func (f *FileStore) load() error {
	if f.loaded {
		return nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read settings file: %w", err)
		}
		f.values = make(map[string]string)
		f.loaded = true
		return nil
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse settings file %s: %w", f.path, err)
	}
	f.values = values
	f.loaded = true

	logrus.WithFields(logrus.Fields{
		"function": "load",
		"path":     f.path,
		"keys":     len(values),
	}).Debug("Loaded account settings")
	return nil
}

// save writes the file through a temporary file and a rename.
func (f *FileStore) save() error {
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
