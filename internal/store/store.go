// Package store keeps the selected serial port in a small YAML file.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/allbin/serialmon/session"
)

// File is a session.Store backed by a YAML file
type File struct {
	mu   sync.Mutex
	path string
}

var _ session.Store = (*File)(nil)

// NewFile returns a store at path. The file is created on first Save.
func NewFile(path string) *File {
	return &File{path: filepath.Clean(path)}
}

// DefaultPath returns state.yaml under the user config directory
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "serialmon", "state.yaml"), nil
}

// Path returns the file location
func (f *File) Path() string {
	return f.path
}

// Load reads the selection. A missing file is an empty selection.
func (f *File) Load() (session.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sel session.Selection
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return sel, nil
	}
	if err != nil {
		return sel, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := yaml.Unmarshal(data, &sel); err != nil {
		return session.Selection{}, fmt.Errorf("failed to parse state file: %w", err)
	}
	return sel, nil
}

// Save writes the selection through a temporary file and rename
func (f *File) Save(sel session.Selection) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := yaml.Marshal(&sel)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
