// Package storage implements the whole-file stores used by modules.
// Every mutation rewrites the file completely; a failed write leaves the
// previous contents in place and the next successful write replaces them.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// JSONFile persists one JSON document at a fixed path.
type JSONFile struct {
	path string
}

// NewJSONFile returns a store rooted at path. The file need not exist yet.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the backing file path.
func (f *JSONFile) Path() string {
	return f.path
}

// Load decodes the file into v. A missing file leaves v untouched and returns nil.
func (f *JSONFile) Load(v interface{}) error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", f.path, err)
	}
	return nil
}

// Save encodes v with indentation and replaces the file.
func (f *JSONFile) Save(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", f.path, err)
	}
	return WriteFileAtomic(f.path, data)
}

// WriteFileAtomic writes data to a sibling temp file and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ReadText returns the file contents, or "" with ok=false when it does not exist.
func ReadText(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), true, nil
}

// Remove deletes path; a missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
