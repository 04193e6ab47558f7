// Package kv is the small side store that keeps status records outside the
// main database. Reads never fail: a missing or unreadable entry reads as absent.
package kv

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

type Store interface {
	// Get decodes the value under key into dst and reports whether it did.
	Get(key string, dst any) bool
	Set(key string, value any) error
	Remove(key string) error
}

// FileStore keeps every key in one JSON object file. Writes go to a temp file
// that is renamed over the original.
type FileStore struct {
	fs   afero.Fs
	path string

	mu sync.Mutex
}

func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// NewMemoryStore is a FileStore over an in-memory filesystem.
func NewMemoryStore() *FileStore {
	return NewFileStore(afero.NewMemMapFs(), "state.json")
}

func (s *FileStore) Get(key string, dst any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()

	raw, ok := entries[key]
	if !ok {
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Warn("ignoring unreadable state entry", "key", key, "error", err)
		return false
	}

	return true
}

func (s *FileStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entries[key] = raw

	return s.save(entries)
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	if _, ok := entries[key]; !ok {
		return nil
	}

	delete(entries, key)

	return s.save(entries)
}

func (s *FileStore) load() map[string]json.RawMessage {
	entries := map[string]json.RawMessage{}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("reading state file", "path", s.path, "error", err)
		}

		return entries
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("state file is corrupt, starting empty", "path", s.path, "error", err)
		return map[string]json.RawMessage{}
	}

	return entries
}

func (s *FileStore) save(entries map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating state directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing state: %w", err)
	}

	return nil
}
