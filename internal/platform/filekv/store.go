// Package filekv persists a store.KVStore as a single JSON document on disk.
// Every write rewrites the document through a temporary file and an atomic
// rename, so a crash leaves either the old or the new contents.
package filekv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/phrazzld/medinodus/internal/store"
)

const backendName = "file"

// Store keeps the whole document in memory and flushes it on every mutation.
type Store struct {
	mu     sync.RWMutex
	path   string
	data   map[string]string
	closed bool
}

var _ store.Backend = (*Store)(nil)

// Open loads the document at path, creating parent directories as needed.
// A missing file yields an empty store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("filekv: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	s := &Store{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, store.NewStoreError(backendName, "open", "", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, store.NewStoreError(backendName, "decode", "", err)
		}
	}
	return s, nil
}

// Get implements store.KVStore.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", store.ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

// Set implements store.KVStore.
func (s *Store) Set(_ context.Context, key, value string) error {
	if key == "" {
		return store.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.flush(); err != nil {
		// keep memory consistent with disk
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return store.NewStoreError(backendName, "set", key, err)
	}
	return nil
}

// Remove implements store.KVStore.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.RemoveMany(ctx, []string{key})
}

// RemoveMany implements store.KVStore.
func (s *Store) RemoveMany(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	removed := make(map[string]string)
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			removed[k] = v
			delete(s.data, k)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := s.flush(); err != nil {
		for k, v := range removed {
			s.data[k] = v
		}
		return store.NewStoreError(backendName, "remove", "", err)
	}
	return nil
}

// Close implements store.Backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// flush writes the document atomically. Callers hold s.mu.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
