// Package storage persists generated source and hydrated collections.
//
// Generated Go source always goes to disk because the toolchain compiles it
// from there. Collection payloads go through a Backend: JSON files next to
// the project, a SQLite database, or PostgreSQL.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/JonMunkholm/sheetsync/collection"
)

// Backend stores collection payloads by artifact path.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Store implements the artifact store used by the workflow service.
// Collections marked dirty are written on Save.
type Store struct {
	backend Backend

	mu    sync.Mutex
	dirty map[string]collection.Collection
}

// New creates a Store over backend.
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		dirty:   make(map[string]collection.Collection),
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// EnsureFolder creates a directory and its parents.
func (s *Store) EnsureFolder(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create folder %s: %w", path, err)
	}
	return nil
}

// WriteTextFile replaces a file atomically via a temp file and rename.
func (s *Store) WriteTextFile(path string, content []byte) error {
	return writeFileAtomic(path, content)
}

// Exists reports whether a collection payload is stored at path.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	ok, err := s.backend.Exists(ctx, path)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", path, err)
	}
	return ok, nil
}

// LoadOrCreate decodes the stored collection at path into a fresh instance
// from h, or returns an empty one. The bool reports whether it was created.
func (s *Store) LoadOrCreate(ctx context.Context, path string, h collection.Handle) (collection.Collection, bool, error) {
	if !h.Valid() {
		return nil, false, fmt.Errorf("load %s: handle has no factories", path)
	}

	s.mu.Lock()
	if c, ok := s.dirty[path]; ok {
		s.mu.Unlock()
		return c, false, nil
	}
	s.mu.Unlock()

	payload, found, err := s.backend.Load(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", path, err)
	}

	coll := h.NewCollection()
	if !found {
		return coll, true, nil
	}
	if err := json.Unmarshal(payload, coll); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}
	return coll, false, nil
}

// MarkDirty queues a collection to be written on the next Save.
func (s *Store) MarkDirty(path string, c collection.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[path] = c
}

// Save writes every dirty collection. Entries that fail stay dirty.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.dirty))
	for p := range s.dirty {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var errs []error
	for _, p := range paths {
		payload, err := json.MarshalIndent(s.dirty[p], "", "  ")
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %s: %w", p, err))
			continue
		}
		if err := s.backend.Put(ctx, p, append(payload, '\n')); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", p, err))
			continue
		}
		delete(s.dirty, p)
	}
	return errors.Join(errs...)
}

// Pending returns the number of dirty collections.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirty)
}

func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create folder %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
