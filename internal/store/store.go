// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package store owns canonical file contents keyed by absolute path and
// hands out immutable snapshots versioned per path.
package store

import (
	"fmt"
	"sync"

	"github.com/spf13/afero"

	"github.com/mslsp/metalls/pkg/types"
)

// InboundEdgeChecker reports whether a path still has inbound include
// edges. The store consults it before evicting a closed file so that a
// header reachable only through #include is kept resident even after its
// own document is closed in the editor.
type InboundEdgeChecker interface {
	HasInboundEdges(path types.Path) bool
}

// entry is the store's bookkeeping for one path.
type entry struct {
	mu       sync.Mutex
	snapshot *types.Snapshot
	closed   bool
}

// Store owns canonical file contents. All mutation is serialized per path
// via a striped lock; snapshots handed to callers are never mutated in
// place, only replaced.
type Store struct {
	fs afero.Fs

	mu      sync.RWMutex // guards the entries map itself, not its contents
	entries map[types.Path]*entry

	edges InboundEdgeChecker
}

// New creates a Store backed by fs. fs may be afero.NewMemMapFs() in
// tests or afero.NewOsFs() in production, mirroring the afero.Fs field
// used by workspace-scoped components elsewhere in the ecosystem so the
// same code path is exercised against an in-memory filesystem in tests.
func New(fs afero.Fs, edges InboundEdgeChecker) *Store {
	return &Store{
		fs:      fs,
		entries: make(map[types.Path]*entry),
		edges:   edges,
	}
}

// Upsert creates or replaces the snapshot for path. An upsert whose
// version is not strictly greater than the current version is rejected
// and the current snapshot is returned unchanged.
func (s *Store) Upsert(path types.Path, version uint64, text []byte) *types.Snapshot {
	e := s.entryFor(path)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshot != nil && version <= e.snapshot.Version {
		return e.snapshot
	}

	// Release the old tree, if any, before replacing it.
	if e.snapshot != nil && e.snapshot.Tree != nil {
		e.snapshot.Tree.Close()
	}

	e.snapshot = &types.Snapshot{
		Path:    path,
		Version: version,
		Text:    text,
	}
	e.closed = false
	return e.snapshot
}

// AttachTree records the parse tree produced for the current snapshot of
// path, provided the snapshot has not since been superseded.
func (s *Store) AttachTree(path types.Path, version uint64, tree types.ParseTree) {
	e := s.entryFor(path)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshot == nil || e.snapshot.Version != version {
		// Snapshot moved on; the tree belongs to a stale version.
		tree.Close()
		return
	}
	e.snapshot.Tree = tree
}

// Get returns the current snapshot for path, or nil if none exists.
func (s *Store) Get(path types.Path) *types.Snapshot {
	e := s.entryForRead(path)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// Close marks path as closed in the editor. The snapshot is retained
// until a subsequent GC pass confirms there are no inbound include edges.
func (s *Store) Close(path types.Path) {
	e := s.entryForRead(path)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// GC evicts every closed path with no inbound include edges, releasing
// its parse tree and removing it from the store.
func (s *Store) GC() {
	s.mu.RLock()
	candidates := make([]types.Path, 0, len(s.entries))
	for p := range s.entries {
		candidates = append(candidates, p)
	}
	s.mu.RUnlock()

	for _, p := range candidates {
		e := s.entryForRead(p)
		if e == nil {
			continue
		}
		e.mu.Lock()
		evict := e.closed && (s.edges == nil || !s.edges.HasInboundEdges(p))
		if evict {
			if e.snapshot != nil && e.snapshot.Tree != nil {
				e.snapshot.Tree.Close()
			}
			e.snapshot = nil
		}
		e.mu.Unlock()

		if evict {
			s.mu.Lock()
			delete(s.entries, p)
			s.mu.Unlock()
		}
	}
}

// ReadFile loads path from the underlying filesystem. It is used to load
// headers that are referenced via #include but have never been opened as
// editor documents.
func (s *Store) ReadFile(path types.Path) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, string(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Stat reports whether path exists on the underlying filesystem.
func (s *Store) Stat(path string) (exists bool, isDir bool) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return false, false
	}
	return true, info.IsDir()
}

// Fs returns the underlying afero.Fs, for components (workspace scan,
// formatter) that need direct filesystem access.
func (s *Store) Fs() afero.Fs { return s.fs }

func (s *Store) entryFor(path types.Path) *entry {
	s.mu.RLock()
	e, ok := s.entries[path]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[path]; ok {
		return e
	}
	e = &entry{}
	s.entries[path] = e
	return e
}

func (s *Store) entryForRead(path types.Path) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[path]
}
