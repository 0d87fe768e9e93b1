// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package symbolindex maps declaration names to declarations across the
// workspace and supports atomic per-file replacement.
package symbolindex

import (
	"sort"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/mslsp/metalls/pkg/types"
)

// defaultPrefixLimit is the default bound K on prefix query results.
const defaultPrefixLimit = 256

// defaultCacheSize bounds the number of per-path declaration lists kept
// in the ByPath cache.
const defaultCacheSize = 512

// DistanceFunc ranks a path by its proximity to the file a query
// originated from. Index is decoupled from internal/includegraph;
// callers in internal/query supply the actual graph-distance function.
// A nil DistanceFunc falls back to lexicographic path order.
type DistanceFunc func(p types.Path) int

// Index is the workspace-wide name -> declarations map, guarded by a
// single writer lock and a many-reader lock so replace() and queries
// never interleave partially.
type Index struct {
	mu sync.RWMutex

	byName map[string][]types.Declaration
	byPath map[types.Path]map[string]bool

	cacheMu sync.Mutex
	cache   *lru.Cache // keyed by path, value is a copy of the path's []types.Declaration; pure optimization
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		byName: make(map[string][]types.Declaration),
		byPath: make(map[types.Path]map[string]bool),
		cache:  lru.New(defaultCacheSize),
	}
}

// Replace removes every declaration previously emitted for path from
// every bucket, then inserts decls. The operation runs under the writer
// lock: readers observe either the pre- or post-state, never a mix.
func (idx *Index) Replace(path types.Path, decls []types.Declaration) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if names, ok := idx.byPath[path]; ok {
		for name := range names {
			idx.byName[name] = removePath(idx.byName[name], path)
			if len(idx.byName[name]) == 0 {
				delete(idx.byName, name)
			}
		}
	}

	names := make(map[string]bool, len(decls))
	for _, d := range decls {
		idx.byName[d.Name] = append(idx.byName[d.Name], d)
		names[d.Name] = true
		if d.ShortName != d.Name {
			idx.byName[d.ShortName] = append(idx.byName[d.ShortName], d)
			names[d.ShortName] = true
		}
	}
	idx.byPath[path] = names

	idx.cacheMu.Lock()
	idx.cache.Add(path, cloneDecls(decls))
	idx.cacheMu.Unlock()
}

// All returns every declaration currently indexed, deduplicated by
// (name, source path, range). Used by the query layer's completion
// ranking, which needs case-insensitive and substring matches beyond
// Prefix's case-sensitive bucket.
func (idx *Index) All() []types.Declaration {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type declKey struct {
		path types.Path
		name string
		r    types.Range
	}
	seen := make(map[declKey]bool)
	var out []types.Declaration
	for _, decls := range idx.byName {
		for _, d := range decls {
			key := declKey{d.SourcePath, d.Name, d.Range}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, d)
		}
	}
	return out
}

// ByPath returns every declaration sourced from path, e.g. for hover's
// "restricted first to the file itself" lookup. Results are served from
// the per-path declaration cache when available, which is repopulated on
// every Replace and therefore never stale; the cache is a pure
// optimization that avoids rebuilding the list from byName on every
// keystroke-driven query, and lookup/prefix never depend on it for
// correctness.
func (idx *Index) ByPath(path types.Path) []types.Declaration {
	idx.cacheMu.Lock()
	if v, ok := idx.cache.Get(path); ok {
		decls := v.([]types.Declaration)
		idx.cacheMu.Unlock()
		return cloneDecls(decls)
	}
	idx.cacheMu.Unlock()

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	names := idx.byPath[path]
	var out []types.Declaration
	for name := range names {
		for _, d := range idx.byName[name] {
			if d.SourcePath == path {
				out = append(out, d)
			}
		}
	}
	return out
}

func removePath(decls []types.Declaration, path types.Path) []types.Declaration {
	out := decls[:0]
	for _, d := range decls {
		if d.SourcePath != path {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Lookup returns every declaration matching name exactly, by short or
// qualified name.
func (idx *Index) Lookup(name string) []types.Declaration {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return cloneDecls(idx.byName[name])
}

// Prefix returns declarations whose short name has the given prefix
// (case-sensitive), bounded to limit results (0 means the default of
// 256), ordered by kind priority, then path proximity (via dist, if
// non-nil, else lexicographic path order), then declaration span start.
func (idx *Index) Prefix(prefix string, limit int, dist DistanceFunc) []types.Declaration {
	if limit <= 0 {
		limit = defaultPrefixLimit
	}

	idx.mu.RLock()
	var matches []types.Declaration
	for name, decls := range idx.byName {
		if !hasPrefix(name, prefix) {
			continue
		}
		matches = append(matches, decls...)
	}
	idx.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Kind.KindPriority() != b.Kind.KindPriority() {
			return a.Kind.KindPriority() < b.Kind.KindPriority()
		}
		pa, pb := proximityOf(a.SourcePath, dist), proximityOf(b.SourcePath, dist)
		if pa != pb {
			return pa < pb
		}
		if a.SourcePath != b.SourcePath {
			return a.SourcePath < b.SourcePath
		}
		return a.Range.Start.Line < b.Range.Start.Line
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func proximityOf(p types.Path, dist DistanceFunc) int {
	if dist == nil {
		return 0
	}
	return dist(p)
}

func hasPrefix(s, prefix string) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)] == prefix
}

func cloneDecls(in []types.Declaration) []types.Declaration {
	if len(in) == 0 {
		return nil
	}
	out := make([]types.Declaration, len(in))
	copy(out, in)
	return out
}
