// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package query

import (
	"sort"
	"strings"

	"github.com/mslsp/metalls/internal/builtins"
	"github.com/mslsp/metalls/pkg/types"
)

// defaultCompletionLimit bounds the number of items returned.
const defaultCompletionLimit = 256

// matchTier is the coarse rank a completion candidate falls into,
// ascending from best to worst match quality.
type matchTier int

const (
	tierExactPrefix matchTier = iota
	tierCaseInsensitivePrefix
	tierSubstring
)

// Item is one completion candidate: either a static built-in or a
// workspace declaration.
type Item struct {
	Name      string
	Kind      types.DeclarationKind
	Detail    string
	IsBuiltin bool
	Source    types.Path
}

// Completion collects candidates whose name relates to prefix from
// internal/builtins, path's own declarations, and declarations in
// headers reachable from path via #include. Results are ranked by
// match tier (exact prefix, then case-insensitive prefix, then
// substring), then by declaration kind priority, then by include-graph
// proximity to path.
func (l *Layer) Completion(path types.Path, prefix string) []Item {
	lowerPrefix := strings.ToLower(prefix)

	var items []Item
	seen := make(map[string]bool)

	for name, entry := range builtins.Table {
		if _, ok := tierOf(name, prefix, lowerPrefix); !ok {
			continue
		}
		key := "builtin:" + name
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, Item{Name: name, Detail: entry.Doc, IsBuiltin: true})
	}

	if l.Index == nil {
		return rankAndTrim(items, prefix, lowerPrefix, nil)
	}

	reachable := l.reachableFrom(path)
	dist := l.distanceFuncFrom(path)

	for _, d := range l.Index.All() {
		if !containsPath(reachable, d.SourcePath) {
			continue
		}
		if _, ok := tierOf(d.ShortName, prefix, lowerPrefix); !ok {
			continue
		}
		key := "decl:" + string(d.SourcePath) + ":" + d.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, Item{Name: d.ShortName, Kind: d.Kind, Detail: d.Signature, Source: d.SourcePath})
	}

	return rankAndTrim(items, prefix, lowerPrefix, dist)
}

func tierOf(name, prefix, lowerPrefix string) (matchTier, bool) {
	switch {
	case strings.HasPrefix(name, prefix):
		return tierExactPrefix, true
	case strings.HasPrefix(strings.ToLower(name), lowerPrefix):
		return tierCaseInsensitivePrefix, true
	case strings.Contains(strings.ToLower(name), lowerPrefix):
		return tierSubstring, true
	default:
		return 0, false
	}
}

func rankAndTrim(items []Item, prefix, lowerPrefix string, dist func(types.Path) int) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		ta, _ := tierOf(a.Name, prefix, lowerPrefix)
		tb, _ := tierOf(b.Name, prefix, lowerPrefix)
		if ta != tb {
			return ta < tb
		}
		if a.Kind.KindPriority() != b.Kind.KindPriority() {
			return a.Kind.KindPriority() < b.Kind.KindPriority()
		}
		if dist != nil {
			da, db := proximityOfPath(a, dist), proximityOfPath(b, dist)
			if da != db {
				return da < db
			}
		}
		return a.Name < b.Name
	})

	if len(items) > defaultCompletionLimit {
		items = items[:defaultCompletionLimit]
	}
	return items
}

func proximityOfPath(item Item, dist func(types.Path) int) int {
	if item.IsBuiltin {
		return 0
	}
	if dist == nil {
		return 0
	}
	return dist(item.Source)
}
