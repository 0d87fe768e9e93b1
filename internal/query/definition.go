// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package query

import (
	lsp "github.com/sourcegraph/go-lsp"

	"github.com/mslsp/metalls/internal/mslparser"
	"github.com/mslsp/metalls/pkg/types"
)

// Definition resolves the identifier under pos to its declaration sites.
// Resolution tries, in order, stopping at the first that yields a
// match: (1) path itself, (2) headers transitively included from path,
// nearest-first by graph distance, (3) when ProjectGraphFallback is set
// and the name is still unresolved, every file that transitively
// includes path, reached via a bounded reverse-graph walk. Multiple
// matches at the winning tier are all returned, undistinguished.
func (l *Layer) Definition(path types.Path, pos lsp.Position, tree *mslparser.Tree) []types.Declaration {
	name := identifierAt(tree, pos)
	if name == "" || l.Index == nil {
		return nil
	}

	all := l.Index.Lookup(name)
	if len(all) == 0 {
		return nil
	}

	if m := declsIn(all, path); len(m) > 0 {
		return m
	}

	if l.Graph != nil {
		dist := l.Graph.ForwardBFSDistance(path, defaultProjectGraphNodes)
		if m := declsAmong(all, dist); len(m) > 0 {
			sortDeclsByDistance(m, func(p types.Path) int { return dist[p] })
			return m
		}
	}

	if l.ProjectGraphFallback && l.Graph != nil {
		includers := l.Graph.ReverseBFS(path, defaultProjectGraphDepth, defaultProjectGraphNodes)
		includerSet := make(map[types.Path]bool, len(includers))
		for _, p := range includers {
			includerSet[p] = true
		}
		var m []types.Declaration
		for _, d := range all {
			if includerSet[d.SourcePath] {
				m = append(m, d)
			}
		}
		if len(m) > 0 {
			return m
		}
	}

	return nil
}

func declsIn(decls []types.Declaration, path types.Path) []types.Declaration {
	var out []types.Declaration
	for _, d := range decls {
		if d.SourcePath == path {
			out = append(out, d)
		}
	}
	return out
}

func declsAmong(decls []types.Declaration, dist map[types.Path]int) []types.Declaration {
	var out []types.Declaration
	for _, d := range decls {
		if _, ok := dist[d.SourcePath]; ok {
			out = append(out, d)
		}
	}
	return out
}
