// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package query answers hover, go-to-definition, and completion
// requests over the symbol index and include graph. It is the only
// consumer that combines internal/symbolindex and internal/includegraph
// with internal/builtins; neither of those packages knows about the
// other.
package query

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	lsp "github.com/sourcegraph/go-lsp"

	"github.com/mslsp/metalls/internal/includegraph"
	"github.com/mslsp/metalls/internal/mslparser"
	"github.com/mslsp/metalls/internal/symbolindex"
	"github.com/mslsp/metalls/pkg/types"
)

// defaultProjectGraphDepth and defaultProjectGraphNodes bound the
// reverse-graph fallback search used when a name can't be resolved via
// the file itself or its forward include closure.
const (
	defaultProjectGraphDepth = 3
	defaultProjectGraphNodes = 256
)

// identifierNodeTypes is the set of tree-sitter node kinds treated as a
// nameable identifier for hover/definition/completion purposes.
var identifierNodeTypes = map[string]bool{
	"identifier":           true,
	"field_identifier":     true,
	"type_identifier":      true,
	"namespace_identifier": true,
}

// Layer answers queries against one workspace's index and include
// graph. A Layer holds no snapshot state of its own; callers supply the
// parse tree for the file a request originated from.
type Layer struct {
	Index *symbolindex.Index
	Graph *includegraph.Graph

	// ProjectGraphFallback enables the reverse-graph search used by
	// Definition when a name is not found in the file or its forward
	// include closure.
	ProjectGraphFallback bool
}

// New creates a Layer over idx and graph.
func New(idx *symbolindex.Index, graph *includegraph.Graph) *Layer {
	return &Layer{Index: idx, Graph: graph, ProjectGraphFallback: true}
}

// identifierAt returns the source text of the identifier-like node
// enclosing pos, or "" if pos is not on one.
func identifierAt(tree *mslparser.Tree, pos lsp.Position) string {
	if tree == nil || tree.Root == nil {
		return ""
	}
	point := sitter.Point{Row: uint32(pos.Line), Column: uint32(pos.Character)}
	n := tree.Root.NamedDescendantForPointRange(point, point)
	for n != nil {
		if identifierNodeTypes[n.Type()] {
			return n.Content(tree.Content)
		}
		n = n.Parent()
	}
	return ""
}

// distanceFuncFrom builds a symbolindex.DistanceFunc scoped to path's
// forward include closure, used to rank both hover's multi-match
// accumulation and completion's candidate ordering by graph proximity.
func (l *Layer) distanceFuncFrom(path types.Path) symbolindex.DistanceFunc {
	if l.Graph == nil {
		return nil
	}
	dist := l.Graph.ForwardBFSDistance(path, defaultProjectGraphNodes)
	return func(p types.Path) int {
		if p == path {
			return 0
		}
		if d, ok := dist[p]; ok {
			return d
		}
		return len(dist) + 1
	}
}

// reachableFrom returns path plus every header transitively reachable
// from it via #include, in depth-first discovery order.
func (l *Layer) reachableFrom(path types.Path) []types.Path {
	out := []types.Path{path}
	if l.Graph == nil {
		return out
	}
	out = append(out, l.Graph.Forward(path)...)
	return out
}

// sortDeclsByDistance orders decls by dist(SourcePath) ascending; ties
// at equal distance fall back to lexicographic path order, the same
// tiebreak symbolindex.Prefix applies, so multi-match ordering is
// deterministic across files equidistant from the query's origin.
func sortDeclsByDistance(decls []types.Declaration, dist symbolindex.DistanceFunc) {
	sort.SliceStable(decls, func(i, j int) bool {
		a, b := decls[i], decls[j]
		pa, pb := proximity(a.SourcePath, dist), proximity(b.SourcePath, dist)
		if pa != pb {
			return pa < pb
		}
		return a.SourcePath < b.SourcePath
	})
}

func proximity(p types.Path, dist symbolindex.DistanceFunc) int {
	if dist == nil {
		return 0
	}
	return dist(p)
}

func containsPath(paths []types.Path, p types.Path) bool {
	for _, q := range paths {
		if q == p {
			return true
		}
	}
	return false
}
