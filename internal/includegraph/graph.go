// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package includegraph

import (
	"sync"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/mslsp/metalls/pkg/types"
)

// defaultReindexDepth and defaultReindexMaxNodes are the configuration
// defaults for bounded reverse-edge reindex fan-out (indexing.
// projectGraphDepth / projectGraphMaxNodes).
const (
	defaultReindexDepth    = 3
	defaultReindexMaxNodes = 256
)

// Graph is the directed multigraph of #include relationships. Forward
// and reverse adjacency are kept as two independent maps rather than
// node objects holding direct references, so a path's outgoing edges can
// be replaced with a single map write and cyclic graphs never create an
// ownership cycle.
type Graph struct {
	mu sync.RWMutex

	// forward[p] is the current edge set whose From == p.
	forward map[types.Path][]types.IncludeEdge

	// reverse[p] is the set of paths with an edge whose To == p,
	// insertion-ordered for deterministic traversal discovery order.
	reverse map[types.Path]*linkedhashset.Set
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		forward: make(map[types.Path][]types.IncludeEdge),
		reverse: make(map[types.Path]*linkedhashset.Set),
	}
}

// ReplaceEdges atomically swaps the outgoing edge set of from. Reverse
// edges are updated to match: the old targets lose from as an inbound
// source, the new targets gain it.
func (g *Graph) ReplaceEdges(from types.Path, edges []types.IncludeEdge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, old := range g.forward[from] {
		if old.To == "" {
			continue
		}
		if set, ok := g.reverse[old.To]; ok {
			set.Remove(from)
		}
	}

	for _, e := range edges {
		if e.To == "" {
			continue
		}
		set, ok := g.reverse[e.To]
		if !ok {
			set = linkedhashset.New()
			g.reverse[e.To] = set
		}
		set.Add(from)
	}

	g.forward[from] = edges
}

// Edges returns the current outgoing edge set for path.
func (g *Graph) Edges(path types.Path) []types.IncludeEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := g.forward[path]
	out := make([]types.IncludeEdge, len(edges))
	copy(out, edges)
	return out
}

// HasInboundEdges implements store.InboundEdgeChecker: it reports
// whether any path currently includes path.
func (g *Graph) HasInboundEdges(path types.Path) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	set, ok := g.reverse[path]
	return ok && !set.Empty()
}

// Forward performs a cycle-safe depth-first traversal of the forward
// graph starting at path, returning reachable paths in discovery order
// (path itself excluded). Traversal always terminates, even on cyclic
// graphs, because each path is visited at most once.
func (g *Graph) Forward(path types.Path) []types.Path {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[types.Path]bool)
	var order []types.Path

	var visit func(types.Path)
	visit = func(p types.Path) {
		for _, e := range g.forward[p] {
			if e.To == "" || visited[e.To] {
				continue
			}
			visited[e.To] = true
			order = append(order, e.To)
			visit(e.To)
		}
	}
	visited[path] = true
	visit(path)
	return order
}

// ReverseBFS walks the reverse graph from path breadth-first, bounded by
// maxDepth hops and maxNodes total visits, returning the visited paths
// (path itself excluded) grouped by ascending distance. Used both for
// bounded reindex fan-out on header change and for the project-graph
// definition fallback in §4.I.
func (g *Graph) ReverseBFS(path types.Path, maxDepth, maxNodes int) []types.Path {
	if maxDepth <= 0 {
		maxDepth = defaultReindexDepth
	}
	if maxNodes <= 0 {
		maxNodes = defaultReindexMaxNodes
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[types.Path]bool{path: true}
	frontier := []types.Path{path}
	var order []types.Path

	for depth := 0; depth < maxDepth && len(frontier) > 0 && len(order) < maxNodes; depth++ {
		var next []types.Path
		for _, p := range frontier {
			set, ok := g.reverse[p]
			if !ok {
				continue
			}
			for _, v := range set.Values() {
				parent := v.(types.Path)
				if visited[parent] {
					continue
				}
				visited[parent] = true
				order = append(order, parent)
				next = append(next, parent)
				if len(order) >= maxNodes {
					break
				}
			}
			if len(order) >= maxNodes {
				break
			}
		}
		frontier = next
	}
	return order
}

// ForwardBFSDistance performs a bounded BFS over the forward graph and
// returns, for every reachable path, its distance in hops from start.
// Used by the query layer to rank candidates nearest-first by graph
// distance (§4.I), replacing a converged importance score with a single
// frontier-expansion pass.
func (g *Graph) ForwardBFSDistance(start types.Path, maxNodes int) map[types.Path]int {
	if maxNodes <= 0 {
		maxNodes = defaultReindexMaxNodes
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	dist := map[types.Path]int{start: 0}
	frontier := []types.Path{start}

	for depth := 1; len(frontier) > 0 && len(dist) < maxNodes; depth++ {
		var next []types.Path
		for _, p := range frontier {
			for _, e := range g.forward[p] {
				if e.To == "" {
					continue
				}
				if _, seen := dist[e.To]; seen {
					continue
				}
				dist[e.To] = depth
				next = append(next, e.To)
				if len(dist) >= maxNodes {
					break
				}
			}
			if len(dist) >= maxNodes {
				break
			}
		}
		frontier = next
	}
	delete(dist, start)
	return dist
}
