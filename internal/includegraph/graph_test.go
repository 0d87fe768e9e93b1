// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package includegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mslsp/metalls/pkg/types"
)

func TestParseDirectivesFindsQuotedAndAngleIncludes(t *testing.T) {
	src := []byte("#include \"b.h\"\n#include <metal_stdlib>\n")
	edges := ParseDirectives(types.Path("/a.metal"), src)

	require.Len(t, edges, 2)
	assert.True(t, edges[0].Quoted)
	assert.Equal(t, types.Path("b.h"), edges[0].To)
	assert.False(t, edges[1].Quoted)
	assert.Equal(t, types.Path("metal_stdlib"), edges[1].To)
}

func TestResolveUnresolvedWhenNoRootMatches(t *testing.T) {
	edge := types.IncludeEdge{From: "/project/a.metal", To: "missing.h", Quoted: true}
	resolved := Resolve(edge, SearchConfig{}, func(string) bool { return false })

	assert.Equal(t, types.Path(""), resolved.To)
	assert.Equal(t, types.NoteUnresolved, resolved.Note)
}

func TestResolveQuotedPrefersIncludingFileDirectory(t *testing.T) {
	edge := types.IncludeEdge{From: "/project/src/a.metal", To: "b.h", Quoted: true}
	resolved := Resolve(edge, SearchConfig{UserIncludePaths: []string{"/project/include"}},
		func(p string) bool { return true })

	assert.Contains(t, string(resolved.To), "/project/src")
}

func TestResolveAngleFallsBackToIncludingDirLast(t *testing.T) {
	seen := map[string]bool{"/project/include/b.h": true, "/project/src/b.h": true}
	edge := types.IncludeEdge{From: "/project/src/a.metal", To: "b.h", Quoted: false}
	resolved := Resolve(edge, SearchConfig{UserIncludePaths: []string{"/project/include"}},
		func(p string) bool { return seen[p] })

	assert.Contains(t, string(resolved.To), "/project/include")
}

func TestReplaceEdgesUpdatesReverseIndex(t *testing.T) {
	g := New()
	g.ReplaceEdges(types.Path("/a.metal"), []types.IncludeEdge{{From: "/a.metal", To: "/b.h"}})

	assert.True(t, g.HasInboundEdges(types.Path("/b.h")))

	g.ReplaceEdges(types.Path("/a.metal"), nil)
	assert.False(t, g.HasInboundEdges(types.Path("/b.h")))
}

func TestForwardTraversalIsCycleSafe(t *testing.T) {
	g := New()
	g.ReplaceEdges(types.Path("/a.h"), []types.IncludeEdge{{From: "/a.h", To: "/b.h"}})
	g.ReplaceEdges(types.Path("/b.h"), []types.IncludeEdge{{From: "/b.h", To: "/a.h"}})

	reachable := g.Forward(types.Path("/a.h"))
	assert.ElementsMatch(t, []types.Path{"/b.h"}, reachable)
}

func TestForwardBFSDistanceAssignsHopCounts(t *testing.T) {
	g := New()
	g.ReplaceEdges(types.Path("/a.metal"), []types.IncludeEdge{{From: "/a.metal", To: "/b.h"}})
	g.ReplaceEdges(types.Path("/b.h"), []types.IncludeEdge{{From: "/b.h", To: "/c.h"}})

	dist := g.ForwardBFSDistance(types.Path("/a.metal"), 256)
	assert.Equal(t, 1, dist[types.Path("/b.h")])
	assert.Equal(t, 2, dist[types.Path("/c.h")])
}

func TestReverseBFSBoundedByMaxNodes(t *testing.T) {
	g := New()
	g.ReplaceEdges(types.Path("/a.h"), []types.IncludeEdge{{From: "/a.h", To: "/root.h"}})
	g.ReplaceEdges(types.Path("/b.h"), []types.IncludeEdge{{From: "/b.h", To: "/root.h"}})

	parents := g.ReverseBFS(types.Path("/root.h"), 3, 1)
	assert.Len(t, parents, 1)
}
