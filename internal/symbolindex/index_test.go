// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package symbolindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mslsp/metalls/pkg/types"
)

func decl(name string, path types.Path, kind types.DeclarationKind) types.Declaration {
	return types.Declaration{Name: name, ShortName: name, Kind: kind, SourcePath: path}
}

func TestReplaceThenLookupFindsDeclaration(t *testing.T) {
	idx := New()
	idx.Replace(types.Path("/a.metal"), []types.Declaration{decl("scale", "/a.metal", types.Function)})

	got := idx.Lookup("scale")
	require.Len(t, got, 1)
	assert.Equal(t, types.Path("/a.metal"), got[0].SourcePath)
}

func TestReplaceRemovesStaleDeclarationsForPath(t *testing.T) {
	idx := New()
	idx.Replace(types.Path("/a.metal"), []types.Declaration{decl("old", "/a.metal", types.Function)})
	idx.Replace(types.Path("/a.metal"), []types.Declaration{decl("new", "/a.metal", types.Function)})

	assert.Empty(t, idx.Lookup("old"))
	assert.Len(t, idx.Lookup("new"), 1)
}

func TestReplaceDoesNotAffectOtherPaths(t *testing.T) {
	idx := New()
	idx.Replace(types.Path("/a.metal"), []types.Declaration{decl("fromA", "/a.metal", types.Function)})
	idx.Replace(types.Path("/b.metal"), []types.Declaration{decl("fromB", "/b.metal", types.Function)})

	idx.Replace(types.Path("/a.metal"), nil)

	assert.Empty(t, idx.Lookup("fromA"))
	assert.Len(t, idx.Lookup("fromB"), 1)
}

func TestPrefixOrdersByKindThenPath(t *testing.T) {
	idx := New()
	idx.Replace(types.Path("/a.metal"), []types.Declaration{decl("scaleVar", "/a.metal", types.Variable)})
	idx.Replace(types.Path("/z.metal"), []types.Declaration{decl("scaleFn", "/z.metal", types.Function)})

	results := idx.Prefix("scale", 0, nil)
	require.Len(t, results, 2)
	assert.Equal(t, types.Function, results[0].Kind)
	assert.Equal(t, types.Variable, results[1].Kind)
}

func TestPrefixBoundedByLimit(t *testing.T) {
	idx := New()
	idx.Replace(types.Path("/a.metal"), []types.Declaration{
		decl("scale1", "/a.metal", types.Function),
		decl("scale2", "/a.metal", types.Function),
		decl("scale3", "/a.metal", types.Function),
	})

	results := idx.Prefix("scale", 2, nil)
	assert.Len(t, results, 2)
}

func TestByPathReturnsOnlyDeclarationsFromThatFile(t *testing.T) {
	idx := New()
	idx.Replace(types.Path("/a.metal"), []types.Declaration{decl("fn", "/a.metal", types.Function)})

	results := idx.ByPath(types.Path("/a.metal"))
	require.Len(t, results, 1)
	assert.Equal(t, "fn", results[0].Name)
}
