// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mslsp/metalls/internal/mslparser"
	"github.com/mslsp/metalls/pkg/types"
)

func parse(t *testing.T, src string) *mslparser.Tree {
	t.Helper()
	p := mslparser.New()
	defer p.Close()
	tree, err := p.Parse(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	return tree
}

func TestExtractPlainFunction(t *testing.T) {
	tree := parse(t, `float add(float a, float b) { return a + b; }`)
	defer tree.Close()

	decls := Extract(tree, types.Path("/a.metal"))
	require.NotEmpty(t, decls)
	assert.Equal(t, types.Function, decls[0].Kind)
	assert.Equal(t, "add", decls[0].ShortName)
}

func TestExtractKernelFunction(t *testing.T) {
	tree := parse(t, `kernel void compute(device float *out [[buffer(0)]]) { out[0] = 1.0; }`)
	defer tree.Close()

	decls := Extract(tree, types.Path("/a.metal"))
	require.NotEmpty(t, decls)
	assert.Equal(t, types.Kernel, decls[0].Kind)
	assert.Equal(t, "compute", decls[0].ShortName)
}

func TestExtractStructDeclaration(t *testing.T) {
	tree := parse(t, `struct Vertex { float3 position; float4 color; };`)
	defer tree.Close()

	decls := Extract(tree, types.Path("/a.metal"))
	var found bool
	for _, d := range decls {
		if d.Kind == types.Struct && d.ShortName == "Vertex" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestExtractObjectLikeMacro(t *testing.T) {
	tree := parse(t, "#define MAX_LIGHTS 8\n")
	defer tree.Close()

	decls := Extract(tree, types.Path("/a.metal"))
	require.NotEmpty(t, decls)
	assert.Equal(t, types.Macro, decls[0].Kind)
	assert.Equal(t, "MAX_LIGHTS", decls[0].ShortName)
	assert.Empty(t, decls[0].Signature)
}

func TestExtractFunctionLikeMacroCapturesSignature(t *testing.T) {
	tree := parse(t, "#define SQUARE(x) ((x) * (x))\n")
	defer tree.Close()

	decls := Extract(tree, types.Path("/a.metal"))
	require.NotEmpty(t, decls)
	assert.Equal(t, types.Macro, decls[0].Kind)
	assert.Contains(t, decls[0].Signature, "x")
}

func TestExtractNamespacedFunctionQualifiesName(t *testing.T) {
	tree := parse(t, `namespace fixture { inline float scale_value(float a, float b) { return a * b; } }`)
	defer tree.Close()

	decls := Extract(tree, types.Path("/b.h"))
	var found bool
	for _, d := range decls {
		if d.Name == "fixture::scale_value" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestExtractMethodInsideStruct(t *testing.T) {
	tree := parse(t, `struct Thing { float area() { return 1.0; } };`)
	defer tree.Close()

	decls := Extract(tree, types.Path("/a.metal"))
	var found bool
	for _, d := range decls {
		if d.ShortName == "area" && d.Kind == types.Method {
			found = true
		}
	}
	assert.True(t, found)
}
