// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package mslparser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProducesNonNilRoot(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte(`
kernel void add(device float *out [[buffer(0)]], uint id [[thread_position_in_grid]]) {
    out[id] = 1.0;
}
`)
	tree, err := p.Parse(context.Background(), nil, src)
	require.NoError(t, err)
	require.NotNil(t, tree)
	defer tree.Close()

	assert.NotNil(t, tree.Root)
	assert.Equal(t, src, tree.Content)
}

func TestParseReusesPreviousTreeIncrementally(t *testing.T) {
	p := New()
	defer p.Close()

	first, err := p.Parse(context.Background(), nil, []byte("float x = 1.0;"))
	require.NoError(t, err)

	second, err := p.Parse(context.Background(), first, []byte("float x = 2.0;"))
	require.NoError(t, err)
	defer second.Close()

	assert.NotNil(t, second.Root)
}

func TestParseSyntacticallyBrokenFileYieldsPartialTree(t *testing.T) {
	p := New()
	defer p.Close()

	tree, err := p.Parse(context.Background(), nil, []byte("kernel void broken( {"))
	require.NoError(t, err)
	defer tree.Close()

	assert.NotNil(t, tree.Root)
}
