// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package formatter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrefersMetalfmtOverClangFormat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metalfmt.toml"), []byte("indent_width = 2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".clang-format"), []byte("IndentWidth: 8\n"), 0o644))

	style, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, StyleInline, style.Kind)
	assert.Contains(t, style.Inline, "IndentWidth: 2")
}

func TestResolveFallsBackToClangFormatFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".clang-format"), []byte("IndentWidth: 8\n"), 0o644))

	style, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, StyleFile, style.Kind)
}

func TestResolveWarnsOnUnknownKeyButSucceeds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metalfmt.toml"), []byte("not_a_real_key = true\n"), 0o644))

	style, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, StyleInline, style.Kind)
	assert.NotEmpty(t, style.Warnings)
}

func TestResolveNoneWhenNoStyleFilesExist(t *testing.T) {
	dir := t.TempDir()
	style, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, StyleNone, style.Kind)
}
