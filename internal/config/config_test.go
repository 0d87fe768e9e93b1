// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithNoConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(nil, dir)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadMergesConfigFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".metalls.yaml"), []byte(
		"diagnostics:\n  debounceMs: 750\ncompiler:\n  platform: macos\n",
	), 0o644))

	cfg, err := Load(nil, dir)
	require.NoError(t, err)
	assert.Equal(t, 750, cfg.Diagnostics.DebounceMs)
	assert.Equal(t, "macos", cfg.Compiler.Platform)
	// Untouched keys keep their declared default.
	assert.True(t, cfg.Formatting.Enabled)
}

func TestLoadHonorsExplicitFalseBooleans(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".metalls.yaml"), []byte(
		"formatting:\n  enabled: false\ndiagnostics:\n  onType: false\n",
	), 0o644))

	cfg, err := Load(nil, dir)
	require.NoError(t, err)
	assert.False(t, cfg.Formatting.Enabled)
	assert.False(t, cfg.Diagnostics.OnType)
	// A sibling bool left unset still keeps its declared default.
	assert.True(t, cfg.Diagnostics.OnSave)
}

func TestLoadBindsFlags(t *testing.T) {
	dir := t.TempDir()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("compiler.platform", "ios", "")
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(fs, dir)
	require.NoError(t, err)
	assert.Equal(t, "ios", cfg.Compiler.Platform)
}
