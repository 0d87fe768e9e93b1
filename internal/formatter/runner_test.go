// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package formatter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffEditsIdenticalTextYieldsNoEdits(t *testing.T) {
	text := []byte("float a = 1.0;\nfloat b = 2.0;\n")
	edits := diffEdits(text, text)
	assert.Empty(t, edits)
}

func TestDiffEditsSingleLineChangeYieldsOneEdit(t *testing.T) {
	original := []byte("float a=1.0;\nfloat b = 2.0;\n")
	updated := []byte("float a = 1.0;\nfloat b = 2.0;\n")

	edits := diffEdits(original, updated)
	require.NotEmpty(t, edits)
	assert.Contains(t, edits[0].NewText, "float a = 1.0;")
}

func TestRunFailsWithoutConfiguredCommand(t *testing.T) {
	_, err := Run(context.Background(), Config{}, Style{Kind: StyleNone}, []byte("x"))
	require.Error(t, err)
}
