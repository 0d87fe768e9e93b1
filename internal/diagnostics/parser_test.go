// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mslsp/metalls/pkg/types"
)

func TestParseOutputBasicErrorLine(t *testing.T) {
	out := "/tmp/x.metal:3:5: error: use of undeclared identifier 'foo'"
	diags := ParseOutput(out, types.Path("/tmp/x.metal"))

	require.Len(t, diags, 1)
	assert.Equal(t, types.SeverityError, diags[0].Severity)
	assert.Equal(t, 2, diags[0].Range.Start.Line)
	assert.Equal(t, 4, diags[0].Range.Start.Character)
	assert.Equal(t, "use of undeclared identifier 'foo'", diags[0].Message)
	assert.Equal(t, "metal-compiler", diags[0].Source)
}

func TestParseOutputRemapsStdinToRequestPath(t *testing.T) {
	out := "<stdin>:1:1: warning: unused variable 'x'"
	diags := ParseOutput(out, types.Path("/a.metal"))

	require.Len(t, diags, 1)
	assert.Equal(t, types.Path("/a.metal"), diags[0].Path)
	assert.Equal(t, types.SeverityWarning, diags[0].Severity)
}

func TestParseOutputKeepsHeaderPathDistinct(t *testing.T) {
	out := "/tmp/b.h:10:2: error: redefinition of 'scale'"
	diags := ParseOutput(out, types.Path("/a.metal"))

	require.Len(t, diags, 1)
	assert.Equal(t, types.Path("/tmp/b.h"), diags[0].Path)
}

func TestParseOutputAttachesNoteToPriorDiagnostic(t *testing.T) {
	out := "/a.metal:1:1: error: bad thing\n" +
		"/a.metal:2:1: note: see here\n"
	diags := ParseOutput(out, types.Path("/a.metal"))

	require.Len(t, diags, 1)
	require.Len(t, diags[0].Notes, 1)
	assert.Equal(t, "see here", diags[0].Notes[0].Message)
}

func TestParseOutputCaretWidensRange(t *testing.T) {
	out := "/a.metal:1:5: error: bad thing\n" +
		"    ^~~~\n"
	diags := ParseOutput(out, types.Path("/a.metal"))

	require.Len(t, diags, 1)
	assert.Equal(t, 4, diags[0].Range.Start.Character)
	assert.Equal(t, 8, diags[0].Range.End.Character)
}

func TestParseOutputNoMatchesYieldsNoDiagnostics(t *testing.T) {
	diags := ParseOutput("nothing to see here\n", types.Path("/a.metal"))
	assert.Empty(t, diags)
}
