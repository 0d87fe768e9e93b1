// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package diagnostics

import (
	"regexp"
	"strconv"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/mslsp/metalls/pkg/types"
)

// diagLine matches a `path:line:col: severity: message [-Wname]` line.
var diagLine = regexp.MustCompile(`^(.+?):(\d+):(\d+): (fatal error|error|warning|note): (.+)$`)

// caretLine matches a caret-underline follow-up, e.g. "      ^~~~".
var caretLine = regexp.MustCompile(`^\s*(\^~*)\s*$`)

// ParseOutput scans the compiler's combined stdout/stderr line by line.
// A caret-underline line widens the most recently emitted diagnostic's
// range to the underline's width; other trailing non-matching lines
// (continuation text) are attached to that diagnostic as a Note, the same
// "attach to the most recent thing" idiom used for reasoning-block
// continuation lines elsewhere in the codebase, rather than a single
// do-everything regexp. requestPath is substituted for "<stdin>" (or an
// empty path) so diagnostics against the unsaved buffer surface against
// the request's own path.
func ParseOutput(output string, requestPath types.Path) []types.Diagnostic {
	lines := strings.Split(output, "\n")

	var diags []types.Diagnostic
	var current *types.Diagnostic

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}

		if m := diagLine.FindStringSubmatch(line); m != nil {
			path := remapPath(m[1], requestPath)
			lineNum, _ := strconv.Atoi(m[2])
			colNum, _ := strconv.Atoi(m[3])
			sev := severityOf(m[4])
			msg := m[5]

			d := types.Diagnostic{
				Path:     path,
				Severity: sev,
				Message:  msg,
				Source:   "metal-compiler",
				Range:    singleCharRange(lineNum, colNum),
			}

			if sev == types.SeverityNote && current != nil {
				current.Notes = append(current.Notes, d)
				continue
			}

			diags = append(diags, d)
			current = &diags[len(diags)-1]
			continue
		}

		if m := caretLine.FindStringSubmatch(line); m != nil && current != nil {
			widenRangeByCaretWidth(current, len(m[1]))
			continue
		}

		if current != nil && strings.TrimSpace(line) != "" {
			current.Notes = append(current.Notes, types.Diagnostic{
				Path:     current.Path,
				Severity: types.SeverityNote,
				Message:  strings.TrimSpace(line),
				Source:   "metal-compiler",
			})
		}
	}

	return diags
}

func severityOf(s string) types.Severity {
	switch s {
	case "fatal error", "error":
		return types.SeverityError
	case "warning":
		return types.SeverityWarning
	default:
		return types.SeverityNote
	}
}

// remapPath substitutes requestPath for "<stdin>" or an empty path;
// diagnostics against a different (header) path are left alone so
// header errors surface against that header.
func remapPath(raw string, requestPath types.Path) types.Path {
	if raw == "<stdin>" || raw == "" || raw == "-" {
		return requestPath
	}
	return types.Path(raw)
}

// singleCharRange converts 1-based line/col to a 0-based range spanning
// a single character, the default before a caret-underline follow-up
// supplies a width.
func singleCharRange(line, col int) types.Range {
	l := line - 1
	c := col - 1
	if l < 0 {
		l = 0
	}
	if c < 0 {
		c = 0
	}
	return types.Range{
		Start: lsp.Position{Line: l, Character: c},
		End:   lsp.Position{Line: l, Character: c + 1},
	}
}

func widenRangeByCaretWidth(d *types.Diagnostic, width int) {
	if width <= 0 {
		return
	}
	d.Range.End.Character = d.Range.Start.Character + width
}
