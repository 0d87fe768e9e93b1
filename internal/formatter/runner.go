// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package formatter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	lsp "github.com/sourcegraph/go-lsp"

	"github.com/mslsp/metalls/pkg/types"
)

// defaultTimeout is the formatter subprocess timeout.
const defaultTimeout = 10 * time.Second

// Config carries the formatting.* configuration keys.
type Config struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// Result is the outcome of a format request: either the full new text or
// a minimal diff as a list of replace edits.
type Result struct {
	NewText []byte
	Edits   []Edit
}

// Edit is one contiguous replace edit against the original text.
type Edit struct {
	Range       types.Range
	NewText     string
}

// Run invokes the configured formatter subprocess on snapshotText with
// the resolved style's arguments prepended by cfg's user-supplied extra
// args, and returns the reformatted text plus a computed minimal edit
// list. A non-zero exit, or empty output for non-empty input, is a
// failure: no edits are proposed.
func Run(ctx context.Context, cfg Config, style Style, snapshotText []byte) (*Result, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("formatter: no command configured")
	}
	if style.Kind == StyleNone {
		// No style was found: formatting is a no-op.
		return &Result{NewText: snapshotText}, nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string{}, cfg.Args...)
	switch style.Kind {
	case StyleInline:
		args = append(args, "-style="+style.Inline)
	case StyleFile:
		args = append(args, "-style=file")
	}

	cmd := exec.CommandContext(cmdCtx, cfg.Command, args...)
	cmd.Stdin = bytes.NewReader(snapshotText)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return nil, fmt.Errorf("formatter: %s: %w (%s)", cfg.Command, err, stderr.String())
	}

	formatted := stdout.Bytes()
	if len(snapshotText) > 0 && len(formatted) == 0 {
		return nil, fmt.Errorf("formatter: %s produced empty output for non-empty input", cfg.Command)
	}

	edits := diffEdits(snapshotText, formatted)
	return &Result{NewText: formatted, Edits: edits}, nil
}

// diffEdits computes the minimal contiguous replace-edit list turning
// original into updated, using a Levenshtein-style diff over lines.
func diffEdits(original, updated []byte) []Edit {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(original), string(updated))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var edits []Edit
	lineNo := 0
	i := 0
	for i < len(diffs) {
		d := diffs[i]
		count := lineCount(d.Text)

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			lineNo += count
			i++
		case diffmatchpatch.DiffDelete:
			startLine := lineNo
			deleteCount := count
			var insertText string
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				insertText = diffs[i+1].Text
				i++
			}
			edits = append(edits, Edit{
				Range: types.Range{
					Start: lsp.Position{Line: startLine, Character: 0},
					End:   lsp.Position{Line: startLine + deleteCount, Character: 0},
				},
				NewText: insertText,
			})
			lineNo += deleteCount
			i++
		case diffmatchpatch.DiffInsert:
			edits = append(edits, Edit{
				Range: types.Range{
					Start: lsp.Position{Line: lineNo, Character: 0},
					End:   lsp.Position{Line: lineNo, Character: 0},
				},
				NewText: d.Text,
			})
			i++
		}
	}
	return edits
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	n := 0
	for _, c := range s {
		if c == '\n' {
			n++
		}
	}
	if s[len(s)-1] != '\n' {
		n++
	}
	return n
}
