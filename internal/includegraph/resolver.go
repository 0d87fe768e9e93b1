// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package includegraph resolves `#include` directives against search
// paths and maintains the directed multigraph of include relationships
// between source files.
package includegraph

import (
	"path/filepath"
	"regexp"

	securejoin "github.com/cyphar/filepath-securejoin"
	lsp "github.com/sourcegraph/go-lsp"

	"github.com/mslsp/metalls/pkg/types"
)

func position(line, col int) lsp.Position {
	return lsp.Position{Line: line, Character: col}
}

// includeDirective matches a single #include line, capturing the
// delimiter style and the literal target text.
var includeDirective = regexp.MustCompile(`(?m)^\s*#\s*include\s+(?:"([^"]+)"|<([^>]+)>)`)

// SearchConfig carries the roots consulted when resolving an include
// target, in the order configuration supplies them.
type SearchConfig struct {
	UserIncludePaths []string // from compiler.includePaths
	SDKRoots         []string // discovered once per session
}

// StatFunc reports whether a candidate path exists on the filesystem.
// Abstracted so the resolver can be driven by either the real
// filesystem (via the store's afero.Fs) or a fake in tests.
type StatFunc func(path string) bool

// ParseDirectives scans text for #include directives and returns an
// unresolved IncludeEdge per directive, in source order.
func ParseDirectives(from types.Path, text []byte) []types.IncludeEdge {
	matches := includeDirective.FindAllSubmatchIndex(text, -1)
	edges := make([]types.IncludeEdge, 0, len(matches))
	for _, m := range matches {
		var target string
		var quoted bool
		if m[2] >= 0 {
			target = string(text[m[2]:m[3]])
			quoted = true
		} else {
			target = string(text[m[4]:m[5]])
			quoted = false
		}
		line := lineOf(text, m[0])
		edges = append(edges, types.IncludeEdge{
			From:   from,
			Quoted: quoted,
			Span: types.Range{
				Start: position(line, 0),
				End:   position(line, m[1]-m[0]),
			},
		})
		edges[len(edges)-1].To = types.Path(target) // stash raw target; Resolve overwrites
	}
	return edges
}

// Resolve fills in To (and Note, if applicable) for each edge produced
// by ParseDirectives, following the search order from §4.D: quoted
// includes check the including file's own directory first; angle-bracket
// includes check it last, as a fallback.
func Resolve(edge types.IncludeEdge, cfg SearchConfig, exists StatFunc) types.IncludeEdge {
	target := string(edge.To) // raw literal stashed by ParseDirectives
	fromDir := filepath.Dir(string(edge.From))

	var roots []string
	if edge.Quoted {
		roots = append(roots, fromDir)
		roots = append(roots, cfg.UserIncludePaths...)
		roots = append(roots, cfg.SDKRoots...)
	} else {
		roots = append(roots, cfg.UserIncludePaths...)
		roots = append(roots, cfg.SDKRoots...)
		roots = append(roots, fromDir)
	}

	var matched string
	matchCount := 0
	for _, root := range roots {
		candidate, err := securejoin.SecureJoin(root, target)
		if err != nil {
			continue
		}
		if exists(candidate) {
			matchCount++
			if matched == "" {
				matched = candidate
			}
		}
	}

	switch {
	case matched == "":
		edge.To = ""
		edge.Note = types.NoteUnresolved
	case matchCount > 1:
		edge.To = types.Canonicalize(matched)
		edge.Note = types.NoteAmbiguous
	default:
		edge.To = types.Canonicalize(matched)
		edge.Note = types.NoteNone
	}
	return edge
}

func lineOf(text []byte, offset int) int {
	line := 0
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
		}
	}
	return line
}
