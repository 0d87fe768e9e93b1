// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package query

import (
	"fmt"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/mslsp/metalls/internal/builtins"
	"github.com/mslsp/metalls/internal/mslparser"
	"github.com/mslsp/metalls/pkg/types"
)

// hoverBudget bounds the combined length of a multi-match hover's
// accumulated documentation, in the style of repomap's token-budget
// accumulation: render entries in ranked order until the budget is
// spent, rather than truncating an arbitrary single match.
const hoverBudget = 2000

// Hover is the rendered result of a hover request: either a built-in's
// canned documentation or one or more matching declarations' signatures.
type Hover struct {
	Contents string
	Range    types.Range
}

// Hover resolves the identifier under pos in path's tree. Built-ins take
// precedence over workspace declarations of the same name, since a user
// shadowing e.g. "float4" with their own type is the unusual case and
// the built-in meaning is what they most likely want reinforced.
// Workspace lookup is restricted first to path itself, then to headers
// reachable via #include, in depth-first discovery order.
func (l *Layer) Hover(path types.Path, pos lsp.Position, tree *mslparser.Tree) (Hover, bool) {
	name := identifierAt(tree, pos)
	if name == "" {
		return Hover{}, false
	}

	if entry, ok := builtins.Lookup(name); ok {
		return Hover{Contents: fmt.Sprintf("%s\n\n%s", name, entry.Doc)}, true
	}

	if l.Index == nil {
		return Hover{}, false
	}

	matches := l.matchesRestrictedTo(path, name)
	if len(matches) == 0 {
		return Hover{}, false
	}

	dist := l.distanceFuncFrom(path)
	sortDeclsByDistance(matches, dist)

	var b strings.Builder
	spent := 0
	for i, d := range matches {
		entry := renderDeclaration(d)
		if spent > 0 && spent+len(entry) > hoverBudget {
			break
		}
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(entry)
		spent += len(entry)
	}

	return Hover{Contents: b.String(), Range: matches[0].Range}, true
}

// matchesRestrictedTo returns name's declarations, searching path itself
// first and then its forward include closure, stopping at the first
// file that yields any match.
func (l *Layer) matchesRestrictedTo(path types.Path, name string) []types.Declaration {
	for _, p := range l.reachableFrom(path) {
		var inFile []types.Declaration
		for _, d := range l.Index.Lookup(name) {
			if d.SourcePath == p {
				inFile = append(inFile, d)
			}
		}
		if len(inFile) > 0 {
			return inFile
		}
	}
	return nil
}

func renderDeclaration(d types.Declaration) string {
	if d.Signature != "" {
		return fmt.Sprintf("%s %s%s // %s", d.Kind, d.Name, d.Signature, d.SourcePath)
	}
	return fmt.Sprintf("%s %s // %s", d.Kind, d.Name, d.SourcePath)
}
