// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package extractor walks an MSL parse tree and emits typed
// Declarations with source spans. It is the only package besides
// internal/mslparser that knows tree-sitter node kinds; the symbol
// index and query layer see only the resulting Declaration values.
package extractor

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	lsp "github.com/sourcegraph/go-lsp"

	"github.com/mslsp/metalls/internal/mslparser"
	"github.com/mslsp/metalls/pkg/types"
)

// queries capture the declaring node for each construct the extractor
// recognizes. Kind refinement (Function vs Kernel vs Method) and
// qualified-name construction happen afterward by inspecting sibling and
// ancestor nodes, in the style of a cursor-kind switch over the parse
// tree rather than one query per refined kind.
var queries = []struct {
	kind    types.DeclarationKind
	pattern string
}{
	{types.Function, `(function_definition declarator: (function_declarator declarator: (identifier) @name)) @decl`},
	{types.Function, `(function_definition declarator: (function_declarator declarator: (field_identifier) @name)) @decl`},
	{types.Function, `(function_definition declarator: (function_declarator declarator: (qualified_identifier name: (identifier) @name))) @decl`},
	{types.Struct, `(struct_specifier name: (type_identifier) @name body: (field_declaration_list)) @decl`},
	{types.Union, `(union_specifier name: (type_identifier) @name body: (field_declaration_list)) @decl`},
	{types.Class, `(class_specifier name: (type_identifier) @name body: (field_declaration_list)) @decl`},
	{types.Enum, `(enum_specifier name: (type_identifier) @name body: (enumerator_list)) @decl`},
	{types.EnumMember, `(enumerator name: (identifier) @name) @decl`},
	{types.Typedef, `(type_definition declarator: (type_identifier) @name) @decl`},
	{types.Typedef, `(alias_declaration name: (type_identifier) @name) @decl`},
	{types.Namespace, `(namespace_definition name: (namespace_identifier) @name) @decl`},
	{types.Field, `(field_declaration declarator: (field_identifier) @name) @decl`},
	{types.Macro, `(preproc_def name: (identifier) @name) @decl`},
	{types.Macro, `(preproc_function_def name: (identifier) @name) @decl`},
}

var kernelQualifiers = []string{"kernel", "vertex", "fragment", "mesh", "object"}

// Extract walks tree and returns every Declaration found in it, tagged
// with sourcePath.
func Extract(tree *mslparser.Tree, sourcePath types.Path) []types.Declaration {
	if tree == nil || tree.Root == nil {
		return nil
	}

	var decls []types.Declaration
	seen := make(map[string]bool) // dedup by (path,range,name)

	for _, q := range queries {
		for _, m := range runQuery(q.pattern, tree.Root, tree.Content) {
			d := buildDeclaration(tree, m.declNode, m.nameNode, q.kind, sourcePath)
			key := dedupKey(d)
			if seen[key] {
				continue
			}
			seen[key] = true
			decls = append(decls, d)
		}
	}

	return decls
}

func dedupKey(d types.Declaration) string {
	return fmt.Sprintf("%s|%s|%d:%d-%d:%d", d.SourcePath, d.Name,
		d.Range.Start.Line, d.Range.Start.Character, d.Range.End.Line, d.Range.End.Character)
}

type match struct {
	declNode *sitter.Node
	nameNode *sitter.Node
}

func runQuery(pattern string, root *sitter.Node, content []byte) []match {
	q, err := sitter.NewQuery([]byte(pattern), mslparser.Language())
	if err != nil {
		return nil
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var results []match
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var decl, name *sitter.Node
		for _, c := range m.Captures {
			capName := q.CaptureNameForId(c.Index)
			switch capName {
			case "decl":
				decl = c.Node
			case "name":
				name = c.Node
			}
		}
		if decl == nil || name == nil {
			continue
		}
		results = append(results, match{declNode: decl, nameNode: name})
	}
	return results
}

// buildDeclaration refines kind via the parent chain and text of decl,
// and constructs the qualified name from enclosing namespace/class
// nodes, mirroring a cursor-kind switch over the enclosing scope.
func buildDeclaration(tree *mslparser.Tree, decl, name *sitter.Node, kind types.DeclarationKind, sourcePath types.Path) types.Declaration {
	content := tree.Content
	shortName := name.Content(content)

	if kind == types.Function {
		if isKernelQualified(decl, content) {
			kind = types.Kernel
		} else if enclosingRecord(decl) != nil {
			kind = types.Method
		}
	}

	qualified := qualifiedName(decl, shortName, content)

	var signature string
	switch kind {
	case types.Function, types.Kernel, types.Method:
		signature = declaratorSignature(decl, content)
	case types.Macro:
		signature = macroSignature(decl, content)
	case types.Struct, types.Class:
		signature = templateSignature(decl, content)
	}

	return types.Declaration{
		Name:       qualified,
		ShortName:  shortName,
		Kind:       kind,
		SourcePath: sourcePath,
		Range:      spanOf(decl),
		Detail:     strings.TrimSpace(firstLine(decl, content)),
		Signature:  signature,
	}
}

// isKernelQualified reports whether decl's leading text before its
// declarator (qualifiers and return type) carries a
// kernel/vertex/fragment/mesh/object qualifier. MSL function qualifiers
// are ordinary leading identifiers at the grammar level, so the check is
// textual rather than structural.
func isKernelQualified(decl *sitter.Node, content []byte) bool {
	text := firstLine(decl, content)
	if d := decl.ChildByFieldName("declarator"); d != nil {
		text = string(content[decl.StartByte():d.StartByte()])
	}
	fields := strings.Fields(text)
	for _, f := range fields {
		for _, q := range kernelQualifiers {
			if f == q {
				return true
			}
		}
	}
	return false
}

// enclosingRecord walks up from n and returns the nearest struct/class
// specifier whose body contains n, or nil if n is at namespace/file
// scope.
func enclosingRecord(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "struct_specifier", "class_specifier", "union_specifier":
			return p
		case "translation_unit":
			return nil
		}
	}
	return nil
}

// qualifiedName prefixes shortName with every enclosing namespace name,
// joined with "::".
func qualifiedName(n *sitter.Node, shortName string, content []byte) string {
	var prefixes []string
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "namespace_definition" {
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				prefixes = append([]string{nameNode.Content(content)}, prefixes...)
			}
		}
	}
	if len(prefixes) == 0 {
		return shortName
	}
	return strings.Join(prefixes, "::") + "::" + shortName
}

// declaratorSignature returns the parameter-list text of a function
// declarator, used as Declaration.Signature.
func declaratorSignature(decl *sitter.Node, content []byte) string {
	declarator := findChildOfType(decl, "function_declarator")
	if declarator == nil {
		return ""
	}
	params := declarator.ChildByFieldName("parameters")
	if params == nil {
		return ""
	}
	return params.Content(content)
}

// macroSignature returns the parameter list of a function-like macro,
// empty for an object-like macro.
func macroSignature(decl *sitter.Node, content []byte) string {
	if decl.Type() != "preproc_function_def" {
		return ""
	}
	params := decl.ChildByFieldName("parameters")
	if params == nil {
		return ""
	}
	return params.Content(content)
}

// templateSignature returns the template parameter list preceding a
// struct/class/union/function declaration, if any.
func templateSignature(decl *sitter.Node, content []byte) string {
	// Inside a template_declaration the declared entity directly follows
	// the template's parameter list.
	prev := decl.PrevSibling()
	if prev != nil && prev.Type() == "template_parameter_list" {
		return prev.Content(content)
	}
	return ""
}

func findChildOfType(n *sitter.Node, t string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == t {
			return c
		}
	}
	return nil
}

func firstLine(n *sitter.Node, content []byte) string {
	text := n.Content(content)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

func spanOf(n *sitter.Node) types.Range {
	start := n.StartPoint()
	end := n.EndPoint()
	return types.Range{
		Start: lsp.Position{Line: int(start.Row), Character: int(start.Column)},
		End:   lsp.Position{Line: int(end.Row), Character: int(end.Column)},
	}
}
