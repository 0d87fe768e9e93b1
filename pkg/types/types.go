// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines the data model shared across the metalls packages:
// paths, snapshots, declarations, the include graph, diagnostics, and
// scheduler requests.
package types

import (
	"path/filepath"
	"runtime"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"
)

// Path is an absolute, canonicalized filesystem path. Two Paths compare
// equal by byte value after Canonicalize; on case-insensitive filesystems
// Canonicalize lowercases the value so paths differing only in case
// collapse to the same Path.
type Path string

// Canonicalize makes p absolute and, on case-insensitive platforms, folds
// case so that Path equality matches filesystem equality.
func Canonicalize(p string) Path {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	abs = filepath.Clean(abs)
	if caseInsensitiveFS {
		abs = strings.ToLower(abs)
	}
	return Path(abs)
}

// caseInsensitiveFS is true on platforms whose default filesystem folds
// case (Windows, macOS/APFS in its default configuration).
var caseInsensitiveFS = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

// String implements fmt.Stringer.
func (p Path) String() string { return string(p) }

// ToDocumentURI renders p as a file:// URI for use with sourcegraph/go-lsp
// wire types.
func (p Path) ToDocumentURI() lsp.DocumentURI {
	return lsp.DocumentURI("file://" + string(p))
}

// Snapshot is an immutable view of a file's text at a given version,
// together with the opaque parse tree produced for it. Once published a
// Snapshot's Text is never mutated in place; a new version replaces it
// wholesale.
type Snapshot struct {
	Path    Path
	Version uint64
	Text    []byte
	Tree    ParseTree
}

// ParseTree is an opaque handle to a parsed syntax tree. Only the
// extractor (internal/extractor) and parser adapter (internal/mslparser)
// know what is behind this interface; every other component treats it as
// a black box threaded through for incremental reparse.
type ParseTree interface {
	// Close releases any resources (e.g. a tree-sitter C tree) held by
	// the parse tree. Safe to call more than once.
	Close()
}

// DeclarationKind is the closed set of syntactic declaration categories
// the extractor can produce.
type DeclarationKind int

const (
	Function DeclarationKind = iota
	Kernel
	Method
	Struct
	Union
	Class
	Enum
	EnumMember
	Typedef
	Field
	Macro
	Namespace
	Variable
	Parameter
)

// String returns the human-readable name of the declaration kind.
func (k DeclarationKind) String() string {
	switch k {
	case Function:
		return "Function"
	case Kernel:
		return "Kernel"
	case Method:
		return "Method"
	case Struct:
		return "Struct"
	case Union:
		return "Union"
	case Class:
		return "Class"
	case Enum:
		return "Enum"
	case EnumMember:
		return "EnumMember"
	case Typedef:
		return "Typedef"
	case Field:
		return "Field"
	case Macro:
		return "Macro"
	case Namespace:
		return "Namespace"
	case Variable:
		return "Variable"
	case Parameter:
		return "Parameter"
	default:
		return "Unknown"
	}
}

// KindPriority orders declaration kinds for ranking ties in completion and
// prefix lookup, lowest value sorts first.
func (k DeclarationKind) KindPriority() int {
	switch k {
	case Kernel:
		return 0
	case Function:
		return 1
	case Struct, Class:
		return 2
	case Typedef:
		return 3
	case Field:
		return 4
	case Macro:
		return 5
	case Variable:
		return 6
	default:
		return 7
	}
}

// Range is a half-open span expressed in 0-based line/column positions.
type Range struct {
	Start lsp.Position
	End   lsp.Position
}

// Declaration is a named, located, kinded entity extracted from a parse
// tree. Declarations are immutable; replacing a file's declarations in
// the symbol index replaces them atomically as a set.
type Declaration struct {
	Name       string // qualified name, e.g. "fixture::scale_value"
	ShortName  string // trailing identifier, e.g. "scale_value"
	Kind       DeclarationKind
	SourcePath Path
	Range      Range
	Detail     string
	Signature  string // template parameter list, macro parameter list, function signature
}

// IncludeEdge is one `#include` directive resolved (or not) from From.
type IncludeEdge struct {
	From   Path
	To     Path // zero value ("") when unresolved
	Quoted bool // true for "...", false for <...>
	Span   Range
	Note   IncludeNote
}

// IncludeNote records a non-fatal observation made while resolving an
// include directive.
type IncludeNote int

const (
	NoteNone IncludeNote = iota
	NoteAmbiguous
	NoteUnresolved
)

// Severity is the closed set of diagnostic severities.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

// ToLSP converts a Severity to the sourcegraph/go-lsp numeric severity.
func (s Severity) ToLSP() lsp.DiagnosticSeverity {
	switch s {
	case SeverityError:
		return lsp.Error
	case SeverityWarning:
		return lsp.Warning
	default:
		return lsp.Information
	}
}

// Diagnostic is one compiler-sourced finding against a path.
type Diagnostic struct {
	Path     Path
	Range    Range
	Severity Severity
	Code     string
	Message  string
	Source   string // always "metal-compiler" for diagnostics produced by internal/diagnostics
	Notes    []Diagnostic
}

// RequestKind is the closed set of scheduler request kinds.
type RequestKind int

const (
	IndexFile RequestKind = iota
	Diagnose
	Format
	Hover
	Definition
	Completion
)

// PriorityClass is the closed set of scheduler priority classes, ordered
// Interactive > OnChange > Background.
type PriorityClass int

const (
	Interactive PriorityClass = iota
	OnChange
	Background
)

// ClassOf maps a request kind to its scheduling priority class.
func (k RequestKind) ClassOf() PriorityClass {
	switch k {
	case Hover, Definition, Completion:
		return Interactive
	case IndexFile, Diagnose:
		return OnChange
	default:
		return Background
	}
}
