// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package mslparser wraps an incremental C++-grammar parser configured
// for Metal Shading Language sources. MSL is a strict syntactic subset of
// C++14 plus vector/matrix literal and attribute syntax, so the cpp
// grammar parses it directly; qualifiers such as kernel/vertex/fragment
// are ordinary identifiers at the grammar level and are recognized by
// the extractor, not by a grammar fork.
package mslparser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/mslsp/metalls/pkg/types"
)

// Tree wraps a tree-sitter parse tree and implements types.ParseTree.
// The node-kind vocabulary behind it is opaque to every package except
// internal/extractor.
type Tree struct {
	Root    *sitter.Node
	Content []byte
	raw     *sitter.Tree
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
	}
}

var _ types.ParseTree = (*Tree)(nil)

// Language returns the tree-sitter language used for MSL parsing.
func Language() *sitter.Language { return cpp.GetLanguage() }

// Parser parses MSL source text into a Tree. A Parser is not safe for
// concurrent use by multiple goroutines; callers obtain one per
// in-flight parse request.
type Parser struct {
	sp *sitter.Parser
}

// New creates a Parser configured with the cpp grammar.
func New() *Parser {
	sp := sitter.NewParser()
	sp.SetLanguage(Language())
	return &Parser{sp: sp}
}

// Parse produces a tree for text. If previous is non-nil it is used as
// the base for an incremental reparse; tree-sitter falls back to a full
// parse when the edit distance makes incremental reuse not worthwhile.
// ctx is checked cooperatively during the parse via sitter.ParseCtx, so a
// cancelled request unblocks without the scheduler waiting for a full
// parse of a very large header.
func (p *Parser) Parse(ctx context.Context, previous *Tree, text []byte) (*Tree, error) {
	if previous != nil && previous.raw != nil {
		p.sp.SetIncludedRanges(nil)
		raw, err := p.sp.ParseCtx(ctx, previous.raw, text)
		if err != nil {
			return nil, fmt.Errorf("incremental parse: %w", err)
		}
		return &Tree{Root: raw.RootNode(), Content: text, raw: raw}, nil
	}

	raw, err := p.sp.ParseCtx(ctx, nil, text)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return &Tree{Root: raw.RootNode(), Content: text, raw: raw}, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.sp.Close()
}
