// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package formatter resolves formatting style for a source file and
// invokes the configured formatter subprocess, returning either the
// full formatted text or a minimal edit list.
package formatter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// StyleKind is the closed set of style-resolution outcomes.
type StyleKind int

const (
	// StyleNone means no style was found; formatting is a no-op.
	StyleNone StyleKind = iota
	// StyleInline means an inline clang-format option string was
	// derived from a metalfmt.toml.
	StyleInline
	// StyleFile means the formatter should discover its own
	// .clang-format / _clang-format via the "file" style.
	StyleFile
)

// Style is the resolved style for one format request.
type Style struct {
	Kind     StyleKind
	Inline   string   // clang-format inline option string, when Kind == StyleInline
	Warnings []string // unrecognized metalfmt.toml keys, non-fatal; returned to the caller, not logged here
}

// metalfmtDoc is the closed key set recognized from metalfmt.toml (§6).
// Field names use toml tags matching the snake_case keys verbatim.
type metalfmtDoc struct {
	BasedOnStyle                      *string `toml:"based_on_style"`
	IndentWidth                       *int    `toml:"indent_width"`
	UseTab                            *bool   `toml:"use_tab"`
	TabWidth                          *int    `toml:"tab_width"`
	ColumnLimit                       *int    `toml:"column_limit"`
	BreakBeforeBraces                 *string `toml:"break_before_braces"`
	BraceWrappingAfterFunction        *bool   `toml:"brace_wrapping_after_function"`
	BraceWrappingAfterStruct          *bool   `toml:"brace_wrapping_after_struct"`
	BraceWrappingAfterEnum            *bool   `toml:"brace_wrapping_after_enum"`
	BraceWrappingAfterControlStatement *bool  `toml:"brace_wrapping_after_control_statement"`
	SpaceBeforeParens                 *string `toml:"space_before_parens"`
	PointerAlignment                  *string `toml:"pointer_alignment"`
	ReferenceAlignment                *string `toml:"reference_alignment"`
	AlignAfterOpenBracket             *string `toml:"align_after_open_bracket"`
	AlignOperands                     *bool   `toml:"align_operands"`
	AlignTrailingComments             *bool   `toml:"align_trailing_comments"`
	SortIncludes                      *bool   `toml:"sort_includes"`
	IncludeBlocks                     *string `toml:"include_blocks"`
	AllowShortFunctionsOnASingleLine  *string `toml:"allow_short_functions_on_a_single_line"`
	AllowShortIfStatementsOnASingleLine *string `toml:"allow_short_if_statements_on_a_single_line"`
	AllowShortLoopsOnASingleLine      *bool   `toml:"allow_short_loops_on_a_single_line"`
	BinPackArguments                  *bool   `toml:"bin_pack_arguments"`
	BinPackParameters                 *bool   `toml:"bin_pack_parameters"`
	CppStandard                       *string `toml:"cpp_standard"`
	MaxEmptyLinesToKeep               *int    `toml:"max_empty_lines_to_keep"`
}

// clangFormatKey maps each recognized metalfmt.toml key to its
// clang-format option name.
var clangFormatKey = map[string]string{
	"based_on_style":                          "BasedOnStyle",
	"indent_width":                             "IndentWidth",
	"use_tab":                                  "UseTab",
	"tab_width":                                "TabWidth",
	"column_limit":                             "ColumnLimit",
	"break_before_braces":                      "BreakBeforeBraces",
	"brace_wrapping_after_function":            "BraceWrapping.AfterFunction",
	"brace_wrapping_after_struct":              "BraceWrapping.AfterStruct",
	"brace_wrapping_after_enum":                "BraceWrapping.AfterEnum",
	"brace_wrapping_after_control_statement":   "BraceWrapping.AfterControlStatement",
	"space_before_parens":                      "SpaceBeforeParens",
	"pointer_alignment":                        "PointerAlignment",
	"reference_alignment":                      "ReferenceAlignment",
	"align_after_open_bracket":                 "AlignAfterOpenBracket",
	"align_operands":                           "AlignOperands",
	"align_trailing_comments":                  "AlignTrailingComments",
	"sort_includes":                            "SortIncludes",
	"include_blocks":                           "IncludeBlocks",
	"allow_short_functions_on_a_single_line":   "AllowShortFunctionsOnASingleLine",
	"allow_short_if_statements_on_a_single_line": "AllowShortIfStatementsOnASingleLine",
	"allow_short_loops_on_a_single_line":       "AllowShortLoopsOnASingleLine",
	"bin_pack_arguments":                       "BinPackArguments",
	"bin_pack_parameters":                      "BinPackParameters",
	"cpp_standard":                             "Standard",
	"max_empty_lines_to_keep":                  "MaxEmptyLinesToKeep",
}

// Resolve walks from sourceDir upward looking for metalfmt.toml, then
// .clang-format/_clang-format, returning the first style found.
func Resolve(sourceDir string) (Style, error) {
	dir := sourceDir
	for {
		if path := firstExisting(dir, "metalfmt.toml"); path != "" {
			return resolveMetalfmt(path)
		}
		if p := firstExisting(dir, ".clang-format", "_clang-format"); p != "" {
			return Style{Kind: StyleFile}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return Style{Kind: StyleNone}, nil
}

func firstExisting(dir string, names ...string) string {
	for _, name := range names {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func resolveMetalfmt(path string) (Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Style{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Style{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	var doc metalfmtDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Style{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	var warnings []string
	for key := range raw {
		if _, ok := clangFormatKey[key]; !ok {
			warnings = append(warnings, fmt.Sprintf("unrecognized metalfmt.toml key %q, ignored", key))
		}
	}

	inline := inlineStyleFrom(raw)
	return Style{Kind: StyleInline, Inline: inline, Warnings: warnings}, nil
}

// inlineStyleFrom renders the recognized keys present in raw as a
// "{Key: value, ...}" clang-format inline style string.
func inlineStyleFrom(raw map[string]interface{}) string {
	pairs := ""
	for key, value := range raw {
		clangKey, ok := clangFormatKey[key]
		if !ok {
			continue
		}
		if pairs != "" {
			pairs += ", "
		}
		pairs += fmt.Sprintf("%s: %v", clangKey, value)
	}
	return "{" + pairs + "}"
}
