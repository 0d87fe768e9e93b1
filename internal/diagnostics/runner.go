// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package diagnostics invokes the platform Metal compiler as a
// subprocess against an in-memory snapshot and parses its textual
// output into structured Diagnostics.
package diagnostics

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/mslsp/metalls/pkg/types"
)

// defaultTimeout is the subprocess timeout for a Diagnose request.
const defaultTimeout = 30 * time.Second

// Platform is the closed set of target platforms a compile can target.
// "auto" resolves to the host platform.
type Platform string

const (
	PlatformAuto    Platform = "auto"
	PlatformMacOS   Platform = "macos"
	PlatformIOS     Platform = "ios"
	PlatformTVOS    Platform = "tvos"
	PlatformWatchOS Platform = "watchos"
	PlatformXROS    Platform = "xros"
	PlatformNone    Platform = "none"
)

// Config carries the compiler.* and diagnostics.* configuration keys
// relevant to a single Diagnose invocation.
type Config struct {
	CompilerPath string // absolute path to the platform Metal compiler
	IncludePaths []string
	ExtraFlags   []string
	Platform     Platform
	Timeout      time.Duration // 0 means defaultTimeout
}

// platformMacro maps a resolved platform to its compiler macro.
func platformMacro(p Platform) string {
	switch p {
	case PlatformMacOS:
		return "__METAL_MACOS__"
	case PlatformIOS:
		return "__METAL_IOS__"
	case PlatformTVOS:
		return "__METAL_TVOS__"
	case PlatformWatchOS:
		return "__METAL_WATCHOS__"
	case PlatformXROS:
		return "__METAL_XROS__"
	default:
		return ""
	}
}

func resolvePlatform(p Platform) Platform {
	if p != PlatformAuto && p != "" {
		return p
	}
	switch runtime.GOOS {
	case "darwin":
		return PlatformMacOS
	default:
		return PlatformMacOS
	}
}

// buildArgs constructs the compiler command line: include search paths
// first, then the platform macro, then user extra flags appended last so
// they win, then an input specifier reading from standard input.
func buildArgs(cfg Config) []string {
	var args []string
	for _, p := range cfg.IncludePaths {
		args = append(args, "-I", p)
	}
	if macro := platformMacro(resolvePlatform(cfg.Platform)); macro != "" {
		args = append(args, "-D"+macro)
	}
	args = append(args, cfg.ExtraFlags...)
	// -x metal tells the compiler to treat stdin as Metal source; "-" is
	// the conventional "read from standard input" file argument.
	args = append(args, "-x", "metal", "-c", "-o", "/dev/null", "-")
	return args
}

// Run spawns the compiler subprocess for path's snapshot text, writes
// the text to stdin, and returns the parsed diagnostics. Cancellation is
// checked cooperatively: ctx.Done() both bounds the subprocess wait and,
// on an explicit timeout, causes a single Error diagnostic with no
// range.
func Run(ctx context.Context, path types.Path, snapshotText []byte, cfg Config) []types.Diagnostic {
	if cfg.CompilerPath == "" {
		return []types.Diagnostic{missingCompilerDiagnostic(path)}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, cfg.CompilerPath, buildArgs(cfg)...)
	cmd.Stdin = bytes.NewReader(snapshotText)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()

	if cmdCtx.Err() == context.DeadlineExceeded {
		return []types.Diagnostic{{
			Path:     path,
			Severity: types.SeverityError,
			Message:  fmt.Sprintf("metal compiler timed out after %s", timeout),
			Source:   "metal-compiler",
		}}
	}

	parsed := ParseOutput(out.String(), path)

	if runErr != nil {
		if len(parsed) == 0 {
			parsed = append(parsed, types.Diagnostic{
				Path:     path,
				Severity: types.SeverityError,
				Message:  exitFailureMessage(runErr),
				Source:   "metal-compiler",
			})
		}
	}

	return parsed
}

func exitFailureMessage(err error) string {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return fmt.Sprintf("metal compiler exited with status %d and produced no parseable diagnostics", exitErr.ExitCode())
	}
	return fmt.Sprintf("metal compiler failed: %v", err)
}

func missingCompilerDiagnostic(path types.Path) types.Diagnostic {
	return types.Diagnostic{
		Path:     path,
		Severity: types.SeverityError,
		Message:  "metal compiler not found; set compiler path in configuration or install the platform SDK",
		Source:   "metal-compiler",
	}
}
