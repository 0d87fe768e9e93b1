// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mslsp/metalls/internal/formatter"
)

// Exit codes per the format subcommand's CLI contract.
const (
	exitSuccess     = 0
	exitWouldChange = 1
	exitUsage       = 2
	exitFailure     = 3
)

func newFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format [files...]",
		Short: "Format MSL files in place, or stdin if none are given",
		RunE:  runFormat,
	}
	cmd.Flags().Bool("check", false, "Exit 1 if any file would change, without modifying it")
	return cmd
}

func runFormat(cmd *cobra.Command, args []string) error {
	check, _ := cmd.Flags().GetBool("check")

	settings, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "metalls format: loading configuration: %v\n", err)
		os.Exit(exitFailure)
	}

	cfg := formatter.Config{Command: settings.Formatting.Command, Args: settings.Formatting.Args}

	if len(args) == 0 {
		return formatStdin(cmd, cfg, check)
	}

	anyChanged := false
	for _, path := range args {
		changed, err := formatFile(path, cfg, check)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "metalls format: %s: %v\n", path, err)
			os.Exit(exitFailure)
		}
		anyChanged = anyChanged || changed
	}

	if check && anyChanged {
		os.Exit(exitWouldChange)
	}
	return nil
}

func formatStdin(cmd *cobra.Command, cfg formatter.Config, check bool) error {
	original, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		os.Exit(exitFailure)
	}

	style, err := formatter.Resolve(".")
	if err != nil {
		os.Exit(exitFailure)
	}

	result, err := formatter.Run(context.Background(), cfg, style, original)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "metalls format: %v\n", err)
		os.Exit(exitFailure)
	}

	changed := !bytes.Equal(original, result.NewText)
	if check {
		if changed {
			os.Exit(exitWouldChange)
		}
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), string(result.NewText))
	return nil
}

func formatFile(path string, cfg formatter.Config, check bool) (bool, error) {
	original, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading file: %w", err)
	}

	style, err := formatter.Resolve(filepath.Dir(path))
	if err != nil {
		return false, fmt.Errorf("resolving style: %w", err)
	}

	result, err := formatter.Run(context.Background(), cfg, style, original)
	if err != nil {
		return false, fmt.Errorf("running formatter: %w", err)
	}

	changed := !bytes.Equal(original, result.NewText)
	if !changed || check {
		return changed, nil
	}

	if err := os.WriteFile(path, result.NewText, 0o644); err != nil {
		return false, fmt.Errorf("writing file: %w", err)
	}
	return changed, nil
}
