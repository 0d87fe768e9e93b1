// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command metalls is the CLI surface for the Metal Shading Language
// server core: the format subcommand and a serve stub. Transport is
// out of scope for this build (see internal/session); serve documents
// where one would attach rather than speaking LSP over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "metalls",
		Version: version,
		Short:   "Metal Shading Language server core",
		Long:    "metalls indexes MSL/C++ sources, runs the platform Metal compiler for diagnostics, and formats files via an external style tool.",
	}

	// Flags are bound into the schema by config.Load (via loadConfig),
	// not a package-level viper singleton: each subcommand resolves its
	// own Config from these plus workdir's .metalls.yaml/.metalls.toml
	// and METALLS_-prefixed environment variables.
	rootCmd.PersistentFlags().String("workdir", ".", "Workspace root directory")
	rootCmd.PersistentFlags().String("compiler.platform", "auto", "Target platform (auto|macos|ios|tvos|watchos|xros|none)")
	rootCmd.PersistentFlags().String("formatting.command", "clang-format", "Formatter command")

	rootCmd.AddCommand(newFormatCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitUsage)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the metalls version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("metalls %s\n", version)
		},
	}
}
