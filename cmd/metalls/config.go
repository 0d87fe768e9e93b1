// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/spf13/cobra"

	"github.com/mslsp/metalls/internal/config"
)

// loadConfig resolves the full closed-schema configuration for cmd,
// searching cmd's workdir for a .metalls.yaml/.metalls.toml and binding
// the root's persistent flags (workdir, compiler.platform,
// formatting.command), via config.Load rather than a per-command
// hand-rolled viper.Unmarshal+mergo.Merge duplicate.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	workdir, _ := cmd.Flags().GetString("workdir")
	if workdir == "" {
		workdir = "."
	}
	return config.Load(cmd.Flags(), workdir)
}
