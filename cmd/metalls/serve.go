// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mslsp/metalls/internal/includegraph"
	"github.com/mslsp/metalls/internal/session"
	"github.com/mslsp/metalls/internal/store"
	"github.com/mslsp/metalls/internal/symbolindex"
)

// newServeCmd constructs the session/scheduler wiring a transport would
// sit on top of, then drives one workspace-scope scan over workdir
// (§4.F's Background priority class, §8 scenario 6) to prove the full
// A→B→C→D→E pipeline runs end to end. It is explicitly not a working
// LSP server: framing requests and notifications over stdio/sockets is
// out of scope for this build. A transport implementation would instead
// read requests, dispatch them onto sess.Open/Change/Save/CloseDocument
// and sess.Scheduler, and answer from sess.Index/sess.Graph/sess.Publisher.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Construct the indexing/diagnostics/formatting core (no transport)",
		Long: "serve wires a Session over workdir, runs one workspace scan to index it, and shuts " +
			"down. It exists to prove the core is constructible and drivable end to end; it does not " +
			"speak LSP. A transport implementation would read requests, dispatch them onto sess, " +
			"and answer from sess.Index/sess.Graph/sess.Publisher.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("serve: loading configuration: %w", err)
			}
			workdir, _ := cmd.Flags().GetString("workdir")
			if workdir == "" {
				workdir = "."
			}

			graph := includegraph.New()
			st := store.New(afero.NewOsFs(), graph)
			idx := symbolindex.New()
			sess := session.New(cfg, st, graph, idx)
			defer sess.Shutdown()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := sess.ScanWorkspace(ctx, workdir); err != nil {
				return fmt.Errorf("serve: scanning workspace: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "metalls serve: indexed %s; no transport attached (see internal/session.Session)\n", workdir)
			return nil
		},
	}
}
