// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mslsp/metalls/internal/config"
	"github.com/mslsp/metalls/internal/includegraph"
	"github.com/mslsp/metalls/internal/scheduler"
	"github.com/mslsp/metalls/internal/store"
	"github.com/mslsp/metalls/internal/symbolindex"
	"github.com/mslsp/metalls/pkg/types"
)

type countingLocator struct {
	calls atomic.Int32
}

func (c *countingLocator) Locate(ctx context.Context, platform string) (string, string, error) {
	c.calls.Add(1)
	return "/sdk/" + platform, "/sdk/" + platform + "/bin/metal", nil
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	graph := includegraph.New()
	st := store.New(afero.NewMemMapFs(), graph)
	idx := symbolindex.New()
	s := New(config.Defaults(), st, graph, idx)
	t.Cleanup(s.Shutdown)
	return s
}

func TestSDKRootDiscoversOnce(t *testing.T) {
	s := newTestSession(t)
	locator := &countingLocator{}
	s.WithLocator(locator)

	root1, err := s.SDKRoot(context.Background())
	require.NoError(t, err)
	root2, err := s.SDKRoot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, root1, root2)
	assert.Equal(t, int32(1), locator.calls.Load())
}

func TestCompilerPathReusesDiscovery(t *testing.T) {
	s := newTestSession(t)
	locator := &countingLocator{}
	s.WithLocator(locator)

	_, err := s.SDKRoot(context.Background())
	require.NoError(t, err)

	compiler, err := s.CompilerPath(context.Background())
	require.NoError(t, err)
	assert.Contains(t, compiler, "bin/metal")
	assert.Equal(t, int32(1), locator.calls.Load())
}

func TestReconfigureRejectsThreadPoolChange(t *testing.T) {
	s := newTestSession(t)
	next := s.Config()
	next.ThreadPool.WorkerThreads = 8

	err := s.Reconfigure(next)
	assert.Error(t, err)
}

func TestReconfigureAppliesOtherChanges(t *testing.T) {
	s := newTestSession(t)
	next := s.Config()
	next.Compiler.Platform = "ios"

	require.NoError(t, s.Reconfigure(next))
	assert.Equal(t, "ios", s.Config().Compiler.Platform)
}

// newIndexingTestSession creates a session with compiler.platform "none"
// so indexPath's include search never shells out to xcrun. Waiting for
// submitted work before asserting is the caller's responsibility, via
// waitForHandle.
func newIndexingTestSession(t *testing.T) *Session {
	t.Helper()
	graph := includegraph.New()
	st := store.New(afero.NewMemMapFs(), graph)
	idx := symbolindex.New()
	cfg := config.Defaults()
	cfg.Compiler.Platform = "none"
	cfg.Diagnostics.OnType = false
	cfg.Diagnostics.OnSave = false
	s := New(cfg, st, graph, idx)
	t.Cleanup(s.Shutdown)
	return s
}

func TestOpenDocumentDrivesIndexingPipeline(t *testing.T) {
	s := newIndexingTestSession(t)
	path := types.Path("/ws/a.metal")

	h := s.OpenDocument(path, 1, []byte("kernel void do_work(device float* out [[buffer(0)]]) {\n}\n"))
	waitForHandle(t, h)

	decls := s.Index.Lookup("do_work")
	require.Len(t, decls, 1)
	assert.Equal(t, types.Kernel, decls[0].Kind)
}

func TestChangeDocumentReindexesPath(t *testing.T) {
	s := newIndexingTestSession(t)
	path := types.Path("/ws/a.metal")

	h := s.OpenDocument(path, 1, []byte("void first() {}\n"))
	waitForHandle(t, h)
	require.Len(t, s.Index.Lookup("first"), 1)

	h2 := s.ChangeDocument(path, 2, []byte("void second() {}\n"))
	waitForHandle(t, h2)

	assert.Empty(t, s.Index.Lookup("first"))
	assert.Len(t, s.Index.Lookup("second"), 1)
}

func TestCloseDocumentMarksStoreEntryClosed(t *testing.T) {
	s := newIndexingTestSession(t)
	path := types.Path("/ws/a.metal")

	h := s.OpenDocument(path, 1, []byte("void first() {}\n"))
	waitForHandle(t, h)

	s.CloseDocument(path)
	s.Store.GC()
	assert.Nil(t, s.Store.Get(path))
}

func TestScanWorkspaceIndexesExcludingConfiguredPaths(t *testing.T) {
	s := newIndexingTestSession(t)
	fs := s.Store.Fs()

	require.NoError(t, afero.WriteFile(fs, "/ws/src/bar.metal", []byte("void bar_fn() {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/ws/external/foo.metal", []byte("void foo_fn() {}\n"), 0o644))

	cfg := s.Config()
	cfg.Indexing.ExcludePaths = []string{"external"}
	require.NoError(t, s.Reconfigure(cfg))

	// ScanWorkspace's dispatch pool blocks until every submitted file has
	// finished indexing, so the index is already populated on return.
	require.NoError(t, s.ScanWorkspace(context.Background(), "/ws"))

	assert.Len(t, s.Index.Lookup("bar_fn"), 1)
	assert.Empty(t, s.Index.Lookup("foo_fn"))
}

// waitForHandle sleeps for a short, fixed time as a stand-in for a
// completion signal: the scheduler has no dedicated "done" channel, so
// tests that need the submitted fn to have run settle for a bounded wait.
func waitForHandle(t *testing.T, h *scheduler.Handle) {
	t.Helper()
	_ = h
	time.Sleep(50 * time.Millisecond)
}
