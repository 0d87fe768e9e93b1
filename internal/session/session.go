// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package session holds the process-wide state confined to one server
// lifetime: the lazily-discovered platform SDK root and compiler path,
// and the live configuration a workspace/didChangeConfiguration
// notification can swap. No package outside internal/session keeps
// ambient globals for any of this.
package session

import (
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/mslsp/metalls/internal/config"
	"github.com/mslsp/metalls/internal/diagnostics"
	"github.com/mslsp/metalls/internal/extractor"
	"github.com/mslsp/metalls/internal/includegraph"
	"github.com/mslsp/metalls/internal/mslparser"
	"github.com/mslsp/metalls/internal/scheduler"
	"github.com/mslsp/metalls/internal/store"
	"github.com/mslsp/metalls/internal/symbolindex"
	"github.com/mslsp/metalls/pkg/types"
)

// sourceExtensions is the set of file extensions a workspace scan and
// include resolution treat as MSL/C++ source, lowercased.
var sourceExtensions = map[string]bool{
	".metal": true,
	".h":     true,
	".hpp":   true,
	".hh":    true,
}

// SDKLocator discovers the platform SDK root and compiler path on
// demand. The default implementation shells out to `xcrun`; tests
// supply a stub.
type SDKLocator interface {
	Locate(ctx context.Context, platform string) (sdkRoot, compilerPath string, err error)
}

// xcrunLocator locates the Metal toolchain via `xcrun --sdk <sdk>
// --find metal` / `--show-sdk-path`, the standard way to resolve
// Apple's platform SDKs without hardcoding install paths.
type xcrunLocator struct{}

func (xcrunLocator) Locate(ctx context.Context, platform string) (string, string, error) {
	sdk := sdkNameFor(platform)

	root, err := runXcrun(ctx, "--sdk", sdk, "--show-sdk-path")
	if err != nil {
		return "", "", fmt.Errorf("locating %s SDK: %w", sdk, err)
	}
	compiler, err := runXcrun(ctx, "--sdk", sdk, "--find", "metal")
	if err != nil {
		return "", "", fmt.Errorf("locating metal compiler for %s SDK: %w", sdk, err)
	}
	return root, compiler, nil
}

func sdkNameFor(platform string) string {
	switch platform {
	case "ios":
		return "iphoneos"
	case "tvos":
		return "appletvos"
	case "watchos":
		return "watchos"
	case "xros":
		return "xros"
	default:
		return "macosx"
	}
}

func runXcrun(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "xcrun", args...).Output()
	if err != nil {
		return "", err
	}
	return trimTrailingNewline(out), nil
}

func trimTrailingNewline(b []byte) string {
	n := len(b)
	for n > 0 && (b[n-1] == '\n' || b[n-1] == '\r') {
		n--
	}
	return string(b[:n])
}

// Session is the process-wide object created at `initialize` and torn
// down at `shutdown`. Every field a concurrent request might read
// (SDK root, compiler path, live configuration) is guarded by mu so a
// workspace/didChangeConfiguration notification never races an
// in-flight diagnostics or format request.
type Session struct {
	mu sync.RWMutex

	cfg          config.Config
	sdkRoot      string
	compilerPath string
	discovered   bool

	locator SDKLocator
	group   singleflight.Group

	Store     *store.Store
	Graph     *includegraph.Graph
	Index     *symbolindex.Index
	Scheduler *scheduler.Scheduler
	Publisher *diagnostics.Publisher
}

// New creates a Session over cfg, wiring the shared store/graph/index
// state and a scheduler sized from cfg.ThreadPool.
func New(cfg config.Config, st *store.Store, graph *includegraph.Graph, idx *symbolindex.Index) *Session {
	sched := scheduler.New(scheduler.Config{
		WorkerThreads:     cfg.ThreadPool.WorkerThreads,
		FormattingThreads: cfg.ThreadPool.FormattingThreads,
		DebounceMs:        cfg.Diagnostics.DebounceMs,
	})

	return &Session{
		cfg:       cfg,
		locator:   xcrunLocator{},
		Store:     st,
		Graph:     graph,
		Index:     idx,
		Scheduler: sched,
		Publisher: diagnostics.NewPublisher(),
	}
}

// WithLocator overrides the SDK locator, for tests.
func (s *Session) WithLocator(l SDKLocator) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locator = l
	s.discovered = false
	return s
}

// Config returns the current live configuration.
func (s *Session) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Reconfigure applies a workspace/didChangeConfiguration notification.
// threadPool changes are rejected: per §9 they require a session
// restart, signaled here by returning a non-nil error rather than
// silently resizing a running scheduler out from under in-flight work.
func (s *Session) Reconfigure(next config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if next.ThreadPool != s.cfg.ThreadPool {
		return fmt.Errorf("session: threadPool configuration change requires a server restart")
	}
	s.cfg = next
	return nil
}

// SDKRoot returns the discovered platform SDK root, locating it on
// first use. Concurrent callers arriving before discovery completes
// coalesce into the single in-flight probe via singleflight, rather
// than each shelling out to xcrun independently.
func (s *Session) SDKRoot(ctx context.Context) (string, error) {
	root, _, err := s.discover(ctx)
	return root, err
}

// CompilerPath returns the discovered platform Metal compiler path,
// locating it (and the SDK root) on first use.
func (s *Session) CompilerPath(ctx context.Context) (string, error) {
	_, compiler, err := s.discover(ctx)
	return compiler, err
}

func (s *Session) discover(ctx context.Context) (string, string, error) {
	s.mu.RLock()
	if s.discovered {
		root, compiler := s.sdkRoot, s.compilerPath
		s.mu.RUnlock()
		return root, compiler, nil
	}
	platform := s.cfg.Compiler.Platform
	s.mu.RUnlock()

	type result struct{ root, compiler string }
	v, err, _ := s.group.Do("discover:"+platform, func() (interface{}, error) {
		root, compiler, err := s.locator.Locate(ctx, platform)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.sdkRoot, s.compilerPath, s.discovered = root, compiler, true
		s.mu.Unlock()
		return result{root, compiler}, nil
	})
	if err != nil {
		return "", "", err
	}
	r := v.(result)
	return r.root, r.compiler, nil
}

// Shutdown releases every resource the session owns: the scheduler's
// worker pools. Per-file store entries are released as didClose
// notifications arrive; Shutdown does not force-close files the client
// still considers open.
func (s *Session) Shutdown() {
	s.Scheduler.Close()
}

// OpenDocument upserts path's snapshot and schedules the A→B→C→D→E
// pipeline for it (§2 Data flow), followed by an initial Diagnose when
// diagnostics.onSave is enabled. The returned Handle corresponds to the
// IndexFile request, not the Diagnose it chains into.
func (s *Session) OpenDocument(path types.Path, version uint64, text []byte) *scheduler.Handle {
	return s.Scheduler.Submit(types.IndexFile, path, func(h *scheduler.Handle) {
		s.indexAndMaybeDiagnose(h, path, version, text, s.Config().Diagnostics.OnSave, s.DiagnoseOnSave)
	})
}

// ChangeDocument upserts an edited path and reindexes it, then schedules
// a debounced on-type Diagnose when diagnostics.onType is enabled.
func (s *Session) ChangeDocument(path types.Path, version uint64, text []byte) *scheduler.Handle {
	return s.Scheduler.Submit(types.IndexFile, path, func(h *scheduler.Handle) {
		s.indexAndMaybeDiagnose(h, path, version, text, s.Config().Diagnostics.OnType, s.DiagnoseOnType)
	})
}

func (s *Session) indexAndMaybeDiagnose(h *scheduler.Handle, path types.Path, version uint64, text []byte, diagnose bool, schedule func(types.Path) *scheduler.Handle) {
	snapshot := s.Store.Upsert(path, version, text)
	if h.Cancelled() {
		return
	}
	if err := s.indexPath(h.Context(), path, snapshot); err != nil {
		return
	}
	if diagnose {
		schedule(path)
	}
}

// SaveDocument schedules an uncoalesced Diagnose for an already-indexed
// path, per diagnostics.onSave. It does not reindex: a save carries no
// new text over what didChange already applied.
func (s *Session) SaveDocument(path types.Path) *scheduler.Handle {
	if !s.Config().Diagnostics.OnSave {
		return nil
	}
	return s.DiagnoseOnSave(path)
}

// CloseDocument marks path closed in the editor. The store retains its
// snapshot until a GC pass confirms no inbound include edges remain.
func (s *Session) CloseDocument(path types.Path) {
	s.Store.Close(path)
}

// DiagnoseOnType schedules a debounced Diagnose for path (§4.F).
func (s *Session) DiagnoseOnType(path types.Path) *scheduler.Handle {
	return s.Scheduler.DiagnoseOnType(path, s.diagnoseFn(path))
}

// DiagnoseOnSave schedules an uncoalesced Diagnose for path (§4.F).
func (s *Session) DiagnoseOnSave(path types.Path) *scheduler.Handle {
	return s.Scheduler.DiagnoseOnSave(path, s.diagnoseFn(path))
}

// diagnoseFn closes over path and runs the diagnostics runner (§4.G)
// against its current snapshot, publishing the result. A path whose
// snapshot has since been evicted (closed and unreferenced) is skipped.
func (s *Session) diagnoseFn(path types.Path) func(*scheduler.Handle) {
	return func(h *scheduler.Handle) {
		snapshot := s.Store.Get(path)
		if snapshot == nil {
			return
		}
		cfg := s.Config()
		compilerPath, err := s.CompilerPath(h.Context())
		if err != nil {
			compilerPath = ""
		}
		diags := diagnostics.Run(h.Context(), path, snapshot.Text, diagnostics.Config{
			CompilerPath: compilerPath,
			IncludePaths: cfg.Compiler.IncludePaths,
			ExtraFlags:   cfg.Compiler.ExtraFlags,
			Platform:     diagnostics.Platform(cfg.Compiler.Platform),
		})
		if h.Cancelled() {
			return
		}
		s.Publisher.Publish(path, diags)
	}
}

// indexPath drives B→C→D→E for path's current snapshot: parse, extract
// declarations into the symbol index, and resolve+replace the path's
// #include edges in the graph. A snapshot freshly created by Upsert
// carries no tree, so a new version is always parsed in full; a tree is
// passed to the parser only when the snapshot already holds one (a
// rejected stale upsert returns the current snapshot unchanged).
func (s *Session) indexPath(ctx context.Context, path types.Path, snapshot *types.Snapshot) error {
	var previous *mslparser.Tree
	if snapshot.Tree != nil {
		previous, _ = snapshot.Tree.(*mslparser.Tree)
	}

	parser := mslparser.New()
	defer parser.Close()

	tree, err := parser.Parse(ctx, previous, snapshot.Text)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	s.Store.AttachTree(path, snapshot.Version, tree)

	s.Index.Replace(path, extractor.Extract(tree, path))

	edges := includegraph.ParseDirectives(path, snapshot.Text)
	search := s.includeSearchConfig(ctx)
	resolved := make([]types.IncludeEdge, len(edges))
	for i, e := range edges {
		resolved[i] = includegraph.Resolve(e, search, s.headerExists)
	}
	s.Graph.ReplaceEdges(path, resolved)
	return nil
}

func (s *Session) headerExists(path string) bool {
	exists, isDir := s.Store.Stat(path)
	return exists && !isDir
}

// includeSearchConfig builds the resolver's search roots (§4.D): user
// include paths from configuration, then the session's discovered SDK
// root, unless the configured platform is "none".
func (s *Session) includeSearchConfig(ctx context.Context) includegraph.SearchConfig {
	cfg := s.Config()
	search := includegraph.SearchConfig{UserIncludePaths: cfg.Compiler.IncludePaths}
	if cfg.Compiler.Platform == "none" {
		return search
	}
	if root, err := s.SDKRoot(ctx); err == nil && root != "" {
		search.SDKRoots = append(search.SDKRoots, root)
	}
	return search
}

// ScanWorkspace walks root and indexes every recognized source file
// found under it, honoring indexing.enabled/excludePaths/maxFileSizeKb.
// Each file is submitted to the scheduler's Background priority class
// (§4.F), so the scan never competes with Interactive/OnChange work. A
// local dispatch pool bounds how many of the scan's own jobs are ever
// in flight at once to indexing.concurrency, a knob distinct from
// threadPool.workerThreads (which sizes the scheduler's pools
// themselves and is shared with edit-driven work); ScanWorkspace
// returns once every discovered file has finished indexing. When
// diagnostics.scope is "workspace" and diagnostics.onSave is enabled,
// an uncoalesced Diagnose is scheduled alongside
// each indexed file too, in addition to whatever didOpen/didChange
// already schedule for open files.
func (s *Session) ScanWorkspace(ctx context.Context, root string) error {
	cfg := s.Config()
	if !cfg.Indexing.Enabled {
		return nil
	}

	concurrency := cfg.Indexing.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	dispatch := pool.New().WithMaxGoroutines(concurrency)

	var maxBytes int64
	if cfg.Indexing.MaxFileSizeKb > 0 {
		maxBytes = int64(cfg.Indexing.MaxFileSizeKb) * 1024
	}

	walkErr := afero.Walk(s.Store.Fs(), root, func(walkPath string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() {
			if isExcluded(root, walkPath, cfg.Indexing.ExcludePaths) {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExtensions[strings.ToLower(filepath.Ext(walkPath))] {
			return nil
		}
		if isExcluded(root, walkPath, cfg.Indexing.ExcludePaths) {
			return nil
		}
		if maxBytes > 0 && info.Size() > maxBytes {
			return nil
		}

		path := types.Canonicalize(walkPath)
		text, readErr := s.Store.ReadFile(path)
		if readErr != nil {
			return nil
		}

		dispatch.Go(func() {
			done := make(chan struct{})
			s.Scheduler.SubmitBackground(types.IndexFile, path, func(h *scheduler.Handle) {
				defer close(done)
				snapshot := s.Store.Upsert(path, 1, text)
				if h.Cancelled() {
					return
				}
				if err := s.indexPath(h.Context(), path, snapshot); err != nil {
					return
				}
				if cfg.Diagnostics.Scope == "workspace" && cfg.Diagnostics.OnSave {
					s.DiagnoseOnSave(path)
				}
			})
			<-done
		})
		return nil
	})
	dispatch.Wait()
	if walkErr != nil && walkErr != context.Canceled {
		return fmt.Errorf("scanning %s: %w", root, walkErr)
	}
	return nil
}

// isExcluded reports whether walkPath, relative to root, matches or
// falls under one of the configured indexing.excludePaths entries.
func isExcluded(root, walkPath string, excludePaths []string) bool {
	rel, err := filepath.Rel(root, walkPath)
	if err != nil {
		rel = walkPath
	}
	for _, pattern := range excludePaths {
		if rel == pattern || strings.HasPrefix(rel, pattern+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
