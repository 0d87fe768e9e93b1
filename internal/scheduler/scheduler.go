// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scheduler provides the bounded worker pool, priority classes,
// on-type debounce, and cooperative cancellation shared by every
// request-driven component.
package scheduler

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/mslsp/metalls/pkg/types"
)

// defaultDebounce is the default on-type Diagnose coalescing window.
const defaultDebounce = 500 * time.Millisecond

// defaultQueueDepth bounds the backlog of coalesceable requests per
// non-interactive class before the oldest is dropped.
const defaultQueueDepth = 64

// Handle identifies one scheduled request and carries its cooperative
// cancellation point. Cancel is monotonic: once set it stays set.
type Handle struct {
	ID        uint64
	Kind      types.RequestKind
	Path      types.Path
	ArrivedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the request's context. Cooperative checkpoints (inside
// parses, around subprocess spawn/wait, between graph traversal hops)
// should select on ctx.Done() or check ctx.Err().
func (h *Handle) Context() context.Context { return h.ctx }

// Cancel marks the request cancelled. A cancelled request's effects on
// the index must be discarded by the caller; work already in flight may
// run to completion.
func (h *Handle) Cancel() { h.cancel() }

// Cancelled reports whether Cancel has been called.
func (h *Handle) Cancelled() bool {
	select {
	case <-h.ctx.Done():
		return true
	default:
		return false
	}
}

// Config configures pool sizes and debounce timing (threadPool and
// diagnostics.debounceMs from §6).
type Config struct {
	WorkerThreads     int // 0 means runtime.GOMAXPROCS(0), i.e. available parallelism
	FormattingThreads int // 0 defaults to 1
	DebounceMs        int // 0 defaults to 500
}

// Scheduler owns one bounded worker pool per priority class plus a
// dedicated formatter pool, and coalesces on-type Diagnose requests per
// path via a debounce timer.
type Scheduler struct {
	pools     map[types.PriorityClass]*classQueue
	formatter *classQueue

	debounceMs time.Duration
	idSeq      atomic.Uint64

	mu       sync.Mutex
	debounce map[types.Path]*Handle
}

// New creates a Scheduler per cfg.
func New(cfg Config) *Scheduler {
	workers := cfg.WorkerThreads
	formatting := cfg.FormattingThreads
	if formatting <= 0 {
		formatting = 1
	}
	debounceMs := cfg.DebounceMs
	if debounceMs <= 0 {
		debounceMs = int(defaultDebounce / time.Millisecond)
	}

	s := &Scheduler{
		pools:      make(map[types.PriorityClass]*classQueue),
		debounceMs: time.Duration(debounceMs) * time.Millisecond,
		debounce:   make(map[types.Path]*Handle),
	}
	for _, class := range []types.PriorityClass{types.Interactive, types.OnChange, types.Background} {
		s.pools[class] = newClassQueue(workers, class == types.Interactive)
	}
	s.formatter = newClassQueue(formatting, true)
	return s
}

// Close stops every pool's dispatcher and waits for in-flight work to
// finish.
func (s *Scheduler) Close() {
	for _, q := range s.pools {
		q.close()
	}
	s.formatter.close()
}

func (s *Scheduler) newHandle(kind types.RequestKind, path types.Path) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		ID:        s.idSeq.Add(1),
		Kind:      kind,
		Path:      path,
		ArrivedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Submit enqueues fn for kind/path into the pool for kind's priority
// class. Interactive requests are never dropped for backpressure but may
// be delayed; OnChange/Background requests may have the oldest
// coalesceable entry dropped (its handle cancelled) if the class queue is
// full.
func (s *Scheduler) Submit(kind types.RequestKind, path types.Path, fn func(*Handle)) *Handle {
	h := s.newHandle(kind, path)
	s.pools[kind.ClassOf()].enqueue(h, fn)
	return h
}

// SubmitBackground enqueues fn for kind/path directly onto the
// Background priority pool, regardless of kind's default class (§4.F:
// "Background (workspace scan)"). A workspace-scope scan's per-file
// IndexFile jobs use this so they never compete with edit-driven
// IndexFile/Diagnose work on the OnChange pool.
func (s *Scheduler) SubmitBackground(kind types.RequestKind, path types.Path, fn func(*Handle)) *Handle {
	h := s.newHandle(kind, path)
	s.pools[types.Background].enqueue(h, fn)
	return h
}

// SubmitFormat enqueues fn onto the dedicated formatter pool, kept
// separate so a slow format call never starves indexing work.
func (s *Scheduler) SubmitFormat(path types.Path, fn func(*Handle)) *Handle {
	h := s.newHandle(types.Format, path)
	s.formatter.enqueue(h, fn)
	return h
}

// DiagnoseOnType schedules a debounced Diagnose for path: a new call
// within the configured debounce window cancels the previously pending
// one for the same path and replaces it, so that rapid edits converge on
// a single subprocess spawn for the final version.
func (s *Scheduler) DiagnoseOnType(path types.Path, fn func(*Handle)) *Handle {
	s.mu.Lock()
	if prev, ok := s.debounce[path]; ok {
		prev.Cancel()
	}
	h := s.newHandle(types.Diagnose, path)
	s.debounce[path] = h
	s.mu.Unlock()

	timer := time.AfterFunc(s.debounceMs, func() {
		s.mu.Lock()
		if s.debounce[path] == h {
			delete(s.debounce, path)
		}
		s.mu.Unlock()

		if h.Cancelled() {
			return
		}
		s.pools[types.OnChange].enqueue(h, fn)
	})

	context.AfterFunc(h.ctx, func() { timer.Stop() })
	return h
}

// DiagnoseOnSave schedules an uncoalesced Diagnose for path: on-save
// requests never coalesce, even if an on-type request for the same path
// is pending.
func (s *Scheduler) DiagnoseOnSave(path types.Path, fn func(*Handle)) *Handle {
	return s.Submit(types.Diagnose, path, fn)
}

// classQueue is a bounded FIFO feeding a conc/pool-backed worker group.
// Interactive classes are unbounded (never dropped); other classes drop
// the oldest pending job, cancelling its handle, once the backlog
// exceeds defaultQueueDepth.
type classQueue struct {
	wp *pool.Pool

	mu       sync.Mutex
	cond     *sync.Cond
	jobs     []job
	closed   bool
	noDrop   bool
	maxDepth int
}

type job struct {
	h  *Handle
	fn func(*Handle)
}

func newClassQueue(maxGoroutines int, noDrop bool) *classQueue {
	if maxGoroutines <= 0 {
		// A configured 0 means available parallelism, not "unbounded": an
		// actually-unlimited conc/pool would let an editor's burst of
		// requests spawn unbounded goroutines.
		maxGoroutines = runtime.GOMAXPROCS(0)
	}
	wp := pool.New().WithMaxGoroutines(maxGoroutines)
	q := &classQueue{wp: wp, noDrop: noDrop, maxDepth: defaultQueueDepth}
	q.cond = sync.NewCond(&q.mu)
	go q.dispatch()
	return q
}

func (q *classQueue) enqueue(h *Handle, fn func(*Handle)) {
	q.mu.Lock()
	if !q.noDrop && len(q.jobs) >= q.maxDepth {
		dropped := q.jobs[0]
		q.jobs = q.jobs[1:]
		dropped.h.Cancel()
	}
	q.jobs = append(q.jobs, job{h: h, fn: fn})
	q.cond.Signal()
	q.mu.Unlock()
}

func (q *classQueue) dispatch() {
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed && len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		q.wp.Go(func() {
			if j.h.Cancelled() {
				return
			}
			j.fn(j.h)
		})
	}
}

func (q *classQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	q.wp.Wait()
}
