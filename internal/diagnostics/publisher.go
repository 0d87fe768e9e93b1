// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package diagnostics

import (
	"sync"

	"github.com/mslsp/metalls/pkg/types"
)

// Publisher holds the most recently published diagnostic set per path.
// Publish replaces a path's set atomically; readers never observe a
// partial update.
type Publisher struct {
	mu     sync.RWMutex
	byPath map[types.Path][]types.Diagnostic
}

// NewPublisher creates an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{byPath: make(map[types.Path][]types.Diagnostic)}
}

// Publish replaces the diagnostic set for path.
func (p *Publisher) Publish(path types.Path, diags []types.Diagnostic) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byPath[path] = diags
}

// Get returns the current diagnostic set for path.
func (p *Publisher) Get(path types.Path) []types.Diagnostic {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byPath[path]
}
