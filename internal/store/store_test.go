// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package store

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mslsp/metalls/pkg/types"
)

type noEdges struct{}

func (noEdges) HasInboundEdges(types.Path) bool { return false }

func TestUpsertRejectsStaleVersion(t *testing.T) {
	s := New(afero.NewMemMapFs(), noEdges{})
	p := types.Path("/a.metal")

	snap := s.Upsert(p, 2, []byte("v2"))
	require.Equal(t, uint64(2), snap.Version)

	stale := s.Upsert(p, 1, []byte("v1"))
	assert.Equal(t, uint64(2), stale.Version)
	assert.Equal(t, "v2", string(stale.Text))
}

func TestUpsertAcceptsNewerVersion(t *testing.T) {
	s := New(afero.NewMemMapFs(), noEdges{})
	p := types.Path("/a.metal")

	s.Upsert(p, 1, []byte("v1"))
	snap := s.Upsert(p, 2, []byte("v2"))

	assert.Equal(t, uint64(2), snap.Version)
	assert.Equal(t, "v2", string(s.Get(p).Text))
}

func TestGetUnknownPathReturnsNil(t *testing.T) {
	s := New(afero.NewMemMapFs(), noEdges{})
	assert.Nil(t, s.Get(types.Path("/missing.metal")))
}

func TestGCEvictsClosedUnreferencedPath(t *testing.T) {
	s := New(afero.NewMemMapFs(), noEdges{})
	p := types.Path("/a.metal")
	s.Upsert(p, 1, []byte("x"))
	s.Close(p)

	s.GC()

	assert.Nil(t, s.Get(p))
}

type alwaysReferenced struct{}

func (alwaysReferenced) HasInboundEdges(types.Path) bool { return true }

func TestGCKeepsClosedPathWithInboundEdges(t *testing.T) {
	s := New(afero.NewMemMapFs(), alwaysReferenced{})
	p := types.Path("/b.h")
	s.Upsert(p, 1, []byte("x"))
	s.Close(p)

	s.GC()

	assert.NotNil(t, s.Get(p))
}
