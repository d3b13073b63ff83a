// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorworks/scenemirror/scene/scenetest"
)

func TestBulk_RegistersWholeSubtreeInChunks(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	root := g.BuildTree("world", 3, 4) // 1 + 4 + 16 + 64 = 85 nodes
	bulk := s.BeginBulkRegister(root, g.Lookup, 10)
	require.Equal(t, 85, bulk.Remaining())

	chunks := 0
	for !bulk.RunChunk(nil) {
		chunks++
		require.Less(t, chunks, 100, "bulk registration failed to converge")
	}
	assert.True(t, bulk.Done())
	assert.Equal(t, 85, s.Len())
	assert.Zero(t, bulk.Remaining())
	assert.Equal(t, 9, chunks+1)
}

func TestBulk_ExhaustedBudgetStillMakesProgress(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)
	root := g.BuildTree("world", 2, 3) // 13 nodes

	bulk := s.BeginBulkRegister(root, g.Lookup, 1000)
	noBudget := func() time.Duration { return 0 }

	// Every invocation registers exactly one node: the budget is checked
	// only after the first, so a permanently exhausted budget advances one
	// node per slice rather than stalling forever.
	for i := 1; i <= 12; i++ {
		require.False(t, bulk.RunChunk(noBudget))
		assert.Equal(t, i, s.Len())
	}
	require.True(t, bulk.RunChunk(noBudget))
	assert.Equal(t, 13, s.Len())
}

func TestBulk_CancelIsSynchronousAndIdempotent(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)
	root := g.BuildTree("world", 2, 4) // 21 nodes

	bulk := s.BeginBulkRegister(root, g.Lookup, 5)
	require.False(t, bulk.RunChunk(nil))
	require.Equal(t, 5, s.Len())

	bulk.Cancel()
	bulk.Cancel()
	assert.True(t, bulk.Done())
	assert.Zero(t, bulk.Remaining())

	// Already-registered nodes stay; no further chunks run.
	assert.True(t, bulk.RunChunk(nil))
	assert.Equal(t, 5, s.Len())
}

func TestBulk_ToleratesConcurrentStructuralRegistration(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)
	root := g.BuildTree("world", 1, 6) // 7 nodes

	bulk := s.BeginBulkRegister(root, g.Lookup, 2)
	require.False(t, bulk.RunChunk(nil))

	// A structural event registers a queued node between chunks. The walk
	// must skip it silently when it gets there.
	for _, c := range root.Children() {
		s.Register(c)
	}

	for !bulk.RunChunk(nil) {
	}
	assert.Equal(t, 7, s.Len())
}

func TestBulk_NilRootIsImmediatelyDone(t *testing.T) {
	s := New(nil)
	bulk := s.BeginBulkRegister(nil, nil, 0)
	assert.True(t, bulk.Done())
	assert.True(t, bulk.RunChunk(nil))
	assert.Zero(t, s.Len())
}
