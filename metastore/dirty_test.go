// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorworks/scenemirror/scene/scenetest"
)

func TestDirty_MarkAndDrain(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)
	s.Register(g.NewMesh("a"))
	s.Register(g.NewMesh("b"))

	s.MarkDirty("a")
	s.MarkDirty("a") // duplicate marks coalesce
	s.MarkDirty("b")
	s.MarkDirty("unregistered") // no-op
	require.Equal(t, 2, s.DirtyCount())

	ids := s.DrainDirty()
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
	assert.Zero(t, s.DirtyCount())
	assert.Nil(t, s.DrainDirty())
}

func TestDirty_DrainFiltersUnregistered(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)
	s.Register(g.NewMesh("a"))
	s.Register(g.NewMesh("b"))

	s.MarkDirty("a")
	s.MarkDirty("b")
	s.Unregister("a")

	assert.Equal(t, []string{"b"}, s.DrainDirty())
}

func TestDirty_MarksDuringDrainDeferToNextTick(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)
	s.Register(g.NewMesh("a"))
	s.Register(g.NewMesh("b"))
	s.MarkDirty("a")

	drained := s.DrainDirty()
	require.Equal(t, []string{"a"}, drained)

	// A mark arriving while the caller is still working the drained slice
	// lands in the fresh set.
	s.MarkDirty("b")
	assert.Equal(t, 1, s.DirtyCount())
	assert.Equal(t, []string{"b"}, s.DrainDirty())
}
