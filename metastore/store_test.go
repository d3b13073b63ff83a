// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metastore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorworks/scenemirror/scene"
	"github.com/mirrorworks/scenemirror/scene/scenetest"
)

func TestStore_RegisterAndGet(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	mesh := g.NewMesh("m1")
	mesh.SetName("hull")
	mesh.SetTestID("hero-hull")
	mesh.SetPosition(scene.Vec3{X: 1, Y: 2, Z: 3})

	require.True(t, s.Register(mesh))
	require.Equal(t, 1, s.Len())

	rec, ok := s.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "m1", rec.ID)
	assert.Equal(t, "Mesh", rec.RawKind)
	assert.Equal(t, scene.KindMesh, rec.Kind)
	assert.Equal(t, "hull", rec.Name)
	assert.Equal(t, "hero-hull", rec.TestID)
	assert.True(t, rec.Visible)
	assert.Equal(t, float32(1), rec.Transform.Position.X)
	assert.False(t, rec.HasParent)
	require.NotNil(t, rec.Summary.Geometry)
	assert.Equal(t, 3, rec.Summary.Geometry.Vertices)
}

func TestStore_RegisterIdempotent(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)
	mesh := g.NewMesh("m1")

	require.True(t, s.Register(mesh))

	// The second registration must not re-extract: mutate the node first
	// and check the record kept the original snapshot.
	mesh.SetName("renamed")
	assert.False(t, s.Register(mesh))

	rec, _ := s.Get("m1")
	assert.Equal(t, "m1", rec.Name)
	assert.Equal(t, 1, s.Len())
}

func TestStore_RegisterDegradesOnBadReads(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	n := g.NewMesh("broken")
	n.TransformErr = errors.New("native bridge gone")
	n.SummaryErr = errors.New("native bridge gone")

	require.True(t, s.Register(n))

	rec, ok := s.Get("broken")
	require.True(t, ok)
	assert.Equal(t, scene.Transform{}, rec.Transform)
	assert.Nil(t, rec.Summary.Geometry)
}

func TestStore_Update(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)
	mesh := g.NewMesh("m1")
	require.True(t, s.Register(mesh))

	t.Run("no change reports false", func(t *testing.T) {
		assert.False(t, s.Update(mesh))
	})

	t.Run("position change reports true", func(t *testing.T) {
		mesh.SetPosition(scene.Vec3{X: 5})
		assert.True(t, s.Update(mesh))
		rec, _ := s.Get("m1")
		assert.Equal(t, float32(5), rec.Transform.Position.X)
	})

	t.Run("visibility change reports true", func(t *testing.T) {
		mesh.SetVisible(false)
		assert.True(t, s.Update(mesh))
		rec, _ := s.Get("m1")
		assert.False(t, rec.Visible)
	})

	t.Run("failed transform read keeps previous value", func(t *testing.T) {
		mesh.TransformErr = errors.New("read fault")
		assert.False(t, s.Update(mesh))
		rec, _ := s.Get("m1")
		assert.Equal(t, float32(5), rec.Transform.Position.X)
		mesh.TransformErr = nil
	})

	t.Run("testID change reindexes", func(t *testing.T) {
		mesh.SetTestID("first")
		require.True(t, s.Update(mesh))
		_, ok := s.GetByTestID("first")
		require.True(t, ok)

		mesh.SetTestID("second")
		require.True(t, s.Update(mesh))
		_, ok = s.GetByTestID("first")
		assert.False(t, ok)
		rec, ok := s.GetByTestID("second")
		require.True(t, ok)
		assert.Equal(t, "m1", rec.ID)
	})

	t.Run("unregistered node reports false", func(t *testing.T) {
		other := g.NewMesh("never-registered")
		assert.False(t, s.Update(other))
	})
}

func TestStore_SecondaryIndexes(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	a := g.NewMesh("a")
	a.SetName("wheel")
	b := g.NewMesh("b")
	b.SetName("wheel")
	c := g.NewNode("c", "PointLight")

	s.Register(a)
	s.Register(b)
	s.Register(c)

	assert.Len(t, s.GetByName("wheel"), 2)
	assert.Empty(t, s.GetByName("axle"))
	assert.Len(t, s.GetByKind(scene.KindMesh), 2)
	assert.Len(t, s.GetByKind(scene.KindLight), 1)

	s.Unregister("a")
	assert.Len(t, s.GetByName("wheel"), 1)
	assert.Len(t, s.GetByKind(scene.KindMesh), 1)
}

func TestStore_TestIDCollisionLastWriteWins(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	a := g.NewMesh("a")
	a.SetTestID("dup")
	b := g.NewMesh("b")
	b.SetTestID("dup")

	s.Register(a)
	s.Register(b)

	rec, ok := s.GetByTestID("dup")
	require.True(t, ok)
	assert.Equal(t, "b", rec.ID)

	// Removing the non-owner must not clear the key.
	s.Unregister("a")
	rec, ok = s.GetByTestID("dup")
	require.True(t, ok)
	assert.Equal(t, "b", rec.ID)

	s.Unregister("b")
	_, ok = s.GetByTestID("dup")
	assert.False(t, ok)
}

func TestStore_ChildrenFiltersUnregistered(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	root := g.NewNode("root", "TransformNode")
	c1 := g.NewMesh("c1")
	c2 := g.NewMesh("c2")
	g.Attach(root, c1)
	g.Attach(root, c2)

	s.RegisterRoot(root)
	s.Register(c1)
	s.Register(c2)

	require.Len(t, s.Children("root"), 2)

	// Unregister one child without refreshing the parent. The stale cached
	// child list still names c1, but queries must not surface it.
	s.Unregister("c1")
	kids := s.Children("root")
	require.Len(t, kids, 1)
	assert.Equal(t, "c2", kids[0].ID)
}

func TestStore_Snapshot(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	root := g.NewNode("root", "TransformNode")
	mid := g.NewNode("mid", "TransformNode")
	leaf := g.NewMesh("leaf")
	g.Attach(root, mid)
	g.Attach(mid, leaf)

	s.RegisterRoot(root)
	s.Register(mid)
	s.Register(leaf)
	s.Refresh("root")
	s.Refresh("mid")

	snap, ok := s.Snapshot("root")
	require.True(t, ok)
	require.Len(t, snap.Children, 1)
	assert.Equal(t, "mid", snap.Children[0].Record.ID)
	require.Len(t, snap.Children[0].Children, 1)
	assert.Equal(t, "leaf", snap.Children[0].Children[0].Record.ID)

	_, ok = s.Snapshot("missing")
	assert.False(t, ok)
}

func TestStore_SweepOrphans(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	root := g.NewNode("root", "TransformNode")
	kept := g.NewMesh("kept")
	detached := g.NewMesh("detached")
	disposed := g.NewMesh("disposed")
	g.Attach(root, kept)
	g.Attach(root, detached)
	g.Attach(root, disposed)

	s.RegisterRoot(root)
	s.Register(kept)
	s.Register(detached)
	s.Register(disposed)
	s.MarkDirty("detached")

	g.Detach(detached)
	disposed.Dispose()

	swept := s.SweepOrphans()
	assert.Equal(t, 2, swept)
	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("kept")
	assert.True(t, ok)
	_, ok = s.Get("detached")
	assert.False(t, ok)
	_, ok = s.Get("disposed")
	assert.False(t, ok)

	// Roots never count as orphans even though they have no parent.
	_, ok = s.Get("root")
	assert.True(t, ok)

	// The dirty mark for the swept node is gone too.
	assert.Zero(t, s.DirtyCount())
}

func TestStore_FlatIteration(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	for _, id := range []string{"a", "b", "c"} {
		s.Register(g.NewMesh(id))
	}
	require.Equal(t, 3, s.FlatLen())

	seen := map[string]bool{}
	for i := 0; i < s.FlatLen(); i++ {
		id, ok := s.FlatID(i)
		require.True(t, ok)
		seen[id] = true
	}
	assert.Len(t, seen, 3)

	_, ok := s.FlatID(99)
	assert.False(t, ok)

	s.Unregister("b")
	assert.Equal(t, 2, s.FlatLen())
}

func TestStore_Events(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	var got []Event
	sub := s.Subscribe(func(ev Event) { got = append(got, ev) })

	mesh := g.NewMesh("m1")
	s.Register(mesh)
	mesh.SetVisible(false)
	s.Update(mesh)
	s.Update(mesh) // unchanged, must not emit
	s.Unregister("m1")

	require.Len(t, got, 3)
	assert.Equal(t, Event{Kind: EventAdd, ID: "m1"}, got[0])
	assert.Equal(t, Event{Kind: EventUpdate, ID: "m1"}, got[1])
	assert.Equal(t, Event{Kind: EventRemove, ID: "m1"}, got[2])

	s.Unsubscribe(sub)
	s.Register(g.NewMesh("m2"))
	assert.Len(t, got, 3)
}
