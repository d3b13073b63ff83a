// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package intercept

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorworks/scenemirror/metastore"
	"github.com/mirrorworks/scenemirror/mirror"
	"github.com/mirrorworks/scenemirror/scene"
	"github.com/mirrorworks/scenemirror/scene/scenetest"
)

func newTarget() (*metastore.Store, *mirror.Materializer, *Target) {
	s := metastore.New(nil)
	m := mirror.NewMaterializer(s, 100, nil)
	return s, m, &Target{Store: s, Materializer: m}
}

func TestInstall_RefCountedPatching(t *testing.T) {
	g := scenetest.NewGraph()
	a := NewAdapter(g, nil)
	require.False(t, a.Patched())

	_, _, t1 := newTarget()
	_, _, t2 := newTarget()

	dispose1 := a.Install(t1)
	assert.True(t, a.Patched())
	assert.Equal(t, 1, g.AttachHookCount())

	dispose2 := a.Install(t2)
	assert.Equal(t, 2, a.Installed())
	assert.Equal(t, 1, g.AttachHookCount(), "second install must not re-patch")

	dispose1()
	dispose1() // idempotent
	assert.True(t, a.Patched())
	assert.Equal(t, 1, a.Installed())

	dispose2()
	assert.False(t, a.Patched())
	assert.Zero(t, g.AttachHookCount())
}

func TestOnAttach_RegistersSubtreeAndMarksParentDirty(t *testing.T) {
	g := scenetest.NewGraph()
	a := NewAdapter(g, nil)
	s, _, target := newTarget()

	root := g.NewNode("root", "TransformNode")
	s.RegisterRoot(root)
	defer a.Install(target)()

	sub := g.BuildTree("sub", 1, 2) // sub + 2 meshes, built detached
	g.Attach(root, sub)

	_, ok := s.Get("sub")
	require.True(t, ok)
	assert.Equal(t, 4, s.Len()) // root + sub + 2 leaves

	// Same-turn visibility: the parent's cached child list already names
	// the new subtree, and the parent is queued for priority sync.
	kids := s.Children("root")
	require.Len(t, kids, 1)
	assert.Equal(t, "sub", kids[0].ID)
	assert.Equal(t, 1, s.DirtyCount())
}

func TestOnAttach_RegistersAncestorChainFirst(t *testing.T) {
	g := scenetest.NewGraph()
	a := NewAdapter(g, nil)
	s, _, target := newTarget()

	root := g.NewNode("root", "TransformNode")
	s.RegisterRoot(root)
	defer a.Install(target)()

	// Build an untracked chain root->a->b silently, then attach a leaf
	// under b. The adapter must register a and b (the chain up to the
	// nearest tracked ancestor) before the leaf.
	nodeA := g.NewNode("a", "TransformNode")
	nodeB := g.NewNode("b", "TransformNode")
	leaf := g.NewMesh("leaf")

	// Silent links bypass hooks, mimicking pre-existing structure.
	g.LinkSilently(root, nodeA)
	g.LinkSilently(nodeA, nodeB)

	g.Attach(nodeB, leaf)

	for _, id := range []string{"a", "b", "leaf"} {
		rec, ok := s.Get(id)
		require.True(t, ok, id)
		assert.True(t, rec.HasParent, id)
	}
}

func TestOnAttach_OutsideTrackedRootsIsIgnored(t *testing.T) {
	g := scenetest.NewGraph()
	a := NewAdapter(g, nil)
	s, _, target := newTarget()

	root := g.NewNode("root", "TransformNode")
	s.RegisterRoot(root)
	defer a.Install(target)()

	stray1 := g.NewNode("stray1", "TransformNode")
	stray2 := g.NewMesh("stray2")
	g.Attach(stray1, stray2)

	_, ok := s.Get("stray2")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestOnAttach_InclusionModes(t *testing.T) {
	internal := func(n scene.LiveNode) bool {
		return !strings.HasPrefix(n.Name(), "__")
	}

	t.Run("opt-out exclusion prunes the subtree", func(t *testing.T) {
		g := scenetest.NewGraph()
		a := NewAdapter(g, nil)
		s := metastore.New(nil)
		defer a.Install(&Target{Store: s, Mode: OptOut, Include: internal})()

		root := g.NewNode("root", "TransformNode")
		s.RegisterRoot(root)

		gizmo := g.NewNode("gizmo", "TransformNode")
		gizmo.SetName("__gizmo")
		handle := g.NewMesh("handle") // plain name, but under a pruned node
		g.Attach(gizmo, handle)
		g.Attach(root, gizmo)

		_, ok := s.Get("gizmo")
		assert.False(t, ok)
		_, ok = s.Get("handle")
		assert.False(t, ok, "exclusion must prune descendants")
	})

	t.Run("opt-in registers only accepted nodes", func(t *testing.T) {
		g := scenetest.NewGraph()
		a := NewAdapter(g, nil)
		s := metastore.New(nil)
		accept := func(n scene.LiveNode) bool { return n.Kind() == "Mesh" }
		defer a.Install(&Target{Store: s, Mode: OptIn, Include: accept})()

		root := g.NewNode("root", "TransformNode")
		s.RegisterRoot(root)

		g.Attach(root, g.NewMesh("wanted"))
		g.Attach(root, g.NewNode("unwanted", "PointLight"))

		_, ok := s.Get("wanted")
		assert.True(t, ok)
		_, ok = s.Get("unwanted")
		assert.False(t, ok)
	})

	t.Run("opt-in with nil predicate registers nothing", func(t *testing.T) {
		g := scenetest.NewGraph()
		a := NewAdapter(g, nil)
		s := metastore.New(nil)
		defer a.Install(&Target{Store: s, Mode: OptIn})()

		root := g.NewNode("root", "TransformNode")
		s.RegisterRoot(root)
		g.Attach(root, g.NewMesh("m"))

		_, ok := s.Get("m")
		assert.False(t, ok)
		// The parent is still refreshed and queued.
		assert.Equal(t, 1, s.DirtyCount())
	})
}

func TestOnDetach_UnregistersSubtreeAndTearsDownShadows(t *testing.T) {
	g := scenetest.NewGraph()
	a := NewAdapter(g, nil)
	s, m, target := newTarget()

	root := g.NewNode("root", "TransformNode")
	s.RegisterRoot(root)
	defer a.Install(target)()

	sub := g.BuildTree("sub", 2, 2) // 7 nodes
	g.Attach(root, sub)
	require.Equal(t, 8, s.Len())
	m.MaterializeSubtree("sub", 2)
	require.Equal(t, 7, m.Len())

	g.Detach(sub)

	assert.Equal(t, 1, s.Len())
	assert.Zero(t, m.Len())
	_, ok := s.Get("sub")
	assert.False(t, ok)
}

func TestOnDetach_UntrackedSubtreeIsIgnored(t *testing.T) {
	g := scenetest.NewGraph()
	a := NewAdapter(g, nil)
	s, _, target := newTarget()

	root := g.NewNode("root", "TransformNode")
	s.RegisterRoot(root)
	defer a.Install(target)()

	stray1 := g.NewNode("stray1", "TransformNode")
	stray2 := g.NewMesh("stray2")
	g.Attach(stray1, stray2)
	g.Detach(stray2)

	assert.Equal(t, 1, s.Len())
	assert.Zero(t, s.DirtyCount())
}

func TestMultipleRootsShareOnePatch(t *testing.T) {
	g := scenetest.NewGraph()
	a := NewAdapter(g, nil)

	s1, _, t1 := newTarget()
	s2, _, t2 := newTarget()
	defer a.Install(t1)()
	defer a.Install(t2)()

	r1 := g.NewNode("r1", "TransformNode")
	r2 := g.NewNode("r2", "TransformNode")
	s1.RegisterRoot(r1)
	s2.RegisterRoot(r2)

	g.Attach(r1, g.NewMesh("under-r1"))
	g.Attach(r2, g.NewMesh("under-r2"))

	_, ok := s1.Get("under-r1")
	assert.True(t, ok)
	_, ok = s1.Get("under-r2")
	assert.False(t, ok, "r2's subtree is not tracked by store 1")
	_, ok = s2.Get("under-r2")
	assert.True(t, ok)
}
