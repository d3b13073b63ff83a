// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scenetest

import (
	"slices"

	"github.com/mirrorworks/scenemirror/scene"
)

// Graph is a synthetic host scene graph with hookable structural
// mutations. It satisfies the interception contract the mirror core
// expects from a real engine: attach hooks fire after the link is in
// place (the new subtree is walkable), detach hooks fire before the link
// is severed (the removed subtree is still walkable).
type Graph struct {
	nodes map[string]*Node

	attachHooks []func(parent, child scene.LiveNode)
	detachHooks []func(parent, child scene.LiveNode)
}

// NewGraph creates an empty synthetic graph.
func NewGraph() *Graph {
	return &Graph{nodes: map[string]*Node{}}
}

// NewNode creates a detached node and registers it for lookup.
func (g *Graph) NewNode(id, kind string) *Node {
	n := &Node{
		graph:   g,
		id:      id,
		kind:    kind,
		name:    id,
		visible: true,
		transform: scene.Transform{
			Scale: scene.Vec3{X: 1, Y: 1, Z: 1},
		},
	}
	g.nodes[id] = n
	return n
}

// NewMesh creates a detached mesh node with a unit triangle at the origin.
func (g *Graph) NewMesh(id string) *Node {
	n := g.NewNode(id, "Mesh")
	n.SetTriangles([]scene.Triangle{{
		A: scene.Vec3{X: -1, Y: -1, Z: 0},
		B: scene.Vec3{X: 1, Y: -1, Z: 0},
		C: scene.Vec3{X: 0, Y: 1, Z: 0},
	}})
	return n
}

// Lookup returns the node for id, or nil. Part of the interception
// contract.
func (g *Graph) Lookup(id string) scene.LiveNode {
	n, ok := g.nodes[id]
	if !ok {
		return nil // typed nil must not escape as a non-nil interface
	}
	return n
}

// HookAttach installs an attach interceptor and returns its remover.
func (g *Graph) HookAttach(fn func(parent, child scene.LiveNode)) func() {
	g.attachHooks = append(g.attachHooks, fn)
	idx := len(g.attachHooks) - 1
	return func() { g.attachHooks[idx] = nil }
}

// HookDetach installs a detach interceptor and returns its remover.
func (g *Graph) HookDetach(fn func(parent, child scene.LiveNode)) func() {
	g.detachHooks = append(g.detachHooks, fn)
	idx := len(g.detachHooks) - 1
	return func() { g.detachHooks[idx] = nil }
}

// AttachHookCount reports how many attach hooks are live. Test helper.
func (g *Graph) AttachHookCount() int {
	count := 0
	for _, h := range g.attachHooks {
		if h != nil {
			count++
		}
	}
	return count
}

// Attach links child under parent and fires the attach hooks.
func (g *Graph) Attach(parent, child *Node) {
	if child.parent != nil {
		g.Detach(child)
	}
	child.parent = parent
	parent.children = append(parent.children, child)

	for _, h := range g.attachHooks {
		if h != nil {
			h(parent, child)
		}
	}
}

// Detach fires the detach hooks and then unlinks child from its parent.
// No-op for already-detached nodes.
func (g *Graph) Detach(child *Node) {
	parent := child.parent
	if parent == nil {
		return
	}

	for _, h := range g.detachHooks {
		if h != nil {
			h(parent, child)
		}
	}

	child.parent = nil
	parent.children = slices.DeleteFunc(parent.children, func(n *Node) bool {
		return n == child
	})
}

// LinkSilently links child under parent without firing hooks. Pre-existing
// scene content looks exactly like this to a freshly installed adapter.
func (g *Graph) LinkSilently(parent, child *Node) {
	child.parent = parent
	parent.children = append(parent.children, child)
}

// BuildTree builds a complete tree of meshes under a fresh group root:
// depth levels with fanout children each, ids prefixed by prefix. Returns
// the root. Structural hooks do not fire; this is pre-existing scene
// content, attached before any mirror is watching.
func (g *Graph) BuildTree(prefix string, depth, fanout int) *Node {
	root := g.NewNode(prefix, "TransformNode")
	g.buildLevel(root, prefix, depth, fanout)
	return root
}

func (g *Graph) buildLevel(parent *Node, prefix string, depth, fanout int) {
	if depth == 0 {
		return
	}
	for i := 0; i < fanout; i++ {
		id := prefix + "/" + string(rune('a'+i%26)) + itoa(i)
		child := g.NewMesh(id)
		child.parent = parent
		parent.children = append(parent.children, child)
		g.buildLevel(child, id, depth-1, fanout)
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [8]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
