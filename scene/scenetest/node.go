// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scenetest provides a synthetic, fully scriptable scene graph
// implementing the scene.LiveNode contract.
//
// It backs the package tests and the bench CLI: nodes can be mutated
// (moved, hidden, disposed), reads can be made to fail on demand, and the
// Graph fires the same attach/detach hooks a real host engine would.
package scenetest

import (
	"fmt"

	"github.com/mirrorworks/scenemirror/scene"
)

// Node is a mutable synthetic scene node.
//
// Not safe for concurrent use; like the live engine objects it stands in
// for, it is owned by the single goroutine driving the scene.
type Node struct {
	graph *Graph

	id     string
	kind   string
	name   string
	testID string

	visible  bool
	disposed bool

	transform scene.Transform
	summary   scene.Summary
	tris      []scene.Triangle
	custom    map[string]any

	parent   *Node
	children []*Node

	// Injectable read failures.
	TransformErr  error
	SummaryErr    error
	BoundsErr     error
	TrianglesErr  error
	CustomDataErr error
}

var _ scene.LiveNode = (*Node)(nil)

// ID implements scene.LiveNode.
func (n *Node) ID() string { return n.id }

// Kind implements scene.LiveNode.
func (n *Node) Kind() string { return n.kind }

// Name implements scene.LiveNode.
func (n *Node) Name() string { return n.name }

// TestID implements scene.LiveNode.
func (n *Node) TestID() string { return n.testID }

// Visible implements scene.LiveNode.
func (n *Node) Visible() bool { return n.visible }

// Disposed implements scene.LiveNode.
func (n *Node) Disposed() bool { return n.disposed }

// ParentID implements scene.LiveNode.
func (n *Node) ParentID() (string, bool) {
	if n.parent == nil {
		return "", false
	}
	return n.parent.id, true
}

// ChildIDs implements scene.LiveNode.
func (n *Node) ChildIDs() []string {
	ids := make([]string, len(n.children))
	for i, c := range n.children {
		ids[i] = c.id
	}
	return ids
}

// Transform implements scene.LiveNode.
func (n *Node) Transform() (scene.Transform, error) {
	if n.TransformErr != nil {
		return scene.Transform{}, n.TransformErr
	}
	if n.disposed {
		return scene.Transform{}, fmt.Errorf("node %s: disposed", n.id)
	}
	return n.transform, nil
}

// Summary implements scene.LiveNode.
func (n *Node) Summary() (scene.Summary, error) {
	if n.SummaryErr != nil {
		return scene.Summary{}, n.SummaryErr
	}
	return n.summary, nil
}

// WorldMatrix implements scene.LiveNode. The synthetic graph only composes
// translation, which is all the mirror-side math needs exercised.
func (n *Node) WorldMatrix() (scene.Matrix4, error) {
	if n.BoundsErr != nil {
		return scene.Matrix4{}, n.BoundsErr
	}
	return scene.Translation(n.worldPosition()), nil
}

// WorldBounds implements scene.LiveNode.
func (n *Node) WorldBounds() (scene.Box3, error) {
	if n.BoundsErr != nil {
		return scene.Box3{}, n.BoundsErr
	}
	local := scene.EmptyBox3()
	if n.summary.Geometry != nil {
		local = n.summary.Geometry.Bounds
	}
	for _, tri := range n.tris {
		local = local.Union(tri.Bounds())
	}
	if local.IsEmpty() {
		p := n.worldPosition()
		return scene.Box3{Min: p, Max: p}, nil
	}
	return local.Translate(n.worldPosition()), nil
}

// Triangles implements scene.LiveNode.
func (n *Node) Triangles() ([]scene.Triangle, error) {
	if n.TrianglesErr != nil {
		return nil, n.TrianglesErr
	}
	if n.disposed {
		return nil, fmt.Errorf("node %s: disposed", n.id)
	}
	return n.tris, nil
}

// CustomData implements scene.LiveNode.
func (n *Node) CustomData() (map[string]any, error) {
	if n.CustomDataErr != nil {
		return nil, n.CustomDataErr
	}
	return n.custom, nil
}

func (n *Node) worldPosition() scene.Vec3 {
	p := n.transform.Position
	for a := n.parent; a != nil; a = a.parent {
		p = p.Add(a.transform.Position)
	}
	return p
}

// --- mutators ---

// SetName renames the node.
func (n *Node) SetName(name string) { n.name = name }

// SetTestID changes the secondary lookup key.
func (n *Node) SetTestID(id string) { n.testID = id }

// SetVisible toggles visibility.
func (n *Node) SetVisible(v bool) { n.visible = v }

// SetPosition moves the node.
func (n *Node) SetPosition(p scene.Vec3) { n.transform.Position = p }

// SetScaleFactor scales the node uniformly.
func (n *Node) SetScaleFactor(s float32) {
	n.transform.Scale = scene.Vec3{X: s, Y: s, Z: s}
}

// SetTriangles replaces the node's object-space geometry and refreshes the
// geometry summary bounds.
func (n *Node) SetTriangles(tris []scene.Triangle) {
	n.tris = tris
	bounds := scene.EmptyBox3()
	for _, t := range tris {
		bounds = bounds.Union(t.Bounds())
	}
	n.summary.Geometry = &scene.GeometrySummary{
		Vertices: len(tris) * 3,
		Indices:  len(tris) * 3,
		Bounds:   bounds,
	}
}

// SetMaterial sets the material summary.
func (n *Node) SetMaterial(name, shader string) {
	n.summary.Material = &scene.MaterialSummary{Name: name, Shader: shader}
}

// SetCustom sets one custom-data key.
func (n *Node) SetCustom(key string, value any) {
	if n.custom == nil {
		n.custom = map[string]any{}
	}
	n.custom[key] = value
}

// Dispose marks the node disposed; fallible reads start failing.
func (n *Node) Dispose() { n.disposed = true }

// Children returns the node's children. Test helper.
func (n *Node) Children() []*Node { return n.children }

// Parent returns the node's parent, or nil. Test helper.
func (n *Node) Parent() *Node { return n.parent }
