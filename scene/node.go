// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scene defines the contracts between the mirror core and the host
// scene graph.
//
// The mirror never owns or mutates live nodes. Everything it learns about
// the host graph flows through the LiveNode interface: cheap per-node field
// reads for the Tier-1 cache, and deeper (possibly failing) reads for
// on-demand inspection and hit-testing. Reads may fail at any time — a node
// can be disposed between the moment the mirror learns about it and the
// moment it reads a field — so every error-returning method must be treated
// as fallible on every call.
//
// # Ownership Model
//
// LiveNode handles are borrowed, never owned:
//   - The mirror MUST NOT mutate the live graph through a handle.
//   - A handle may outlive the node it points at; reads after disposal
//     return errors rather than panicking.
//   - Identity is the string ID, not the handle. Two handles for the same
//     ID refer to the same node.
package scene

// LiveNode is the read surface the host graph exposes per node.
//
// The first group of methods is infallible and cheap — these feed the
// Tier-1 metadata cache and are called on every sync pass. The second group
// may fail (disposed GPU buffers, detached engine objects) and is only
// called on demand.
type LiveNode interface {
	// ID returns the unique, stable node identity.
	ID() string

	// Kind returns the host engine's raw class tag (e.g. "InstancedMesh").
	// The mirror resolves this to a NodeKind once, at registration.
	Kind() string

	// Name returns the display name. Not unique.
	Name() string

	// TestID returns the optional secondary lookup key, or "" if unset.
	TestID() string

	// Visible reports whether the node is currently rendered.
	Visible() bool

	// Disposed reports whether the underlying engine object has been
	// destroyed. A disposed node's fallible reads return errors.
	Disposed() bool

	// ParentID returns the current parent link, or ok=false for a root
	// or a node detached from the graph.
	ParentID() (id string, ok bool)

	// ChildIDs returns the ordered child ids. The returned slice must not
	// be retained by the host after the call returns.
	ChildIDs() []string

	// Transform reads the local position/rotation/scale triples.
	Transform() (Transform, error)

	// Summary reads the cheap type-specific summary fields.
	Summary() (Summary, error)

	// WorldMatrix computes the current world transform.
	WorldMatrix() (Matrix4, error)

	// WorldBounds computes the current world-space bounding box.
	WorldBounds() (Box3, error)

	// Triangles returns the node's geometry in object space, or an error
	// for geometry-less or disposed nodes.
	Triangles() ([]Triangle, error)

	// CustomData returns a snapshot of the host's free-form metadata map.
	CustomData() (map[string]any, error)
}

// Transform is the local position/rotation/scale triple set.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// Summary carries the cheap type-specific Tier-1 fields. Only the sections
// matching the node's kind are populated; nil sections mean "not that kind
// of node", not "read failed".
type Summary struct {
	Geometry       *GeometrySummary
	Material       *MaterialSummary
	Camera         *CameraSummary
	InstanceSource string
}

// GeometrySummary is the Tier-1 view of a mesh's geometry.
type GeometrySummary struct {
	Vertices int
	Indices  int
	Bounds   Box3
}

// MaterialSummary is the Tier-1 view of a mesh's material.
type MaterialSummary struct {
	Name   string
	Shader string
}

// CameraSummary is the Tier-1 view of a camera node.
type CameraSummary struct {
	FOV  float32
	Near float32
	Far  float32
}
