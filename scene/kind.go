// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scene

import "strings"

// NodeKind is the resolved tagged variant of a node's raw class tag.
//
// Raw tags are engine-specific strings ("InstancedMesh", "SpotLight",
// "ArcRotateCamera", ...). Resolving them once at registration keeps the
// hot sync and query paths free of repeated string inspection.
type NodeKind int32

const (
	// KindOther is every node the mirror has no specific handling for.
	KindOther NodeKind = iota

	// KindMesh is a geometry-bearing, hit-testable node.
	KindMesh

	// KindLight is a light source.
	KindLight

	// KindCamera is a camera node.
	KindCamera

	// KindGroup is a pure transform/grouping node with no geometry.
	KindGroup
)

// String returns the canonical lower-case name of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindLight:
		return "light"
	case KindCamera:
		return "camera"
	case KindGroup:
		return "group"
	default:
		return "other"
	}
}

// ParseKind resolves a raw engine class tag to a NodeKind.
//
// Matching is suffix-based for lights and cameras because engines subclass
// them freely ("PointLight", "ArcRotateCamera"), and prefix-based for
// meshes ("Mesh", "InstancedMesh", "GroundMesh"). Unknown tags resolve to
// KindOther, which is always safe: such nodes are cached and mirrored but
// never hit-tested.
func ParseKind(raw string) NodeKind {
	switch {
	case raw == "Mesh" || strings.HasSuffix(raw, "Mesh"):
		return KindMesh
	case strings.HasSuffix(raw, "Light"):
		return KindLight
	case strings.HasSuffix(raw, "Camera"):
		return KindCamera
	case raw == "Group" || raw == "Node" || raw == "TransformNode":
		return KindGroup
	default:
		return KindOther
	}
}
