// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package spatial

import (
	"errors"

	"github.com/mirrorworks/scenemirror/scene"
)

// errNoGeometry marks a structure build over an empty triangle list.
var errNoGeometry = errors.New("spatial: no triangles to index")

// leafSize is the maximum triangle count per BVH leaf.
const leafSize = 8

// bvh is an object-space bounding volume hierarchy over one node's
// triangle list. Triangles are reordered in place during the build;
// nodes reference contiguous ranges of the reordered slice.
type bvh struct {
	tris  []scene.Triangle
	nodes []bvhNode
}

// bvhNode is one node of the flattened hierarchy. Leaves have count > 0;
// interior nodes point at their children by index.
type bvhNode struct {
	bounds scene.Box3

	left, right int32
	start       int32
	count       int32
}

// buildBVH constructs a hierarchy over tris by recursive median split on
// the longest axis of the centroid bounds.
func buildBVH(tris []scene.Triangle) (*bvh, error) {
	if len(tris) == 0 {
		return nil, errNoGeometry
	}
	b := &bvh{
		tris:  tris,
		nodes: make([]bvhNode, 0, 2*len(tris)/leafSize+1),
	}
	b.split(0, len(tris))
	return b, nil
}

// split builds the subtree over tris[start:end) and returns its node
// index.
func (b *bvh) split(start, end int) int32 {
	bounds := scene.EmptyBox3()
	centroids := scene.EmptyBox3()
	for _, tri := range b.tris[start:end] {
		bounds = bounds.Union(tri.Bounds())
		centroids = centroids.ExtendPoint(tri.Centroid())
	}

	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{bounds: bounds})

	if end-start <= leafSize {
		b.nodes[idx].start = int32(start)
		b.nodes[idx].count = int32(end - start)
		return idx
	}

	axis := longestAxis(centroids.Size())
	pivot := centroidComponent(centroids.Center(), axis)

	mid := start
	for i := start; i < end; i++ {
		if centroidComponent(b.tris[i].Centroid(), axis) < pivot {
			b.tris[mid], b.tris[i] = b.tris[i], b.tris[mid]
			mid++
		}
	}
	// Degenerate partitions (all centroids on one side) fall back to an
	// even split so the recursion always terminates.
	if mid == start || mid == end {
		mid = (start + end) / 2
	}

	left := b.split(start, mid)
	right := b.split(mid, end)
	b.nodes[idx].left = left
	b.nodes[idx].right = right
	return idx
}

// intersect returns the nearest ray parameter over all triangles, or
// ok=false for a miss. The ray is in the same object space as the
// triangles.
func (b *bvh) intersect(ray scene.Ray) (float32, bool) {
	var (
		best  float32
		found bool
	)

	stack := make([]int32, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &b.nodes[idx]

		t, hit := ray.IntersectBox(node.bounds)
		if !hit || (found && t > best) {
			continue
		}

		if node.count > 0 {
			for _, tri := range b.tris[node.start : node.start+node.count] {
				if t, hit := ray.IntersectTriangle(tri); hit && (!found || t < best) {
					best = t
					found = true
				}
			}
			continue
		}
		stack = append(stack, node.left, node.right)
	}
	return best, found
}

func longestAxis(size scene.Vec3) int {
	if size.X >= size.Y && size.X >= size.Z {
		return 0
	}
	if size.Y >= size.Z {
		return 1
	}
	return 2
}

func centroidComponent(v scene.Vec3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
