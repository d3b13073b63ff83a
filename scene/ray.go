// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scene

import "github.com/chewxy/math32"

// Triangle is a single triangle, usually in a node's object space.
type Triangle struct {
	A, B, C Vec3
}

// Bounds returns the triangle's axis-aligned bounding box.
func (t Triangle) Bounds() Box3 {
	return Box3{
		Min: t.A.Min(t.B).Min(t.C),
		Max: t.A.Max(t.B).Max(t.C),
	}
}

// Centroid returns the triangle's centroid.
func (t Triangle) Centroid() Vec3 {
	return t.A.Add(t.B).Add(t.C).Scale(1.0 / 3.0)
}

// Ray is a half-line with unit direction.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// IntersectBox runs the slab test against an AABB and returns the entry
// parameter, or ok=false on a miss. A ray originating inside the box hits
// at t=0.
func (r Ray) IntersectBox(b Box3) (float32, bool) {
	tmin := float32(0)
	tmax := math32.Inf(1)

	for axis := 0; axis < 3; axis++ {
		origin, dir, lo, hi := r.axis(b, axis)
		if dir == 0 {
			if origin < lo || origin > hi {
				return 0, false
			}
			continue
		}
		inv := 1 / dir
		t0 := (lo - origin) * inv
		t1 := (hi - origin) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math32.Max(tmin, t0)
		tmax = math32.Min(tmax, t1)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

func (r Ray) axis(b Box3, axis int) (origin, dir, lo, hi float32) {
	switch axis {
	case 0:
		return r.Origin.X, r.Dir.X, b.Min.X, b.Max.X
	case 1:
		return r.Origin.Y, r.Dir.Y, b.Min.Y, b.Max.Y
	default:
		return r.Origin.Z, r.Dir.Z, b.Min.Z, b.Max.Z
	}
}

// rayEpsilon rejects near-parallel triangle intersections.
const rayEpsilon = 1e-7

// IntersectTriangle runs the Moller-Trumbore test and returns the hit
// parameter, or ok=false on a miss. Back faces count as hits: pickable
// geometry in host scenes is frequently single-sided but viewed from
// either side.
func (r Ray) IntersectTriangle(tri Triangle) (float32, bool) {
	e1 := tri.B.Sub(tri.A)
	e2 := tri.C.Sub(tri.A)

	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < rayEpsilon {
		return 0, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(tri.A)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(e1)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(q) * invDet
	if t < rayEpsilon {
		return 0, false
	}
	return t, true
}
