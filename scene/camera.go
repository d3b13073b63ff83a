// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scene

// Camera is the viewpoint state a host supplies with each spatial query.
// The mirror never owns camera state; callers snapshot whatever camera is
// current when they ask for a hit test.
type Camera struct {
	// InverseViewProjection maps normalized device coordinates back to
	// world space. Hosts that already track a view-projection matrix pass
	// its inverse here.
	InverseViewProjection Matrix4

	// ViewportWidth and ViewportHeight are the pixel dimensions the
	// screen coordinates of ScreenRay are measured in.
	ViewportWidth  float32
	ViewportHeight float32
}

// ScreenRay projects the screen-space point (x, y) into a world-space ray.
// (0, 0) is the top-left corner of the viewport. The ray originates on the
// near plane and points through the corresponding far-plane point.
func (c Camera) ScreenRay(x, y float32) Ray {
	ndcX := 2*x/c.ViewportWidth - 1
	ndcY := 1 - 2*y/c.ViewportHeight

	near := c.InverseViewProjection.TransformPoint(Vec3{ndcX, ndcY, -1})
	far := c.InverseViewProjection.TransformPoint(Vec3{ndcX, ndcY, 1})

	return Ray{
		Origin: near,
		Dir:    far.Sub(near).Normalized(),
	}
}
