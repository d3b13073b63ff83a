// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mirror

import "github.com/mirrorworks/scenemirror/metastore"

// buildAttrs projects a Tier-1 record into the shadow attribute map.
// Every value is comparable so applyAttrs can diff with ==.
func buildAttrs(rec *metastore.Record) map[string]any {
	attrs := map[string]any{
		"kind":     rec.RawKind,
		"name":     rec.Name,
		"visible":  rec.Visible,
		"position": rec.Transform.Position,
		"rotation": rec.Transform.Rotation,
		"scale":    rec.Transform.Scale,
	}
	if rec.TestID != "" {
		attrs["testId"] = rec.TestID
	}
	if g := rec.Summary.Geometry; g != nil {
		attrs["geometry.vertices"] = g.Vertices
		attrs["geometry.indices"] = g.Indices
	}
	if mat := rec.Summary.Material; mat != nil {
		attrs["material.name"] = mat.Name
		attrs["material.shader"] = mat.Shader
	}
	if cam := rec.Summary.Camera; cam != nil {
		attrs["camera.fov"] = cam.FOV
		attrs["camera.near"] = cam.Near
		attrs["camera.far"] = cam.Far
	}
	if rec.Summary.InstanceSource != "" {
		attrs["instanceSource"] = rec.Summary.InstanceSource
	}
	return attrs
}
