// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metastore

import (
	"log/slog"
	"maps"

	"github.com/mirrorworks/scenemirror/scene"
)

// Inspection is the Tier-2 deep view of one node. Nothing in it is ever
// cached; every call recomputes from the live node.
//
// Sections fail independently: a nil section paired with an entry in
// SectionErrors means that read failed, while a nil section with no entry
// means the node has nothing to report there (e.g. no geometry on a
// group).
type Inspection struct {
	ID string

	Transform *TransformDetail
	Geometry  *GeometryDetail
	Material  *MaterialDetail

	CustomData map[string]any

	// SectionErrors maps a failed section name ("transform", "geometry",
	// "material", "customData") to its read error.
	SectionErrors map[string]error
}

// TransformDetail is the world-space transform section.
type TransformDetail struct {
	WorldMatrix scene.Matrix4
	WorldBounds scene.Box3
}

// GeometryDetail is the geometry section.
type GeometryDetail struct {
	Vertices      int
	Indices       int
	TriangleCount int
	Bounds        scene.Box3
}

// MaterialDetail is the material section.
type MaterialDetail struct {
	Name   string
	Shader string
}

// Inspect performs a Tier-2 read of id. Each logical section is isolated:
// one broken section records its error and the rest still fill in. Only a
// definitely-unregistered id yields an error.
func (s *Store) Inspect(id string) (*Inspection, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrUnknownNode
	}
	node, ok := s.nodes[id]
	if !ok {
		return nil, ErrNoLiveHandle
	}

	insp := &Inspection{
		ID:            id,
		SectionErrors: map[string]error{},
	}

	s.inspectTransform(insp, node)
	s.inspectGeometry(insp, rec, node)
	s.inspectMaterial(insp, node)
	s.inspectCustomData(insp, node)

	inspections.Inc()
	return insp, nil
}

func (s *Store) inspectTransform(insp *Inspection, node scene.LiveNode) {
	matrix, err := node.WorldMatrix()
	if err != nil {
		s.sectionFailed(insp, "transform", err)
		return
	}
	bounds, err := node.WorldBounds()
	if err != nil {
		s.sectionFailed(insp, "transform", err)
		return
	}
	insp.Transform = &TransformDetail{WorldMatrix: matrix, WorldBounds: bounds}
}

func (s *Store) inspectGeometry(insp *Inspection, rec *Record, node scene.LiveNode) {
	if rec.Kind != scene.KindMesh {
		return
	}
	sum, err := node.Summary()
	if err != nil || sum.Geometry == nil {
		if err != nil {
			s.sectionFailed(insp, "geometry", err)
		}
		return
	}
	detail := &GeometryDetail{
		Vertices: sum.Geometry.Vertices,
		Indices:  sum.Geometry.Indices,
		Bounds:   sum.Geometry.Bounds,
	}
	if tris, err := node.Triangles(); err != nil {
		s.sectionFailed(insp, "geometry", err)
		// Summary-level detail is still worth returning.
	} else {
		detail.TriangleCount = len(tris)
	}
	insp.Geometry = detail
}

func (s *Store) inspectMaterial(insp *Inspection, node scene.LiveNode) {
	sum, err := node.Summary()
	if err != nil {
		s.sectionFailed(insp, "material", err)
		return
	}
	if sum.Material == nil {
		return
	}
	insp.Material = &MaterialDetail{Name: sum.Material.Name, Shader: sum.Material.Shader}
}

func (s *Store) inspectCustomData(insp *Inspection, node scene.LiveNode) {
	data, err := node.CustomData()
	if err != nil {
		s.sectionFailed(insp, "customData", err)
		return
	}
	if len(data) == 0 {
		return
	}
	insp.CustomData = maps.Clone(data)
}

func (s *Store) sectionFailed(insp *Inspection, section string, err error) {
	insp.SectionErrors[section] = err
	inspectionSectionFailures.WithLabelValues(section).Inc()
	s.log.Debug("inspection section failed",
		slog.String("id", insp.ID),
		slog.String("section", section),
		slog.String("error", err.Error()),
	)
}
