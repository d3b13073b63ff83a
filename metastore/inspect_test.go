// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metastore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorworks/scenemirror/scene"
	"github.com/mirrorworks/scenemirror/scene/scenetest"
)

func TestInspect_FullMesh(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	mesh := g.NewMesh("m1")
	mesh.SetPosition(scene.Vec3{X: 10})
	mesh.SetMaterial("steel", "pbr")
	mesh.SetCustom("team", "red")
	require.True(t, s.Register(mesh))

	insp, err := s.Inspect("m1")
	require.NoError(t, err)
	assert.Empty(t, insp.SectionErrors)

	require.NotNil(t, insp.Transform)
	assert.Equal(t, scene.Translation(scene.Vec3{X: 10}), insp.Transform.WorldMatrix)
	assert.False(t, insp.Transform.WorldBounds.IsEmpty())

	require.NotNil(t, insp.Geometry)
	assert.Equal(t, 1, insp.Geometry.TriangleCount)
	assert.Equal(t, 3, insp.Geometry.Vertices)

	require.NotNil(t, insp.Material)
	assert.Equal(t, "steel", insp.Material.Name)
	assert.Equal(t, "pbr", insp.Material.Shader)

	assert.Equal(t, "red", insp.CustomData["team"])
}

func TestInspect_SectionFailuresAreIsolated(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	mesh := g.NewMesh("m1")
	mesh.SetMaterial("steel", "pbr")
	require.True(t, s.Register(mesh))

	mesh.BoundsErr = errors.New("transform bridge fault")
	mesh.CustomDataErr = errors.New("metadata bridge fault")

	insp, err := s.Inspect("m1")
	require.NoError(t, err)

	// Broken sections record their error; the rest still fill in.
	assert.Nil(t, insp.Transform)
	assert.Error(t, insp.SectionErrors["transform"])
	assert.Nil(t, insp.CustomData)
	assert.Error(t, insp.SectionErrors["customData"])

	require.NotNil(t, insp.Geometry)
	require.NotNil(t, insp.Material)
	assert.Len(t, insp.SectionErrors, 2)
}

func TestInspect_NonMeshSkipsGeometry(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	light := g.NewNode("l1", "PointLight")
	require.True(t, s.Register(light))

	insp, err := s.Inspect("l1")
	require.NoError(t, err)
	assert.Nil(t, insp.Geometry)
	assert.Nil(t, insp.Material)
	assert.NotContains(t, insp.SectionErrors, "geometry")
}

func TestInspect_UnknownNode(t *testing.T) {
	s := New(nil)
	_, err := s.Inspect("ghost")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestInspect_CustomDataIsACopy(t *testing.T) {
	g := scenetest.NewGraph()
	s := New(nil)

	mesh := g.NewMesh("m1")
	mesh.SetCustom("k", "v1")
	require.True(t, s.Register(mesh))

	insp, err := s.Inspect("m1")
	require.NoError(t, err)
	insp.CustomData["k"] = "poisoned"

	again, err := s.Inspect("m1")
	require.NoError(t, err)
	assert.Equal(t, "v1", again.CustomData["k"])
}
