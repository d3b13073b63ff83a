// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package mirror maintains the bounded shadow tree: a capacity-limited,
// LRU-evicted materialization of the most interesting slice of the Tier-1
// cache.
//
// The shadow tree is a cache, not a ceiling: resolution falls back to the
// Tier-1 indexes and materializes on demand, so queries can always reach
// the full tracked scene even though at most maxMaterialized shadows exist
// at any time.
//
// Not safe for concurrent use; the materializer shares the single mirror
// goroutine with the store and the scheduler.
package mirror

import (
	"github.com/mirrorworks/scenemirror/scene"
)

// RootID is the synthetic id of the shadow root. The root is not a
// tracked node: it exists only to give provisional orphans a parent and
// is never registered, evicted, or counted against capacity.
const RootID = "__mirror_root__"

// ShadowNode is one materialized node of the shadow tree.
//
// Attrs is the prior-attribute snapshot the sync pass diffs against;
// values are comparable Tier-1 projections (strings, bools, Vec3s). The
// snapshot is owned by the materializer and must not be mutated by
// callers.
type ShadowNode struct {
	ID   string
	Kind scene.NodeKind

	Attrs map[string]any

	Parent   *ShadowNode
	Children []*ShadowNode

	// Provisional marks a shadow attached at the root because its real
	// parent was not materialized at attach time. Adoption clears it.
	Provisional bool
}

// attach links s under parent. s must be detached.
func (s *ShadowNode) attach(parent *ShadowNode) {
	s.Parent = parent
	parent.Children = append(parent.Children, s)
}

// detach unlinks s from its parent. No-op when already detached.
func (s *ShadowNode) detach() {
	p := s.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == s {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	s.Parent = nil
}
