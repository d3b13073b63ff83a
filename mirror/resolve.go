// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mirror

import (
	"github.com/mirrorworks/scenemirror/metastore"
	"github.com/mirrorworks/scenemirror/scene"
)

// Selector-style resolution: materialized shadows first, Tier-1 indexes
// on miss, materializing on demand. The bounded shadow tree is a cache,
// not a ceiling on what can be resolved.

// ResolveByTestID resolves the secondary key to a shadow, materializing
// if needed. Returns nil when no registered node holds the key.
func (m *Materializer) ResolveByTestID(key string) *ShadowNode {
	rec, ok := m.store.GetByTestID(key)
	if !ok {
		return nil
	}
	return m.Materialize(rec.ID)
}

// ResolveByName resolves every registered node with the display name,
// materializing each on demand.
func (m *Materializer) ResolveByName(name string) []*ShadowNode {
	return m.resolveAll(m.store.GetByName(name))
}

// ResolveByKind resolves every registered node of the kind, materializing
// each on demand.
func (m *Materializer) ResolveByKind(kind scene.NodeKind) []*ShadowNode {
	return m.resolveAll(m.store.GetByKind(kind))
}

func (m *Materializer) resolveAll(recs []metastore.Record) []*ShadowNode {
	if len(recs) == 0 {
		return nil
	}
	out := make([]*ShadowNode, 0, len(recs))
	for _, rec := range recs {
		if shadow := m.Materialize(rec.ID); shadow != nil {
			out = append(out, shadow)
		}
	}
	return out
}
