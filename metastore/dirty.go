// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metastore

// MarkDirty queues id for priority sync on the next tick. Marking an
// unregistered id is a no-op — dirtiness is a property of cached records,
// not of arbitrary strings.
func (s *Store) MarkDirty(id string) {
	if _, ok := s.records[id]; !ok {
		return
	}
	s.dirty[id] = struct{}{}
}

// DirtyCount returns the number of ids awaiting priority sync.
func (s *Store) DirtyCount() int { return len(s.dirty) }

// DrainDirty snapshots the dirty set, atomically replaces it with an empty
// one, and returns the still-registered ids. Marks that happen while the
// caller processes the returned slice land in the fresh set and are
// handled next tick; that deferral is what bounds a single tick's
// priority work.
func (s *Store) DrainDirty() []string {
	if len(s.dirty) == 0 {
		return nil
	}

	drained := s.dirty
	s.dirty = make(map[string]struct{})

	ids := make([]string, 0, len(drained))
	for id := range drained {
		if _, ok := s.records[id]; ok {
			ids = append(ids, id)
		}
	}
	dirtyDrained.Observe(float64(len(ids)))
	return ids
}
