// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mirror

import (
	"container/list"
	"log/slog"

	"github.com/mirrorworks/scenemirror/metastore"
)

// defaultCapacity is used when a caller passes a non-positive capacity.
const defaultCapacity = 2000

// Materializer owns the shadow tree and its LRU bookkeeping.
//
// Capacity is enforced at insertion: materializing the capacity+1'th node
// evicts the least recently touched shadow first. Eviction destroys only
// the shadow; the Tier-1 record is untouched, and the node can be
// re-materialized at any time.
type Materializer struct {
	store *metastore.Store
	log   *slog.Logger

	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recent, back = least recent

	root *ShadowNode
}

// lruEntry is the LRU list payload.
type lruEntry struct {
	shadow *ShadowNode
}

// NewMaterializer creates an empty shadow tree over store. A nil logger
// falls back to slog.Default().
func NewMaterializer(store *metastore.Store, capacity int, log *slog.Logger) *Materializer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if log == nil {
		log = slog.Default()
	}
	return &Materializer{
		store:    store,
		log:      log,
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		root:     &ShadowNode{ID: RootID},
	}
}

// Len returns the number of materialized shadows (the root excluded).
func (m *Materializer) Len() int { return len(m.items) }

// Capacity returns the materialization cap.
func (m *Materializer) Capacity() int { return m.capacity }

// Root returns the synthetic shadow root.
func (m *Materializer) Root() *ShadowNode { return m.root }

// IsMaterialized reports whether id currently has a shadow. Does not
// touch the LRU.
func (m *Materializer) IsMaterialized(id string) bool {
	_, ok := m.items[id]
	return ok
}

// Shadow returns the shadow for id without touching the LRU, or nil.
func (m *Materializer) Shadow(id string) *ShadowNode {
	if elem, ok := m.items[id]; ok {
		return elem.Value.(*lruEntry).shadow
	}
	return nil
}

// Materialize ensures id has a shadow and returns it, touching the LRU.
// Unknown ids are a no-op returning nil. If the Tier-1 parent is already
// materialized the shadow attaches under it; otherwise it parks at the
// root as a provisional orphan until adoption reparents it.
func (m *Materializer) Materialize(id string) *ShadowNode {
	if elem, ok := m.items[id]; ok {
		m.order.MoveToFront(elem)
		return elem.Value.(*lruEntry).shadow
	}

	rec, ok := m.store.Get(id)
	if !ok {
		return nil
	}

	if len(m.items) >= m.capacity {
		m.evictOldest()
	}

	shadow := &ShadowNode{ID: rec.ID, Kind: rec.Kind}
	writes := m.applyAttrs(shadow, buildAttrs(&rec))

	if rec.HasParent && m.IsMaterialized(rec.ParentID) {
		shadow.attach(m.Shadow(rec.ParentID))
	} else {
		shadow.Provisional = true
		shadow.attach(m.root)
	}

	m.items[id] = m.order.PushFront(&lruEntry{shadow: shadow})
	m.adoptOrphans(shadow)

	materializations.Inc()
	materialized.Set(float64(len(m.items)))
	attributeWrites.Add(float64(writes))
	return shadow
}

// MaterializeSubtree materializes id and its Tier-1 descendants down to
// depth levels below it. depth 0 materializes only id itself. Returns the
// number of shadows touched or created.
func (m *Materializer) MaterializeSubtree(id string, depth int) int {
	if m.Materialize(id) == nil {
		return 0
	}
	count := 1
	if depth <= 0 {
		return count
	}
	rec, ok := m.store.Get(id)
	if !ok {
		return count
	}
	for _, cid := range rec.ChildIDs {
		count += m.MaterializeSubtree(cid, depth-1)
	}
	return count
}

// Dematerialize destroys id's shadow. Its materialized shadow children
// survive, re-homed at the root as provisional orphans. The Tier-1 record
// is untouched.
func (m *Materializer) Dematerialize(id string) bool {
	elem, ok := m.items[id]
	if !ok {
		return false
	}
	m.remove(elem)
	return true
}

// OnStructuralAdd reacts to an intercepted attach. The new child is
// eagerly materialized only when its parent already has a shadow — an
// attach deep in an untouched branch never forces materialization.
func (m *Materializer) OnStructuralAdd(parentID, childID string) {
	if !m.IsMaterialized(parentID) {
		return
	}
	m.Materialize(childID)
}

// OnStructuralRemove tears down the shadows of an entire removed subtree.
// ids is the removed node set; shadows not in it are untouched.
func (m *Materializer) OnStructuralRemove(ids []string) {
	for _, id := range ids {
		m.Dematerialize(id)
	}
}

// SyncAttributes recomputes id's attribute snapshot from current Tier-1
// data and writes only changed keys, deleting keys that disappeared. It
// also repairs the parent link when the Tier-1 parent changed. No-op for
// unmaterialized ids. Returns the number of attribute writes for cost
// accounting.
func (m *Materializer) SyncAttributes(id string) int {
	elem, ok := m.items[id]
	if !ok {
		return 0
	}
	shadow := elem.Value.(*lruEntry).shadow

	rec, ok := m.store.Get(id)
	if !ok {
		// Registered-iff-recorded broke underneath us; drop the shadow.
		m.remove(elem)
		return 0
	}

	writes := m.applyAttrs(shadow, buildAttrs(&rec))
	m.syncParent(shadow, rec.ParentID, rec.HasParent)

	if writes > 0 {
		attributeWrites.Add(float64(writes))
	}
	return writes
}

// applyAttrs diffs next against the shadow's snapshot, writes changed
// keys, deletes vanished keys, and returns the write count. Attribute
// values are comparable, so == is the whole diff.
func (m *Materializer) applyAttrs(shadow *ShadowNode, next map[string]any) int {
	if shadow.Attrs == nil {
		shadow.Attrs = make(map[string]any, len(next))
	}
	writes := 0
	for k, v := range next {
		if old, ok := shadow.Attrs[k]; !ok || old != v {
			shadow.Attrs[k] = v
			writes++
		}
	}
	for k := range shadow.Attrs {
		if _, ok := next[k]; !ok {
			delete(shadow.Attrs, k)
			writes++
		}
	}
	return writes
}

// syncParent re-homes the shadow when its Tier-1 parent link drifted from
// its shadow parent link.
func (m *Materializer) syncParent(shadow *ShadowNode, parentID string, hasParent bool) {
	if hasParent && m.IsMaterialized(parentID) {
		if shadow.Parent != nil && shadow.Parent.ID == parentID {
			return
		}
		shadow.detach()
		shadow.Provisional = false
		shadow.attach(m.Shadow(parentID))
		return
	}
	if shadow.Parent == m.root {
		return
	}
	shadow.detach()
	shadow.Provisional = true
	shadow.attach(m.root)
}

// adoptOrphans reparents any provisional root children whose Tier-1
// parent is the newly materialized shadow.
func (m *Materializer) adoptOrphans(parent *ShadowNode) {
	var adopted []*ShadowNode
	for _, c := range m.root.Children {
		if !c.Provisional {
			continue
		}
		rec, ok := m.store.Get(c.ID)
		if ok && rec.HasParent && rec.ParentID == parent.ID {
			adopted = append(adopted, c)
		}
	}
	for _, c := range adopted {
		c.detach()
		c.Provisional = false
		c.attach(parent)
	}
}

// evictOldest removes the least recently touched shadow.
func (m *Materializer) evictOldest() {
	back := m.order.Back()
	if back == nil {
		return
	}
	shadow := back.Value.(*lruEntry).shadow
	m.remove(back)
	evictions.Inc()
	m.log.Debug("shadow evicted", slog.String("id", shadow.ID))
}

// remove destroys a shadow: LRU bookkeeping dropped, shadow detached,
// materialized shadow children re-homed at the root as provisional
// orphans so a later re-materialization of the parent can adopt them
// back.
func (m *Materializer) remove(elem *list.Element) {
	shadow := elem.Value.(*lruEntry).shadow
	delete(m.items, shadow.ID)
	m.order.Remove(elem)
	shadow.detach()

	for len(shadow.Children) > 0 {
		c := shadow.Children[0]
		c.detach()
		c.Provisional = true
		c.attach(m.root)
	}

	materialized.Set(float64(len(m.items)))
}
