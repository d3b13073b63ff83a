// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metastore

import (
	"log/slog"
	"slices"

	"github.com/mirrorworks/scenemirror/scene"
)

// Store is the Tier-1 metadata cache.
//
// See the package documentation for the consistency and ownership model.
type Store struct {
	log *slog.Logger

	records map[string]*Record
	nodes   map[string]scene.LiveNode

	byTestID map[string]string
	byName   map[string]map[string]struct{}
	byKind   map[scene.NodeKind]map[string]struct{}

	dirty map[string]struct{}

	flat      []string
	flatStale bool

	subs map[string]Handler
}

// New creates an empty store. A nil logger falls back to slog.Default().
func New(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		log:      log,
		records:  map[string]*Record{},
		nodes:    map[string]scene.LiveNode{},
		byTestID: map[string]string{},
		byName:   map[string]map[string]struct{}{},
		byKind:   map[scene.NodeKind]map[string]struct{}{},
		dirty:    map[string]struct{}{},
		subs:     map[string]Handler{},
	}
}

// Len returns the number of registered nodes.
func (s *Store) Len() int { return len(s.records) }

// Register caches Tier-1 metadata for node and indexes it. Idempotent:
// registering an already-registered id is a silent no-op, which is what
// lets bulk registration and structural interception race benignly.
// Returns true when the node was newly registered.
func (s *Store) Register(node scene.LiveNode) bool {
	if node == nil {
		return false
	}
	id := node.ID()
	if id == "" {
		return false
	}
	if _, ok := s.records[id]; ok {
		return false
	}

	rec := s.extract(node)
	s.records[id] = rec
	s.nodes[id] = node
	s.indexRecord(rec)
	s.flatStale = true

	registrations.Inc()
	registered.Set(float64(len(s.records)))
	s.emit(Event{Kind: EventAdd, ID: id})
	return true
}

// RegisterRoot registers node and marks it a tracked root. Safe to call
// for an already-registered node; the root flag is still applied.
func (s *Store) RegisterRoot(node scene.LiveNode) bool {
	added := s.Register(node)
	if node != nil {
		if rec, ok := s.records[node.ID()]; ok {
			rec.Root = true
		}
	}
	return added
}

// Update recomputes the fields that legitimately drift per tick —
// transform, visibility, secondary key, parent link, child-list identity —
// compares them field by field, and reports whether anything changed.
// Unchanged updates emit no event. A failed transform read is logged and
// treated as "no change" for that field; the previous value stays.
func (s *Store) Update(node scene.LiveNode) bool {
	if node == nil {
		return false
	}
	rec, ok := s.records[node.ID()]
	if !ok {
		return false
	}

	changed := false

	if tr, err := node.Transform(); err != nil {
		extractionFailures.Inc()
		s.log.Debug("transform read failed during update",
			slog.String("id", rec.ID),
			slog.String("error", err.Error()),
		)
	} else if tr != rec.Transform {
		rec.Transform = tr
		changed = true
	}

	if v := node.Visible(); v != rec.Visible {
		rec.Visible = v
		changed = true
	}

	if tid := node.TestID(); tid != rec.TestID {
		s.reindexTestID(rec.ID, rec.TestID, tid)
		rec.TestID = tid
		changed = true
	}

	if pid, has := node.ParentID(); pid != rec.ParentID || has != rec.HasParent {
		rec.ParentID, rec.HasParent = pid, has
		changed = true
	}

	if kids := node.ChildIDs(); !slices.Equal(kids, rec.ChildIDs) {
		rec.ChildIDs = slices.Clone(kids)
		changed = true
	}

	if changed {
		updates.Inc()
		s.emit(Event{Kind: EventUpdate, ID: rec.ID})
	}
	return changed
}

// Refresh is Update by id, using the live handle captured at registration.
func (s *Store) Refresh(id string) bool {
	node, ok := s.nodes[id]
	if !ok {
		return false
	}
	return s.Update(node)
}

// Unregister drops the node from every index and from the dirty queue.
// Returns true when the id was registered.
func (s *Store) Unregister(id string) bool {
	rec, ok := s.records[id]
	if !ok {
		return false
	}

	s.unindexRecord(rec)
	delete(s.records, id)
	delete(s.nodes, id)
	delete(s.dirty, id)
	s.flatStale = true

	unregistrations.Inc()
	registered.Set(float64(len(s.records)))
	s.emit(Event{Kind: EventRemove, ID: id})
	return true
}

// Get returns the Tier-1 record for id.
func (s *Store) Get(id string) (Record, bool) {
	rec, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Node returns the live handle captured at registration. Used by
// collaborators that need Tier-2 reads (spatial rebuilds, inspection).
func (s *Store) Node(id string) (scene.LiveNode, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// GetByTestID returns the record holding the secondary key. Keys are
// unique-ish: on collision the last registered writer owns the key.
func (s *Store) GetByTestID(key string) (Record, bool) {
	if key == "" {
		return Record{}, false
	}
	id, ok := s.byTestID[key]
	if !ok {
		return Record{}, false
	}
	return s.Get(id)
}

// GetByName returns all records sharing a display name. Order is not
// specified.
func (s *Store) GetByName(name string) []Record {
	bucket := s.byName[name]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]Record, 0, len(bucket))
	for id := range bucket {
		if rec, ok := s.Get(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// GetByKind returns all records of the resolved kind. Order is not
// specified.
func (s *Store) GetByKind(kind scene.NodeKind) []Record {
	bucket := s.byKind[kind]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]Record, 0, len(bucket))
	for id := range bucket {
		if rec, ok := s.Get(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Children returns the registered children of id, in the cached child
// order. Ids cached in the child list but no longer registered are
// filtered out, so a same-tick unregister is immediately invisible here.
func (s *Store) Children(id string) []Record {
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(rec.ChildIDs))
	for _, cid := range rec.ChildIDs {
		if child, ok := s.Get(cid); ok {
			out = append(out, child)
		}
	}
	return out
}

// Snapshot builds a recursive Tier-1 snapshot rooted at rootID. The
// arena+id representation cannot cycle, but the visited guard keeps a
// corrupted child list from recursing forever.
func (s *Store) Snapshot(rootID string) (*SnapshotNode, bool) {
	if _, ok := s.records[rootID]; !ok {
		return nil, false
	}
	visited := map[string]struct{}{}
	return s.snapshot(rootID, visited), true
}

func (s *Store) snapshot(id string, visited map[string]struct{}) *SnapshotNode {
	if _, seen := visited[id]; seen {
		return nil
	}
	visited[id] = struct{}{}

	rec := s.records[id]
	node := &SnapshotNode{Record: rec.clone()}
	for _, cid := range rec.ChildIDs {
		if _, ok := s.records[cid]; !ok {
			continue
		}
		if child := s.snapshot(cid, visited); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// FlatLen returns the length of the flat iteration list, regenerating it
// if structural changes have staled it.
func (s *Store) FlatLen() int {
	s.ensureFlat()
	return len(s.flat)
}

// FlatID returns the id at position i of the flat iteration list. The
// list is the scheduler's round-robin sweep surface; positions are only
// stable between structural changes, which is all round-robin fairness
// needs.
func (s *Store) FlatID(i int) (string, bool) {
	s.ensureFlat()
	if i < 0 || i >= len(s.flat) {
		return "", false
	}
	return s.flat[i], true
}

func (s *Store) ensureFlat() {
	if !s.flatStale {
		return
	}
	s.flat = s.flat[:0]
	for id := range s.records {
		s.flat = append(s.flat, id)
	}
	s.flatStale = false
}

// SweepOrphans unregisters every non-root node whose live parent link is
// gone or whose live object is disposed. This is the safety net for
// structural mutations that bypass interception entirely. Returns the
// number of nodes swept.
func (s *Store) SweepOrphans() int {
	var doomed []string
	for id, rec := range s.records {
		if rec.Root {
			continue
		}
		node, ok := s.nodes[id]
		if !ok || node.Disposed() {
			doomed = append(doomed, id)
			continue
		}
		if _, has := node.ParentID(); !has {
			doomed = append(doomed, id)
		}
	}

	for _, id := range doomed {
		s.Unregister(id)
	}
	if len(doomed) > 0 {
		orphansSwept.Add(float64(len(doomed)))
		s.log.Debug("orphan sweep unregistered nodes",
			slog.Int("count", len(doomed)),
		)
	}
	return len(doomed)
}

// --- index maintenance ---

func (s *Store) indexRecord(rec *Record) {
	if rec.TestID != "" {
		s.byTestID[rec.TestID] = rec.ID // last write wins
	}
	s.nameBucket(rec.Name)[rec.ID] = struct{}{}
	s.kindBucket(rec.Kind)[rec.ID] = struct{}{}
}

func (s *Store) unindexRecord(rec *Record) {
	if rec.TestID != "" && s.byTestID[rec.TestID] == rec.ID {
		delete(s.byTestID, rec.TestID)
	}
	if bucket := s.byName[rec.Name]; bucket != nil {
		delete(bucket, rec.ID)
		if len(bucket) == 0 {
			delete(s.byName, rec.Name)
		}
	}
	if bucket := s.byKind[rec.Kind]; bucket != nil {
		delete(bucket, rec.ID)
		if len(bucket) == 0 {
			delete(s.byKind, rec.Kind)
		}
	}
}

func (s *Store) reindexTestID(id, old, next string) {
	if old != "" && s.byTestID[old] == id {
		delete(s.byTestID, old)
	}
	if next != "" {
		s.byTestID[next] = id
	}
}

func (s *Store) nameBucket(name string) map[string]struct{} {
	bucket := s.byName[name]
	if bucket == nil {
		bucket = map[string]struct{}{}
		s.byName[name] = bucket
	}
	return bucket
}

func (s *Store) kindBucket(kind scene.NodeKind) map[string]struct{} {
	bucket := s.byKind[kind]
	if bucket == nil {
		bucket = map[string]struct{}{}
		s.byKind[kind] = bucket
	}
	return bucket
}
