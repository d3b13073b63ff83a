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

// Record is the Tier-1 cached view of one live node.
//
// A Record exists iff the node is registered. Links are id references into
// the same store; ChildIDs may briefly name ids that are no longer
// registered (the cache is eventually consistent), which is why Children
// filters against the id index.
type Record struct {
	ID      string
	RawKind string
	Kind    scene.NodeKind
	Name    string
	TestID  string
	Visible bool

	Transform scene.Transform

	ParentID  string
	HasParent bool
	ChildIDs  []string

	Summary scene.Summary

	// Root marks a tracked root. Cached here so structural interception
	// can answer "does this subtree belong to a tracked root?" with a
	// map lookup instead of an ancestor walk.
	Root bool
}

// SnapshotNode is one node of a recursive Tier-1 snapshot.
type SnapshotNode struct {
	Record   Record
	Children []*SnapshotNode
}

// extract builds a fresh Record from a live node. Field reads that can
// fail degrade to zero values; extraction itself never fails, because a
// half-readable node is still worth caching.
func (s *Store) extract(node scene.LiveNode) *Record {
	rec := &Record{
		ID:      node.ID(),
		RawKind: node.Kind(),
		Kind:    scene.ParseKind(node.Kind()),
		Name:    node.Name(),
		TestID:  node.TestID(),
		Visible: node.Visible(),
	}
	rec.ParentID, rec.HasParent = node.ParentID()
	rec.ChildIDs = slices.Clone(node.ChildIDs())

	if tr, err := node.Transform(); err != nil {
		extractionFailures.Inc()
		s.log.Warn("transform read failed during registration",
			slog.String("id", rec.ID),
			slog.String("error", err.Error()),
		)
	} else {
		rec.Transform = tr
	}

	if sum, err := node.Summary(); err != nil {
		extractionFailures.Inc()
		s.log.Warn("summary read failed during registration",
			slog.String("id", rec.ID),
			slog.String("error", err.Error()),
		)
	} else {
		rec.Summary = sum
	}

	return rec
}

// clone returns a defensive copy safe to hand to callers.
func (r *Record) clone() Record {
	out := *r
	out.ChildIDs = slices.Clone(r.ChildIDs)
	return out
}
