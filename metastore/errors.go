// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package metastore implements the always-on Tier-1 metadata cache over a
// live scene graph, plus on-demand Tier-2 deep inspection.
//
// The store keeps one Record per registered node in a flat table keyed by
// id; parent and child links are stored as id references, never pointers,
// so the cached graph cannot form retain cycles and snapshots serialize
// trivially. Secondary indexes (testID, name, kind) give O(1) point
// lookups. A dirty queue carries explicit "sync now" ids from structural
// events to the next tick, separate from the round-robin sweep that ages
// the rest of the cache.
//
// # Consistency Model
//
// Records are eventually consistent with the live graph: correct as of the
// last processed tick or structural event. Point lookups never fail — a
// missing id yields a zero Record and ok=false, and any read error on the
// live node degrades to the previous cached value rather than an error.
//
// # Thread Safety
//
// Store is NOT safe for concurrent use. It is owned by the single
// goroutine that drives the host render loop; structural event handlers
// and the tick scheduler interleave on that goroutine, never preempt each
// other, and leave all invariants intact before returning.
package metastore

import "errors"

// Sentinel errors for store operations.
var (
	// ErrUnknownNode is returned by Inspect for an id that is not
	// registered. Point lookups return ok=false instead; inspection
	// returns an error because callers asked for an expensive read that
	// cannot even start.
	ErrUnknownNode = errors.New("node not registered")

	// ErrNoLiveHandle is returned by Inspect when the registered node's
	// live handle has been lost, which should not happen outside of
	// teardown races in the host.
	ErrNoLiveHandle = errors.New("no live handle for node")
)
