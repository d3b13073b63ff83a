// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metastore

import (
	"log/slog"
	"time"

	"github.com/mirrorworks/scenemirror/scene"
)

// defaultBulkChunk is used when a caller passes a non-positive chunk size.
const defaultBulkChunk = 1000

// BulkRegistration registers a whole subtree in bounded chunks, one chunk
// per cooperative scheduling slice, so a 100k-node scene never stalls the
// host loop it shares a goroutine with.
//
// The traversal happens once, up front, and is cheap: it only collects
// live handles. Registration, the expensive part, is spread across
// RunChunk calls. Structural events may register nodes between chunks;
// when the walk later reaches such a node, Register's idempotence makes it
// a silent skip.
//
// Suspension points exist only at chunk boundaries, so every node is
// always either fully registered or not registered at all. Cancel at a
// boundary is synchronous and idempotent.
type BulkRegistration struct {
	store *Store
	queue []scene.LiveNode
	pos   int
	chunk int

	cancelled bool
}

// BeginBulkRegister walks the subtree under root, enqueues every reachable
// node, and returns the paused registration. lookup resolves child ids to
// live handles (the host graph's lookup function); unresolvable ids are
// skipped.
func (s *Store) BeginBulkRegister(root scene.LiveNode, lookup func(string) scene.LiveNode, chunkSize int) *BulkRegistration {
	if chunkSize <= 0 {
		chunkSize = defaultBulkChunk
	}
	b := &BulkRegistration{store: s, chunk: chunkSize}
	if root == nil {
		return b
	}

	stack := []scene.LiveNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b.queue = append(b.queue, n)
		if lookup == nil {
			continue
		}
		for _, cid := range n.ChildIDs() {
			if child := lookup(cid); child != nil {
				stack = append(stack, child)
			}
		}
	}

	s.log.Debug("bulk registration enqueued",
		slog.Int("nodes", len(b.queue)),
		slog.Int("chunk_size", chunkSize),
	)
	return b
}

// RunChunk registers up to one chunk of queued nodes and reports whether
// the registration is finished. remaining, when non-nil, is the host's
// time-remaining predicate for the current slice; the chunk stops early
// when it runs out, but always makes progress on at least one node so a
// permanently exhausted budget cannot stall the walk forever.
func (b *BulkRegistration) RunChunk(remaining func() time.Duration) bool {
	if b.cancelled || b.pos >= len(b.queue) {
		return true
	}

	count := 0
	for b.pos < len(b.queue) && count < b.chunk {
		if count > 0 && remaining != nil && remaining() <= 0 {
			break
		}
		n := b.queue[b.pos]
		b.pos++
		count++
		b.store.Register(n) // already-registered ids skip silently
	}

	bulkChunks.Inc()
	return b.pos >= len(b.queue)
}

// Cancel synchronously abandons the remaining queue. Idempotent; nodes
// registered by earlier chunks stay registered.
func (b *BulkRegistration) Cancel() {
	if b.cancelled {
		return
	}
	b.cancelled = true
	b.queue = nil
	b.pos = 0
}

// Done reports whether the registration has finished or been cancelled.
func (b *BulkRegistration) Done() bool {
	return b.cancelled || b.pos >= len(b.queue)
}

// Remaining returns the number of queued nodes not yet visited.
func (b *BulkRegistration) Remaining() int {
	if b.cancelled {
		return 0
	}
	return len(b.queue) - b.pos
}
