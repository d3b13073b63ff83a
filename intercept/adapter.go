// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package intercept patches the host graph's structural mutation
// primitives so attach and detach flow into the mirror synchronously.
//
// The host's attach/detach API is shared process-wide, so one adapter
// serves every tracked root: installs are reference-counted, the graph is
// patched on the first install and unpatched on the last uninstall, and
// both edges are idempotent.
package intercept

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mirrorworks/scenemirror/metastore"
	"github.com/mirrorworks/scenemirror/mirror"
	"github.com/mirrorworks/scenemirror/scene"
)

// Graph is the hookable mutation surface the host engine exposes.
// Attach hooks must fire after the new link is walkable; detach hooks
// must fire while the removed subtree's links are still valid.
type Graph interface {
	HookAttach(func(parent, child scene.LiveNode)) func()
	HookDetach(func(parent, child scene.LiveNode)) func()
	Lookup(id string) scene.LiveNode
}

// InclusionMode selects how newly attached nodes are filtered.
type InclusionMode int

const (
	// OptOut registers every attached node unless the predicate rejects
	// it. A rejection prunes the whole subtree below it.
	OptOut InclusionMode = iota

	// OptIn registers only nodes the predicate accepts; with a nil
	// predicate nothing new is registered. A rejection prunes the whole
	// subtree below it.
	OptIn
)

// Target pairs one tracked root's store and materializer with its
// inclusion policy.
type Target struct {
	Store        *metastore.Store
	Materializer *mirror.Materializer

	Mode    InclusionMode
	Include func(scene.LiveNode) bool
}

// Adapter multiplexes intercepted structural events to every installed
// target.
//
// Not safe for concurrent use; it rides the same goroutine as the host's
// structural mutations.
type Adapter struct {
	graph Graph
	log   *slog.Logger

	targets map[string]*Target

	removeAttach func()
	removeDetach func()
}

// NewAdapter creates an unpatched adapter over graph. A nil logger falls
// back to slog.Default().
func NewAdapter(graph Graph, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		graph:   graph,
		log:     log,
		targets: map[string]*Target{},
	}
}

// Installed reports the number of live targets.
func (a *Adapter) Installed() int { return len(a.targets) }

// Patched reports whether the graph hooks are currently in place.
func (a *Adapter) Patched() bool { return a.removeAttach != nil }

// Install registers target and returns its disposer. The first install
// patches the graph; the disposer is idempotent and unpatches the graph
// when it removes the last target.
func (a *Adapter) Install(target *Target) func() {
	token := uuid.NewString()
	a.targets[token] = target
	if len(a.targets) == 1 {
		a.patch()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			delete(a.targets, token)
			if len(a.targets) == 0 {
				a.unpatch()
			}
		})
	}
}

func (a *Adapter) patch() {
	if a.removeAttach != nil {
		return
	}
	a.removeAttach = a.graph.HookAttach(a.onAttach)
	a.removeDetach = a.graph.HookDetach(a.onDetach)
	a.log.Debug("structural interception patched")
}

func (a *Adapter) unpatch() {
	if a.removeAttach == nil {
		return
	}
	a.removeAttach()
	a.removeDetach()
	a.removeAttach = nil
	a.removeDetach = nil
	a.log.Debug("structural interception unpatched")
}

// onAttach runs synchronously inside the host's attach call, after the
// link is in place.
func (a *Adapter) onAttach(parent, child scene.LiveNode) {
	attachEvents.Inc()
	for _, t := range a.targets {
		a.attachInto(t, parent, child)
	}
}

func (a *Adapter) attachInto(t *Target, parent, child scene.LiveNode) {
	// Does this mutation land inside a tracked subtree? The common case
	// is one map lookup: the parent is already registered.
	chain, tracked := a.chainToTracked(t.Store, parent)
	if !tracked {
		return
	}

	// Parent links must be valid before children are indexed: register
	// the unregistered ancestor chain top-down first.
	for i := len(chain) - 1; i >= 0; i-- {
		t.Store.Register(chain[i])
	}

	a.registerSubtree(t, child)

	// Same-turn queries must already see the new child.
	t.Store.Refresh(parent.ID())
	t.Store.MarkDirty(parent.ID())

	if t.Materializer != nil {
		t.Materializer.OnStructuralAdd(parent.ID(), child.ID())
	}
}

// chainToTracked walks from node up to the nearest registered ancestor.
// It returns the unregistered chain (node first, nearest-tracked-side
// last) and whether a registered ancestor exists at all.
func (a *Adapter) chainToTracked(store *metastore.Store, node scene.LiveNode) ([]scene.LiveNode, bool) {
	var chain []scene.LiveNode
	for cur := node; cur != nil; {
		if _, ok := store.Get(cur.ID()); ok {
			return chain, true
		}
		chain = append(chain, cur)
		pid, ok := cur.ParentID()
		if !ok {
			return nil, false
		}
		cur = a.graph.Lookup(pid)
	}
	return nil, false
}

// registerSubtree applies the inclusion policy while walking the newly
// attached subtree. A rejected node prunes everything below it.
func (a *Adapter) registerSubtree(t *Target, node scene.LiveNode) {
	if node == nil {
		return
	}
	switch t.Mode {
	case OptIn:
		if t.Include == nil || !t.Include(node) {
			return
		}
	default: // OptOut
		if t.Include != nil && !t.Include(node) {
			return
		}
	}

	t.Store.Register(node)
	for _, cid := range node.ChildIDs() {
		a.registerSubtree(t, a.graph.Lookup(cid))
	}
}

// onDetach runs synchronously inside the host's detach call, before the
// link is severed, so the removed subtree is still walkable.
func (a *Adapter) onDetach(parent, child scene.LiveNode) {
	detachEvents.Inc()
	for _, t := range a.targets {
		a.detachFrom(t, parent, child)
	}
}

func (a *Adapter) detachFrom(t *Target, parent, child scene.LiveNode) {
	ids := a.collectRegistered(t.Store, child)
	if len(ids) == 0 {
		return
	}

	// Shadow teardown first: it may need the still-valid link chain.
	if t.Materializer != nil {
		t.Materializer.OnStructuralRemove(ids)
	}
	for _, id := range ids {
		t.Store.Unregister(id)
	}

	t.Store.Refresh(parent.ID())
	t.Store.MarkDirty(parent.ID())
}

// collectRegistered gathers the registered ids of node's live subtree,
// node first.
func (a *Adapter) collectRegistered(store *metastore.Store, node scene.LiveNode) []string {
	if node == nil {
		return nil
	}
	var ids []string
	stack := []scene.LiveNode{node}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := store.Get(cur.ID()); ok {
			ids = append(ids, cur.ID())
		}
		for _, cid := range cur.ChildIDs() {
			if c := a.graph.Lookup(cid); c != nil {
				stack = append(stack, c)
			}
		}
	}
	return ids
}
