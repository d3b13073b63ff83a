// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package spatial maintains a hit-test index over the tracked scene's
// mesh nodes.
//
// The index is derived and rebuildable: it subscribes to store change
// events and only flags itself dirty, deferring the O(n) filter pass and
// the per-node BVH builds to the next Rebuild (or lazily to the next
// query). BVH construction is capped per pass so one rebuild never owns
// the frame; the index stays dirty until every target has a structure.
package spatial

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/mirrorworks/scenemirror/metastore"
	"github.com/mirrorworks/scenemirror/scene"
)

// defaultBuildCap bounds BVH builds per rebuild pass.
const defaultBuildCap = 16

var tracer = otel.Tracer("scenemirror.spatial")

// Hit is one spatial query result.
type Hit struct {
	ID       string
	Distance float32
	Point    scene.Vec3
}

// target is one hit-testable node: cached world bounds for the broad
// phase, cached matrices for ray transformation, and the object-space
// hierarchy once built.
type target struct {
	id        string
	bounds    scene.Box3
	world     scene.Matrix4
	invWorld  scene.Matrix4
	structure *bvh
}

// Accelerator is the spatial hit-test index.
//
// Not safe for concurrent use; it shares the mirror goroutine.
type Accelerator struct {
	store *metastore.Store
	log   *slog.Logger

	buildCap int
	dirty    bool

	targets []*target
	built   map[string]*bvh

	sub metastore.Subscription
}

// NewAccelerator creates the index over store and subscribes to its
// change events. buildCap <= 0 picks the default; a nil logger falls back
// to slog.Default().
func NewAccelerator(store *metastore.Store, buildCap int, log *slog.Logger) *Accelerator {
	if buildCap <= 0 {
		buildCap = defaultBuildCap
	}
	if log == nil {
		log = slog.Default()
	}
	a := &Accelerator{
		store:    store,
		log:      log,
		buildCap: buildCap,
		dirty:    true,
		built:    map[string]*bvh{},
	}
	a.sub = store.Subscribe(func(metastore.Event) { a.dirty = true })
	return a
}

// Close unsubscribes from the store.
func (a *Accelerator) Close() {
	a.store.Unsubscribe(a.sub)
}

// Dirty reports whether the index needs a rebuild before it reflects the
// current store state.
func (a *Accelerator) Dirty() bool { return a.dirty }

// Targets returns the current hit-testable target count.
func (a *Accelerator) Targets() int { return len(a.targets) }

// Rebuild refreshes the target list with one O(n) filter pass and builds
// missing per-node structures up to the build cap. If the cap is hit the
// index stays dirty and a later rebuild continues the work; per-node
// build failures are logged and retried next rebuild.
func (a *Accelerator) Rebuild(ctx context.Context) {
	_, span := tracer.Start(ctx, "spatial.rebuild")
	defer span.End()

	a.targets = a.targets[:0]
	live := map[string]struct{}{}
	for _, rec := range a.store.GetByKind(scene.KindMesh) {
		t, ok := a.filter(rec)
		if !ok {
			continue
		}
		live[rec.ID] = struct{}{}
		a.targets = append(a.targets, t)
	}

	// Drop cached structures for nodes that left the target list.
	for id := range a.built {
		if _, ok := live[id]; !ok {
			delete(a.built, id)
		}
	}

	builds := 0
	incomplete := false
	for _, t := range a.targets {
		if t.structure != nil {
			continue
		}
		if builds >= a.buildCap {
			incomplete = true
			break
		}
		builds++
		if !a.build(t) {
			incomplete = true
		}
	}

	a.dirty = incomplete
	rebuilds.Inc()
	structureBuilds.Add(float64(builds))
	targetCount.Set(float64(len(a.targets)))
}

// filter decides whether rec is hit-testable and caches its per-query
// state. Internal nodes (double-underscore name prefix), invisible nodes,
// disposed nodes, and nodes with degenerate world bounds are excluded.
func (a *Accelerator) filter(rec metastore.Record) (*target, bool) {
	if !rec.Visible || strings.HasPrefix(rec.Name, "__") || strings.HasPrefix(rec.ID, "__") {
		return nil, false
	}
	node, ok := a.store.Node(rec.ID)
	if !ok || node.Disposed() {
		return nil, false
	}

	bounds, err := node.WorldBounds()
	if err != nil || bounds.IsDegenerate() {
		return nil, false
	}
	world, err := node.WorldMatrix()
	if err != nil {
		return nil, false
	}
	inv, ok := world.Inverse()
	if !ok {
		return nil, false
	}

	return &target{
		id:        rec.ID,
		bounds:    bounds,
		world:     world,
		invWorld:  inv,
		structure: a.built[rec.ID],
	}, true
}

// build constructs the object-space hierarchy for t. Failures leave the
// structure nil so the next rebuild retries.
func (a *Accelerator) build(t *target) bool {
	node, ok := a.store.Node(t.id)
	if !ok {
		return false
	}
	tris, err := node.Triangles()
	if err != nil {
		buildFailures.Inc()
		a.log.Debug("structure build failed",
			slog.String("id", t.id),
			slog.String("error", err.Error()),
		)
		return false
	}
	structure, err := buildBVH(tris)
	if err != nil {
		buildFailures.Inc()
		a.log.Debug("structure build failed",
			slog.String("id", t.id),
			slog.String("error", err.Error()),
		)
		return false
	}
	t.structure = structure
	a.built[t.id] = structure
	return true
}

// QueryAtPoint projects a screen-space point through the camera and
// returns the nearest hit, or ok=false over empty space.
func (a *Accelerator) QueryAtPoint(ctx context.Context, x, y float32, cam scene.Camera) (Hit, bool) {
	return a.FirstAlongRay(ctx, cam.ScreenRay(x, y))
}

// QueryAlongRay returns every target the ray hits, nearest first.
func (a *Accelerator) QueryAlongRay(ctx context.Context, ray scene.Ray) []Hit {
	a.ensureFresh(ctx)

	var hits []Hit
	for _, t := range a.targets {
		if hit, ok := a.intersectTarget(t, ray); ok {
			hits = append(hits, hit)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	queries.Inc()
	return hits
}

// FirstAlongRay returns only the nearest hit, short-circuiting the broad
// phase against the best distance found so far.
func (a *Accelerator) FirstAlongRay(ctx context.Context, ray scene.Ray) (Hit, bool) {
	a.ensureFresh(ctx)

	var (
		best  Hit
		found bool
	)
	for _, t := range a.targets {
		entry, ok := ray.IntersectBox(t.bounds)
		if !ok || (found && entry > best.Distance) {
			continue
		}
		if hit, ok := a.intersectTarget(t, ray); ok && (!found || hit.Distance < best.Distance) {
			best = hit
			found = true
		}
	}
	queries.Inc()
	return best, found
}

// ensureFresh lazily rebuilds a dirty index before serving a query.
func (a *Accelerator) ensureFresh(ctx context.Context) {
	if a.dirty {
		a.Rebuild(ctx)
	}
}

// intersectTarget runs the narrow phase: broad-phase box test in world
// space, then the object-space hierarchy with the ray transformed into
// the node's local frame. The hit distance is computed in world space so
// non-uniform scale cannot skew nearest-hit ordering.
func (a *Accelerator) intersectTarget(t *target, ray scene.Ray) (Hit, bool) {
	if t.structure == nil {
		return Hit{}, false // structure still pending a capped rebuild
	}
	if _, ok := ray.IntersectBox(t.bounds); !ok {
		return Hit{}, false
	}

	local := scene.Ray{
		Origin: t.invWorld.TransformPoint(ray.Origin),
		Dir:    t.invWorld.TransformDir(ray.Dir),
	}
	tLocal, ok := t.structure.intersect(local)
	if !ok {
		return Hit{}, false
	}

	worldPoint := t.world.TransformPoint(local.At(tLocal))
	return Hit{
		ID:       t.id,
		Distance: worldPoint.Sub(ray.Origin).Length(),
		Point:    worldPoint,
	}, true
}
