// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scenemirror mirrors a live host scene graph into queryable,
// bounded caches.
//
// A Mirror wires together the tiered metadata store, the LRU-bounded
// shadow tree, the structural interception adapter, the per-frame
// scheduler, and the spatial hit-test index. Hosts call TrackRoot once
// per scene root and Tick once per frame; everything else is queries.
//
// The whole core is single-goroutine cooperative: it interleaves with
// the host's render loop and is not safe for concurrent use.
package scenemirror

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mirrorworks/scenemirror/intercept"
	"github.com/mirrorworks/scenemirror/metastore"
	"github.com/mirrorworks/scenemirror/mirror"
	"github.com/mirrorworks/scenemirror/scene"
	"github.com/mirrorworks/scenemirror/scheduler"
	"github.com/mirrorworks/scenemirror/spatial"
)

var tracer = otel.Tracer("scenemirror")

// Mirror is the top-level facade over one tracked scene.
type Mirror struct {
	graph intercept.Graph
	log   *slog.Logger
	opts  Options

	store   *metastore.Store
	mat     *mirror.Materializer
	sched   *scheduler.Scheduler
	adapter *intercept.Adapter
	accel   *spatial.Accelerator

	uninstall func()
	closed    bool
}

// New builds a Mirror over graph. Structural interception is installed
// immediately; nothing is tracked until TrackRoot.
func New(graph intercept.Graph, opts Options) (*Mirror, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	log := opts.Logger

	store := metastore.New(log)
	mat := mirror.NewMaterializer(store, opts.MaxMaterialized, log)
	sched := scheduler.New(store, mat, scheduler.Config{
		BatchSize:           opts.TickBatchSize,
		TimeBudget:          opts.TickTimeBudget,
		MaintenanceInterval: opts.MaintenanceInterval,
		Logger:              log,
	})
	accel := spatial.NewAccelerator(store, opts.SpatialBuildCap, log)
	adapter := intercept.NewAdapter(graph, log)

	m := &Mirror{
		graph:   graph,
		log:     log,
		opts:    opts,
		store:   store,
		mat:     mat,
		sched:   sched,
		adapter: adapter,
		accel:   accel,
	}
	m.uninstall = adapter.Install(&intercept.Target{
		Store:        store,
		Materializer: mat,
		Mode:         opts.InclusionMode,
		Include:      opts.Include,
	})

	sched.AddMaintenance(func() { store.SweepOrphans() })
	sched.AddMaintenance(func() {
		if accel.Dirty() {
			accel.Rebuild(context.Background())
		}
	})
	return m, nil
}

// TrackRoot starts mirroring the subtree under root. The root itself is
// registered synchronously and its first bulk chunk runs immediately, so
// same-turn queries already see the top of the tree; the rest of the
// subtree registers across subsequent ticks. The first levels are
// pre-materialized per InitialMaterializeDepth.
func (m *Mirror) TrackRoot(root scene.LiveNode) {
	if root == nil {
		return
	}
	_, span := tracer.Start(context.Background(), "scenemirror.track_root")
	defer span.End()
	span.SetAttributes(attribute.String("root.id", root.ID()))

	m.store.RegisterRoot(root)

	bulk := m.store.BeginBulkRegister(root, m.graph.Lookup, m.opts.BulkChunkSize)
	bulk.RunChunk(nil)
	if !bulk.Done() {
		m.sched.EnqueueBulk(bulk)
	}

	m.mat.MaterializeSubtree(root.ID(), m.opts.InitialMaterializeDepth)
}

// Tick runs one cooperative sync pass; call once per frame.
func (m *Mirror) Tick() scheduler.TickReport {
	return m.sched.Tick()
}

// Close uninstalls structural interception and detaches the spatial
// index. Idempotent. Cached records survive Close; they just stop
// updating.
func (m *Mirror) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.uninstall()
	m.accel.Close()
}

// --- store queries ---

// Len returns the number of registered nodes.
func (m *Mirror) Len() int { return m.store.Len() }

// Get returns the Tier-1 record for id.
func (m *Mirror) Get(id string) (metastore.Record, bool) { return m.store.Get(id) }

// GetByTestID returns the record holding the secondary key.
func (m *Mirror) GetByTestID(key string) (metastore.Record, bool) {
	return m.store.GetByTestID(key)
}

// GetByName returns all records sharing a display name.
func (m *Mirror) GetByName(name string) []metastore.Record { return m.store.GetByName(name) }

// GetByKind returns all records of the kind.
func (m *Mirror) GetByKind(kind scene.NodeKind) []metastore.Record {
	return m.store.GetByKind(kind)
}

// Children returns the registered children of id.
func (m *Mirror) Children(id string) []metastore.Record { return m.store.Children(id) }

// Snapshot builds a recursive Tier-1 snapshot rooted at id.
func (m *Mirror) Snapshot(id string) (*metastore.SnapshotNode, bool) {
	return m.store.Snapshot(id)
}

// Inspect performs a Tier-2 deep read of id.
func (m *Mirror) Inspect(id string) (*metastore.Inspection, error) { return m.store.Inspect(id) }

// Subscribe registers a store change handler.
func (m *Mirror) Subscribe(h metastore.Handler) metastore.Subscription {
	return m.store.Subscribe(h)
}

// Unsubscribe removes a store change handler.
func (m *Mirror) Unsubscribe(sub metastore.Subscription) { m.store.Unsubscribe(sub) }

// MarkDirty queues id for priority sync on the next tick.
func (m *Mirror) MarkDirty(id string) { m.store.MarkDirty(id) }

// --- shadow queries ---

// Materialize ensures id has a shadow and returns it.
func (m *Mirror) Materialize(id string) *mirror.ShadowNode { return m.mat.Materialize(id) }

// IsMaterialized reports whether id currently has a shadow.
func (m *Mirror) IsMaterialized(id string) bool { return m.mat.IsMaterialized(id) }

// Shadow returns id's shadow without touching the LRU, or nil.
func (m *Mirror) Shadow(id string) *mirror.ShadowNode { return m.mat.Shadow(id) }

// ResolveByTestID resolves the secondary key to a shadow, materializing
// on demand.
func (m *Mirror) ResolveByTestID(key string) *mirror.ShadowNode {
	return m.mat.ResolveByTestID(key)
}

// ResolveByName resolves a display name to shadows, materializing on
// demand.
func (m *Mirror) ResolveByName(name string) []*mirror.ShadowNode {
	return m.mat.ResolveByName(name)
}

// --- spatial queries ---

// QueryAtPoint hit-tests a screen-space point through cam.
func (m *Mirror) QueryAtPoint(x, y float32, cam scene.Camera) (spatial.Hit, bool) {
	return m.accel.QueryAtPoint(context.Background(), x, y, cam)
}

// QueryAlongRay returns every hit along ray, nearest first.
func (m *Mirror) QueryAlongRay(ray scene.Ray) []spatial.Hit {
	return m.accel.QueryAlongRay(context.Background(), ray)
}

// FirstAlongRay returns the nearest hit along ray.
func (m *Mirror) FirstAlongRay(ray scene.Ray) (spatial.Hit, bool) {
	return m.accel.FirstAlongRay(context.Background(), ray)
}
