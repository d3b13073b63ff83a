// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorworks/scenemirror/metastore"
	"github.com/mirrorworks/scenemirror/mirror"
	"github.com/mirrorworks/scenemirror/scene"
	"github.com/mirrorworks/scenemirror/scene/scenetest"
)

func TestTick_DirtyQueueHasPriorityAndDrainsFully(t *testing.T) {
	g := scenetest.NewGraph()
	s := metastore.New(nil)
	m := mirror.NewMaterializer(s, 100, nil)
	sched := New(s, m, Config{BatchSize: 1})

	a := g.NewMesh("a")
	s.Register(a)
	m.Materialize("a")
	for i := 0; i < 10; i++ {
		s.Register(g.NewMesh(fmt.Sprintf("filler%d", i)))
	}

	// Scenario: mark dirty, mutate externally, tick. The priority pass
	// must sync the new position in this tick even with BatchSize 1.
	s.MarkDirty("a")
	a.SetPosition(scene.Vec3{X: 42})

	report := sched.Tick()
	assert.Equal(t, 1, report.DirtySynced)

	rec, _ := s.Get("a")
	assert.Equal(t, float32(42), rec.Transform.Position.X)
	assert.Equal(t, scene.Vec3{X: 42}, m.Shadow("a").Attrs["position"])
	assert.Zero(t, s.DirtyCount())
}

func TestTick_SweepFairness(t *testing.T) {
	g := scenetest.NewGraph()
	s := metastore.New(nil)
	sched := New(s, nil, Config{BatchSize: 10, TimeBudget: time.Hour})

	nodes := make([]*scenetest.Node, 25)
	for i := range nodes {
		nodes[i] = g.NewMesh(fmt.Sprintf("n%d", i))
		s.Register(nodes[i])
	}
	// Move every node so a sweep visit is observable as a record change.
	for _, n := range nodes {
		n.SetPosition(scene.Vec3{X: 1})
	}

	// 3 ticks x batch 10 >= 25 nodes: every node must be visited at
	// least once with no structural changes in between.
	changed := 0
	for i := 0; i < 3; i++ {
		changed += sched.Tick().SweptChanged
	}
	assert.Equal(t, 25, changed)

	for _, n := range nodes {
		rec, _ := s.Get(n.ID())
		assert.Equal(t, float32(1), rec.Transform.Position.X, n.ID())
	}
}

func TestTick_SweepRespectsTimeBudget(t *testing.T) {
	g := scenetest.NewGraph()
	s := metastore.New(nil)
	sched := New(s, nil, Config{BatchSize: 1000, TimeBudget: time.Millisecond})

	for i := 0; i < 100; i++ {
		s.Register(g.NewMesh(fmt.Sprintf("n%d", i)))
	}

	// Script the clock: every now() call advances 1ms, so the deadline
	// has passed by the first in-sweep check.
	fake := time.Unix(0, 0)
	sched.now = func() time.Time {
		fake = fake.Add(time.Millisecond)
		return fake
	}

	report := sched.Tick()
	assert.Less(t, report.Swept, 100)
	assert.GreaterOrEqual(t, report.Swept, 1, "budget is advisory, progress is mandatory")
	assert.True(t, report.BudgetExceeded)
}

func TestTick_MaintenanceIsWallClockGated(t *testing.T) {
	s := metastore.New(nil)
	sched := New(s, nil, Config{MaintenanceInterval: 10 * time.Second})

	runs := 0
	sched.AddMaintenance(func() { runs++ })

	fake := time.Unix(1000, 0)
	sched.now = func() time.Time { return fake }

	// First tick: lastMaint is zero, interval long elapsed.
	assert.True(t, sched.Tick().MaintenanceRan)
	require.Equal(t, 1, runs)

	fake = fake.Add(3 * time.Second)
	assert.False(t, sched.Tick().MaintenanceRan)
	assert.Equal(t, 1, runs)

	fake = fake.Add(8 * time.Second)
	assert.True(t, sched.Tick().MaintenanceRan)
	assert.Equal(t, 2, runs)
}

func TestTick_BulkRegistrationRidesTicks(t *testing.T) {
	g := scenetest.NewGraph()
	s := metastore.New(nil)
	sched := New(s, nil, Config{TimeBudget: time.Hour})

	root := g.BuildTree("world", 3, 3) // 40 nodes
	sched.EnqueueBulk(s.BeginBulkRegister(root, g.Lookup, 10))
	require.True(t, sched.BulkPending())

	ticksRun := 0
	for sched.BulkPending() {
		sched.Tick()
		ticksRun++
		require.Less(t, ticksRun, 20, "bulk failed to converge")
	}
	assert.Equal(t, 40, s.Len())
	assert.Equal(t, 4, ticksRun)
}

func TestEnqueueBulk_CancelsPreviousPending(t *testing.T) {
	g := scenetest.NewGraph()
	s := metastore.New(nil)
	sched := New(s, nil, Config{})

	first := s.BeginBulkRegister(g.BuildTree("one", 1, 3), g.Lookup, 1)
	second := s.BeginBulkRegister(g.BuildTree("two", 1, 3), g.Lookup, 1)

	sched.EnqueueBulk(first)
	sched.EnqueueBulk(second)
	assert.True(t, first.Done())
	assert.False(t, second.Done())
}

func TestTick_EmptyStoreIsCheap(t *testing.T) {
	s := metastore.New(nil)
	sched := New(s, nil, Config{})
	report := sched.Tick()
	assert.Zero(t, report.DirtySynced)
	assert.Zero(t, report.Swept)
}
