// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scheduler drives the per-frame sync pass.
//
// One Tick per frame, three strictly ordered steps: drain the dirty queue
// fully, run the amortized round-robin sweep until a batch or time budget
// is hit, then any wall-clock-gated maintenance. Budgets are advisory —
// an expensive extraction can overrun them — and priority work always
// completes in the tick that requested it, even over budget.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/mirrorworks/scenemirror/metastore"
	"github.com/mirrorworks/scenemirror/mirror"
)

// Defaults for zero-valued Config fields.
const (
	defaultBatchSize           = 500
	defaultTimeBudget          = 5 * time.Millisecond
	defaultMaintenanceInterval = 5 * time.Second
)

// Config tunes the tick loop. Zero values pick the defaults above.
type Config struct {
	// BatchSize caps how many nodes one amortized sweep visits.
	BatchSize int

	// TimeBudget is the soft per-tick ceiling for the sweep.
	TimeBudget time.Duration

	// MaintenanceInterval gates the periodic maintenance step.
	MaintenanceInterval time.Duration

	Logger *slog.Logger
}

// TickReport summarizes one tick for callers and tests.
type TickReport struct {
	DirtySynced    int
	Swept          int
	SweptChanged   int
	MaintenanceRan bool
	Duration       time.Duration
	BudgetExceeded bool
}

// Scheduler sequences priority sync, amortized sweep, bulk registration
// slices, and periodic maintenance over one store/materializer pair.
//
// Not safe for concurrent use; Tick is called from the host's render
// loop.
type Scheduler struct {
	store *metastore.Store
	mat   *mirror.Materializer
	log   *slog.Logger

	cfg Config

	cursor      int
	lastMaint   time.Time
	bulk        *metastore.BulkRegistration
	maintenance []func()

	// now is swapped out by tests to script the clock.
	now func() time.Time
}

// New creates a scheduler over store and mat. mat may be nil when no
// shadow tree is wanted.
func New(store *metastore.Store, mat *mirror.Materializer, cfg Config) *Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = defaultTimeBudget
	}
	if cfg.MaintenanceInterval <= 0 {
		cfg.MaintenanceInterval = defaultMaintenanceInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{
		store: store,
		mat:   mat,
		log:   cfg.Logger,
		cfg:   cfg,
		now:   time.Now,
	}
}

// AddMaintenance appends a periodic maintenance function, run at most
// once per MaintenanceInterval at the end of a tick.
func (s *Scheduler) AddMaintenance(fn func()) {
	if fn != nil {
		s.maintenance = append(s.maintenance, fn)
	}
}

// EnqueueBulk hands a paused bulk registration to the tick loop, which
// runs one chunk per tick inside the leftover budget. A previous pending
// registration is cancelled first.
func (s *Scheduler) EnqueueBulk(b *metastore.BulkRegistration) {
	if s.bulk != nil && !s.bulk.Done() {
		s.bulk.Cancel()
	}
	s.bulk = b
}

// BulkPending reports whether a bulk registration is still in flight.
func (s *Scheduler) BulkPending() bool {
	return s.bulk != nil && !s.bulk.Done()
}

// Tick runs one cooperative sync pass.
func (s *Scheduler) Tick() TickReport {
	start := s.now()
	deadline := start.Add(s.cfg.TimeBudget)
	var report TickReport

	// Step 1: priority work, unbounded by design. Dirty marks are rare,
	// discrete structural signals, not continuous animation.
	for _, id := range s.store.DrainDirty() {
		s.store.Refresh(id)
		if s.mat != nil {
			s.mat.SyncAttributes(id)
		}
		report.DirtySynced++
	}

	// Step 2: amortized round-robin sweep over the flat list.
	s.sweep(&report, deadline)

	// Bulk registration rides the leftover slice.
	if s.bulk != nil && !s.bulk.Done() {
		s.bulk.RunChunk(func() time.Duration {
			return deadline.Sub(s.now())
		})
	}

	// Step 3: wall-clock-gated maintenance.
	if s.now().Sub(s.lastMaint) >= s.cfg.MaintenanceInterval {
		s.lastMaint = s.now()
		for _, fn := range s.maintenance {
			fn()
		}
		report.MaintenanceRan = true
	}

	report.Duration = s.now().Sub(start)
	report.BudgetExceeded = report.Duration > s.cfg.TimeBudget

	ticks.Inc()
	tickDuration.Observe(report.Duration.Seconds())
	if report.BudgetExceeded {
		budgetOverruns.Inc()
	}
	return report
}

// sweep advances the persistent cursor through the flat list until the
// batch size, the time budget, or one full lap stops it.
func (s *Scheduler) sweep(report *TickReport, deadline time.Time) {
	total := s.store.FlatLen()
	if total == 0 {
		s.cursor = 0
		return
	}
	if s.cursor >= total {
		s.cursor = 0
	}

	for visited := 0; visited < total && report.Swept < s.cfg.BatchSize; visited++ {
		if report.Swept > 0 && !s.now().Before(deadline) {
			break
		}
		id, ok := s.store.FlatID(s.cursor)
		s.cursor = (s.cursor + 1) % total
		if !ok {
			continue
		}
		report.Swept++
		if s.store.Refresh(id) {
			report.SweptChanged++
			if s.mat != nil {
				s.mat.SyncAttributes(id)
			}
		}
	}
	sweepVisits.Add(float64(report.Swept))
}
