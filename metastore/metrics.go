// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metastore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the Tier-1 store.
var (
	registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_store_registrations_total",
		Help: "Total nodes registered into the metadata store",
	})

	unregistrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_store_unregistrations_total",
		Help: "Total nodes unregistered from the metadata store",
	})

	updates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_store_updates_total",
		Help: "Total updates that detected at least one field change",
	})

	registered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenemirror_store_registered_nodes",
		Help: "Nodes currently registered in the metadata store",
	})

	extractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_store_extraction_failures_total",
		Help: "Failed Tier-1 field reads tolerated during register or update",
	})

	dirtyDrained = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scenemirror_store_dirty_drained",
		Help:    "Dirty ids drained per tick",
		Buckets: []float64{1, 5, 25, 100, 500, 2500, 10000},
	})

	orphansSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_store_orphans_swept_total",
		Help: "Nodes dropped by the orphan sweep safety net",
	})

	inspections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_store_inspections_total",
		Help: "Total Tier-2 deep inspections served",
	})

	inspectionSectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenemirror_store_inspection_section_failures_total",
		Help: "Inspection sections that failed, by section",
	}, []string{"section"})

	bulkChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_store_bulk_chunks_total",
		Help: "Bulk registration chunks executed",
	})
)
