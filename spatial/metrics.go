// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package spatial

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the hit-test index.
var (
	rebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_spatial_rebuilds_total",
		Help: "Target-list rebuild passes",
	})

	structureBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_spatial_structure_builds_total",
		Help: "Per-node structure builds attempted",
	})

	buildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_spatial_structure_build_failures_total",
		Help: "Per-node structure builds that failed and will retry",
	})

	targetCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenemirror_spatial_targets",
		Help: "Hit-testable targets after the last rebuild",
	})

	queries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_spatial_queries_total",
		Help: "Spatial queries served",
	})
)
