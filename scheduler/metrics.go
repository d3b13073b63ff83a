// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the tick loop.
var (
	ticks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_scheduler_ticks_total",
		Help: "Tick passes executed",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scenemirror_scheduler_tick_duration_seconds",
		Help:    "Wall time of one tick pass",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	budgetOverruns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_scheduler_budget_overruns_total",
		Help: "Ticks that exceeded their advisory time budget",
	})

	sweepVisits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_scheduler_sweep_visits_total",
		Help: "Nodes visited by the amortized sweep",
	})
)
