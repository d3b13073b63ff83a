// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mirror

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the shadow tree.
var (
	materializations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_mirror_materializations_total",
		Help: "Total shadow nodes created",
	})

	evictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_mirror_evictions_total",
		Help: "Shadow nodes evicted by the LRU bound",
	})

	materialized = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenemirror_mirror_materialized_nodes",
		Help: "Shadow nodes currently materialized",
	})

	attributeWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_mirror_attribute_writes_total",
		Help: "Attribute keys written or deleted during shadow sync",
	})
)
