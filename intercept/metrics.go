// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package intercept

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for structural interception.
var (
	attachEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_intercept_attach_events_total",
		Help: "Intercepted attach mutations",
	})

	detachEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenemirror_intercept_detach_events_total",
		Help: "Intercepted detach mutations",
	})
)
