// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scenemirror

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mirrorworks/scenemirror/intercept"
	"github.com/mirrorworks/scenemirror/scene"
)

// Options tunes a Mirror. The zero value is valid; every zero field picks
// the documented default.
type Options struct {
	// MaxMaterialized caps the shadow tree size.
	MaxMaterialized int `validate:"gte=0"`

	// TickTimeBudget is the soft per-tick ceiling for amortized work.
	TickTimeBudget time.Duration `validate:"gte=0"`

	// TickBatchSize caps nodes visited per amortized sweep.
	TickBatchSize int `validate:"gte=0"`

	// InitialMaterializeDepth is how many levels below a tracked root are
	// eagerly materialized when tracking starts.
	InitialMaterializeDepth int `validate:"gte=0"`

	// BulkChunkSize bounds one bulk-registration slice.
	BulkChunkSize int `validate:"gte=0"`

	// MaintenanceInterval gates periodic maintenance (orphan sweep,
	// spatial rebuild).
	MaintenanceInterval time.Duration `validate:"gte=0"`

	// SpatialBuildCap bounds per-node structure builds per rebuild pass.
	SpatialBuildCap int `validate:"gte=0"`

	// InclusionMode filters newly attached nodes; see intercept.
	InclusionMode intercept.InclusionMode `validate:"gte=0,lte=1"`

	// Include is the inclusion predicate paired with InclusionMode.
	Include func(scene.LiveNode) bool

	Logger *slog.Logger
}

// Defaults applied by New for zero-valued Options fields.
const (
	DefaultMaxMaterialized         = 2000
	DefaultTickTimeBudget          = 5 * time.Millisecond
	DefaultTickBatchSize           = 500
	DefaultInitialMaterializeDepth = 2
	DefaultBulkChunkSize           = 1000
	DefaultMaintenanceInterval     = 5 * time.Second
	DefaultSpatialBuildCap         = 16
)

var validate = validator.New()

// withDefaults validates opts and fills in the defaults.
func (o Options) withDefaults() (Options, error) {
	if err := validate.Struct(o); err != nil {
		return o, fmt.Errorf("invalid options: %w", err)
	}
	if o.MaxMaterialized == 0 {
		o.MaxMaterialized = DefaultMaxMaterialized
	}
	if o.TickTimeBudget == 0 {
		o.TickTimeBudget = DefaultTickTimeBudget
	}
	if o.TickBatchSize == 0 {
		o.TickBatchSize = DefaultTickBatchSize
	}
	if o.InitialMaterializeDepth == 0 {
		o.InitialMaterializeDepth = DefaultInitialMaterializeDepth
	}
	if o.BulkChunkSize == 0 {
		o.BulkChunkSize = DefaultBulkChunkSize
	}
	if o.MaintenanceInterval == 0 {
		o.MaintenanceInterval = DefaultMaintenanceInterval
	}
	if o.SpatialBuildCap == 0 {
		o.SpatialBuildCap = DefaultSpatialBuildCap
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o, nil
}
