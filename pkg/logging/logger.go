// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for scenemirror components.
//
// Built on the standard library slog package. Defaults follow Unix CLI
// conventions: human-readable text on stderr, with JSON output available
// for embedding the mirror in a service.
//
// Basic usage:
//
//	logger := logging.New(logging.Config{Service: "bench"})
//	logger.Info("tick complete", "dirty", report.DirtySynced)
//
// Components accept a *slog.Logger and fall back to slog.Default() when
// given nil, so hosts that already configure slog need nothing from this
// package.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Config controls logger construction. The zero value yields a text
// logger at Info level on stderr.
type Config struct {
	// Level is the minimum level emitted. Zero value is slog.LevelInfo.
	Level slog.Level

	// Service is attached as a "service" attribute to every record when
	// non-empty.
	Service string

	// JSON switches from text to JSON output.
	JSON bool

	// Quiet raises the level floor to Error regardless of Level.
	Quiet bool

	// Writer overrides the output destination. Defaults to os.Stderr.
	Writer io.Writer
}

// New builds a logger from cfg.
func New(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	level := cfg.Level
	if cfg.Quiet {
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With(slog.String("service", cfg.Service))
	}
	return logger
}

// Default returns a stderr text logger at Info level.
func Default() *slog.Logger {
	return New(Config{})
}
