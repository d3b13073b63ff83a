// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})

	logger.Debug("hidden")
	logger.Info("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
}

func TestNew_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{JSON: true, Service: "bench", Writer: &buf})

	logger.Info("tick complete", "dirty", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "tick complete", record["msg"])
	assert.Equal(t, "bench", record["service"])
	assert.Equal(t, float64(3), record["dirty"])
}

func TestNew_QuietSuppressesBelowError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Quiet: true, Level: slog.LevelDebug, Writer: &buf})

	logger.Info("chatter")
	logger.Warn("still chatter")
	logger.Error("broken")

	lines := strings.TrimSpace(buf.String())
	assert.NotContains(t, lines, "chatter")
	assert.Contains(t, lines, "broken")
}
