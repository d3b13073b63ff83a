// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command scenemirror exercises the mirror core against a synthetic
// scene graph.
//
// Usage:
//
//	go run ./cmd/scenemirror bench
//	go run ./cmd/scenemirror bench --depth 4 --fanout 12 --ticks 600
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
