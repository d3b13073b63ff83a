// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped by the release build; "dev" otherwise.
var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:   "scenemirror",
		Short: "Tools for the scenemirror scene-graph mirroring library",
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the scenemirror version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	benchDepth    int
	benchFanout   int
	benchTicks    int
	benchBudgetMs int
	benchChurn    int
	benchJSONLog  bool
	benchQuiet    bool

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Drive a synthetic scene through the mirror and report tick latency",
		Long: `Builds a synthetic scene tree, tracks it, then runs a fixed number
of ticks while animating node positions and periodically churning subtrees
through attach/detach. Prints a tick-latency summary at the end.`,
		RunE: runBench,
	}
)

func init() {
	benchCmd.Flags().IntVar(&benchDepth, "depth", 4, "tree depth")
	benchCmd.Flags().IntVar(&benchFanout, "fanout", 10, "children per node")
	benchCmd.Flags().IntVar(&benchTicks, "ticks", 300, "ticks to run")
	benchCmd.Flags().IntVar(&benchBudgetMs, "budget-ms", 5, "per-tick time budget in milliseconds")
	benchCmd.Flags().IntVar(&benchChurn, "churn-every", 30, "attach/detach a subtree every N ticks (0 disables)")
	benchCmd.Flags().BoolVar(&benchJSONLog, "json-log", false, "log as JSON")
	benchCmd.Flags().BoolVar(&benchQuiet, "quiet", false, "suppress non-error logging")

	rootCmd.AddCommand(benchCmd, versionCmd)
}
