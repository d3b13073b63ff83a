// Copyright (C) 2026 Mirrorworks (oss@mirrorworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mirrorworks/scenemirror"
	"github.com/mirrorworks/scenemirror/pkg/logging"
	"github.com/mirrorworks/scenemirror/scene"
	"github.com/mirrorworks/scenemirror/scene/scenetest"
)

func runBench(cmd *cobra.Command, args []string) error {
	log := logging.New(logging.Config{
		Service: "bench",
		JSON:    benchJSONLog,
		Quiet:   benchQuiet,
	})

	if isatty.IsTerminal(os.Stdout.Fd()) && !benchQuiet {
		fmt.Printf("scenemirror bench: depth=%d fanout=%d ticks=%d budget=%dms\n",
			benchDepth, benchFanout, benchTicks, benchBudgetMs)
	}

	g := scenetest.NewGraph()
	m, err := scenemirror.New(g, scenemirror.Options{
		TickTimeBudget: time.Duration(benchBudgetMs) * time.Millisecond,
		Logger:         log,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	buildStart := time.Now()
	root := g.BuildTree("world", benchDepth, benchFanout)
	m.TrackRoot(root)
	log.Info("scene tracked",
		"nodes", countNodes(benchDepth, benchFanout),
		"registered", m.Len(),
		"build", time.Since(buildStart).String(),
	)

	// Animated leaves: a slice of nodes whose positions drift every tick.
	movers := collectMovers(g, root, 256)

	latencies := make([]time.Duration, 0, benchTicks)
	churned := 0
	for i := 0; i < benchTicks; i++ {
		phase := float64(i) * 0.1
		for j, n := range movers {
			n.SetPosition(scene.Vec3{
				X: float32(math.Sin(phase + float64(j))),
				Y: float32(math.Cos(phase + float64(j))),
			})
		}

		if benchChurn > 0 && i > 0 && i%benchChurn == 0 {
			sub := g.BuildTree(fmt.Sprintf("churn%d", i), 1, benchFanout)
			g.Attach(root, sub)
			g.Detach(sub)
			churned++
		}

		start := time.Now()
		report := m.Tick()
		latencies = append(latencies, time.Since(start))

		if report.BudgetExceeded {
			log.Debug("tick over budget", "tick", i, "duration", report.Duration.String())
		}
	}

	printSummary(latencies, m.Len(), churned)
	return nil
}

// collectMovers gathers up to limit mesh nodes from the live tree.
func collectMovers(g *scenetest.Graph, root *scenetest.Node, limit int) []*scenetest.Node {
	var out []*scenetest.Node
	stack := []*scenetest.Node{root}
	for len(stack) > 0 && len(out) < limit {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Kind() == "Mesh" {
			out = append(out, n)
		}
		stack = append(stack, n.Children()...)
	}
	return out
}

func countNodes(depth, fanout int) int {
	total, level := 1, 1
	for i := 0; i < depth; i++ {
		level *= fanout
		total += level
	}
	return total
}

func printSummary(latencies []time.Duration, registered, churned int) {
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var sum time.Duration
	for _, d := range latencies {
		sum += d
	}
	pct := func(p float64) time.Duration {
		idx := int(p * float64(len(latencies)-1))
		return latencies[idx]
	}

	fmt.Printf("ticks:      %d\n", len(latencies))
	fmt.Printf("registered: %d\n", registered)
	fmt.Printf("churns:     %d\n", churned)
	fmt.Printf("tick mean:  %s\n", sum/time.Duration(len(latencies)))
	fmt.Printf("tick p50:   %s\n", pct(0.50))
	fmt.Printf("tick p95:   %s\n", pct(0.95))
	fmt.Printf("tick p99:   %s\n", pct(0.99))
	fmt.Printf("tick max:   %s\n", latencies[len(latencies)-1])
}
