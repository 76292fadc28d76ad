// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// gbfuzz-callgraph exports the tile call graph of a maze in graphviz format,
// with every tile labelled by its distance to the target tile.
package main

import (
	"bufio"
	"flag"
	"os"

	"github.com/gbfuzz/gbfuzz/pkg/maze"
	"github.com/gbfuzz/gbfuzz/pkg/tool"
)

func main() {
	var (
		flagMaze = flag.String("maze", "", "file with the maze drawing (the built-in maze if empty)")
		flagOut  = flag.String("out", "", "output file (stdout if empty)")
	)
	tool.Init()
	text := maze.Default
	if *flagMaze != "" {
		data, err := os.ReadFile(*flagMaze)
		if err != nil {
			tool.Failf("failed to read maze: %v", err)
		}
		text = string(data)
	}
	m, err := maze.Parse(text)
	if err != nil {
		tool.Fail(err)
	}
	g := m.CallGraph()
	dist, err := g.Distances(m.TargetTile())
	if err != nil {
		tool.Fail(err)
	}
	out := os.Stdout
	if *flagOut != "" {
		if out, err = os.Create(*flagOut); err != nil {
			tool.Failf("failed to create output file: %v", err)
		}
	}
	w := bufio.NewWriter(out)
	if err := g.WriteDOT(w, dist); err != nil {
		tool.Fail(err)
	}
	if err := w.Flush(); err != nil {
		tool.Fail(err)
	}
	if err := out.Close(); err != nil {
		tool.Fail(err)
	}
}
