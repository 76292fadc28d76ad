// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package callgraph holds a directed graph of target program locations and computes
// distances from every location to a designated target location.
package callgraph

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gbfuzz/gbfuzz/pkg/cover"
)

// Unreachable is the distance of locations from which the target cannot be reached.
// It is a finite number, so that energy arithmetic does not need to special-case infinities.
const Unreachable = 0xFFFF

// Graph is a directed graph, an edge A->B means "A can transfer control to B".
// The graph is built once and is read-only afterwards.
type Graph struct {
	succs map[cover.Loc][]cover.Loc
	preds map[cover.Loc][]cover.Loc
}

func New() *Graph {
	return &Graph{
		succs: make(map[cover.Loc][]cover.Loc),
		preds: make(map[cover.Loc][]cover.Loc),
	}
}

func (g *Graph) AddNode(loc cover.Loc) {
	if _, ok := g.succs[loc]; !ok {
		g.succs[loc] = nil
		g.preds[loc] = nil
	}
}

func (g *Graph) AddEdge(from, to cover.Loc) {
	g.AddNode(from)
	g.AddNode(to)
	for _, succ := range g.succs[from] {
		if succ == to {
			return
		}
	}
	g.succs[from] = append(g.succs[from], to)
	g.preds[to] = append(g.preds[to], from)
}

func (g *Graph) HasNode(loc cover.Loc) bool {
	_, ok := g.succs[loc]
	return ok
}

// Nodes returns all nodes in sorted order.
func (g *Graph) Nodes() []cover.Loc {
	res := make([]cover.Loc, 0, len(g.succs))
	for loc := range g.succs {
		res = append(res, loc)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func (g *Graph) Succs(loc cover.Loc) []cover.Loc {
	return g.succs[loc]
}

func (g *Graph) Preds(loc cover.Loc) []cover.Loc {
	return g.preds[loc]
}

func (g *Graph) NumEdges() int {
	n := 0
	for _, succs := range g.succs {
		n += len(succs)
	}
	return n
}

// FindTarget returns the first node (in sorted order) whose identifier contains marker.
func (g *Graph) FindTarget(marker string) (cover.Loc, error) {
	if marker == "" {
		return "", fmt.Errorf("empty target marker")
	}
	for _, loc := range g.Nodes() {
		if strings.Contains(string(loc), marker) {
			return loc, nil
		}
	}
	return "", fmt.Errorf("no call graph node matches target %q", marker)
}

// Distances runs a BFS from target over reversed edges: the result is the number of
// forward edges on the shortest path from every node to target.
func (g *Graph) Distances(target cover.Loc) (Distances, error) {
	if !g.HasNode(target) {
		return nil, fmt.Errorf("target %q is not in the call graph", target)
	}
	dist := make(Distances, len(g.succs))
	for loc := range g.succs {
		dist[loc] = Unreachable
	}
	dist[target] = 0
	queue := []cover.Loc{target}
	for len(queue) != 0 {
		loc := queue[0]
		queue = queue[1:]
		for _, pred := range g.preds[loc] {
			if dist[pred] != Unreachable {
				continue
			}
			dist[pred] = dist[loc] + 1
			queue = append(queue, pred)
		}
	}
	return dist, nil
}

// WriteDOT writes the graph in graphviz format. Nodes present in dist are labelled with their distance.
func (g *Graph) WriteDOT(w io.Writer, dist Distances) error {
	if _, err := fmt.Fprintf(w, "digraph callgraph {\n"); err != nil {
		return err
	}
	for _, loc := range g.Nodes() {
		label := string(loc)
		if d, ok := dist.Of(loc); ok {
			label = fmt.Sprintf("%v\\nd=%v", loc, d)
		}
		if _, err := fmt.Fprintf(w, "\t%q [label=\"%v\"];\n", loc, label); err != nil {
			return err
		}
	}
	for _, loc := range g.Nodes() {
		for _, succ := range g.succs[loc] {
			if _, err := fmt.Fprintf(w, "\t%q -> %q;\n", loc, succ); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "}\n")
	return err
}

// Distances maps locations to their distance to the target location.
// It is read-only once computed.
type Distances map[cover.Loc]int

// Of returns the distance of loc and whether the location is known at all.
// Locations that are known but cannot reach the target have distance Unreachable.
func (d Distances) Of(loc cover.Loc) (int, bool) {
	dist, ok := d[loc]
	return dist, ok
}
