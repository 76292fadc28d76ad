// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package callgraph

import (
	"bytes"
	"testing"

	"github.com/gbfuzz/gbfuzz/pkg/cover"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph() *Graph {
	// a -> b -> c -> target, a -> target2, d isolated, e <- target.
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "tile_target")
	g.AddEdge("a", "x")
	g.AddEdge("tile_target", "e")
	g.AddEdge("b", "c") // duplicate
	g.AddNode("d")
	return g
}

func TestDistances(t *testing.T) {
	g := testGraph()
	assert.Equal(t, 5, g.NumEdges())
	target, err := g.FindTarget("target")
	require.NoError(t, err)
	assert.Equal(t, cover.Loc("tile_target"), target)

	dist, err := g.Distances(target)
	require.NoError(t, err)
	want := Distances{
		"a":           3,
		"b":           2,
		"c":           1,
		"tile_target": 0,
		"x":           Unreachable,
		"e":           Unreachable,
		"d":           Unreachable,
	}
	if diff := cmp.Diff(want, dist); diff != "" {
		t.Fatal(diff)
	}
	d, ok := dist.Of("a")
	assert.True(t, ok)
	assert.Equal(t, 3, d)
	_, ok = dist.Of("unknown")
	assert.False(t, ok)
}

func TestShortestPath(t *testing.T) {
	// Two paths to the target, the short one wins.
	g := New()
	g.AddEdge("s", "l1")
	g.AddEdge("l1", "l2")
	g.AddEdge("l2", "t")
	g.AddEdge("s", "t")
	dist, err := g.Distances("t")
	require.NoError(t, err)
	assert.Equal(t, 1, dist["s"])
	assert.Equal(t, 2, dist["l1"])
}

func TestCycles(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("b", "t")
	g.AddEdge("t", "t")
	dist, err := g.Distances("t")
	require.NoError(t, err)
	assert.Equal(t, Distances{"a": 2, "b": 1, "t": 0}, dist)
}

func TestErrors(t *testing.T) {
	g := testGraph()
	_, err := g.FindTarget("nonexistent")
	assert.Error(t, err)
	_, err = g.FindTarget("")
	assert.Error(t, err)
	_, err = g.Distances("nonexistent")
	assert.Error(t, err)
}

func TestWriteDOT(t *testing.T) {
	g := New()
	g.AddEdge("a", "t")
	dist, err := g.Distances("t")
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	require.NoError(t, g.WriteDOT(buf, dist))
	assert.Equal(t, `digraph callgraph {
	"a" [label="a\nd=1"];
	"t" [label="t\nd=0"];
	"a" -> "t";
}
`, buf.String())
}
