// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package report

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/gbfuzz/gbfuzz/pkg/corpus"
	"github.com/gbfuzz/gbfuzz/pkg/cover"
	"github.com/gbfuzz/gbfuzz/pkg/maze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func seeds(outcome corpus.Outcome, data ...string) []*corpus.Seed {
	var res []*corpus.Seed
	for _, d := range data {
		res = append(res, corpus.NewSeed(d, cover.FromLocs("x"), outcome, -1))
	}
	return res
}

func TestMazeReport(t *testing.T) {
	m := maze.MustParse(maze.Default)
	pop := seeds(corpus.Pass, " ", "D", "L", "DDDDRRRRUULLUURRRRDDDD", "DDDDD")
	rep := Collect("greybox", pop, Maze(m))
	assert.Equal(t, 5, rep.Total())
	assert.Equal(t, 1, rep.Count("SOLVED"))
	assert.Equal(t, 2, rep.Count("VALID"))
	assert.Equal(t, 2, rep.Count("INVALID"))
	assert.Equal(t, "greybox TOTAL: 5 | SOLVED: 1 | VALID: 2 | INVALID: 2", rep.String())

	buf := new(bytes.Buffer)
	require.NoError(t, rep.Write(buf, false))
	assert.Equal(t, rep.String()+"\n", buf.String())
}

func TestJSONReport(t *testing.T) {
	pop := seeds(corpus.Fail, `{"a": 1}`, `[1, 2`)
	rep := Collect("json", pop, JSON())
	assert.Equal(t, "json TOTAL: 2 | VALID: 1 | INVALID: 1 | ERROR: 0", rep.String())

	buf := new(bytes.Buffer)
	require.NoError(t, rep.Write(buf, true))
	assert.Equal(t, `VALID | Coverage: 1 | Seed: "{\"a\": 1}"
INVALID: expecting ',' delimiter: offset 5 | Coverage: 1 | Seed: "[1, 2"
json TOTAL: 2 | VALID: 1 | INVALID: 1 | ERROR: 0
`, buf.String())
}

func TestOutcomeReport(t *testing.T) {
	pop := append(seeds(corpus.Pass, "a", "b"), seeds(corpus.Crash, "c")...)
	rep := Collect("outcomes", pop, Outcomes())
	assert.Equal(t, "outcomes TOTAL: 3 | PASS: 2 | FAIL: 0 | CRASH: 1", rep.String())
}
