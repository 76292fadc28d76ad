// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package maze implements the maze interpreter used as a fuzzing target.
// Every maze cell behaves like a function (a tile): free tiles consume one move and transfer
// control to the neighbour tile, wall tiles reject the input and the target tile accepts it.
package maze

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gbfuzz/gbfuzz/pkg/callgraph"
	"github.com/gbfuzz/gbfuzz/pkg/cover"
)

// Default is the maze used by the built-in campaign.
const Default = `+-+-----+
|X|     |
| | --+ |
| |   | |
| +-- | |
|     |#|
+-----+-+`

const (
	cellStart   = 'X'
	cellTarget  = '#'
	cellFree    = ' '
	cellVisited = '.'
)

var ErrInvalid = errors.New("maze: walked into a wall")

type Status int

const (
	Invalid Status = iota
	Valid
	Solved
)

var statusNames = [...]string{
	Invalid: "INVALID",
	Valid:   "VALID",
	Solved:  "SOLVED",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus parses the first line of the maze output.
func ParseStatus(output string) (Status, error) {
	first, _, _ := strings.Cut(output, "\n")
	for s, name := range statusNames {
		if first == name {
			return Status(s), nil
		}
	}
	return 0, fmt.Errorf("unknown maze status %q", first)
}

type pos struct {
	row, col int
}

type Maze struct {
	cells  [][]byte
	start  pos
	target pos
}

// Parse parses a text maze: '+', '-' and '|' are walls, ' ' is free, 'X' is the start
// and '#' is the target. Rows may have different lengths, missing cells are walls.
func Parse(text string) (*Maze, error) {
	m := &Maze{
		start:  pos{-1, -1},
		target: pos{-1, -1},
	}
	for row, line := range strings.Split(strings.Trim(text, "\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		for col := 0; col < len(line); col++ {
			switch line[col] {
			case cellStart:
				if m.start.row >= 0 {
					return nil, fmt.Errorf("maze: second start at %v:%v", row, col)
				}
				m.start = pos{row, col}
			case cellTarget:
				if m.target.row >= 0 {
					return nil, fmt.Errorf("maze: second target at %v:%v", row, col)
				}
				m.target = pos{row, col}
			}
		}
		m.cells = append(m.cells, []byte(line))
	}
	if m.start.row < 0 {
		return nil, fmt.Errorf("maze: no start cell %q", cellStart)
	}
	if m.target.row < 0 {
		return nil, fmt.Errorf("maze: no target cell %q", cellTarget)
	}
	return m, nil
}

// MustParse is like Parse but panics on error. For mazes known at compile time.
func MustParse(text string) *Maze {
	m, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Maze) cell(p pos) byte {
	if p.row < 0 || p.row >= len(m.cells) || p.col < 0 || p.col >= len(m.cells[p.row]) {
		return '+'
	}
	return m.cells[p.row][p.col]
}

func (m *Maze) free(p pos) bool {
	c := m.cell(p)
	return c == cellFree || c == cellStart
}

// Tile returns the location of the tile at the given cell.
func Tile(row, col int) cover.Loc {
	return cover.Loc(fmt.Sprintf("tile_%d_%d", row, col))
}

func (p pos) tile() cover.Loc {
	return Tile(p.row, p.col)
}

// TargetTile returns the location of the target tile.
func (m *Maze) TargetTile() cover.Loc {
	return m.target.tile()
}

// StartTile returns the location of the start tile.
func (m *Maze) StartTile() cover.Loc {
	return m.start.tile()
}

var moves = map[byte]pos{
	'U': {-1, 0},
	'D': {1, 0},
	'L': {0, -1},
	'R': {0, 1},
}

const moveOrder = "UDLR"

// Run interprets the input as a sequence of moves starting from the start tile.
// Characters other than U, D, L and R are skipped. Every tile entered is reported to tr.
// The first output line is the status, followed by the maze with the walked path.
func (m *Maze) Run(tr *cover.Tracer, input string) string {
	visited := make([][]byte, len(m.cells))
	for i, row := range m.cells {
		visited[i] = append([]byte(nil), row...)
	}
	cur := m.start
	status := Valid
	tr.Hit(cur.tile())
	for i := 0; i < len(input); i++ {
		move, ok := moves[input[i]]
		if !ok {
			tr.Hit(cur.tile())
			continue
		}
		if m.free(cur) {
			visited[cur.row][cur.col] = cellVisited
		}
		cur = pos{cur.row + move.row, cur.col + move.col}
		tr.Hit(cur.tile())
		if cur == m.target {
			status = Solved
			break
		}
		if !m.free(cur) {
			status = Invalid
			break
		}
	}
	if cur.row >= 0 && cur.row < len(visited) && cur.col >= 0 && cur.col < len(visited[cur.row]) {
		visited[cur.row][cur.col] = cellStart
	}
	buf := new(strings.Builder)
	buf.WriteString(status.String())
	for _, row := range visited {
		buf.WriteByte('\n')
		buf.Write(row)
	}
	return buf.String()
}

// Classify runs the input without instrumentation and returns its status.
func (m *Maze) Classify(input string) Status {
	status, err := ParseStatus(m.Run(nil, input))
	if err != nil {
		panic(err)
	}
	return status
}

// Oracle returns the instrumented target: inputs whose first output line is INVALID fail with ErrInvalid.
func (m *Maze) Oracle() cover.Func {
	return func(tr *cover.Tracer, input string) error {
		out := m.Run(tr, input)
		if strings.HasPrefix(out, Invalid.String()+"\n") {
			return ErrInvalid
		}
		return nil
	}
}

// CallGraph returns the graph of control transfers between tiles: every free tile may call
// itself and its four neighbours, wall and target tiles call nothing.
func (m *Maze) CallGraph() *callgraph.Graph {
	g := callgraph.New()
	for row, line := range m.cells {
		for col := range line {
			p := pos{row, col}
			g.AddNode(p.tile())
			if !m.free(p) {
				continue
			}
			g.AddEdge(p.tile(), p.tile())
			for i := 0; i < len(moveOrder); i++ {
				move := moves[moveOrder[i]]
				next := pos{row + move.row, col + move.col}
				g.AddEdge(p.tile(), next.tile())
			}
		}
	}
	return g
}

// Distances returns the distance of every tile to the target tile.
func (m *Maze) Distances() (callgraph.Distances, error) {
	return m.CallGraph().Distances(m.TargetTile())
}
