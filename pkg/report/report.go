// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package report summarizes a fuzzing population by classifying every seed with the target.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gbfuzz/gbfuzz/pkg/corpus"
	"github.com/gbfuzz/gbfuzz/pkg/jsonload"
	"github.com/gbfuzz/gbfuzz/pkg/maze"
)

// Classifier returns the status of a seed and an optional explanation.
type Classifier interface {
	Statuses() []string
	Classify(seed *corpus.Seed) (string, error)
}

type Entry struct {
	Seed   *corpus.Seed
	Status string
	Err    error
}

type Report struct {
	Name     string
	Entries  []Entry
	statuses []string
	counts   map[string]int
}

func Collect(name string, seeds []*corpus.Seed, cl Classifier) *Report {
	rep := &Report{
		Name:     name,
		statuses: cl.Statuses(),
		counts:   make(map[string]int),
	}
	for _, seed := range seeds {
		status, err := cl.Classify(seed)
		rep.Entries = append(rep.Entries, Entry{seed, status, err})
		rep.counts[status]++
	}
	return rep
}

func (rep *Report) Total() int {
	return len(rep.Entries)
}

func (rep *Report) Count(status string) int {
	return rep.counts[status]
}

// String returns the summary line: "<name> TOTAL: n | STATUS1: a | STATUS2: b".
func (rep *Report) String() string {
	return rep.summary(func(status string) string { return status })
}

func (rep *Report) summary(paint func(string) string) string {
	buf := new(strings.Builder)
	fmt.Fprintf(buf, "%v TOTAL: %v", rep.Name, rep.Total())
	for _, status := range rep.statuses {
		fmt.Fprintf(buf, " | %v: %v", paint(status), rep.counts[status])
	}
	return buf.String()
}

var statusColors = map[string]*color.Color{
	"SOLVED":  color.New(color.FgGreen, color.Bold),
	"VALID":   color.New(color.FgGreen),
	"PASS":    color.New(color.FgGreen),
	"INVALID": color.New(color.FgYellow),
	"FAIL":    color.New(color.FgYellow),
	"ERROR":   color.New(color.FgRed, color.Bold),
	"CRASH":   color.New(color.FgRed, color.Bold),
}

func paint(status string) string {
	if c := statusColors[status]; c != nil {
		return c.Sprint(status)
	}
	return status
}

// Write prints the summary line, preceded by one line per seed if verbose.
// Statuses are colored when w is a terminal (see color.NoColor).
func (rep *Report) Write(w io.Writer, verbose bool) error {
	if verbose {
		for _, e := range rep.Entries {
			line := fmt.Sprintf("%v | Coverage: %v | Seed: %q", paint(e.Status), e.Seed.Cover.Len(), e.Seed.Data)
			if e.Err != nil {
				line = fmt.Sprintf("%v: %v | Coverage: %v | Seed: %q",
					paint(e.Status), e.Err, e.Seed.Cover.Len(), e.Seed.Data)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, rep.summary(paint))
	return err
}

type mazeClassifier struct {
	m *maze.Maze
}

// Maze classifies seeds as SOLVED, VALID or INVALID by running them through the maze.
func Maze(m *maze.Maze) Classifier {
	return mazeClassifier{m}
}

func (mazeClassifier) Statuses() []string {
	return []string{maze.Solved.String(), maze.Valid.String(), maze.Invalid.String()}
}

func (cl mazeClassifier) Classify(seed *corpus.Seed) (string, error) {
	return cl.m.Classify(seed.Data).String(), nil
}

type jsonClassifier struct{}

// JSON classifies seeds as VALID, INVALID or ERROR by loading them.
func JSON() Classifier {
	return jsonClassifier{}
}

func (jsonClassifier) Statuses() []string {
	return []string{jsonload.Valid.String(), jsonload.Invalid.String(), jsonload.Error.String()}
}

func (jsonClassifier) Classify(seed *corpus.Seed) (string, error) {
	status, err := jsonload.Classify(seed.Data)
	return status.String(), err
}

type outcomeClassifier struct{}

// Outcomes classifies seeds by the outcome recorded during fuzzing, it doesn't rerun the target.
func Outcomes() Classifier {
	return outcomeClassifier{}
}

func (outcomeClassifier) Statuses() []string {
	return []string{corpus.Pass.String(), corpus.Fail.String(), corpus.Crash.String()}
}

func (outcomeClassifier) Classify(seed *corpus.Seed) (string, error) {
	return seed.Outcome.String(), nil
}
