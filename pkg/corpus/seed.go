// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package corpus

import (
	"fmt"

	"github.com/gbfuzz/gbfuzz/pkg/cover"
)

// Outcome is the classification of a single execution.
type Outcome int

const (
	Pass Outcome = iota
	Fail
	// Crash means the target terminated abnormally (panicked).
	Crash
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Crash:
		return "CRASH"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// DistanceUnknown marks seeds whose distance was not computed yet.
const DistanceUnknown = -1

// Seed is a population member: an input with its observed coverage and scheduling metadata.
// Data, Cover, Sig and Outcome are fixed once the seed is saved; Energy, Distance and Fuzzed
// are owned by the power schedule.
type Seed struct {
	Data    string
	Cover   cover.Cover
	Sig     string // signature of Cover
	Outcome Outcome
	Trial   int // trial that produced the seed, -1 for initial seeds

	Energy   float64
	Distance float64
	Fuzzed   int
}

func NewSeed(data string, cov cover.Cover, outcome Outcome, trial int) *Seed {
	return &Seed{
		Data:     data,
		Cover:    cov,
		Sig:      cov.Signature(),
		Outcome:  outcome,
		Trial:    trial,
		Distance: DistanceUnknown,
	}
}

func (seed *Seed) String() string {
	return fmt.Sprintf("%q (%v, cover %v)", seed.Data, seed.Outcome, seed.Cover.Len())
}
