// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package schedule implements power schedules: policies that assign energy to seeds
// and pick the next seed to mutate proportionally to that energy.
package schedule

import (
	"math"
	"math/rand"
	"sort"

	"github.com/gbfuzz/gbfuzz/pkg/corpus"
)

// Schedule assigns energy to every seed of the population before a round of selection.
type Schedule interface {
	Name() string
	AssignEnergy(seeds []*corpus.Seed)
}

// PathFrequency reports how many times an execution with the given coverage signature
// has been observed during the current run.
type PathFrequency interface {
	PathFrequency(sig string) int
}

// FrequencyConsumer is implemented by schedules that need path frequencies.
// The fuzzer supplies its own counters when it is constructed.
type FrequencyConsumer interface {
	UsePathFrequency(freq PathFrequency)
}

// Choose assigns energy with s and samples one seed with probability proportional to its energy.
// If energies can't form a distribution (all zero, negative or non-finite), the choice is uniform.
// The chosen seed's Fuzzed counter is incremented.
func Choose(s Schedule, r *rand.Rand, seeds []*corpus.Seed) *corpus.Seed {
	if len(seeds) == 0 {
		return nil
	}
	s.AssignEnergy(seeds)
	seed := seeds[chooseWeighted(r, seeds)]
	seed.Fuzzed++
	return seed
}

func chooseWeighted(r *rand.Rand, seeds []*corpus.Seed) int {
	probs := Normalized(seeds)
	if probs == nil {
		return r.Intn(len(seeds))
	}
	acc := make([]float64, len(probs))
	sum := 0.0
	for i, p := range probs {
		sum += p
		acc[i] = sum
	}
	val := r.Float64()
	idx := sort.Search(len(acc), func(i int) bool {
		return acc[i] > val
	})
	if idx == len(acc) {
		// Guard against float rounding in the last bucket.
		idx = len(acc) - 1
	}
	return idx
}

// Normalized returns seed energies as a probability distribution.
// It returns nil if some energy is negative or non-finite, or if all of them are zero.
func Normalized(seeds []*corpus.Seed) []float64 {
	sum := 0.0
	for _, seed := range seeds {
		e := seed.Energy
		if e < 0 || math.IsNaN(e) || math.IsInf(e, 0) {
			return nil
		}
		sum += e
	}
	if sum <= 0 || math.IsInf(sum, 0) {
		return nil
	}
	res := make([]float64, len(seeds))
	for i, seed := range seeds {
		res[i] = seed.Energy / sum
	}
	return res
}

// Uniform gives every seed the same energy.
type Uniform struct{}

func (Uniform) Name() string {
	return "uniform"
}

func (Uniform) AssignEnergy(seeds []*corpus.Seed) {
	for _, seed := range seeds {
		seed.Energy = 1
	}
}
