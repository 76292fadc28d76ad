// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package schedule

import (
	"errors"
	"fmt"
	"math"

	"github.com/gbfuzz/gbfuzz/pkg/callgraph"
	"github.com/gbfuzz/gbfuzz/pkg/corpus"
)

var ErrNoDistances = errors.New("directed schedule requires a distance map")

// Directed steers fuzzing towards a target location:
// energy = (1 / (1 + distance))^exponent, where the seed distance is the mean
// distance of the covered locations with a known distance.
// Seeds covering no known location get callgraph.Unreachable.
type Directed struct {
	dist     callgraph.Distances
	exponent float64
}

func NewDirected(dist callgraph.Distances, exponent float64) (*Directed, error) {
	if len(dist) == 0 {
		return nil, ErrNoDistances
	}
	if exponent <= 0 || math.IsNaN(exponent) || math.IsInf(exponent, 0) {
		return nil, fmt.Errorf("bad directed exponent %v", exponent)
	}
	return &Directed{dist: dist, exponent: exponent}, nil
}

func (s *Directed) Name() string {
	return fmt.Sprintf("directed(%v)", s.exponent)
}

func (s *Directed) AssignEnergy(seeds []*corpus.Seed) {
	for _, seed := range seeds {
		d := seedDistance(s.dist, seed)
		seed.Energy = math.Pow(1/(1+d), s.exponent)
	}
}

// AFLGo normalises seed distances over the population: the closest seeds get
// energy max-min, the others (max-min)/(distance-min).
type AFLGo struct {
	dist callgraph.Distances
}

func NewAFLGo(dist callgraph.Distances) (*AFLGo, error) {
	if len(dist) == 0 {
		return nil, ErrNoDistances
	}
	return &AFLGo{dist: dist}, nil
}

func (s *AFLGo) Name() string {
	return "aflgo"
}

func (s *AFLGo) AssignEnergy(seeds []*corpus.Seed) {
	minDist, maxDist := math.Inf(1), math.Inf(-1)
	for _, seed := range seeds {
		d := seedDistance(s.dist, seed)
		minDist = math.Min(minDist, d)
		maxDist = math.Max(maxDist, d)
	}
	for _, seed := range seeds {
		switch {
		case minDist == maxDist:
			seed.Energy = 1
		case seed.Distance == minDist:
			seed.Energy = maxDist - minDist
		default:
			seed.Energy = (maxDist - minDist) / (seed.Distance - minDist)
		}
	}
}

// seedDistance computes (once) and caches the seed distance to the target.
func seedDistance(dist callgraph.Distances, seed *corpus.Seed) float64 {
	if seed.Distance >= 0 {
		return seed.Distance
	}
	sum, n := 0, 0
	for loc := range seed.Cover {
		if d, ok := dist.Of(loc); ok {
			sum += d
			n++
		}
	}
	seed.Distance = callgraph.Unreachable
	if n != 0 {
		seed.Distance = float64(sum) / float64(n)
	}
	return seed.Distance
}
