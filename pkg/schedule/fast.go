// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package schedule

import (
	"fmt"
	"math"

	"github.com/gbfuzz/gbfuzz/pkg/corpus"
)

// AFLFast favours seeds exercising rarely observed paths:
// energy = 1 / frequency(path)^exponent.
type AFLFast struct {
	exponent float64
	freq     PathFrequency
}

func NewAFLFast(exponent float64) (*AFLFast, error) {
	if exponent <= 0 || math.IsNaN(exponent) || math.IsInf(exponent, 0) {
		return nil, fmt.Errorf("bad AFLFast exponent %v", exponent)
	}
	return &AFLFast{exponent: exponent}, nil
}

func (s *AFLFast) Name() string {
	return fmt.Sprintf("aflfast(%v)", s.exponent)
}

func (s *AFLFast) UsePathFrequency(freq PathFrequency) {
	s.freq = freq
}

func (s *AFLFast) AssignEnergy(seeds []*corpus.Seed) {
	for _, seed := range seeds {
		n := 1
		if s.freq != nil {
			n = max(s.freq.PathFrequency(seed.Sig), 1)
		}
		seed.Energy = 1 / math.Pow(float64(n), s.exponent)
	}
}
