// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package corpus

import (
	"sync"

	"github.com/gbfuzz/gbfuzz/pkg/cover"
	"github.com/gbfuzz/gbfuzz/pkg/stat"
)

// Population is the ordered, append-only set of seeds of one fuzzing run.
// Insertion order is the discovery order. There is no eviction.
type Population struct {
	mu    sync.RWMutex
	seeds []*Seed
	cover cover.Cover    // total coverage of all seeds
	paths map[string]int // coverage signature -> number of seeds

	StatSeeds *stat.Val
	StatCover *stat.Val
	StatPaths *stat.Val
}

func NewPopulation(stats *stat.Set) *Population {
	pop := &Population{
		paths: make(map[string]int),
	}
	if stats == nil {
		stats = stat.NewSet("", nil)
	}
	pop.StatSeeds = stats.New("population", "Number of seeds in the population", stat.Console,
		stat.Prometheus("gbfuzz_population"), stat.LenOf(&pop.seeds, &pop.mu))
	pop.StatCover = stats.New("coverage", "Locations covered by the population", stat.Console,
		stat.Prometheus("gbfuzz_population_cover"), stat.LenOf(&pop.cover, &pop.mu))
	pop.StatPaths = stats.New("paths", "Distinct coverage signatures in the population", stat.Simple,
		stat.LenOf(&pop.paths, &pop.mu))
	return pop
}

// Save appends the seed and returns the locations it added to the total coverage.
func (pop *Population) Save(seed *Seed) []cover.Loc {
	pop.mu.Lock()
	defer pop.mu.Unlock()
	pop.seeds = append(pop.seeds, seed)
	pop.paths[seed.Sig]++
	return pop.cover.MergeDiff(seed.Cover)
}

// Seeds returns the seeds in discovery order. The returned slice may be modified by the caller,
// the seeds themselves are shared with the population.
func (pop *Population) Seeds() []*Seed {
	pop.mu.RLock()
	defer pop.mu.RUnlock()
	return append([]*Seed(nil), pop.seeds...)
}

func (pop *Population) Len() int {
	pop.mu.RLock()
	defer pop.mu.RUnlock()
	return len(pop.seeds)
}

func (pop *Population) Cover() cover.Cover {
	pop.mu.RLock()
	defer pop.mu.RUnlock()
	return pop.cover.Copy()
}

// Stats is a snapshot of the relevant current state figures.
type Stats struct {
	Seeds int
	Cover int
	Paths int
}

func (pop *Population) Stats() Stats {
	pop.mu.RLock()
	defer pop.mu.RUnlock()
	return Stats{
		Seeds: len(pop.seeds),
		Cover: len(pop.cover),
		Paths: len(pop.paths),
	}
}
