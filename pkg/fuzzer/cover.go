// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzzer

import (
	"sort"
	"sync"

	"github.com/gbfuzz/gbfuzz/pkg/corpus"
	"github.com/gbfuzz/gbfuzz/pkg/cover"
)

// Cover keeps track of the execution paths observed by the fuzzer,
// including the executions that were not retained.
type Cover struct {
	mu    sync.RWMutex
	paths map[string]int    // coverage signature -> number of executions
	hits  map[cover.Loc]int // location -> number of executions that covered it
}

func newCover() *Cover {
	return &Cover{
		paths: make(map[string]int),
		hits:  make(map[cover.Loc]int),
	}
}

// addPath records one execution and returns whether its path was never seen before.
func (c *Cover) addPath(seed *corpus.Seed) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths[seed.Sig]++
	for loc := range seed.Cover {
		c.hits[loc]++
	}
	return c.paths[seed.Sig] == 1
}

// PathFrequency returns how many executions produced the coverage signature sig.
func (c *Cover) PathFrequency(sig string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paths[sig]
}

// Paths returns the number of distinct coverage signatures observed.
func (c *Cover) Paths() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.paths)
}

func (c *Cover) Hits(loc cover.Loc) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits[loc]
}

type LocHits struct {
	Loc  cover.Loc
	Hits int
}

// HotLocs returns locations ordered by hit count (most frequent first).
func (c *Cover) HotLocs() []LocHits {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := make([]LocHits, 0, len(c.hits))
	for loc, n := range c.hits {
		res = append(res, LocHits{loc, n})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Hits != res[j].Hits {
			return res[i].Hits > res[j].Hits
		}
		return res[i].Loc < res[j].Loc
	})
	return res
}

type CoverStats struct {
	Paths int
	Locs  int
}

func (c *Cover) Stats() CoverStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CoverStats{
		Paths: len(c.paths),
		Locs:  len(c.hits),
	}
}
