// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package cover implements set operations on coverage (sets of visited code locations)
// and the probe that captures coverage of a single target invocation.
package cover

import (
	"sort"

	"github.com/gbfuzz/gbfuzz/pkg/hash"
)

// Loc is an opaque identifier of a code location (e.g. a function name or a branch id).
type Loc string

// Cover is a set of locations. A captured Cover is treated as a value and is never
// modified after the run that produced it.
type Cover map[Loc]struct{}

func FromLocs(locs ...Loc) Cover {
	if len(locs) == 0 {
		return nil
	}
	c := make(Cover, len(locs))
	for _, loc := range locs {
		c[loc] = struct{}{}
	}
	return c
}

func (c Cover) Len() int {
	return len(c)
}

func (c Cover) Empty() bool {
	return len(c) == 0
}

func (c Cover) Contains(loc Loc) bool {
	_, ok := c[loc]
	return ok
}

func (c Cover) Copy() Cover {
	if c == nil {
		return nil
	}
	res := make(Cover, len(c))
	for loc := range c {
		res[loc] = struct{}{}
	}
	return res
}

// Equal reports exact set equality.
func (c Cover) Equal(c1 Cover) bool {
	if len(c) != len(c1) {
		return false
	}
	for loc := range c {
		if _, ok := c1[loc]; !ok {
			return false
		}
	}
	return true
}

func (c *Cover) Merge(c1 Cover) {
	c.MergeDiff(c1)
}

// MergeDiff merges c1 into c and returns the sorted list of locations that were new to c.
func (c *Cover) MergeDiff(c1 Cover) []Loc {
	if c1.Empty() {
		return nil
	}
	c0 := *c
	if c0 == nil {
		c0 = make(Cover, len(c1))
		*c = c0
	}
	var res []Loc
	for loc := range c1 {
		if _, ok := c0[loc]; ok {
			continue
		}
		c0[loc] = struct{}{}
		res = append(res, loc)
	}
	sortLocs(res)
	return res
}

// Serialize returns the locations in sorted order.
func (c Cover) Serialize() []Loc {
	res := make([]Loc, 0, len(c))
	for loc := range c {
		res = append(res, loc)
	}
	sortLocs(res)
	return res
}

func (c Cover) Strings() []string {
	locs := c.Serialize()
	res := make([]string, len(locs))
	for i, loc := range locs {
		res[i] = string(loc)
	}
	return res
}

// Signature identifies the coverage set: two covers have equal signatures iff they are equal sets.
func (c Cover) Signature() string {
	return hash.Strings(c.Strings()).String()
}

func sortLocs(locs []Loc) {
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })
}
