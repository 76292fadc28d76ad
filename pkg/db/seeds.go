// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package db

import (
	"fmt"
	"sort"

	"github.com/gbfuzz/gbfuzz/pkg/corpus"
	"github.com/gbfuzz/gbfuzz/pkg/cover"
	"github.com/gbfuzz/gbfuzz/pkg/hash"
	"github.com/gbfuzz/gbfuzz/pkg/osutil"
	"github.com/vmihailenco/msgpack/v5"
)

// SeedRecord is the persisted form of a population seed.
type SeedRecord struct {
	Data    string   `msgpack:"data" yaml:"data"`
	Cover   []string `msgpack:"cover" yaml:"cover,flow"`
	Outcome int      `msgpack:"outcome" yaml:"outcome"`
	Trial   int      `msgpack:"trial" yaml:"trial"`
	Fuzzed  int      `msgpack:"fuzzed" yaml:"fuzzed"`
}

func NewSeedRecord(seed *corpus.Seed) *SeedRecord {
	return &SeedRecord{
		Data:    seed.Data,
		Cover:   seed.Cover.Strings(),
		Outcome: int(seed.Outcome),
		Trial:   seed.Trial,
		Fuzzed:  seed.Fuzzed,
	}
}

// SavePopulation writes the seeds into a new database, keyed by the hash of their data.
// Duplicate inputs are stored once, the record sequence number keeps the discovery order.
func SavePopulation(filename string, version uint64, seeds []*corpus.Seed) error {
	records := make(map[string]Record)
	for i, seed := range seeds {
		key := hash.String([]byte(seed.Data))
		if _, ok := records[key]; ok {
			continue
		}
		val, err := msgpack.Marshal(NewSeedRecord(seed))
		if err != nil {
			return fmt.Errorf("failed to encode seed %q: %w", seed.Data, err)
		}
		records[key] = Record{Val: val, Seq: uint64(i)}
	}
	return Create(filename, version, records)
}

// ReadSeeds loads the seeds saved by SavePopulation in discovery order.
// Unlike Open, it does not create a missing database.
func ReadSeeds(filename string) ([]*corpus.Seed, error) {
	if !osutil.IsExist(filename) {
		return nil, fmt.Errorf("corpus database %v does not exist", filename)
	}
	db, err := Open(filename, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file: %w", err)
	}
	type item struct {
		seq uint64
		rec SeedRecord
	}
	var items []item
	for key, rec := range db.Records {
		var sr SeedRecord
		if err := msgpack.Unmarshal(rec.Val, &sr); err != nil {
			return nil, fmt.Errorf("failed to decode seed %v: %w", key, err)
		}
		items = append(items, item{rec.Seq, sr})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].seq < items[j].seq
	})
	var seeds []*corpus.Seed
	for _, it := range items {
		locs := make([]cover.Loc, len(it.rec.Cover))
		for i, loc := range it.rec.Cover {
			locs[i] = cover.Loc(loc)
		}
		seed := corpus.NewSeed(it.rec.Data, cover.FromLocs(locs...), corpus.Outcome(it.rec.Outcome), it.rec.Trial)
		seed.Fuzzed = it.rec.Fuzzed
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

// ReadInputs returns just the inputs of ReadSeeds. Empty filename means no inputs.
func ReadInputs(filename string) ([]string, error) {
	if filename == "" {
		return nil, nil
	}
	seeds, err := ReadSeeds(filename)
	if err != nil {
		return nil, err
	}
	var inputs []string
	for _, seed := range seeds {
		inputs = append(inputs, seed.Data)
	}
	return inputs, nil
}
