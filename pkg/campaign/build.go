// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package campaign

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gbfuzz/gbfuzz/pkg/callgraph"
	"github.com/gbfuzz/gbfuzz/pkg/cover"
	"github.com/gbfuzz/gbfuzz/pkg/db"
	"github.com/gbfuzz/gbfuzz/pkg/fuzzer"
	"github.com/gbfuzz/gbfuzz/pkg/grammar"
	"github.com/gbfuzz/gbfuzz/pkg/jsonload"
	"github.com/gbfuzz/gbfuzz/pkg/log"
	"github.com/gbfuzz/gbfuzz/pkg/mutator"
	"github.com/gbfuzz/gbfuzz/pkg/report"
	"github.com/gbfuzz/gbfuzz/pkg/schedule"
	"github.com/gbfuzz/gbfuzz/pkg/stat"
)

// Target is the instrumented program under test.
type Target struct {
	Oracle     cover.Func
	Classifier report.Classifier
	// Graph, Loc and Distances are set only for targets with a call graph.
	Graph     *callgraph.Graph
	Loc       cover.Loc // location the distances are measured to
	Distances callgraph.Distances
}

func (cfg *Config) BuildTarget() (*Target, error) {
	switch cfg.Target {
	case TargetMaze:
		m := cfg.MazeDef
		g := m.CallGraph()
		loc, err := g.FindTarget(cfg.TargetLoc)
		if err != nil {
			return nil, fmt.Errorf("bad config param target_loc: %w", err)
		}
		dist, err := g.Distances(loc)
		if err != nil {
			return nil, err
		}
		log.Logf(0, "campaign %v: directing towards %v", cfg.Name, loc)
		return &Target{
			Oracle:     m.Oracle(),
			Classifier: report.Maze(m),
			Graph:      g,
			Loc:        loc,
			Distances:  dist,
		}, nil
	case TargetJSON:
		return &Target{
			Oracle:     jsonload.Oracle(),
			Classifier: report.JSON(),
		}, nil
	}
	return nil, fmt.Errorf("unknown target %q", cfg.Target)
}

// InitialSeeds collects the configured seeds, the seeds of the corpus database
// and, for JSON campaigns without explicit seeds, a seed generated from the JSON grammar.
func (cfg *Config) InitialSeeds(r *rand.Rand) ([]string, error) {
	seeds := append([]string(nil), cfg.Seeds...)
	loaded, err := db.ReadInputs(cfg.Corpus)
	if err != nil {
		return nil, err
	}
	seeds = append(seeds, loaded...)
	if cfg.Target == TargetJSON && len(seeds) == 0 {
		seed, err := grammar.Biggest(r, grammar.JSON, cfg.GrammarAttempts, cfg.GrammarNonterminals, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to generate JSON seed: %w", err)
		}
		log.Logf(0, "generated JSON seed %q", seed)
		seeds = append(seeds, seed)
	}
	if len(seeds) == 0 {
		return nil, fuzzer.ErrNoSeeds
	}
	return seeds, nil
}

// Instance is one configured fuzzer of the campaign.
type Instance struct {
	Name   string
	Fuzzer *fuzzer.Fuzzer
	Stats  *stat.Set
}

// Build creates the fuzzer instances. Every instance gets its own mutator, schedule,
// random source and metric set, so instances can run concurrently.
func (cfg *Config) Build(target *Target, seeds []string) ([]*Instance, error) {
	if cfg.RandomSeed == 0 {
		cfg.RandomSeed = time.Now().UnixNano()
	}
	log.Logf(0, "campaign %v: random seed %v", cfg.Name, cfg.RandomSeed)
	var res []*Instance
	for i, fcfg := range cfg.Fuzzers {
		mut, err := mutator.NewString(cfg.Alphabet)
		if err != nil {
			return nil, err
		}
		sched, err := makeSchedule(fcfg, target)
		if err != nil {
			return nil, fmt.Errorf("fuzzer %v: %w", fcfg.Name, err)
		}
		stats := stat.NewSet(fcfg.Name, map[string]string{"fuzzer": fcfg.Name})
		fz, err := fuzzer.NewFuzzer(&fuzzer.Config{
			Name:     fcfg.Name,
			Seeds:    seeds,
			Mutator:  mut,
			Schedule: sched,
			Oracle:   target.Oracle,
			Mode:     cfg.Modes[i],
			MaxStack: fcfg.MaxStack,
			Logf:     log.Prefixed(fcfg.Name),
			Stats:    stats,
		}, rand.New(rand.NewSource(cfg.RandomSeed+int64(i))))
		if err != nil {
			return nil, err
		}
		res = append(res, &Instance{
			Name:   fcfg.Name,
			Fuzzer: fz,
			Stats:  stats,
		})
	}
	return res, nil
}

func makeSchedule(fcfg FuzzerConfig, target *Target) (schedule.Schedule, error) {
	switch fcfg.Schedule {
	case ScheduleUniform:
		return schedule.Uniform{}, nil
	case ScheduleAFLFast:
		return schedule.NewAFLFast(fcfg.Exponent)
	case ScheduleDirected:
		return schedule.NewDirected(target.Distances, fcfg.Exponent)
	case ScheduleAFLGo:
		return schedule.NewAFLGo(target.Distances)
	}
	return nil, fmt.Errorf("unknown schedule %q", fcfg.Schedule)
}
