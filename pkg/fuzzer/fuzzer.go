// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package fuzzer implements the mutation fuzzing engine: it repeatedly selects a seed from the
// population with a power schedule, mutates it, executes the target under a coverage probe,
// classifies the outcome and decides whether the candidate joins the population.
package fuzzer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/gbfuzz/gbfuzz/pkg/corpus"
	"github.com/gbfuzz/gbfuzz/pkg/cover"
	"github.com/gbfuzz/gbfuzz/pkg/mutator"
	"github.com/gbfuzz/gbfuzz/pkg/schedule"
	"github.com/gbfuzz/gbfuzz/pkg/stat"
)

var ErrNoSeeds = errors.New("fuzzer needs at least one initial seed")

// Mode selects the retention policy of the engine.
type Mode int

const (
	// BlackBox retains a candidate only if its exact coverage set was never observed in this run.
	BlackBox Mode = iota
	// Greybox retains every candidate.
	Greybox
	// CountingGreybox retains every candidate and feeds path frequencies to the schedule.
	CountingGreybox
)

var modeNames = map[Mode]string{
	BlackBox:        "blackbox",
	Greybox:         "greybox",
	CountingGreybox: "counting",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown fuzzer mode %q", name)
}

// DefaultMaxStack is the upper bound on the number of mutations stacked in one trial.
const DefaultMaxStack = 1 << 5

type Config struct {
	Name     string
	Seeds    []string
	Mutator  mutator.Mutator
	Schedule schedule.Schedule
	Oracle   cover.Func
	Mode     Mode
	// MaxStack limits mutation stacking, 0 means DefaultMaxStack and 1 disables stacking.
	MaxStack int
	Logf     func(level int, msg string, args ...any)
	// Stats receives engine and population metrics, nil means a private set.
	Stats *stat.Set
}

type Fuzzer struct {
	Stats
	Config *Config
	Cover  *Cover

	mu         sync.Mutex
	rnd        *rand.Rand
	pop        *corpus.Population
	trials     int
	bootstrapd bool
}

func NewFuzzer(cfg *Config, rnd *rand.Rand) (*Fuzzer, error) {
	if len(cfg.Seeds) == 0 {
		return nil, ErrNoSeeds
	}
	if cfg.Mutator == nil {
		return nil, fmt.Errorf("fuzzer %q: no mutator", cfg.Name)
	}
	if cfg.Schedule == nil {
		return nil, fmt.Errorf("fuzzer %q: no schedule", cfg.Name)
	}
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("fuzzer %q: no oracle", cfg.Name)
	}
	if _, ok := modeNames[cfg.Mode]; !ok {
		return nil, fmt.Errorf("fuzzer %q: bad mode %v", cfg.Name, cfg.Mode)
	}
	if cfg.MaxStack < 0 {
		return nil, fmt.Errorf("fuzzer %q: negative max stack %v", cfg.Name, cfg.MaxStack)
	}
	if cfg.MaxStack == 0 {
		cfg.MaxStack = DefaultMaxStack
	}
	if cfg.Stats == nil {
		cfg.Stats = stat.NewSet("", nil)
	}
	fuzzer := &Fuzzer{
		Stats:  newStats(cfg.Stats),
		Config: cfg,
		Cover:  newCover(),
		rnd:    rnd,
		pop:    corpus.NewPopulation(cfg.Stats),
	}
	if consumer, ok := cfg.Schedule.(schedule.FrequencyConsumer); ok {
		if cfg.Mode != CountingGreybox {
			return nil, fmt.Errorf("fuzzer %q: schedule %v requires %v mode",
				cfg.Name, cfg.Schedule.Name(), CountingGreybox)
		}
		consumer.UsePathFrequency(fuzzer.Cover)
	}
	return fuzzer, nil
}

// Population returns the population of the run in discovery order.
func (fuzzer *Fuzzer) Population() *corpus.Population {
	return fuzzer.pop
}

// Trials returns the number of completed trials (initial seeds are not counted).
func (fuzzer *Fuzzer) Trials() int {
	return fuzzer.statTrials.Val()
}

// Run executes the initial seeds (on the first call) and then exactly trials fuzzing trials.
// It stops early only if ctx is cancelled, in which case ctx.Err() is returned.
// Failing or crashing inputs never terminate the run.
func (fuzzer *Fuzzer) Run(ctx context.Context, trials int) error {
	fuzzer.mu.Lock()
	defer fuzzer.mu.Unlock()
	if !fuzzer.bootstrapd {
		fuzzer.bootstrap()
		fuzzer.bootstrapd = true
	}
	progress := max(trials/10, 1)
	for i := 0; i < trials; i++ {
		select {
		case <-ctx.Done():
			fuzzer.Logf(0, "stopped after %v trials: %v", i, ctx.Err())
			return ctx.Err()
		default:
		}
		fuzzer.trial()
		if (i+1)%progress == 0 {
			fuzzer.Logf(1, "%v/%v trials, population %v, coverage %v, paths %v",
				i+1, trials, fuzzer.pop.Len(), fuzzer.pop.StatCover.Val(), fuzzer.Cover.Paths())
		}
	}
	return nil
}

func (fuzzer *Fuzzer) bootstrap() {
	for _, data := range fuzzer.Config.Seeds {
		seed := fuzzer.execute(data, -1)
		fuzzer.Cover.addPath(seed)
		fuzzer.save(seed)
	}
	fuzzer.Logf(1, "bootstrapped %v seeds, coverage %v", len(fuzzer.Config.Seeds), fuzzer.pop.StatCover.Val())
}

func (fuzzer *Fuzzer) trial() {
	parent := schedule.Choose(fuzzer.Config.Schedule, fuzzer.rnd, fuzzer.pop.Seeds())
	data := fuzzer.mutate(parent.Data)
	seed := fuzzer.execute(data, fuzzer.trials)
	fuzzer.trials++
	fuzzer.statTrials.Add(1)
	fresh := fuzzer.Cover.addPath(seed)
	if fresh {
		fuzzer.statNewPaths.Add(1)
	}
	if fuzzer.retain(fresh) {
		fuzzer.save(seed)
	}
}

// retain decides whether a candidate joins the population.
func (fuzzer *Fuzzer) retain(freshPath bool) bool {
	switch fuzzer.Config.Mode {
	case BlackBox:
		return freshPath
	case Greybox, CountingGreybox:
		return true
	}
	panic(fmt.Sprintf("unknown mode %v", fuzzer.Config.Mode))
}

func (fuzzer *Fuzzer) save(seed *corpus.Seed) {
	newLocs := fuzzer.pop.Save(seed)
	if len(newLocs) != 0 {
		fuzzer.Logf(2, "new coverage %v from %v", newLocs, seed)
	}
}

// mutate applies a stack of 1..min(len, 2^k) mutations with k uniform in [1, 5].
func (fuzzer *Fuzzer) mutate(data string) string {
	n := min(len(data), 1<<(1+fuzzer.rnd.Intn(5)), fuzzer.Config.MaxStack)
	n = max(n, 1)
	for i := 0; i < n; i++ {
		data = fuzzer.Config.Mutator.Mutate(fuzzer.rnd, data)
	}
	fuzzer.statInputLen.Add(len(data))
	return data
}

func (fuzzer *Fuzzer) execute(data string, trial int) *corpus.Seed {
	res := cover.Probe(fuzzer.Config.Oracle, data)
	fuzzer.statExecTotal.Add(1)
	fuzzer.statExecTime.Add(int(res.Elapsed.Microseconds()))
	outcome := corpus.Pass
	switch {
	case res.Crashed():
		outcome = corpus.Crash
		fuzzer.statExecCrash.Add(1)
		fuzzer.Logf(1, "input %q crashed the target: %v\n%s", data, res.Panic, res.Stack)
	case res.Err != nil:
		outcome = corpus.Fail
		fuzzer.statExecFail.Add(1)
		fuzzer.Logf(3, "input %q failed: %v", data, res.Err)
	default:
		fuzzer.statExecPass.Add(1)
	}
	return corpus.NewSeed(data, res.Cover, outcome, trial)
}

func (fuzzer *Fuzzer) Logf(level int, msg string, args ...any) {
	if fuzzer.Config.Logf == nil {
		return
	}
	fuzzer.Config.Logf(level, msg, args...)
}
