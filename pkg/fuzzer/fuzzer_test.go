// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzzer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/gbfuzz/gbfuzz/pkg/corpus"
	"github.com/gbfuzz/gbfuzz/pkg/cover"
	"github.com/gbfuzz/gbfuzz/pkg/mutator"
	"github.com/gbfuzz/gbfuzz/pkg/schedule"
	"github.com/gbfuzz/gbfuzz/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// charOracle covers one location per distinct character and rejects inputs containing "LL".
func charOracle(tr *cover.Tracer, input string) error {
	for _, c := range input {
		tr.Hit(cover.Loc(fmt.Sprintf("char_%c", c)))
	}
	if strings.Contains(input, "LL") {
		return errors.New("two lefts")
	}
	return nil
}

func newTestFuzzer(t *testing.T, mode Mode, sched schedule.Schedule, oracle cover.Func) *Fuzzer {
	mut, err := mutator.NewString("UDLR")
	require.NoError(t, err)
	fuzzer, err := NewFuzzer(&Config{
		Name:     t.Name(),
		Seeds:    []string{" "},
		Mutator:  mut,
		Schedule: sched,
		Oracle:   oracle,
		Mode:     mode,
		Logf: func(level int, msg string, args ...any) {
			if level > 1 {
				return
			}
			t.Logf(msg, args...)
		},
	}, testutil.Rand(t))
	require.NoError(t, err)
	return fuzzer
}

func TestNewFuzzerErrors(t *testing.T) {
	mut, err := mutator.NewString("UDLR")
	require.NoError(t, err)
	fast, err := schedule.NewAFLFast(0.5)
	require.NoError(t, err)
	valid := func() *Config {
		return &Config{
			Seeds:    []string{" "},
			Mutator:  mut,
			Schedule: schedule.Uniform{},
			Oracle:   charOracle,
		}
	}
	r := testutil.Rand(t)
	_, err = NewFuzzer(valid(), r)
	require.NoError(t, err)

	cfg := valid()
	cfg.Seeds = nil
	_, err = NewFuzzer(cfg, r)
	assert.ErrorIs(t, err, ErrNoSeeds)

	for name, mod := range map[string]func(*Config){
		"no mutator":  func(cfg *Config) { cfg.Mutator = nil },
		"no schedule": func(cfg *Config) { cfg.Schedule = nil },
		"no oracle":   func(cfg *Config) { cfg.Oracle = nil },
		"bad mode":    func(cfg *Config) { cfg.Mode = Mode(42) },
		"bad stack":   func(cfg *Config) { cfg.MaxStack = -1 },
		"fast greybox": func(cfg *Config) {
			cfg.Schedule = fast
			cfg.Mode = Greybox
		},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mod(cfg)
			_, err := NewFuzzer(cfg, r)
			assert.Error(t, err)
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, mode := range []Mode{BlackBox, Greybox, CountingGreybox} {
		got, err := ParseMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := ParseMode("whitebox")
	assert.Error(t, err)
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

func TestGreyboxRetainsAll(t *testing.T) {
	fuzzer := newTestFuzzer(t, Greybox, schedule.Uniform{}, charOracle)
	const trials = 300
	require.NoError(t, fuzzer.Run(context.Background(), trials))
	seeds := fuzzer.Population().Seeds()
	assert.Len(t, seeds, trials+1)
	assert.Equal(t, " ", seeds[0].Data)
	assert.Equal(t, -1, seeds[0].Trial)
	for i, seed := range seeds[1:] {
		assert.Equal(t, i, seed.Trial)
	}
	assert.Equal(t, trials, fuzzer.Trials())
	assert.Equal(t, trials+1, fuzzer.statExecTotal.Val())
	assert.Equal(t, trials+1, fuzzer.statExecPass.Val()+fuzzer.statExecFail.Val()+fuzzer.statExecCrash.Val())
}

func TestBlackBoxRetainsNovelPaths(t *testing.T) {
	fuzzer := newTestFuzzer(t, BlackBox, schedule.Uniform{}, charOracle)
	const trials = 500
	require.NoError(t, fuzzer.Run(context.Background(), trials))
	seeds := fuzzer.Population().Seeds()
	assert.LessOrEqual(t, len(seeds), trials+1)
	// Coverage is a subset of 5 characters.
	assert.LessOrEqual(t, len(seeds), 1<<5)
	sigs := make(map[string]bool)
	for _, seed := range seeds {
		assert.False(t, sigs[seed.Sig], "duplicate path %v", seed)
		sigs[seed.Sig] = true
	}
	assert.Equal(t, len(seeds), fuzzer.Cover.Paths())
}

func TestCountingPathFrequency(t *testing.T) {
	sched, err := schedule.NewAFLFast(0.5)
	require.NoError(t, err)
	fuzzer := newTestFuzzer(t, CountingGreybox, sched, charOracle)
	const trials = 200
	require.NoError(t, fuzzer.Run(context.Background(), trials))
	seeds := fuzzer.Population().Seeds()
	require.Len(t, seeds, trials+1)
	total := 0
	counted := make(map[string]bool)
	for _, seed := range seeds {
		if counted[seed.Sig] {
			continue
		}
		counted[seed.Sig] = true
		total += fuzzer.Cover.PathFrequency(seed.Sig)
	}
	assert.Equal(t, trials+1, total)
	hot := fuzzer.Cover.HotLocs()
	require.NotEmpty(t, hot)
	for i, loc := range hot {
		assert.Equal(t, fuzzer.Cover.Hits(loc.Loc), loc.Hits)
		assert.LessOrEqual(t, loc.Hits, trials+1)
		if i != 0 {
			assert.GreaterOrEqual(t, hot[i-1].Hits, loc.Hits)
		}
	}
}

func TestCrashContained(t *testing.T) {
	oracle := func(tr *cover.Tracer, input string) error {
		tr.Hit("entry")
		if strings.Contains(input, "D") {
			panic("D is not allowed")
		}
		return charOracle(tr, input)
	}
	fuzzer := newTestFuzzer(t, Greybox, schedule.Uniform{}, oracle)
	fuzzer.Config.Logf = nil
	const trials = 200
	require.NoError(t, fuzzer.Run(context.Background(), trials))
	seeds := fuzzer.Population().Seeds()
	assert.Len(t, seeds, trials+1)
	crashes := 0
	for _, seed := range seeds {
		if seed.Outcome == corpus.Crash {
			crashes++
			assert.True(t, seed.Cover.Contains("entry"))
			assert.Contains(t, seed.Data, "D")
		}
	}
	assert.Positive(t, crashes)
	assert.Equal(t, crashes, fuzzer.statExecCrash.Val())
}

func TestRunCancelled(t *testing.T) {
	fuzzer := newTestFuzzer(t, Greybox, schedule.Uniform{}, charOracle)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := fuzzer.Run(ctx, 100)
	assert.ErrorIs(t, err, context.Canceled)
	// Initial seeds are still executed.
	assert.Equal(t, 1, fuzzer.Population().Len())
	assert.Equal(t, 0, fuzzer.Trials())
}

func TestRunResumes(t *testing.T) {
	fuzzer := newTestFuzzer(t, Greybox, schedule.Uniform{}, charOracle)
	require.NoError(t, fuzzer.Run(context.Background(), 10))
	require.NoError(t, fuzzer.Run(context.Background(), 15))
	assert.Equal(t, 26, fuzzer.Population().Len())
	assert.Equal(t, 25, fuzzer.Trials())
}

func TestMutateStacking(t *testing.T) {
	fuzzer := newTestFuzzer(t, Greybox, schedule.Uniform{}, charOracle)
	fuzzer.Config.MaxStack = 1
	for i := 0; i < 100; i++ {
		assert.Len(t, fuzzer.mutate(""), 1)
		res := fuzzer.mutate("UDLR")
		assert.Contains(t, []int{3, 5}, len(res), "%q", res)
	}
	fuzzer.Config.MaxStack = DefaultMaxStack
	input := strings.Repeat("U", 100)
	for i := 0; i < 100; i++ {
		res := fuzzer.mutate(input)
		assert.LessOrEqual(t, len(res), len(input)+DefaultMaxStack)
		assert.GreaterOrEqual(t, len(res), len(input)-DefaultMaxStack)
	}
}

func TestDeterministic(t *testing.T) {
	rseed := testutil.Rand(t).Int63()
	run := func() []string {
		mut, err := mutator.NewString("UDLR")
		require.NoError(t, err)
		fuzzer, err := NewFuzzer(&Config{
			Seeds:    []string{" "},
			Mutator:  mut,
			Schedule: schedule.Uniform{},
			Oracle:   charOracle,
			Mode:     Greybox,
		}, rand.New(rand.NewSource(rseed)))
		require.NoError(t, err)
		require.NoError(t, fuzzer.Run(context.Background(), 50))
		var res []string
		for _, seed := range fuzzer.Population().Seeds() {
			res = append(res, seed.Data)
		}
		return res
	}
	assert.Equal(t, run(), run())
}
