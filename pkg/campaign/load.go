// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package campaign describes a fuzzing campaign: the target, the initial seeds
// and the set of fuzzer instances to run against it.
package campaign

import (
	"fmt"
	"math"

	"github.com/gbfuzz/gbfuzz/pkg/config"
	"github.com/gbfuzz/gbfuzz/pkg/fuzzer"
	"github.com/gbfuzz/gbfuzz/pkg/grammar"
	"github.com/gbfuzz/gbfuzz/pkg/maze"
	"github.com/gbfuzz/gbfuzz/pkg/osutil"
)

const (
	TargetMaze = "maze"
	TargetJSON = "json"

	ScheduleUniform  = "uniform"
	ScheduleAFLFast  = "aflfast"
	ScheduleDirected = "directed"
	ScheduleAFLGo    = "aflgo"
)

type Derived struct {
	// Parsed fuzzer modes, parallel to Fuzzers.
	Modes []fuzzer.Mode
	// Parsed maze for the maze target.
	MazeDef *maze.Maze
}

func LoadData(data []byte) (*Config, error) {
	cfg := defaultValues()
	if err := config.LoadData(data, cfg); err != nil {
		return nil, err
	}
	if err := Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFile(filename string) (*Config, error) {
	cfg := defaultValues()
	if err := config.LoadFile(filename, cfg); err != nil {
		return nil, err
	}
	if err := Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultValues() *Config {
	return &Config{
		Name:                "gbfuzz",
		Target:              TargetMaze,
		Trials:              10000,
		GrammarAttempts:     50,
		GrammarNonterminals: 15,
	}
}

// Default returns the maze campaign comparing all fuzzer flavours.
func Default() *Config {
	cfg := defaultValues()
	cfg.Fuzzers = []FuzzerConfig{
		{Name: "blackbox", Mode: "blackbox", Schedule: ScheduleUniform},
		{Name: "greybox", Mode: "greybox", Schedule: ScheduleUniform},
		{Name: "counting-aflfast", Mode: "counting", Schedule: ScheduleAFLFast, Exponent: 0.5},
		{Name: "directed", Mode: "greybox", Schedule: ScheduleDirected, Exponent: 5},
	}
	if err := Complete(cfg); err != nil {
		panic(err)
	}
	return cfg
}

func Complete(cfg *Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("config param name is empty")
	}
	switch cfg.Target {
	case TargetMaze:
		text := cfg.Maze
		if text == "" {
			text = maze.Default
		}
		m, err := maze.Parse(text)
		if err != nil {
			return fmt.Errorf("bad config param maze: %w", err)
		}
		cfg.MazeDef = m
		if cfg.TargetLoc == "" {
			cfg.TargetLoc = string(m.TargetTile())
		}
		if cfg.Alphabet == "" {
			cfg.Alphabet = "UDLR"
		}
		if len(cfg.Seeds) == 0 && cfg.Corpus == "" {
			cfg.Seeds = []string{" "}
		}
	case TargetJSON:
		if cfg.Maze != "" {
			return fmt.Errorf("config param maze is set for %v target", cfg.Target)
		}
		if cfg.TargetLoc != "" {
			return fmt.Errorf("config param target_loc is set for %v target", cfg.Target)
		}
		if cfg.Alphabet == "" {
			cfg.Alphabet = grammar.Charset
		}
	default:
		return fmt.Errorf("config param target must be one of %v/%v, got %q", TargetMaze, TargetJSON, cfg.Target)
	}
	if cfg.Trials < 0 {
		return fmt.Errorf("bad config param trials: %v", cfg.Trials)
	}
	if cfg.GrammarAttempts <= 0 {
		return fmt.Errorf("bad config param grammar_attempts: %v", cfg.GrammarAttempts)
	}
	if cfg.GrammarNonterminals <= 0 {
		return fmt.Errorf("bad config param grammar_nonterminals: %v", cfg.GrammarNonterminals)
	}
	if cfg.Corpus != "" {
		cfg.Corpus = osutil.Abs(cfg.Corpus)
	}
	if cfg.Workdir != "" {
		cfg.Workdir = osutil.Abs(cfg.Workdir)
	}
	if len(cfg.Fuzzers) == 0 {
		return fmt.Errorf("config param fuzzers is empty")
	}
	cfg.Modes = nil
	names := make(map[string]bool)
	for i := range cfg.Fuzzers {
		fcfg := &cfg.Fuzzers[i]
		if fcfg.Name == "" {
			return fmt.Errorf("fuzzer #%v has no name", i)
		}
		if names[fcfg.Name] {
			return fmt.Errorf("duplicate fuzzer name %q", fcfg.Name)
		}
		names[fcfg.Name] = true
		mode, err := fuzzer.ParseMode(fcfg.Mode)
		if err != nil {
			return fmt.Errorf("fuzzer %v: %w", fcfg.Name, err)
		}
		cfg.Modes = append(cfg.Modes, mode)
		if err := checkSchedule(cfg, fcfg, mode); err != nil {
			return fmt.Errorf("fuzzer %v: %w", fcfg.Name, err)
		}
		if fcfg.MaxStack < 0 {
			return fmt.Errorf("fuzzer %v: bad max_stack %v", fcfg.Name, fcfg.MaxStack)
		}
	}
	return nil
}

func checkSchedule(cfg *Config, fcfg *FuzzerConfig, mode fuzzer.Mode) error {
	switch fcfg.Schedule {
	case ScheduleUniform:
	case ScheduleAFLFast:
		if mode != fuzzer.CountingGreybox {
			return fmt.Errorf("schedule %v requires counting mode", fcfg.Schedule)
		}
	case ScheduleDirected, ScheduleAFLGo:
		if cfg.Target != TargetMaze {
			return fmt.Errorf("schedule %v needs a call graph, only the maze target has one", fcfg.Schedule)
		}
	default:
		return fmt.Errorf("unknown schedule %q", fcfg.Schedule)
	}
	switch fcfg.Schedule {
	case ScheduleAFLFast, ScheduleDirected:
		if fcfg.Exponent == 0 {
			fcfg.Exponent = defaultExponent(fcfg.Schedule)
		}
		if fcfg.Exponent < 0 || math.IsNaN(fcfg.Exponent) || math.IsInf(fcfg.Exponent, 0) {
			return fmt.Errorf("bad exponent %v", fcfg.Exponent)
		}
	default:
		if fcfg.Exponent != 0 {
			return fmt.Errorf("schedule %v has no exponent", fcfg.Schedule)
		}
	}
	return nil
}

func defaultExponent(schedule string) float64 {
	if schedule == ScheduleAFLFast {
		return 0.5
	}
	return 5
}
