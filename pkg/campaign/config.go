// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package campaign

type Config struct {
	// Campaign name (used in logs, metric labels and db file names).
	Name string `json:"name"`
	// Target under test: "maze" or "json".
	Target string `json:"target"`
	// Maze drawing for the maze target (the built-in maze is used if empty).
	Maze string `json:"maze,omitempty"`
	// Marker of the call graph location directed schedules steer towards. The first location
	// (in sorted order) containing the marker is the target. The maze's '#' tile by default.
	TargetLoc string `json:"target_loc,omitempty"`
	// Mutation alphabet ("UDLR" for maze, the JSON grammar charset for json by default).
	Alphabet string `json:"alphabet,omitempty"`
	// Initial seeds. If empty, maze campaigns start from " " and json campaigns
	// start from the biggest of grammar_attempts random JSON grammar expansions.
	Seeds []string `json:"seeds,omitempty"`
	// Population database (as written by a previous run) to load additional initial seeds from.
	Corpus string `json:"corpus,omitempty"`
	// Number of successful grammar expansions to pick the JSON seed from (50 by default).
	GrammarAttempts int `json:"grammar_attempts,omitempty"`
	// Nonterminal limit of grammar expansions (15 by default).
	GrammarNonterminals int `json:"grammar_nonterminals,omitempty"`
	// Number of fuzzing trials for every fuzzer.
	Trials int `json:"trials"`
	// Random seed, fuzzer i uses random_seed+i. 0 means a time-based seed.
	RandomSeed int64 `json:"random_seed,omitempty"`
	// Address to serve the status page and metrics on (e.g. "localhost:56741"), optional.
	HTTP string `json:"http,omitempty"`
	// Directory for the population databases. Populations are not saved if empty.
	Workdir string `json:"workdir,omitempty"`
	// Print one line per seed in the final report.
	ReportSeeds bool `json:"report_seeds,omitempty"`
	// Fuzzer instances, all run concurrently over their own populations.
	Fuzzers []FuzzerConfig `json:"fuzzers"`

	// Implementation details beyond this point. Filled after parsing.
	Derived `json:"-"`
}

type FuzzerConfig struct {
	Name string `json:"name"`
	// Retention policy: "blackbox", "greybox" or "counting".
	Mode string `json:"mode"`
	// Power schedule: "uniform", "aflfast" (requires counting mode), "directed" or "aflgo".
	Schedule string `json:"schedule"`
	// Exponent of the aflfast and directed schedules.
	Exponent float64 `json:"exponent,omitempty"`
	// Upper bound on stacked mutations per trial (1 disables stacking).
	MaxStack int `json:"max_stack,omitempty"`
}
