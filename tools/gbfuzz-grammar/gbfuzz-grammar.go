// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// gbfuzz-grammar generates JSON inputs from the JSON grammar.
// By default it prints the biggest of -attempts expansions, as used to seed JSON campaigns.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/gbfuzz/gbfuzz/pkg/grammar"
	"github.com/gbfuzz/gbfuzz/pkg/jsonload"
	"github.com/gbfuzz/gbfuzz/pkg/tool"
)

func main() {
	var (
		flagAttempts        = flag.Int("attempts", 50, "number of successful expansions to pick from")
		flagNonterminals    = flag.Int("max_nonterminals", 15, "nonterminal limit of a term")
		flagExpansionTrials = flag.Int("max_expansion_trials", grammar.DefaultExpansionTrials,
			"consecutive rejected expansions before giving up")
		flagCount = flag.Int("count", 1, "number of inputs to generate")
		flagAll   = flag.Bool("all", false, "print every expansion instead of the biggest one")
		flagSeed  = flag.Int64("seed", 0, "random seed (time-based if 0)")
		flagCheck = flag.Bool("check", false, "print the loader status of every input")
	)
	tool.Init()
	seed := *flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	for i := 0; i < *flagCount; i++ {
		var res string
		var err error
		if *flagAll {
			res, err = grammar.SimpleFuzzer(r, grammar.JSON, grammar.StartSymbol,
				*flagNonterminals, *flagExpansionTrials)
		} else {
			res, err = grammar.Biggest(r, grammar.JSON, *flagAttempts, *flagNonterminals, 0)
		}
		if err != nil {
			tool.Fail(err)
		}
		if *flagCheck {
			status, err := jsonload.Classify(res)
			fmt.Printf("%v\t%v\t%v\n", status, res, err)
			continue
		}
		fmt.Println(res)
	}
}
