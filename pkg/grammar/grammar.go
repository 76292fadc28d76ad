// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package grammar generates seed inputs by random expansion of a context-free grammar.
package grammar

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
)

// Grammar maps a nonterminal (e.g. "<value>") to its alternative expansions.
type Grammar map[string][]string

const StartSymbol = "<start>"

var ErrExpansionExhausted = errors.New("cannot expand")

var nonterminalRe = regexp.MustCompile(`(<[^<> ]*>)`)

// Nonterminals returns the nonterminals of the expansion in order of appearance.
func Nonterminals(expansion string) []string {
	return nonterminalRe.FindAllString(expansion, -1)
}

// Validate checks that every referenced nonterminal is defined and has expansions.
func (g Grammar) Validate(start string) error {
	if _, ok := g[start]; !ok {
		return fmt.Errorf("start symbol %v is not defined", start)
	}
	var errs []error
	for _, sym := range g.Symbols() {
		if len(g[sym]) == 0 {
			errs = append(errs, fmt.Errorf("%v has no expansions", sym))
		}
		for _, expansion := range g[sym] {
			for _, nt := range Nonterminals(expansion) {
				if _, ok := g[nt]; !ok {
					errs = append(errs, fmt.Errorf("%v refers to undefined %v", sym, nt))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Symbols returns the defined nonterminals in sorted order.
func (g Grammar) Symbols() []string {
	var res []string
	for sym := range g {
		res = append(res, sym)
	}
	sort.Strings(res)
	return res
}

// SimpleFuzzer expands start by repeatedly replacing a random nonterminal with a random expansion.
// A replacement is accepted only if the new term has fewer than maxNonterminals nonterminals.
// After maxExpansionTrials consecutive rejected replacements it gives up with ErrExpansionExhausted.
// With maxNonterminals=1 only replacements that leave no nonterminals at all are accepted.
func SimpleFuzzer(r *rand.Rand, g Grammar, start string, maxNonterminals, maxExpansionTrials int) (string, error) {
	term := start
	trials := 0
	for {
		nts := Nonterminals(term)
		if len(nts) == 0 {
			return term, nil
		}
		sym := nts[r.Intn(len(nts))]
		expansions := g[sym]
		if len(expansions) == 0 {
			return "", fmt.Errorf("no expansions for %v in %q", sym, term)
		}
		expansion := expansions[r.Intn(len(expansions))]
		newTerm := strings.Replace(term, sym, expansion, 1)
		if len(Nonterminals(newTerm)) < maxNonterminals {
			term = newTerm
			trials = 0
			continue
		}
		trials++
		if trials >= maxExpansionTrials {
			return "", fmt.Errorf("%w %q", ErrExpansionExhausted, term)
		}
	}
}

// DefaultExpansionTrials is the default limit of consecutive rejected expansions.
const DefaultExpansionTrials = 100

// Biggest returns the longest of attempts successful expansions of the start symbol.
// Failed expansions (exhausted or hitting an undefined symbol produced by terminals that
// look like nonterminals) are retried and don't count as attempts, maxFailures bounds them
// (0 means attempts*DefaultExpansionTrials).
func Biggest(r *rand.Rand, g Grammar, attempts, maxNonterminals, maxFailures int) (string, error) {
	if attempts <= 0 {
		return "", fmt.Errorf("bad number of attempts %v", attempts)
	}
	if maxFailures == 0 {
		maxFailures = attempts * DefaultExpansionTrials
	}
	biggest, done, failures := "", 0, 0
	for done < attempts {
		res, err := SimpleFuzzer(r, g, StartSymbol, maxNonterminals, DefaultExpansionTrials)
		if err != nil {
			if failures++; failures >= maxFailures {
				return "", fmt.Errorf("%v failed expansions: %w", failures, err)
			}
			continue
		}
		if done == 0 || len(res) > len(biggest) {
			biggest = res
		}
		done++
	}
	return biggest, nil
}
