// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// gbfuzz-db converts population databases to and from directories with one input per file,
// prints and compares them. A packed directory can be used as the corpus of a campaign.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gbfuzz/gbfuzz/pkg/corpus"
	"github.com/gbfuzz/gbfuzz/pkg/db"
	"github.com/gbfuzz/gbfuzz/pkg/hash"
	"github.com/gbfuzz/gbfuzz/pkg/osutil"
	"github.com/gbfuzz/gbfuzz/pkg/tool"
	dmp "github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"
)

func main() {
	var (
		flagVersion = flag.Uint64("version", 0, "database version")
		flagYAML    = flag.Bool("yaml", false, "print full seed records as YAML")
	)
	tool.Init()
	args := flag.Args()
	switch {
	case len(args) == 3 && args[0] == "pack":
		pack(args[1], args[2], *flagVersion)
	case len(args) == 3 && args[0] == "unpack":
		unpack(args[1], args[2])
	case len(args) == 2 && args[0] == "print":
		printDB(args[1], *flagYAML)
	case len(args) == 3 && args[0] == "diff":
		diff(args[1], args[2])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  gbfuzz-db pack dir population.db\n")
	fmt.Fprintf(os.Stderr, "  gbfuzz-db unpack population.db dir\n")
	fmt.Fprintf(os.Stderr, "  gbfuzz-db [-yaml] print population.db\n")
	fmt.Fprintf(os.Stderr, "  gbfuzz-db diff old.db new.db\n")
	os.Exit(1)
}

func pack(dir, file string, version uint64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		tool.Failf("failed to read dir: %v", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	var seeds []*corpus.Seed
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			tool.Failf("failed to read file %v: %v", entry.Name(), err)
		}
		seeds = append(seeds, corpus.NewSeed(string(data), nil, corpus.Pass, -1))
	}
	if err := db.SavePopulation(file, version, seeds); err != nil {
		tool.Fail(err)
	}
}

func unpack(file, dir string) {
	seeds, err := db.ReadSeeds(file)
	if err != nil {
		tool.Fail(err)
	}
	if err := osutil.MkdirAll(dir); err != nil {
		tool.Failf("failed to create dir: %v", err)
	}
	for i, seed := range seeds {
		fname := filepath.Join(dir, fmt.Sprintf("%04d-%v", i, hash.String([]byte(seed.Data))))
		if err := osutil.WriteFile(fname, []byte(seed.Data)); err != nil {
			tool.Failf("failed to output file: %v", err)
		}
	}
}

func printDB(file string, asYAML bool) {
	seeds, err := db.ReadSeeds(file)
	if err != nil {
		tool.Fail(err)
	}
	if !asYAML {
		for _, seed := range seeds {
			fmt.Printf("%v\ttrial %v\tfuzzed %v\n", seed, seed.Trial, seed.Fuzzed)
		}
		return
	}
	var records []*db.SeedRecord
	for _, seed := range seeds {
		records = append(records, db.NewSeedRecord(seed))
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		tool.Fail(err)
	}
	if err := enc.Close(); err != nil {
		tool.Fail(err)
	}
}

// diff prints a line diff of the (quoted) inputs of two populations.
func diff(oldFile, newFile string) {
	oldText, newText := inputLines(oldFile), inputLines(newFile)
	differ := dmp.New()
	oldChars, newChars, lines := differ.DiffLinesToChars(oldText, newText)
	diffs := differ.DiffCharsToLines(differ.DiffMain(oldChars, newChars, false), lines)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case dmp.DiffInsert:
			prefix = "+"
		case dmp.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				fmt.Print(prefix + line)
			}
		}
	}
}

func inputLines(file string) string {
	seeds, err := db.ReadSeeds(file)
	if err != nil {
		tool.Fail(err)
	}
	buf := new(strings.Builder)
	for _, seed := range seeds {
		fmt.Fprintf(buf, "%q\n", seed.Data)
	}
	return buf.String()
}
