// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// gbfuzz-runner runs a fuzzing campaign: all configured fuzzers concurrently against
// the campaign target, then prints a per-fuzzer report and saves the populations.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gbfuzz/gbfuzz/pkg/campaign"
	"github.com/gbfuzz/gbfuzz/pkg/db"
	"github.com/gbfuzz/gbfuzz/pkg/log"
	"github.com/gbfuzz/gbfuzz/pkg/osutil"
	"github.com/gbfuzz/gbfuzz/pkg/report"
	"github.com/gbfuzz/gbfuzz/pkg/stat"
	"github.com/gbfuzz/gbfuzz/pkg/tool"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	flagConfig  = flag.String("config", "", "campaign configuration file (the built-in maze campaign if empty)")
	flagTrials  = flag.Int("trials", 0, "override the number of trials of every fuzzer")
	flagSeed    = flag.Int64("seed", 0, "override the random seed")
	flagHTTP    = flag.String("http", "", "override the status page address")
	flagWorkdir = flag.String("workdir", "", "override the population database directory")
)

type Runner struct {
	cfg       *campaign.Config
	runID     string
	target    *campaign.Target
	instances []*campaign.Instance
	started   time.Time

	mu      sync.Mutex
	reports []*report.Report
}

func main() {
	tool.Init()
	log.EnableLogCaching(1000, 1<<20)
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runner, err := newRunner(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.HTTP != "" {
		runner.initHTTP()
	}
	if err := runner.run(ctx, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*campaign.Config, error) {
	cfg := campaign.Default()
	if *flagConfig != "" {
		var err error
		if cfg, err = campaign.LoadFile(*flagConfig); err != nil {
			return nil, err
		}
	}
	if *flagTrials != 0 {
		cfg.Trials = *flagTrials
	}
	if *flagSeed != 0 {
		cfg.RandomSeed = *flagSeed
	}
	if *flagHTTP != "" {
		cfg.HTTP = *flagHTTP
	}
	if *flagWorkdir != "" {
		cfg.Workdir = osutil.Abs(*flagWorkdir)
	}
	return cfg, nil
}

func newRunner(cfg *campaign.Config) (*Runner, error) {
	runner := &Runner{
		cfg:     cfg,
		runID:   uuid.New().String(),
		started: time.Now(),
	}
	log.Logf(0, "campaign %v: run %v", cfg.Name, runner.runID)
	var err error
	if runner.target, err = cfg.BuildTarget(); err != nil {
		return nil, err
	}
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	seeds, err := cfg.InitialSeeds(rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	if runner.instances, err = cfg.Build(runner.target, seeds); err != nil {
		return nil, err
	}
	return runner, nil
}

func (runner *Runner) run(ctx context.Context, w io.Writer) error {
	done := make(chan struct{})
	go runner.logStats(done)
	g, gctx := errgroup.WithContext(ctx)
	for _, inst := range runner.instances {
		inst := inst
		g.Go(func() error {
			err := inst.Fuzzer.Run(gctx, runner.cfg.Trials)
			log.Logf(0, "fuzzer %v finished %v trials", inst.Name, inst.Fuzzer.Trials())
			return err
		})
	}
	runErr := g.Wait()
	close(done)
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	var reports []*report.Report
	for _, inst := range runner.instances {
		seeds := inst.Fuzzer.Population().Seeds()
		rep := report.Collect(inst.Name, seeds, runner.target.Classifier)
		if err := rep.Write(w, runner.cfg.ReportSeeds); err != nil {
			return err
		}
		reports = append(reports, rep)
		if err := runner.savePopulation(inst); err != nil {
			return err
		}
	}
	runner.mu.Lock()
	runner.reports = reports
	runner.mu.Unlock()
	return runErr
}

func (runner *Runner) savePopulation(inst *campaign.Instance) error {
	if runner.cfg.Workdir == "" {
		return nil
	}
	if err := osutil.MkdirAll(runner.cfg.Workdir); err != nil {
		return fmt.Errorf("failed to create workdir: %w", err)
	}
	file := filepath.Join(runner.cfg.Workdir, fmt.Sprintf("%v-%v.db", runner.runID, inst.Name))
	if err := db.SavePopulation(file, 0, inst.Fuzzer.Population().Seeds()); err != nil {
		return fmt.Errorf("failed to save population of %v: %w", inst.Name, err)
	}
	log.Logf(0, "saved population of %v to %v", inst.Name, file)
	return nil
}

func (runner *Runner) logStats(done <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		for _, inst := range runner.instances {
			var vals []string
			for _, v := range inst.Stats.Collect(stat.Console) {
				vals = append(vals, fmt.Sprintf("%v=%v", v.Name, v.Value))
			}
			log.Logf(0, "%v", strings.Join(vals, " "))
		}
	}
}
