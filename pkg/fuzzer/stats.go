// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzzer

import "github.com/gbfuzz/gbfuzz/pkg/stat"

type Stats struct {
	statTrials    *stat.Val
	statExecTotal *stat.Val
	statExecPass  *stat.Val
	statExecFail  *stat.Val
	statExecCrash *stat.Val
	statNewPaths  *stat.Val
	statInputLen  *stat.Val
	statExecTime  *stat.Val
}

func newStats(set *stat.Set) Stats {
	return Stats{
		statTrials: set.New("trials", "Number of fuzzing trials",
			stat.Console, stat.Rate{}, stat.Prometheus("gbfuzz_trials")),
		statExecTotal: set.New("exec total", "Total target executions (including initial seeds)",
			stat.Simple, stat.Prometheus("gbfuzz_exec_total")),
		statExecPass: set.New("exec pass", "Executions accepted by the oracle",
			stat.Simple, stat.Prometheus("gbfuzz_exec_pass")),
		statExecFail: set.New("exec fail", "Executions rejected by the oracle",
			stat.Simple, stat.Prometheus("gbfuzz_exec_fail")),
		statExecCrash: set.New("exec crash", "Executions that crashed the target",
			stat.Console, stat.Prometheus("gbfuzz_exec_crash")),
		statNewPaths: set.New("new paths", "Trials that produced a never seen coverage set",
			stat.Simple, stat.Prometheus("gbfuzz_new_paths")),
		statInputLen: set.New("input len", "Length of mutated inputs",
			stat.Distribution{}),
		statExecTime: set.New("exec time", "Target execution time (us)",
			stat.Distribution{}),
	}
}
