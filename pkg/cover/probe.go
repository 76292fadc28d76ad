// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cover

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Tracer records locations visited during one target invocation.
// A nil Tracer is valid and records nothing, so targets can run uninstrumented.
type Tracer struct {
	cov Cover
}

func (tr *Tracer) Hit(loc Loc) {
	if tr == nil {
		return
	}
	if tr.cov == nil {
		tr.cov = make(Cover)
	}
	tr.cov[loc] = struct{}{}
}

// Cover returns the locations recorded so far.
func (tr *Tracer) Cover() Cover {
	if tr == nil {
		return nil
	}
	return tr.cov
}

// Func is an instrumented callable: it reports visited locations to tr
// and returns an error if it rejects the input.
type Func func(tr *Tracer, input string) error

// Result of a single probed invocation.
type Result struct {
	Cover   Cover
	Err     error
	Panic   any    // recovered panic value, if the callable crashed
	Stack   []byte // stack of the crash
	Elapsed time.Duration
}

func (res *Result) Crashed() bool {
	return res.Panic != nil
}

// Probe runs fn once on input and captures its coverage.
// Panics are recovered and reported in the result, coverage collected up to
// the crash point is preserved.
func Probe(fn Func, input string) (res Result) {
	tr := new(Tracer)
	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
		res.Cover = tr.Cover()
		if r := recover(); r != nil {
			res.Panic = r
			res.Stack = debug.Stack()
			res.Err = fmt.Errorf("target panicked: %v", r)
		}
	}()
	res.Err = fn(tr, input)
	return
}
