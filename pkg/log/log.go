// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package log is the logging front end of gbfuzz binaries and libraries.
// Messages carry a verbosity level and are printed when the level does not exceed
// the -vv flag. Levels 0 and 1 can also be kept in a bounded in-memory ring,
// which the runner shows on its status page. Library packages don't call Logf
// directly, they receive a Logger (usually Prefixed with the fuzzer name) in their config.
package log

import (
	"flag"
	"fmt"
	golog "log"
	"strings"
	"sync"
	"time"
)

var (
	flagV = flag.Int("vv", 0, "verbosity")

	mu          sync.Mutex
	cache       *ring
	prependTime = true // for testing
)

// Logger is the logging callback handed to library packages through their configs.
type Logger func(level int, msg string, args ...any)

// Prefixed returns a Logger that prepends "[prefix] " to every message.
func Prefixed(prefix string) Logger {
	return func(level int, msg string, args ...any) {
		Logf(level, "[%v] "+msg, append([]any{prefix}, args...)...)
	}
}

// EnableLogCaching starts keeping the last maxLines messages of level 0 and 1,
// dropping the oldest ones once they take more than maxMem bytes.
func EnableLogCaching(maxLines, maxMem int) {
	if maxLines < 1 || maxMem < 1 {
		panic(fmt.Sprintf("bad log cache size: %v lines, %v bytes", maxLines, maxMem))
	}
	mu.Lock()
	defer mu.Unlock()
	if cache != nil {
		panic("log caching is already enabled")
	}
	cache = &ring{
		lines:  make([]string, maxLines),
		maxMem: maxMem,
	}
}

// CachedLogOutput returns the cached messages, oldest first, one per line.
func CachedLogOutput() string {
	mu.Lock()
	defer mu.Unlock()
	if cache == nil {
		return ""
	}
	return cache.String()
}

func Logf(v int, msg string, args ...any) {
	if v <= 1 {
		mu.Lock()
		if cache != nil {
			stamp := ""
			if prependTime {
				stamp = time.Now().Format("2006/01/02 15:04:05 ")
			}
			cache.add(stamp + fmt.Sprintf(msg, args...))
		}
		mu.Unlock()
	}
	if v <= *flagV {
		golog.Printf(msg, args...)
	}
}

func Fatal(err error) {
	golog.Fatal(err)
}

func Fatalf(msg string, args ...any) {
	golog.Fatalf(msg, args...)
}

// ring is a fixed number of line slots, next points to the oldest one.
// The newest line is always kept even if it alone exceeds maxMem.
type ring struct {
	lines  []string
	next   int
	mem    int
	maxMem int
}

func (r *ring) add(line string) {
	r.mem += len(line) - len(r.lines[r.next])
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	for i := 0; i < len(r.lines)-1 && r.mem > r.maxMem; i++ {
		old := (r.next + i) % len(r.lines)
		r.mem -= len(r.lines[old])
		r.lines[old] = ""
	}
}

func (r *ring) String() string {
	buf := new(strings.Builder)
	for i := range r.lines {
		line := r.lines[(r.next+i)%len(r.lines)]
		if line == "" {
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.String()
}
