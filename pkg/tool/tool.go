// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package tool contains various helper utilitites useful for implementation of command line tools.
package tool

import (
	"flag"
	"fmt"
	"os"
)

func Failf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}

func Fail(err error) {
	Failf("%v", err)
}

// Init parses command line flags of a tool. Positional arguments are left in flag.Args.
func Init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %v [flags] [args]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
}
