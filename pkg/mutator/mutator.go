// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package mutator implements single-character string mutations.
package mutator

import (
	"errors"
	"fmt"
	"math/rand"
)

// Mutator transforms an input into a new candidate input.
// The result depends only on the random source and the input.
type Mutator interface {
	Mutate(r *rand.Rand, input string) string
}

type Op int

const (
	// OpAppend appends a random alphabet character.
	OpAppend Op = iota
	// OpInsert inserts a random alphabet character before a random position.
	OpInsert
	// OpDeleteLast removes the last character.
	OpDeleteLast
)

var opNames = map[Op]string{
	OpAppend:     "append",
	OpInsert:     "insert",
	OpDeleteLast: "delete_last",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(op))
}

var ErrEmptyAlphabet = errors.New("mutator alphabet is empty")

// String mutates strings character-wise using characters of a fixed alphabet.
// It picks one of the configured operations uniformly at random; empty inputs are
// always extended with OpAppend, so Mutate never fails and never returns an empty string
// for an empty input.
type String struct {
	alphabet []rune
	ops      []Op
}

// NewString creates a mutator over alphabet. Without ops it uses all three operations.
func NewString(alphabet string, ops ...Op) (*String, error) {
	if alphabet == "" {
		return nil, ErrEmptyAlphabet
	}
	if len(ops) == 0 {
		ops = []Op{OpAppend, OpInsert, OpDeleteLast}
	}
	for _, op := range ops {
		if _, ok := opNames[op]; !ok {
			return nil, fmt.Errorf("unknown mutation %v", op)
		}
	}
	return &String{
		alphabet: []rune(alphabet),
		ops:      ops,
	}, nil
}

func (m *String) Mutate(r *rand.Rand, input string) string {
	if input == "" {
		return m.Apply(r, OpAppend, input)
	}
	return m.Apply(r, m.ops[r.Intn(len(m.ops))], input)
}

// Apply performs the given operation. Operations that are undefined on the empty
// input fall back to OpAppend.
func (m *String) Apply(r *rand.Rand, op Op, input string) string {
	data := []rune(input)
	if len(data) == 0 {
		op = OpAppend
	}
	switch op {
	case OpAppend:
		return string(append(data, m.randChar(r)))
	case OpInsert:
		pos := r.Intn(len(data))
		res := make([]rune, 0, len(data)+1)
		res = append(res, data[:pos]...)
		res = append(res, m.randChar(r))
		res = append(res, data[pos:]...)
		return string(res)
	case OpDeleteLast:
		return string(data[:len(data)-1])
	default:
		panic(fmt.Sprintf("unknown mutation %v", op))
	}
}

func (m *String) Alphabet() string {
	return string(m.alphabet)
}

func (m *String) randChar(r *rand.Rand) rune {
	return m.alphabet[r.Intn(len(m.alphabet))]
}
