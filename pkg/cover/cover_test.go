// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cover

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOperations(t *testing.T) {
	a := FromLocs("b", "a", "c")
	b := FromLocs("c", "a", "b")
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Signature(), b.Signature())
	assert.Equal(t, []Loc{"a", "b", "c"}, a.Serialize())

	sub := FromLocs("a", "b")
	assert.False(t, a.Equal(sub))
	assert.False(t, sub.Equal(a))
	assert.NotEqual(t, a.Signature(), sub.Signature())

	var total Cover
	assert.Equal(t, []Loc{"a", "b"}, total.MergeDiff(sub))
	assert.Equal(t, []Loc{"c"}, total.MergeDiff(a))
	assert.Nil(t, total.MergeDiff(a))
	assert.Equal(t, 3, total.Len())
	assert.True(t, total.Contains("c"))
	assert.False(t, total.Contains("d"))

	cp := sub.Copy()
	cp.Merge(FromLocs("z"))
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, 3, cp.Len())

	assert.True(t, Cover(nil).Equal(Cover{}))
	assert.Equal(t, Cover(nil).Signature(), Cover{}.Signature())
	assert.Nil(t, FromLocs())
}

func TestProbe(t *testing.T) {
	errReject := errors.New("reject")
	fn := func(tr *Tracer, input string) error {
		tr.Hit("entry")
		for _, ch := range input {
			tr.Hit(Loc("char_" + string(ch)))
			if ch == '!' {
				panic("bang")
			}
		}
		if input == "bad" {
			return errReject
		}
		return nil
	}

	res := Probe(fn, "ab")
	assert.NoError(t, res.Err)
	assert.False(t, res.Crashed())
	assert.Equal(t, []Loc{"char_a", "char_b", "entry"}, res.Cover.Serialize())

	// Deterministic target yields identical coverage on repeated runs.
	res2 := Probe(fn, "ab")
	assert.True(t, res.Cover.Equal(res2.Cover))

	res = Probe(fn, "bad")
	assert.ErrorIs(t, res.Err, errReject)
	assert.False(t, res.Crashed())

	res = Probe(fn, "a!b")
	assert.True(t, res.Crashed())
	assert.Error(t, res.Err)
	assert.NotEmpty(t, res.Stack)
	assert.Equal(t, []Loc{"char_!", "char_a", "entry"}, res.Cover.Serialize())
}

func TestNilTracer(t *testing.T) {
	var tr *Tracer
	tr.Hit("x")
	assert.Nil(t, tr.Cover())
}
