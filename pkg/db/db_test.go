// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package db

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gbfuzz/gbfuzz/pkg/corpus"
	"github.com/gbfuzz/gbfuzz/pkg/cover"
	"github.com/gbfuzz/gbfuzz/pkg/osutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasic(t *testing.T) {
	fn := tempFile(t)
	db, err := Open(fn, false)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if len(db.Records) != 0 {
		t.Fatalf("empty db contains records")
	}
	require.NoError(t, db.Save("", nil, 0))
	require.NoError(t, db.Save("1", []byte("ab"), 1))
	require.NoError(t, db.Save("23", []byte("abcd"), 2))

	want := map[string]Record{
		"":   {Val: nil, Seq: 0},
		"1":  {Val: []byte("ab"), Seq: 1},
		"23": {Val: []byte("abcd"), Seq: 2},
	}
	if !reflect.DeepEqual(db.Records, want) {
		t.Fatalf("bad db after save: %v, want: %v", db.Records, want)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("failed to flush db: %v", err)
	}
	db, err = Open(fn, false)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if !reflect.DeepEqual(db.Records, want) {
		t.Fatalf("bad db after reopen: %v, want: %v", db.Records, want)
	}
	assert.Error(t, db.Save("x", nil, seqDeleted))
}

func TestModify(t *testing.T) {
	fn := tempFile(t)
	db, err := Open(fn, false)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.Save("1", []byte("ab"), 0)
	db.Save("23", nil, 1)
	db.Save("456", []byte("abcd"), 1)
	db.Save("7890", []byte("a"), 0)
	db.Delete("23")
	db.Save("1", nil, 5)
	db.Save("456", []byte("ef"), 6)
	db.Delete("7890")
	db.Save("456", []byte("efg"), 0)
	db.Save("7890", []byte("bc"), 0)

	want := map[string]Record{
		"1":    {Val: nil, Seq: 5},
		"456":  {Val: []byte("efg"), Seq: 0},
		"7890": {Val: []byte("bc"), Seq: 0},
	}
	if !reflect.DeepEqual(db.Records, want) {
		t.Fatalf("bad db after modification: %v, want: %v", db.Records, want)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("failed to flush db: %v", err)
	}
	db, err = Open(fn, false)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if !reflect.DeepEqual(db.Records, want) {
		t.Fatalf("bad db after reopen: %v, want: %v", db.Records, want)
	}
}

func TestVersion(t *testing.T) {
	fn := tempFile(t)
	db, err := Open(fn, false)
	require.NoError(t, err)
	require.NoError(t, db.Save("k", []byte("v"), 0))
	require.NoError(t, db.BumpVersion(3))
	db, err = Open(fn, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), db.Version)
	assert.Len(t, db.Records, 1)
}

func TestLarge(t *testing.T) {
	fn := tempFile(t)
	db, err := Open(fn, false)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	const nrec = 200
	val := make([]byte, 1000)
	for i := range val {
		val[i] = byte(rand.Intn(256))
	}
	for i := 0; i < nrec; i++ {
		db.Save(fmt.Sprintf("%v", i), val, 0)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("failed to flush db: %v", err)
	}
	db, err = Open(fn, false)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if len(db.Records) != nrec {
		t.Fatalf("wrong record count: %v, want %v", len(db.Records), nrec)
	}
	if !reflect.DeepEqual(db.Records["7"].Val, val) {
		t.Fatalf("value corrupted")
	}
}

func TestOpenInvalid(t *testing.T) {
	fn := tempFile(t)
	if err := osutil.WriteFile(fn, []byte(`some invalid data`)); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(fn, false); err == nil {
		t.Fatal("opened invalid db")
	}
	if db, err := Open(fn, true); err == nil {
		t.Fatal("opened invalid db")
	} else if db == nil {
		t.Fatal("db is nil")
	}
	// The repaired db is empty, but valid.
	db, err := Open(fn, false)
	require.NoError(t, err)
	assert.Empty(t, db.Records)
}

func TestOpenCorrupted(t *testing.T) {
	fn := tempFile(t)
	db, err := Open(fn, false)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	// Write 1000 records, then wipe half of the file and test that we
	// (1) get an error, (2) still get 450-550 records.
	for i := 0; i < 1000; i++ {
		db.Save(fmt.Sprintf("%v", i), []byte{byte(i)}, 0)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("failed to flush db: %v", err)
	}
	data, err := os.ReadFile(fn)
	if err != nil {
		t.Fatalf("failed to read db: %v", err)
	}
	for i := len(data) / 2; i < len(data); i++ {
		data[i] = 0
	}
	if err := osutil.WriteFile(fn, data); err != nil {
		t.Fatalf("failed to write db: %v", err)
	}
	db, err = Open(fn, true)
	if err == nil {
		t.Fatalf("no error for corrupted db")
	}
	t.Logf("records %v, error: %v", len(db.Records), err)
	if len(db.Records) < 450 || len(db.Records) > 550 {
		t.Fatalf("wrong record count: %v", len(db.Records))
	}
}

func TestPopulation(t *testing.T) {
	fn := tempFile(t)
	seeds := []*corpus.Seed{
		corpus.NewSeed(" ", cover.FromLocs("tile_1_1"), corpus.Pass, -1),
		corpus.NewSeed("D", cover.FromLocs("tile_1_1", "tile_2_1"), corpus.Pass, 0),
		corpus.NewSeed("L", cover.FromLocs("tile_1_1", "tile_1_0"), corpus.Fail, 1),
		corpus.NewSeed("D", cover.FromLocs("tile_1_1", "tile_2_1"), corpus.Pass, 2),
		corpus.NewSeed("", nil, corpus.Crash, 3),
	}
	seeds[1].Fuzzed = 7
	require.NoError(t, SavePopulation(fn, 1, seeds))
	got, err := ReadSeeds(fn)
	require.NoError(t, err)
	want := []*corpus.Seed{seeds[0], seeds[1], seeds[2], seeds[4]}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatal(diff)
	}
	inputs, err := ReadInputs(fn)
	require.NoError(t, err)
	assert.Equal(t, []string{" ", "D", "L", ""}, inputs)
	inputs, err = ReadInputs("")
	require.NoError(t, err)
	assert.Empty(t, inputs)
}

func TestReadMissing(t *testing.T) {
	fn := tempFile(t)
	_, err := ReadSeeds(fn)
	assert.ErrorContains(t, err, "does not exist")
	inputs, err := ReadInputs(fn)
	assert.Error(t, err)
	assert.Empty(t, inputs)
	assert.False(t, osutil.IsExist(fn), "reading must not create the database")
}

func tempFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "gbfuzz.test.db")
}
