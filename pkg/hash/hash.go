// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package hash computes stable signatures of inputs and coverage sets.
package hash

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

type Sig [sha1.Size]byte

func Hash(pieces ...[]byte) Sig {
	h := sha1.New()
	for _, data := range pieces {
		h.Write(data)
	}
	var sig Sig
	copy(sig[:], h.Sum(nil))
	return sig
}

func String(pieces ...[]byte) string {
	sig := Hash(pieces...)
	return sig.String()
}

// Strings hashes a list of strings. Every element is length-prefixed,
// so ["ab", "c"] and ["a", "bc"] produce different signatures.
func Strings(elems []string) Sig {
	h := sha1.New()
	var lenBuf [binary.MaxVarintLen64]byte
	for _, elem := range elems {
		n := binary.PutUvarint(lenBuf[:], uint64(len(elem)))
		h.Write(lenBuf[:n])
		h.Write([]byte(elem))
	}
	var sig Sig
	copy(sig[:], h.Sum(nil))
	return sig
}

func (sig Sig) String() string {
	return hex.EncodeToString(sig[:])
}

// Truncate64 returns first 64 bits of the hash as int64.
func (sig Sig) Truncate64() int64 {
	return int64(binary.LittleEndian.Uint64(sig[:8]))
}

func FromString(str string) (Sig, error) {
	bin, err := hex.DecodeString(str)
	if err != nil {
		return Sig{}, fmt.Errorf("failed to decode sig '%v': %w", str, err)
	}
	if len(bin) != len(Sig{}) {
		return Sig{}, fmt.Errorf("failed to decode sig '%v': bad len", str)
	}
	var sig Sig
	copy(sig[:], bin)
	return sig, nil
}
