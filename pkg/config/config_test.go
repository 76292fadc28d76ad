// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package config

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nested struct {
	Name     string  `json:"name"`
	Exponent float64 `json:"exponent,omitempty"`
}

type testConfig struct {
	Trials   int      `json:"trials"`
	Alphabet string   `json:"alphabet"`
	Seeds    []string `json:"seeds"`
	Fuzzers  []nested `json:"fuzzers"`
}

func TestLoadData(t *testing.T) {
	tests := []struct {
		input  string
		output testConfig
		err    bool
	}{
		{
			input:  `{"trials": 42}`,
			output: testConfig{Trials: 42},
		},
		{
			input: `
# comment line
{
	"alphabet": "UDLR",
	# another comment
	"seeds": [" "]
}`,
			output: testConfig{Alphabet: "UDLR", Seeds: []string{" "}},
		},
		{
			input:  `{"fuzzers": [{"name": "fast", "exponent": 0.5}]}`,
			output: testConfig{Fuzzers: []nested{{Name: "fast", Exponent: 0.5}}},
		},
		{
			input: `{"foobar": 42}`,
			err:   true,
		},
		{
			input: `{"fuzzers": [{"name": "fast", "power": 1}]}`,
			err:   true,
		},
	}
	for i, test := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			var cfg testConfig
			err := LoadData([]byte(test.input), &cfg)
			if test.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(test.output, cfg); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	var cfg testConfig
	err := LoadYAML([]byte(`
trials: 10
alphabet: UDLR
fuzzers:
- name: directed
  exponent: 5
`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, testConfig{
		Trials:   10,
		Alphabet: "UDLR",
		Fuzzers:  []nested{{Name: "directed", Exponent: 5}},
	}, cfg)

	err = LoadYAML([]byte("unknown: 1\n"), &cfg)
	assert.Error(t, err)
}

func TestSaveLoadFile(t *testing.T) {
	want := testConfig{Trials: 3, Seeds: []string{"a", "b"}}
	for _, name := range []string{"cfg.json", "cfg.yaml"} {
		fn := filepath.Join(t.TempDir(), name)
		require.NoError(t, SaveFile(fn, want))
		var got testConfig
		require.NoError(t, LoadFile(fn, &got))
		assert.Equal(t, want, got, name)
	}
	assert.Error(t, LoadFile("", &testConfig{}))
}
