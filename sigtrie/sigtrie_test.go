// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sigtrie

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignatureExample(t *testing.T) {
	keys := []string{
		"<init>;",
		"get;",
		"getName;",
		"getNameAndValue;",
		"getValue;",
		"getVersion;",
		"set;java.lang.String",
	}
	idx := Build(keys)
	for i, k := range keys {
		require.Equal(t, i, idx(k), "key %q", k)
	}

	// unknown keys are unspecified but must not panic
	require.NotPanics(t, func() {
		_ = idx("getX")
		_ = idx("z")
		_ = idx("")
		_ = idx("<init>;extra")
	})
}

func TestSingleKey(t *testing.T) {
	idx := Build([]string{"only;"})
	require.Equal(t, 0, idx("only;"))
	require.Equal(t, 0, idx("anything"))
}

func TestFinalCharacterBranch(t *testing.T) {
	idx := Build([]string{"run;a", "run;b"})
	require.Equal(t, 0, idx("run;a"))
	require.Equal(t, 1, idx("run;b"))
}

func TestPrefixKeys(t *testing.T) {
	keys := []string{"get;", "get;x", "get;xy"}
	idx := Build(keys)
	for i, k := range keys {
		require.Equal(t, i, idx(k))
	}
}

func TestUnsortedInputPanics(t *testing.T) {
	require.Panics(t, func() { Build([]string{"b", "a"}) })
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	prefixes := []string{
		"get", "set", "getName", "compute", "com.example.",
		"java.lang.", "handle", "<init>;", "a", "ab", "abc",
	}
	seen := make(map[string]bool)
	for len(seen) < 50000 {
		var s string
		for s == "" || seen[s] {
			s = prefixes[rng.Intn(len(prefixes))] +
				fmt.Sprintf("%c%d;", 'a'+rng.Intn(26), rng.Intn(100000))
		}
		seen[s] = true
	}
	keys := make([]string, 0, len(seen))
	for s := range seen {
		keys = append(keys, s)
	}
	sort.Strings(keys)

	idx := Build(keys) // exceeds the row cap, exercising the overflow chain
	for i, k := range keys {
		require.Equal(t, i, idx(k), "key %q", k)
	}
}

func TestLookupDoesNotAllocate(t *testing.T) {
	keys := []string{"<init>;", "alpha;", "beta;int", "betaGamma;", "omega;java.lang.String"}
	idx := Build(keys)
	n := 0
	allocs := testing.AllocsPerRun(200, func() {
		_ = idx(keys[n%len(keys)])
		n++
	})
	require.Zero(t, allocs)
}
