// Copyright 2025 The uhash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uhash

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// toBuiltinMap returns the elements as a map[K]V. Useful for testing.
func toBuiltinMap[K comparable, V any](m *Map[K, V]) map[K]V {
	r := make(map[K]V)
	m.All(func(k K, v V) bool {
		r[k] = v
		return true
	})
	return r
}

func TestMapBasic(t *testing.T) {
	test := func(t *testing.T, m *Map[int, int]) {
		const count = 100

		e := make(map[int]int)
		require.Equal(t, 0, m.Len())

		// Non-existent.
		for i := 0; i < count; i++ {
			_, ok := m.Get(i)
			require.False(t, ok)
			require.Equal(t, -1, m.GetOrDefault(i, -1))
		}

		// Insert.
		for i := 0; i < count; i++ {
			_, replaced, err := m.Set(i, i+count)
			require.NoError(t, err)
			require.False(t, replaced)
			e[i] = i + count
			v, ok := m.Get(i)
			require.True(t, ok)
			require.Equal(t, i+count, v)
			require.Equal(t, i+1, m.Len())
			require.Equal(t, e, toBuiltinMap(m))
		}

		// Update.
		for i := 0; i < count; i++ {
			prev, replaced, err := m.Set(i, i+2*count)
			require.NoError(t, err)
			require.True(t, replaced)
			require.Equal(t, i+count, prev)
			e[i] = i + 2*count
			require.Equal(t, count, m.Len())
			require.Equal(t, e, toBuiltinMap(m))
		}

		// Delete.
		for i := 0; i < count; i++ {
			require.True(t, m.Remove(i))
			require.False(t, m.Remove(i))
			delete(e, i)
			require.Equal(t, count-i-1, m.Len())
			_, ok := m.Get(i)
			require.False(t, ok)
			require.Equal(t, e, toBuiltinMap(m))
		}
	}

	t.Run("normal", func(t *testing.T) {
		test(t, NewMap[int, int](HashInt, Identical[int]))
	})

	t.Run("runtime-hash", func(t *testing.T) {
		test(t, NewMapOf[int, int]())
	})

	t.Run("pre-sized", func(t *testing.T) {
		test(t, NewMapOf[int, int](WithCapacity[int, int](100)))
	})

	t.Run("degenerate", func(t *testing.T) {
		for _, h := range []uint64{0, ^uint64(0)} {
			t.Run(fmt.Sprintf("%016x", h), func(t *testing.T) {
				test(t, NewMap[int, int](func(int) uint64 { return h }, Identical[int]))
			})
		}
	})
}

// TestMapScenario is the canonical consumer walkthrough: a 100-entry
// identity map with one removal.
func TestMapScenario(t *testing.T) {
	m := NewMap[int, int](HashInt, Identical[int])
	for i := 0; i < 100; i++ {
		_, _, err := m.Set(i, i)
		require.NoError(t, err)
	}
	require.Equal(t, 50, m.GetOrDefault(50, -1))
	require.True(t, m.Remove(50))
	require.Equal(t, -1, m.GetOrDefault(50, -1))
	require.Equal(t, 99, m.Len())
}

func TestMapAdd(t *testing.T) {
	m := NewMap[string, int](HashString, Identical[string])

	existing, added, err := m.Add("a", 1)
	require.NoError(t, err)
	require.True(t, added)
	require.Zero(t, existing)

	// Add of a present key leaves the value untouched.
	existing, added, err = m.Add("a", 2)
	require.NoError(t, err)
	require.False(t, added)
	require.Equal(t, 1, existing)
	require.Equal(t, 1, m.GetOrDefault("a", -1))
}

func TestMapReplace(t *testing.T) {
	m := NewMap[string, int](HashString, Identical[string])

	_, ok := m.Replace("a", 1)
	require.False(t, ok)
	require.Equal(t, 0, m.Len())

	_, _, err := m.Set("a", 1)
	require.NoError(t, err)
	prev, ok := m.Replace("a", 2)
	require.True(t, ok)
	require.Equal(t, 1, prev)
	require.Equal(t, 2, m.GetOrDefault("a", -1))
	require.Equal(t, 1, m.Len())
}

func TestMapPop(t *testing.T) {
	m := NewMap[string, int](HashString, Identical[string])
	_, _, err := m.Set("a", 1)
	require.NoError(t, err)

	k, v, ok := m.Pop("a")
	require.True(t, ok)
	require.Equal(t, "a", k)
	require.Equal(t, 1, v)
	require.Equal(t, 0, m.Len())

	_, _, ok = m.Pop("a")
	require.False(t, ok)
}

func TestMapRandom(t *testing.T) {
	test := func(t *testing.T, m *Map[int, int], ops, keyspace int) {
		rng := rand.New(rand.NewSource(1))
		e := make(map[int]int)
		anyKey := func() (int, bool) {
			for k := range e {
				return k, true
			}
			return 0, false
		}
		for i := 0; i < ops; i++ {
			switch r := rng.Float64(); {
			case r < 0.5: // 50% inserts/updates
				k, v := rng.Intn(keyspace), rng.Int()
				prev, replaced, err := m.Set(k, v)
				require.NoError(t, err)
				old, present := e[k]
				require.Equal(t, present, replaced)
				if present {
					require.Equal(t, old, prev)
				}
				e[k] = v
			case r < 0.7: // 20% deletes
				if k, ok := anyKey(); ok {
					require.True(t, m.Remove(k))
					delete(e, k)
				}
			case r < 0.95: // 25% lookups
				k := rng.Intn(keyspace)
				v, ok := m.Get(k)
				ev, eok := e[k]
				require.Equal(t, eok, ok)
				if ok {
					require.Equal(t, ev, v)
				}
			default: // 5% explicit resizes
				require.NoError(t, m.Resize(rng.Intn(2 * keyspace)))
				require.Equal(t, e, toBuiltinMap(m))
			}
			require.Equal(t, len(e), m.Len())
		}
		require.Equal(t, e, toBuiltinMap(m))
	}

	t.Run("normal", func(t *testing.T) {
		test(t, NewMap[int, int](HashInt, Identical[int]), 10000, 5000)
	})

	t.Run("runtime-hash", func(t *testing.T) {
		test(t, NewMapOf[int, int](), 10000, 5000)
	})

	t.Run("degenerate", func(t *testing.T) {
		test(t, NewMap[int, int](func(int) uint64 { return 0 }, Identical[int]), 2000, 200)
	})
}

// TestMapResizePreservesMembership grows and shrinks a populated map
// through explicit resizes, checking membership and values throughout.
func TestMapResizePreservesMembership(t *testing.T) {
	m := NewMap[int, int](HashInt, Identical[int])
	const count = 150
	for i := 0; i < count; i++ {
		_, _, err := m.Set(i, i*10)
		require.NoError(t, err)
	}

	check := func() {
		for i := 0; i < count; i++ {
			require.Equal(t, i*10, m.GetOrDefault(i, -1), "key %d", i)
		}
		require.Equal(t, count, m.Len())
	}

	check()
	for _, target := range []int{1024, 4096, 256, 200} {
		require.NoError(t, m.Resize(target))
		check()
	}
}

// TestMapGrowShrink is the grow-then-shrink walkthrough: explicit growth,
// deletion of most entries, then an explicit shrink.
func TestMapGrowShrink(t *testing.T) {
	m := NewMap[int, int](HashInt, Identical[int])

	require.NoError(t, m.Resize(200))
	require.Equal(t, 256, m.Cap())

	for i := 0; i < 150; i++ {
		_, _, err := m.Set(i, i)
		require.NoError(t, err)
	}
	for i := 10; i < 150; i++ {
		require.True(t, m.Remove(i))
	}

	require.NoError(t, m.Resize(100))
	require.Equal(t, 128, m.Cap())

	for i := 0; i < 10; i++ {
		require.Equal(t, i, m.GetOrDefault(i, -1))
	}
	for i := 10; i < 150; i++ {
		require.Equal(t, -1, m.GetOrDefault(i, -1))
	}
	require.Equal(t, 10, m.Len())
}

func TestMapIterateDelete(t *testing.T) {
	m := NewMapOf[int, int]()
	for i := 0; i < 100; i++ {
		_, _, err := m.Set(i, i)
		require.NoError(t, err)
	}

	// Removing a yielded key mid-iteration resolves to DeleteAt on an
	// already-yielded index, which the iteration contract allows.
	seen := make(map[int]int)
	m.All(func(k, v int) bool {
		seen[k] = v
		if k%2 == 0 {
			require.True(t, m.Remove(k))
		}
		return true
	})
	require.Len(t, seen, 100)
	require.Equal(t, 50, m.Len())
}

func TestMapPartialEquality(t *testing.T) {
	type entry struct {
		id   int
		name string
	}
	hash := func(e entry) uint64 { return HashInt(e.id) }
	equal := func(a, b entry) bool { return a.id == b.id }
	m := NewMap[entry, int](hash, equal)

	_, _, err := m.Set(entry{1, "first"}, 10)
	require.NoError(t, err)

	// The stored key is the originally inserted one.
	_, replaced, err := m.Set(entry{1, "second"}, 20)
	require.NoError(t, err)
	require.True(t, replaced)
	k, v, ok := m.Pop(entry{1, "third"})
	require.True(t, ok)
	require.Equal(t, entry{1, "first"}, k)
	require.Equal(t, 20, v)
}

func TestMapStringKeys(t *testing.T) {
	m := NewMap[string, string](HashString, Identical[string])
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", ""}
	for _, w := range words {
		_, _, err := m.Set(w, w+"!")
		require.NoError(t, err)
	}
	for _, w := range words {
		require.Equal(t, w+"!", m.GetOrDefault(w, "?"))
	}
	require.Equal(t, len(words), m.Len())
}
