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

// Map is an unordered map from keys to values built on Table. Unlike Go's
// builtin map it supports arbitrary key types via caller-supplied hash and
// equality functions, returns the previous value from overwriting
// operations without a second lookup, and can shrink.
//
// A Map is NOT goroutine-safe.
type Map[K any, V any] struct {
	tbl Table[K, V]
}

// NewMap constructs an empty Map with the given hash and equality
// functions.
func NewMap[K any, V any](hash HashFn[K], equal EqualFn[K], opts ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{}
	m.tbl.init(hash, equal, opts)
	return m
}

// NewMapOf constructs an empty Map for a comparable key type, using the
// runtime's hashing (seeded per map) and == for equality.
func NewMapOf[K comparable, V any](opts ...Option[K, V]) *Map[K, V] {
	return NewMap[K, V](comparableHash[K](), Identical[K], opts...)
}

// Table returns the underlying table for use of the raw index-based API.
func (m *Map[K, V]) Table() *Table[K, V] {
	return &m.tbl
}

// Get returns the value for key, with ok=false if the key is absent.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	i := m.tbl.Get(key)
	if i == Missing {
		return value, false
	}
	return m.tbl.vals[i], true
}

// GetOrDefault returns the value for key, or fallback if the key is
// absent.
func (m *Map[K, V]) GetOrDefault(key K, fallback V) V {
	i := m.tbl.Get(key)
	if i == Missing {
		return fallback
	}
	return m.tbl.vals[i]
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	return m.tbl.Contains(key)
}

// Set associates value with key, inserting the key if absent. It returns
// the previous value when the key was already present.
func (m *Map[K, V]) Set(key K, value V) (prev V, replaced bool, err error) {
	i, ret := m.tbl.Put(key)
	if ret == RetError {
		return prev, false, ErrAllocation
	}
	if ret == RetPresent {
		prev = m.tbl.vals[i]
		replaced = true
	}
	m.tbl.vals[i] = value
	return prev, replaced, nil
}

// Add associates value with key only if the key is absent. If the key is
// already present its value is left untouched and returned.
func (m *Map[K, V]) Add(key K, value V) (existing V, added bool, err error) {
	i, ret := m.tbl.Put(key)
	switch ret {
	case RetError:
		return existing, false, ErrAllocation
	case RetInserted:
		m.tbl.vals[i] = value
		return existing, true, nil
	default:
		return m.tbl.vals[i], false, nil
	}
}

// Replace associates value with key only if the key is already present,
// returning the previous value. Replace never grows the map.
func (m *Map[K, V]) Replace(key K, value V) (prev V, ok bool) {
	i := m.tbl.Get(key)
	if i == Missing {
		return prev, false
	}
	prev = m.tbl.vals[i]
	m.tbl.vals[i] = value
	return prev, true
}

// Remove deletes the entry for key, reporting whether it was present.
func (m *Map[K, V]) Remove(key K) bool {
	i := m.tbl.Get(key)
	if i == Missing {
		return false
	}
	m.tbl.DeleteAt(i)
	return true
}

// Pop deletes the entry for key and returns the stored key and value. The
// returned key is the one the map stored, which can differ from the
// argument under partial equality.
func (m *Map[K, V]) Pop(key K) (k K, v V, ok bool) {
	i := m.tbl.Get(key)
	if i == Missing {
		return k, v, false
	}
	k = m.tbl.keys[i]
	v = m.tbl.vals[i]
	m.tbl.DeleteAt(i)
	return k, v, true
}

// All calls yield sequentially for each key and value present in the map.
// If yield returns false, iteration stops. The order is hash-dependent and
// unspecified. Entries may be removed during iteration via Remove of a key
// already yielded; inserting during iteration is invalid.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	m.tbl.All(func(i Index) bool {
		return yield(m.tbl.keys[i], m.tbl.vals[i])
	})
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.tbl.Len()
}

// Cap returns the number of slots in the map's table.
func (m *Map[K, V]) Cap() int {
	return m.tbl.Cap()
}

// Clear removes all entries without releasing the backing arrays.
func (m *Map[K, V]) Clear() {
	m.tbl.Clear()
}

// Resize grows or shrinks the map; see Table.Resize.
func (m *Map[K, V]) Resize(n int) error {
	return m.tbl.Resize(n)
}

// Close releases the map's backing arrays to its allocator.
func (m *Map[K, V]) Close() {
	m.tbl.Close()
}
