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

// Set is an unordered set of elements built on Table with a zero-size
// value type, so it costs no more memory than the keys and the state
// vector.
//
// A Set is NOT goroutine-safe.
type Set[K any] struct {
	tbl Table[K, struct{}]
}

// NewSet constructs an empty Set with the given hash and equality
// functions.
func NewSet[K any](hash HashFn[K], equal EqualFn[K], opts ...Option[K, struct{}]) *Set[K] {
	s := &Set[K]{}
	s.tbl.init(hash, equal, opts)
	return s
}

// NewSetOf constructs an empty Set for a comparable element type, using
// the runtime's hashing (seeded per set) and == for equality.
func NewSetOf[K comparable](opts ...Option[K, struct{}]) *Set[K] {
	return NewSet[K](comparableHash[K](), Identical[K], opts...)
}

// Table returns the underlying table for use of the raw index-based API.
func (s *Set[K]) Table() *Table[K, struct{}] {
	return &s.tbl
}

// Insert adds elem to the set, reporting whether it was absent.
func (s *Set[K]) Insert(elem K) (inserted bool, err error) {
	_, ret := s.tbl.Put(elem)
	if ret == RetError {
		return false, ErrAllocation
	}
	return ret == RetInserted, nil
}

// InsertOrGet adds elem to the set. If an equal element was already
// present it is left in place and returned; under partial equality the
// stored element, not the argument, is authoritative.
func (s *Set[K]) InsertOrGet(elem K) (existing K, inserted bool, err error) {
	i, ret := s.tbl.Put(elem)
	switch ret {
	case RetError:
		return existing, false, ErrAllocation
	case RetPresent:
		return s.tbl.keys[i], false, nil
	default:
		return elem, true, nil
	}
}

// InsertAll adds every element of elems to the set, pre-sizing the table
// for the batch to avoid repeated incremental growth. It reports whether
// at least one element was absent.
func (s *Set[K]) InsertAll(elems []K) (added bool, err error) {
	if err := s.tbl.Resize(len(elems)); err != nil {
		return false, err
	}
	for _, elem := range elems {
		inserted, err := s.Insert(elem)
		if err != nil {
			return added, err
		}
		if inserted {
			added = true
		}
	}
	return added, nil
}

// Replace overwrites the stored element equal to elem with elem itself,
// returning the element it displaced. Meaningful under partial equality,
// where the two can differ. Replace never grows the set.
func (s *Set[K]) Replace(elem K) (prev K, ok bool) {
	i := s.tbl.Get(elem)
	if i == Missing {
		return prev, false
	}
	prev = s.tbl.keys[i]
	s.tbl.keys[i] = elem
	return prev, true
}

// Remove deletes elem from the set, reporting whether it was present.
func (s *Set[K]) Remove(elem K) bool {
	i := s.tbl.Get(elem)
	if i == Missing {
		return false
	}
	s.tbl.DeleteAt(i)
	return true
}

// Pop deletes elem from the set and returns the stored element.
func (s *Set[K]) Pop(elem K) (removed K, ok bool) {
	i := s.tbl.Get(elem)
	if i == Missing {
		return removed, false
	}
	removed = s.tbl.keys[i]
	s.tbl.DeleteAt(i)
	return removed, true
}

// Contains reports whether elem is in the set.
func (s *Set[K]) Contains(elem K) bool {
	return s.tbl.Contains(elem)
}

// IsSupersetOf reports whether every element of other is in s. Elements
// are looked up with s's hash and equality functions, so the two sets
// should be instantiated compatibly.
func (s *Set[K]) IsSupersetOf(other *Set[K]) bool {
	superset := true
	other.tbl.All(func(i Index) bool {
		if s.tbl.Get(other.tbl.keys[i]) == Missing {
			superset = false
			return false
		}
		return true
	})
	return superset
}

// Equals reports whether s and other contain the same elements.
func (s *Set[K]) Equals(other *Set[K]) bool {
	return s.tbl.used == other.tbl.used && s.IsSupersetOf(other)
}

// Hash returns the hash of the set as a whole: the XOR of each element's
// hash, which is order-independent by construction. Equal sets hash
// identically, so the result is usable as a composite key.
func (s *Set[K]) Hash() uint64 {
	var h uint64
	s.tbl.All(func(i Index) bool {
		h ^= s.tbl.hash(s.tbl.keys[i])
		return true
	})
	return h
}

// GetAny returns an element of the set, or fallback if the set is empty.
// It is the first live element scanning from slot 0: deterministic for a
// given table state, not a random sample.
func (s *Set[K]) GetAny(fallback K) K {
	elem := fallback
	s.tbl.All(func(i Index) bool {
		elem = s.tbl.keys[i]
		return false
	})
	return elem
}

// Union adds every element of other to s, reporting whether at least one
// was absent.
func (s *Set[K]) Union(other *Set[K]) (added bool, err error) {
	if err := s.tbl.Resize(int(s.tbl.used + other.tbl.used)); err != nil {
		return false, err
	}
	failed := false
	other.tbl.All(func(i Index) bool {
		_, ret := s.tbl.Put(other.tbl.keys[i])
		switch ret {
		case RetError:
			failed = true
			return false
		case RetInserted:
			added = true
		}
		return true
	})
	if failed {
		return added, ErrAllocation
	}
	return added, nil
}

// Intersect removes from s every element that is not in other. Deletion
// during the scan is safe because only already-yielded indices are
// deleted.
func (s *Set[K]) Intersect(other *Set[K]) {
	s.tbl.All(func(i Index) bool {
		if !other.Contains(s.tbl.keys[i]) {
			s.tbl.DeleteAt(i)
		}
		return true
	})
}

// All calls yield sequentially for each element in the set. If yield
// returns false, iteration stops. The order is hash-dependent and
// unspecified. Elements may be removed during iteration via Remove of an
// element already yielded; inserting during iteration is invalid.
func (s *Set[K]) All(yield func(elem K) bool) {
	s.tbl.All(func(i Index) bool {
		return yield(s.tbl.keys[i])
	})
}

// Len returns the number of elements in the set.
func (s *Set[K]) Len() int {
	return s.tbl.Len()
}

// Cap returns the number of slots in the set's table.
func (s *Set[K]) Cap() int {
	return s.tbl.Cap()
}

// Clear removes all elements without releasing the backing arrays.
func (s *Set[K]) Clear() {
	s.tbl.Clear()
}

// Resize grows or shrinks the set; see Table.Resize.
func (s *Set[K]) Resize(n int) error {
	return s.tbl.Resize(n)
}

// Close releases the set's backing arrays to its allocator.
func (s *Set[K]) Close() {
	s.tbl.Close()
}
