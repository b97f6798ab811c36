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

// Package uhash provides a generic open-addressing hash table with map
// (key to value) and set (key only) layers built on a common core.
//
// # Design
//
// The core Table keeps three parallel arrays: a packed 2-bit state vector
// (empty / occupied / deleted), a key array, and a value array, all of the
// same power-of-two capacity. Collisions are resolved with triangular
// (quadratic) probing:
//
//	i(0) = hash(key) & (capacity-1)
//	i(n) = (i(n-1) + n) & (capacity-1)
//
// which visits every slot exactly once before repeating when the capacity
// is a power of two. Deletion is lazy: a deleted slot becomes a tombstone
// that keeps probe sequences for other keys intact and is reclaimed either
// by insertion (the first tombstone along a probe sequence is reused) or
// by the next rehash. The load factor, counting tombstones, is kept at or
// below 0.77; crossing it on insert triggers a rehash, which compacts in
// place at the current capacity when at least half the occupied slots are
// tombstones and doubles the capacity otherwise.
//
// Rehashing relocates entries with a cuckoo-style kick-out walk against a
// single freshly allocated state vector, so a resize never holds two
// full-size key or value arrays beyond the grow/shrink delta itself.
//
// Unlike Go's builtin map, lookups return a raw slot Index that can be
// used to read the stored key and value or to delete the entry without a
// second lookup. Indices are positions, not handles: any mutating
// operation (Put, DeleteAt, Resize, Clear) invalidates all previously
// returned indices.
//
// Hashing and equality are supplied per instance as plain functions,
// which permits partial equality (e.g. comparing only the ID field of a
// struct key). For comparable key types the NewMapOf and NewSetOf
// constructors bake in runtime hashing and == instead.
//
// A Table is NOT goroutine-safe.
package uhash

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// invariants gates the expensive self-check walk after mutations. Enable
// when debugging the engine itself.
const invariants = false

// maxLoad is the maximum ratio of occupied slots (live entries plus
// tombstones) to capacity before an insert forces a rehash.
const maxLoad = 0.77

// Index is the position of a slot in the table, in [0, Cap()). An Index is
// valid only until the next mutating operation (Put, DeleteAt, Resize,
// Clear) on the table that produced it; it is not a stable handle.
type Index uint32

// Missing is the Index returned when a key is not present.
const Missing = ^Index(0)

// ErrAllocation is returned when the table's allocator fails to provide
// backing storage. It is the only error the engine produces; the table is
// always left in its previous valid state.
var ErrAllocation = errors.New("uhash: allocation failed")

// Ret is the outcome of a Put.
type Ret int8

const (
	// RetError indicates the insert failed because backing storage could
	// not be allocated.
	RetError Ret = -1
	// RetPresent indicates the key was already present. The stored key and
	// value are untouched so callers can inspect them before overwriting.
	RetPresent Ret = 0
	// RetInserted indicates the key was absent and has been inserted.
	RetInserted Ret = 1
)

// Table is the core open-addressing hash table, generic over any key type
// with caller-supplied hash and equality functions. Map and Set wrap it
// with friendlier operations; Table itself exposes the raw index-based
// API.
//
// A zero-capacity Table performs no allocation until the first Put or
// Resize.
type Table[K any, V any] struct {
	hash  HashFn[K]
	equal EqualFn[K]
	alloc Allocator[K, V]
	// flags holds the 2-bit state of each slot. keys and vals are
	// index-aligned with it; a slot's key and value bytes are meaningful
	// only while its state is occupied.
	flags slotFlags
	keys  []K
	vals  []V
	// capacity is the number of slots, always zero or a power of two >= 4.
	capacity uint32
	// occupied counts slots holding a live entry or a tombstone. Drives
	// the load-factor resize trigger.
	occupied uint32
	// used counts live entries, the externally visible size.
	used uint32
}

// NewTable constructs an empty Table with the given hash and equality
// functions.
func NewTable[K any, V any](hash HashFn[K], equal EqualFn[K], opts ...Option[K, V]) *Table[K, V] {
	t := &Table[K, V]{}
	t.init(hash, equal, opts)
	return t
}

func (t *Table[K, V]) init(hash HashFn[K], equal EqualFn[K], opts []Option[K, V]) {
	cfg := config[K, V]{allocator: defaultAllocator[K, V]{}}
	for _, op := range opts {
		op.apply(&cfg)
	}
	t.hash = hash
	t.equal = equal
	t.alloc = cfg.allocator
	if cfg.capacity > 0 {
		// A failure here (custom allocators only) leaves the table empty;
		// the first Put retries the allocation.
		_ = t.Resize(cfg.capacity)
	}
}

// upperBound returns the maximum number of occupied slots permitted for
// the given capacity before an insert must rehash.
func upperBound(capacity uint32) uint32 {
	return uint32(float64(capacity)*maxLoad + 0.5)
}

// nextCapacity rounds n up to the next power of two, with a floor of 4.
func nextCapacity(n uint32) uint32 {
	if n <= 4 {
		return 4
	}
	return 1 << bits.Len32(n-1)
}

// Len returns the number of live entries in the table.
func (t *Table[K, V]) Len() int {
	return int(t.used)
}

// Cap returns the number of slots. Iteration and Index values range over
// [0, Cap()).
func (t *Table[K, V]) Cap() int {
	return int(t.capacity)
}

// KeyAt returns the key stored at an occupied slot. The caller must
// guarantee that i is occupied (e.g. an index just returned by Get or
// Put, or yielded by All).
func (t *Table[K, V]) KeyAt(i Index) K {
	return t.keys[i]
}

// ValueAt returns the value stored at an occupied slot.
func (t *Table[K, V]) ValueAt(i Index) V {
	return t.vals[i]
}

// SetValueAt overwrites the value stored at an occupied slot.
func (t *Table[K, V]) SetValueAt(i Index, value V) {
	t.vals[i] = value
}

// ExistsAt reports whether slot i holds a live entry.
func (t *Table[K, V]) ExistsAt(i Index) bool {
	return uint32(i) < t.capacity && !t.flags.isEither(uint32(i))
}

// Get returns the index of the slot holding key, or Missing if the key is
// absent. Get never mutates the table.
func (t *Table[K, V]) Get(key K) Index {
	if t.capacity == 0 {
		return Missing
	}
	mask := t.capacity - 1
	i := uint32(t.hash(key)) & mask
	step := uint32(0)
	last := i
	for !t.flags.isEmpty(i) && (t.flags.isDeleted(i) || !t.equal(t.keys[i], key)) {
		step++
		i = (i + step) & mask
		if i == last {
			return Missing
		}
	}
	if t.flags.isEither(i) {
		return Missing
	}
	return Index(i)
}

// Contains reports whether key is present.
func (t *Table[K, V]) Contains(key K) bool {
	return t.Get(key) != Missing
}

// Put inserts key if it is absent and returns the index of its slot. The
// returned Ret distinguishes a fresh insert from an already-present key;
// in the latter case the stored key and value are untouched. On
// RetError (allocation failure) the index is Missing and the table is
// unchanged.
func (t *Table[K, V]) Put(key K) (Index, Ret) {
	if t.occupied >= upperBound(t.capacity) {
		// The table needs to change before we can insert. If more than
		// half of the occupied slots are tombstones, rehash at the current
		// capacity to clear them rather than growing.
		var target uint32
		if t.capacity > t.used<<1 {
			target = t.capacity - 1
		} else {
			target = t.capacity + 1
		}
		if err := t.Resize(int(target)); err != nil {
			return Missing, RetError
		}
	}

	mask := t.capacity - 1
	i := uint32(t.hash(key)) & mask
	x := t.capacity
	site := t.capacity
	if t.flags.isEmpty(i) {
		// The home slot is empty; no probing needed.
		x = i
	} else {
		step := uint32(0)
		last := i
		for !t.flags.isEmpty(i) && (t.flags.isDeleted(i) || !t.equal(t.keys[i], key)) {
			if t.flags.isDeleted(i) {
				// Remember the first tombstone along the sequence as the
				// insertion site in case the key turns out to be absent.
				site = i
			}
			step++
			i = (i + step) & mask
			if i == last {
				x = site
				break
			}
		}
		if x == t.capacity {
			if t.flags.isEmpty(i) && site != t.capacity {
				x = site
			} else {
				x = i
			}
		}
	}
	if x == t.capacity {
		// Wrapped without finding a usable slot. Unreachable while the
		// load-factor invariant holds.
		return Missing, RetError
	}

	switch {
	case t.flags.isEmpty(x):
		t.keys[x] = key
		t.flags.setOccupied(x)
		t.used++
		t.occupied++
	case t.flags.isDeleted(x):
		// Reusing a tombstone: the slot was already counted in occupied.
		t.keys[x] = key
		t.flags.setOccupied(x)
		t.used++
	default:
		t.checkInvariants()
		return Index(x), RetPresent
	}
	t.checkInvariants()
	return Index(x), RetInserted
}

// DeleteAt deletes the entry at slot i, turning it into a tombstone. It is
// a no-op if the slot does not hold a live entry (including i == Missing),
// so deleting the same index twice is harmless.
//
// DeleteAt never compacts or shrinks: tombstones accumulate until the next
// insert-triggered rehash or an explicit Resize. This trades space
// reclamation for delete throughput.
func (t *Table[K, V]) DeleteAt(i Index) {
	x := uint32(i)
	if x >= t.capacity || t.flags.isEither(x) {
		return
	}
	t.flags.setDeleted(x)
	t.used--
	t.checkInvariants()
}

// Clear removes all entries, marking every slot empty without releasing
// the backing arrays. It is an O(Cap()) operation.
func (t *Table[K, V]) Clear() {
	if t.flags == nil {
		return
	}
	t.flags.reset()
	t.used = 0
	t.occupied = 0
	t.checkInvariants()
}

// Close releases the backing arrays to the table's allocator. It is
// unnecessary to close a table using the default allocator. It is invalid
// to use a Table after it has been closed, though Close itself is
// idempotent.
func (t *Table[K, V]) Close() {
	if t.capacity > 0 {
		t.alloc.FreeKeys(t.keys)
		t.alloc.FreeValues(t.vals)
		t.alloc.FreeFlags(t.flags)
	}
	t.flags = nil
	t.keys = nil
	t.vals = nil
	t.capacity = 0
	t.occupied = 0
	t.used = 0
}

// All calls yield sequentially for each live slot, scanning from slot 0.
// If yield returns false, iteration stops. The order is hash-dependent and
// unspecified.
//
// Deleting an index that has already been yielded (via DeleteAt) is safe
// during iteration; inserting is not, as a resize would invalidate the
// scan.
func (t *Table[K, V]) All(yield func(i Index) bool) {
	for i := uint32(0); i < t.capacity; i++ {
		if t.flags.isEither(i) {
			continue
		}
		if !yield(Index(i)) {
			return
		}
	}
}

// Resize rehashes the table into max(4, next power of two >= n) slots,
// eliminating all tombstones. Shrinking below what the live entries fit in
// (per the load factor) is a no-op, not an error. On ErrAllocation the
// table is unchanged and remains usable at its current capacity.
//
// All allocation happens before any state is mutated: growth allocates
// the larger key and value arrays up front, shrinking allocates the
// smaller ones and copies into them after relocation. Only one state
// vector beyond the current one is ever live, mirroring the original
// design of trading a second full-size table for a kick-out relocation
// walk.
func (t *Table[K, V]) Resize(n int) error {
	if n < 0 {
		n = 0
	}
	newCapacity := nextCapacity(uint32(n))
	if t.used >= upperBound(newCapacity) {
		// Requested size is too small for the live entries; keep the
		// current capacity.
		return nil
	}

	newFlags, err := t.newFlags(newCapacity)
	if err != nil {
		return err
	}
	var shrinkKeys []K
	var shrinkVals []V
	if newCapacity > t.capacity {
		newKeys, err := t.alloc.AllocKeys(int(newCapacity))
		if err != nil {
			t.alloc.FreeFlags(newFlags)
			return ErrAllocation
		}
		newVals, err := t.alloc.AllocValues(int(newCapacity))
		if err != nil {
			t.alloc.FreeKeys(newKeys)
			t.alloc.FreeFlags(newFlags)
			return ErrAllocation
		}
		copy(newKeys, t.keys)
		copy(newVals, t.vals)
		if t.keys != nil {
			t.alloc.FreeKeys(t.keys)
			t.alloc.FreeValues(t.vals)
		}
		t.keys = newKeys
		t.vals = newVals
	} else if newCapacity < t.capacity {
		if shrinkKeys, err = t.alloc.AllocKeys(int(newCapacity)); err != nil {
			t.alloc.FreeFlags(newFlags)
			return ErrAllocation
		}
		if shrinkVals, err = t.alloc.AllocValues(int(newCapacity)); err != nil {
			t.alloc.FreeKeys(shrinkKeys)
			t.alloc.FreeFlags(newFlags)
			return ErrAllocation
		}
	}

	// Relocate every live entry with a kick-out walk, sort of like in
	// cuckoo hashing. Marking the source slot deleted in the old state
	// vector records that its entry has been evacuated; landing on a slot
	// that still holds an unevacuated entry swaps with it and continues
	// the walk with the displaced entry.
	newMask := newCapacity - 1
	for j := uint32(0); j < t.capacity; j++ {
		if t.flags.isEither(j) {
			continue
		}
		key := t.keys[j]
		val := t.vals[j]
		t.flags.setDeleted(j)
		for {
			i := uint32(t.hash(key)) & newMask
			step := uint32(0)
			for !newFlags.isEmpty(i) {
				step++
				i = (i + step) & newMask
			}
			newFlags.setOccupied(i)
			if i < t.capacity && !t.flags.isEither(i) {
				t.keys[i], key = key, t.keys[i]
				t.vals[i], val = val, t.vals[i]
				t.flags.setDeleted(i)
				continue
			}
			t.keys[i] = key
			t.vals[i] = val
			break
		}
	}

	if newCapacity < t.capacity {
		copy(shrinkKeys, t.keys[:newCapacity])
		copy(shrinkVals, t.vals[:newCapacity])
		t.alloc.FreeKeys(t.keys)
		t.alloc.FreeValues(t.vals)
		t.keys = shrinkKeys
		t.vals = shrinkVals
	}
	if t.flags != nil {
		t.alloc.FreeFlags(t.flags)
	}
	t.flags = newFlags
	t.capacity = newCapacity
	// Rehashing eliminated every tombstone.
	t.occupied = t.used
	t.checkInvariants()
	return nil
}

// newFlags allocates an all-empty state vector for the given capacity.
func (t *Table[K, V]) newFlags(capacity uint32) (slotFlags, error) {
	words, err := t.alloc.AllocFlags(int(flagWords(capacity)))
	if err != nil {
		return nil, ErrAllocation
	}
	f := slotFlags(words)
	f.reset()
	return f, nil
}

func (t *Table[K, V]) checkInvariants() {
	if !invariants {
		return
	}
	if t.capacity != 0 && (t.capacity < 4 || t.capacity&(t.capacity-1) != 0) {
		panic(fmt.Sprintf("invariant failed: capacity %d is not a power of two >= 4", t.capacity))
	}
	var used, occupied uint32
	for i := uint32(0); i < t.capacity; i++ {
		switch {
		case t.flags.isEmpty(i):
		case t.flags.isDeleted(i):
			occupied++
		default:
			occupied++
			used++
			if t.Get(t.keys[i]) == Missing {
				panic(fmt.Sprintf("invariant failed: slot(%d): %v not found\n%s",
					i, t.keys[i], t.debugString()))
			}
		}
	}
	if used != t.used {
		panic(fmt.Sprintf("invariant failed: found %d live slots, but used count is %d\n%s",
			used, t.used, t.debugString()))
	}
	if occupied != t.occupied {
		panic(fmt.Sprintf("invariant failed: found %d occupied slots, but occupied count is %d\n%s",
			occupied, t.occupied, t.debugString()))
	}
	if t.occupied > upperBound(t.capacity) {
		panic(fmt.Sprintf("invariant failed: occupied %d exceeds upper bound %d\n%s",
			t.occupied, upperBound(t.capacity), t.debugString()))
	}
}

func (t *Table[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  occupied=%d\n", t.capacity, t.used, t.occupied)
	for i := uint32(0); i < t.capacity; i++ {
		switch {
		case t.flags.isEmpty(i):
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		case t.flags.isDeleted(i):
			fmt.Fprintf(&buf, "  %4d: deleted\n", i)
		default:
			fmt.Fprintf(&buf, "  %4d: %v [hash=%016x]\n", i, t.keys[i], t.hash(t.keys[i]))
		}
	}
	return buf.String()
}
