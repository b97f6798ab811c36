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

// Option configures a Table (or a Map or Set built on one) at construction
// time.
type Option[K any, V any] interface {
	apply(c *config[K, V])
}

type config[K any, V any] struct {
	capacity  int
	allocator Allocator[K, V]
}

type capacityOption[K any, V any] struct {
	capacity int
}

func (op capacityOption[K, V]) apply(c *config[K, V]) {
	c.capacity = op.capacity
}

// WithCapacity is an option to pre-size the table for the given number of
// slots, avoiding incremental growth during an initial fill. If allocation
// fails (only possible with a custom allocator) the table starts empty and
// the first Put retries.
func WithCapacity[K any, V any](capacity int) Option[K, V] {
	return capacityOption[K, V]{capacity}
}

// Allocator specifies an interface for allocating and releasing the three
// backing arrays of a Table. The default allocator utilizes Go's builtin
// make() and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory then Table.Close must be
// called in order to ensure the Free methods are called. The three arrays
// are always allocated and released together; an Alloc failure is surfaced
// by the table as ErrAllocation with no partial state change.
type Allocator[K any, V any] interface {
	// AllocKeys should return a slice equivalent to make([]K, n).
	AllocKeys(n int) ([]K, error)

	// AllocValues should return a slice equivalent to make([]V, n).
	AllocValues(n int) ([]V, error)

	// AllocFlags should return a slice equivalent to make([]uint32, words).
	// The table fills it with the all-empty pattern itself.
	AllocFlags(words int) ([]uint32, error)

	// FreeKeys can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by AllocKeys.
	FreeKeys(v []K)

	// FreeValues can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocValues.
	FreeValues(v []V)

	// FreeFlags can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocFlags.
	FreeFlags(v []uint32)
}

type defaultAllocator[K any, V any] struct{}

func (defaultAllocator[K, V]) AllocKeys(n int) ([]K, error) {
	return make([]K, n), nil
}

func (defaultAllocator[K, V]) AllocValues(n int) ([]V, error) {
	return make([]V, n), nil
}

func (defaultAllocator[K, V]) AllocFlags(words int) ([]uint32, error) {
	return make([]uint32, words), nil
}

func (defaultAllocator[K, V]) FreeKeys(v []K) {
}

func (defaultAllocator[K, V]) FreeValues(v []V) {
}

func (defaultAllocator[K, V]) FreeFlags(v []uint32) {
}

type allocatorOption[K any, V any] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(c *config[K, V]) {
	c.allocator = op.allocator
}

// WithAllocator is an option to specify the Allocator to use for the
// table's backing arrays.
func WithAllocator[K any, V any](allocator Allocator[K, V]) Option[K, V] {
	return allocatorOption[K, V]{allocator}
}
