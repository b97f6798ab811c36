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
	"bytes"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// HashFn computes the hash of a key. A table requires that equal keys (per
// its EqualFn) hash identically.
type HashFn[K any] func(key K) uint64

// EqualFn reports whether two keys are equal. Equality may be partial
// (e.g. compare only an ID field of a struct key); the table stores the
// first key inserted for an equivalence class.
type EqualFn[K any] func(a, b K) bool

// Identical is the equality function for comparable key types.
func Identical[K comparable](a, b K) bool {
	return a == b
}

// EqualBytes is the equality function for byte-slice keys.
func EqualBytes(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// HashString hashes a string key.
func HashString(key string) uint64 {
	return xxhash.Sum64String(key)
}

// HashBytes hashes a byte-slice key.
func HashBytes(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// HashUint32 hashes a 32-bit integer key. Sequential keys are common, so
// the identity is good enough once masked against a power-of-two capacity.
func HashUint32(key uint32) uint64 {
	return uint64(key)
}

// HashUint64 hashes a 64-bit integer key, folding the high bits into the
// low bits so that masking does not discard them.
func HashUint64(key uint64) uint64 {
	return key>>33 ^ key ^ key<<11
}

// HashInt hashes an int key.
func HashInt(key int) uint64 {
	return HashUint64(uint64(key))
}

// comparableHash returns a hash function for a comparable key type backed
// by the runtime's hashing, seeded per table.
func comparableHash[K comparable]() HashFn[K] {
	seed := maphash.MakeSeed()
	return func(key K) uint64 {
		return maphash.Comparable(seed, key)
	}
}
