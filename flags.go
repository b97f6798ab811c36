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

// Each slot in the table has a 2-bit state packed 16 slots to a uint32
// word. The states and their bit patterns (empty bit, deleted bit):
//
//	   empty: 1 0
//	occupied: 0 0
//	 deleted: 0 1
//
// A freshly allocated or cleared vector is filled with emptyWord so that
// every slot reads as empty. A slot never transitions occupied->empty
// directly: deletion produces a tombstone and only a rehash (or Clear)
// makes slots empty again.
type slotFlags []uint32

const (
	flagEmptyBit   = 2
	flagDeletedBit = 1

	// emptyWord is the all-slots-empty bit pattern (0b10 repeated).
	emptyWord uint32 = 0xaaaaaaaa
)

// flagWords returns the number of uint32 words needed to track n slots.
func flagWords(n uint32) uint32 {
	if n < 16 {
		return 1
	}
	return n >> 4
}

// reset marks every slot empty.
func (f slotFlags) reset() {
	for i := range f {
		f[i] = emptyWord
	}
}

// No bounds checking is performed on the slot index; callers guarantee
// 0 <= i < capacity.

func (f slotFlags) isEmpty(i uint32) bool {
	return (f[i>>4]>>((i&0xf)<<1))&flagEmptyBit != 0
}

func (f slotFlags) isDeleted(i uint32) bool {
	return (f[i>>4]>>((i&0xf)<<1))&flagDeletedBit != 0
}

// isEither reports whether slot i is empty or deleted, i.e. not occupied.
// This is the combined query probe loops terminate on.
func (f slotFlags) isEither(i uint32) bool {
	return (f[i>>4]>>((i&0xf)<<1))&(flagEmptyBit|flagDeletedBit) != 0
}

// setOccupied clears both state bits, marking slot i occupied.
func (f slotFlags) setOccupied(i uint32) {
	f[i>>4] &^= (flagEmptyBit | flagDeletedBit) << ((i & 0xf) << 1)
}

// setDeleted turns an occupied slot i into a tombstone.
func (f slotFlags) setDeleted(i uint32) {
	f[i>>4] |= flagDeletedBit << ((i & 0xf) << 1)
}
