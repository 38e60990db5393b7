// Copyright 2024 The Cockroach Authors
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

package robinhood

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

const (
	debug = false

	// defaultCapacity is the capacity a zero-capacity table bootstraps to on
	// the first insertion.
	defaultCapacity = 8

	// maxCapacity is the largest power of 2 representable as an int.
	maxCapacity = 1 << (bits.UintSize - 2)

	// A table grows before an insertion once used >= capacity*13/16.
	maxLoadNum = 13
	maxLoadDen = 16
)

// ErrFull is the error wrapped by the panic raised when a probe sequence
// visits every slot without finding a home for an entry. It can only happen
// if the growth threshold was not enforced before an insertion.
var ErrFull = errors.New("robinhood: table is full")

// Slot holds a key and value along with the hash of the key and the probe
// sequence length (psl) of the entry: the distance from the slot the entry
// occupies to its ideal slot.
type Slot[K comparable, V any] struct {
	key   K
	value V
	hash  uint64
	psl   uint32
	used  bool
}

// table is the open-addressing engine shared by Map and OrderedMap. It
// stores hashes computed by the caller and never calls a hash function
// itself.
//
// Robin Hood invariant: an occupied slot i holding an entry whose ideal slot
// is h has psl == (i-h)&mask, and for every occupied slot with psl > 0 the
// preceding slot is occupied by an entry with psl >= this psl-1. Lookups
// rely on the latter to stop as soon as they see an entry that is closer to
// home than the key being searched for would be.
type table[K comparable, V any] struct {
	// slots is 0 or 2^N in length.
	slots []Slot[K, V]
	// mask is len(slots)-1, used to compute i%len(slots) with a bitwise &.
	mask uint64
	// The number of occupied slots.
	used int
	// growAt is capacity*maxLoadNum/maxLoadDen.
	growAt int
	// The allocator to use for the slots slice.
	allocator Allocator[K, V]
}

func (t *table[K, V]) init(capacity int, allocator Allocator[K, V]) {
	t.allocator = allocator
	if capacity > maxCapacity {
		panic(fmt.Sprintf("robinhood: capacity %d exceeds maximum %d", capacity, maxCapacity))
	}
	if capacity > 0 {
		targetCapacity := defaultCapacity
		for targetCapacity < capacity {
			targetCapacity *= 2
		}
		t.resize(targetCapacity, nil)
	}
}

// needsGrow reports whether the table must grow before the next insertion.
func (t *table[K, V]) needsGrow() bool {
	return len(t.slots) == 0 || t.used >= t.growAt
}

// find returns the index of the slot holding key.
func (t *table[K, V]) find(h uint64, key K) (uint64, bool) {
	i, _, ok := t.probe(h, key)
	return i, ok
}

// probe walks the probe sequence of key and returns the index of the slot
// holding it along with the number of slots stepped past before stopping.
func (t *table[K, V]) probe(h uint64, key K) (uint64, uint32, bool) {
	if len(t.slots) == 0 {
		return 0, 0, false
	}
	i := h & t.mask
	if debug {
		fmt.Printf("find(%v): hash=%x ideal=%d\n", key, h, i)
	}
	for psl := uint32(0); ; psl++ {
		s := &t.slots[i]
		// An entry closer to its ideal slot than we are to ours means key
		// would have displaced it had key been present.
		if !s.used || s.psl < psl {
			if debug {
				fmt.Printf("find(not-found): index=%d psl=%d\n", i, psl)
			}
			return 0, psl, false
		}
		if s.hash == h && s.key == key {
			return i, psl, true
		}
		i = (i + 1) & t.mask
	}
}

// get returns a pointer to the value stored for key, or nil.
func (t *table[K, V]) get(h uint64, key K) *V {
	if i, ok := t.find(h, key); ok {
		return &t.slots[i].value
	}
	return nil
}

// insert places key in the table, overwriting the value of an existing entry
// with the same key. It never grows the table and reports whether a new
// entry was added.
func (t *table[K, V]) insert(h uint64, key K, value V) bool {
	cand := Slot[K, V]{key: key, value: value, hash: h, used: true}
	i := h & t.mask
	if debug {
		fmt.Printf("put(%v,%v): hash=%x ideal=%d\n", key, value, h, i)
	}

	for n := 0; n < len(t.slots); n++ {
		s := &t.slots[i]
		if !s.used {
			*s = cand
			t.used++
			if debug {
				fmt.Printf("put(inserting): index=%d psl=%d used=%d\n", i, s.psl, t.used)
			}
			return true
		}
		// Only the original candidate can match: entries evicted along the
		// way are unique within the table.
		if s.hash == cand.hash && s.key == cand.key {
			s.value = cand.value
			if debug {
				fmt.Printf("put(updating): index=%d key=%v\n", i, key)
			}
			return false
		}
		// Take from the rich: the incumbent is closer to home than the
		// candidate, so the candidate takes its slot and the incumbent
		// continues probing. Ties leave the incumbent in place.
		if s.psl < cand.psl {
			if debug {
				fmt.Printf("put(swapping): index=%d evicting=%v psl=%d<%d\n",
					i, s.key, s.psl, cand.psl)
			}
			*s, cand = cand, *s
		}
		cand.psl++
		i = (i + 1) & t.mask
	}

	panic(fmt.Errorf("%w: probe sequence for %v exceeded capacity %d (used=%d grow-at=%d)",
		ErrFull, cand.key, len(t.slots), t.used, t.growAt))
}

// deleteAt clears slot i and closes the gap by shifting the following run of
// displaced entries back by one slot. No tombstones are left behind.
func (t *table[K, V]) deleteAt(i uint64) {
	if debug {
		fmt.Printf("delete(%v): index=%d used=%d\n", t.slots[i].key, i, t.used-1)
	}
	for {
		next := (i + 1) & t.mask
		s := &t.slots[next]
		if !s.used || s.psl == 0 {
			t.slots[i] = Slot[K, V]{}
			break
		}
		t.slots[i] = *s
		t.slots[i].psl--
		i = next
	}
	t.used--
}

// delete removes key from the table, returning the removed value.
func (t *table[K, V]) delete(h uint64, key K) (value V, ok bool) {
	i, ok := t.find(h, key)
	if !ok {
		return value, false
	}
	value = t.slots[i].value
	t.deleteAt(i)
	return value, true
}

// clear removes every entry while keeping the current capacity.
func (t *table[K, V]) clear() {
	clear(t.slots)
	t.used = 0
}

// grow doubles the capacity of the table, or bootstraps an empty table to
// defaultCapacity. See resize for the meaning of replay.
func (t *table[K, V]) grow(replay func(insert func(h uint64, key K, value V) bool)) {
	if len(t.slots) >= maxCapacity {
		panic(fmt.Sprintf("robinhood: cannot grow beyond capacity %d", maxCapacity))
	}
	newCapacity := 2 * len(t.slots)
	if newCapacity == 0 {
		newCapacity = defaultCapacity
	}
	t.resize(newCapacity, replay)
}

// resize allocates a slot array of newCapacity and reinserts every live
// entry into it. The new geometry is fully installed before the first entry
// is replayed, so replay never triggers a nested resize. If replay is nil
// the entries are reinserted in old slot order. Otherwise replay is handed
// the insert routine and is responsible for reinserting every entry, in
// whatever order it requires.
func (t *table[K, V]) resize(newCapacity int, replay func(insert func(h uint64, key K, value V) bool)) {
	oldSlots := t.slots
	t.slots = t.allocator.Alloc(newCapacity)
	t.mask = uint64(newCapacity - 1)
	t.growAt = newCapacity * maxLoadNum / maxLoadDen
	oldUsed := t.used
	t.used = 0

	if debug {
		fmt.Printf("resize: capacity=%d->%d  grow-at=%d\n", len(oldSlots), newCapacity, t.growAt)
	}

	if replay == nil {
		for i := range oldSlots {
			if s := &oldSlots[i]; s.used {
				t.insert(s.hash, s.key, s.value)
			}
		}
	} else {
		replay(t.insert)
	}

	if t.used != oldUsed {
		panic(fmt.Sprintf("resize: replayed %d entries, but %d were live", t.used, oldUsed))
	}
	if len(oldSlots) > 0 {
		t.allocator.Free(oldSlots)
	}

	t.checkInvariants()
}

// all calls yield sequentially for each occupied slot in slot order.
func (t *table[K, V]) all(yield func(s *Slot[K, V]) bool) {
	slots := t.slots
	for i := range slots {
		if s := &slots[i]; s.used {
			if !yield(s) {
				return
			}
		}
	}
}

func (t *table[K, V]) checkInvariants() {
	if invariants {
		if err := t.verify(); err != nil {
			panic(fmt.Sprintf("invariant failed: %v\n%s", err, t.debugString()))
		}
	}
}

// verify checks the Robin Hood invariant, the used count, and that every
// entry is reachable by find.
func (t *table[K, V]) verify() error {
	if len(t.slots)&(len(t.slots)-1) != 0 {
		return fmt.Errorf("capacity %d is not a power of 2", len(t.slots))
	}
	var used int
	for i := range t.slots {
		s := &t.slots[i]
		if !s.used {
			continue
		}
		used++
		ideal := s.hash & t.mask
		if psl := uint32((uint64(i) - ideal) & t.mask); s.psl != psl {
			return fmt.Errorf("slot(%d): %v has psl %d, but is %d slots from its ideal slot %d",
				i, s.key, s.psl, psl, ideal)
		}
		if s.psl > 0 {
			prev := &t.slots[(uint64(i)-1)&t.mask]
			if !prev.used {
				return fmt.Errorf("slot(%d): %v has psl %d, but follows an empty slot", i, s.key, s.psl)
			}
			if prev.psl+1 < s.psl {
				return fmt.Errorf("slot(%d): %v has psl %d, but follows %v with psl %d",
					i, s.key, s.psl, prev.key, prev.psl)
			}
		}
		if j, ok := t.find(s.hash, s.key); !ok || j != uint64(i) {
			return fmt.Errorf("slot(%d): %v not found [hash=%x]", i, s.key, s.hash)
		}
	}
	if used != t.used {
		return fmt.Errorf("found %d used slots, but used count is %d", used, t.used)
	}
	return nil
}

func (t *table[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  grow-at=%d\n", len(t.slots), t.used, t.growAt)
	for i := range t.slots {
		s := &t.slots[i]
		if !s.used {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
			continue
		}
		fmt.Fprintf(&buf, "  %4d: %v [psl=%d ideal=%d hash=%x]\n", i, s.key, s.psl, s.hash&t.mask, s.hash)
	}
	return buf.String()
}

// layout renders the slots as a comma separated list with "(psl,key,value)"
// for an occupied slot and "_" for an empty one. If render is non-nil it is
// used to format values. The format is for diagnostics only.
func (t *table[K, V]) layout(render func(key K, value V) (any, any)) string {
	var buf strings.Builder
	for i := range t.slots {
		if i > 0 {
			buf.WriteByte(',')
		}
		s := &t.slots[i]
		if !s.used {
			buf.WriteByte('_')
			continue
		}
		var k, v any = s.key, s.value
		if render != nil {
			k, v = render(s.key, s.value)
		}
		fmt.Fprintf(&buf, "(%d,%v,%v)", s.psl, k, v)
	}
	return buf.String()
}
