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

// package robinhood provides generic hash maps built on Robin Hood hashing
// as described in https://cs.uwaterloo.ca/research/tr/1986/CS-86-14.pdf.
// See also: https://programming.guide/robin-hood-hashing.html.
//
// # Robin Hood hashing
//
// A Map is a flat open-addressing table: every entry lives directly in a
// slot array whose length is a power of 2, and collisions are resolved with
// linear probing. Each entry records its probe sequence length (psl), the
// number of slots between the slot it occupies and its ideal slot
// hash(key)&(capacity-1).
//
// On insertion the new entry walks forward from its ideal slot. Whenever it
// meets an entry with a strictly smaller psl (an entry that is "richer",
// sitting closer to its own ideal slot) the two trade places and the evicted
// entry continues probing. This keeps the variance of probe lengths low and
// gives lookups an early exit: a lookup that has probed n slots can stop as
// soon as it meets an entry with psl < n, because the key it is looking for
// would have displaced that entry.
//
// Deletion uses backward shifting rather than tombstones. After clearing
// the slot of the deleted entry, every following entry with psl > 0 is
// moved back one slot until an empty slot or an entry already in its ideal
// slot is reached. The table therefore never accumulates tombstones and
// lookups remain bounded after arbitrary deletions.
//
// The table grows to twice its capacity before an insertion once 13/16 of
// the slots are used, reinserting every entry into the new slot array.
//
// # Ordered maps
//
// An OrderedMap uses the same table, but its slots hold indices into a
// separate list of nodes which carry the values and are linked in the order
// keys were first inserted. Robin Hood swaps and backward shifts move
// indices between slots and never touch the links, so iteration over an
// OrderedMap always yields keys in insertion order. Updating the value of an
// existing key does not move it.
//
// Neither Map nor OrderedMap is goroutine-safe.
package robinhood

import "iter"

// Pair is a key and its value.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is an unordered map from keys to values with Put, Get, Delete, and All
// operations, implemented as a Robin Hood hash table. By default, a Map[K,V]
// uses a randomly seeded hash of K, though a different hash function can be
// specified using the WithHasher or WithHash options.
//
// Iteration order is the physical slot order and must not be relied upon.
//
// A Map is NOT goroutine-safe.
type Map[K comparable, V any] struct {
	hasher Hasher[K]
	table  table[K, V]
}

// New constructs a new Map with the specified initial capacity, rounded up
// to a power of 2 no smaller than 8. If initialCapacity is 0 the map will
// start out with zero capacity and will grow to 8 slots on the first insert.
// The zero value for a Map is not usable.
func New[K comparable, V any](initialCapacity int, options ...option[K, V]) *Map[K, V] {
	o := makeOptions(options)
	m := &Map[K, V]{hasher: o.hasher}
	m.table.init(initialCapacity, o.allocator)
	m.table.checkInvariants()
	return m
}

// FromPairs constructs a Map holding pairs. When a key appears more than
// once the last value wins.
func FromPairs[K comparable, V any](pairs []Pair[K, V], options ...option[K, V]) *Map[K, V] {
	m := New[K, V](0, options...)
	for _, p := range pairs {
		m.Put(p.Key, p.Value)
	}
	return m
}

// Collect constructs a Map holding the key-value pairs of seq. When a key
// appears more than once the last value wins.
func Collect[K comparable, V any](seq iter.Seq2[K, V], options ...option[K, V]) *Map[K, V] {
	m := New[K, V](0, options...)
	for k, v := range seq {
		m.Put(k, v)
	}
	return m
}

// Close closes the map, releasing any memory back to its configured
// allocator. It is unnecessary to close a map using the default allocator. It
// is invalid to use a Map after it has been closed, though Close itself is
// idempotent.
func (m *Map[K, V]) Close() {
	if len(m.table.slots) > 0 {
		m.table.allocator.Free(m.table.slots)
	}
	m.table.slots = nil
	m.table.mask = 0
	m.table.used = 0
	m.table.growAt = 0
}

// Put inserts an entry into the map, overwriting an existing value if an
// entry with the same key already exists.
func (m *Map[K, V]) Put(key K, value V) {
	h := m.hasher.Hash(key)
	// The threshold is checked before probing, even when key turns out to be
	// present. A resize never changes the contents of the map.
	if m.table.needsGrow() {
		m.table.grow(nil)
	}
	m.table.insert(h, key, value)
	m.table.checkInvariants()
}

// Get retrieves the value from the map for the specified key, return ok=false
// if the key is not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	if v := m.table.get(m.hasher.Hash(key), key); v != nil {
		return *v, true
	}
	return value, false
}

// GetOrDefault returns the value for key, or def if the key is not present.
func (m *Map[K, V]) GetOrDefault(key K, def V) V {
	if v := m.table.get(m.hasher.Hash(key), key); v != nil {
		return *v
	}
	return def
}

// Has returns true if key is present in the map.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.table.find(m.hasher.Hash(key), key)
	return ok
}

// Delete deletes the entry corresponding to the specified key from the map.
// It is a noop to delete a non-existent key.
func (m *Map[K, V]) Delete(key K) {
	m.table.delete(m.hasher.Hash(key), key)
	m.table.checkInvariants()
}

// Clear deletes all entries from the map resulting in an empty map. The
// capacity is retained.
func (m *Map[K, V]) Clear() {
	m.table.clear()
	m.table.checkInvariants()
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.table.used
}

// IsEmpty returns true if the map holds no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.table.used == 0
}

// Capacity returns the number of slots in the map.
func (m *Map[K, V]) Capacity() int {
	return len(m.table.slots)
}

// All calls yield sequentially for each key and value present in the map. If
// yield returns false, All stops the iteration. All has the shape of an
// iter.Seq2 and can be ranged over directly:
//
//	for k, v := range m.All {
//	  fmt.Printf("%v: %v\n", k, v)
//	}
//
// It is not safe to Put or Delete while ranging.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	m.table.all(func(s *Slot[K, V]) bool {
		return yield(s.key, s.value)
	})
}

// Enumerate is like All, but also passes yield the position of each entry in
// the iteration, starting at 0.
func (m *Map[K, V]) Enumerate(yield func(i int, key K, value V) bool) {
	var i int
	m.All(func(k K, v V) bool {
		if !yield(i, k, v) {
			return false
		}
		i++
		return true
	})
}

// Keys returns an iterator over the keys in the map.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		m.All(func(k K, _ V) bool {
			return yield(k)
		})
	}
}

// Values returns an iterator over the values in the map.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		m.All(func(_ K, v V) bool {
			return yield(v)
		})
	}
}

// Pairs returns the entries of the map in iteration order.
func (m *Map[K, V]) Pairs() []Pair[K, V] {
	pairs := make([]Pair[K, V], 0, m.Len())
	m.All(func(k K, v V) bool {
		pairs = append(pairs, Pair[K, V]{k, v})
		return true
	})
	return pairs
}

// layout renders the raw slot contents for diagnostics.
func (m *Map[K, V]) layout() string {
	return m.table.layout(nil)
}
