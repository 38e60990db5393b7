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
	"iter"
)

var errOrderedAllocator = errors.New("robinhood: OrderedMap does not support WithAllocator")

// OrderedMap is a map from keys to values that iterates in the order keys
// were first inserted. Its table maps each key to the index of a node in an
// insertion-ordered list; the node holds the value.
//
// An OrderedMap is NOT goroutine-safe.
type OrderedMap[K comparable, V any] struct {
	hasher Hasher[K]
	table  table[K, uint32]
	list   list[K, V]
}

// NewOrdered constructs a new OrderedMap with the specified initial
// capacity. The capacity is treated as in New. NewOrdered panics if given
// WithAllocator: the table of an OrderedMap holds node indexes rather than
// values of type V, so it cannot use an Allocator[K,V].
func NewOrdered[K comparable, V any](initialCapacity int, options ...option[K, V]) *OrderedMap[K, V] {
	o := makeOptions(options)
	if _, ok := o.allocator.(defaultAllocator[K, V]); !ok {
		panic(errOrderedAllocator)
	}
	m := &OrderedMap[K, V]{hasher: o.hasher}
	m.table.init(initialCapacity, defaultAllocator[K, uint32]{})
	m.list.init(m.table.growAt)
	m.checkInvariants()
	return m
}

// OrderedFromPairs constructs an OrderedMap holding pairs. When a key
// appears more than once the last value wins, and the key keeps the position
// of its first occurrence.
func OrderedFromPairs[K comparable, V any](pairs []Pair[K, V], options ...option[K, V]) *OrderedMap[K, V] {
	m := NewOrdered[K, V](0, options...)
	for _, p := range pairs {
		m.Put(p.Key, p.Value)
	}
	return m
}

// CollectOrdered constructs an OrderedMap holding the key-value pairs of seq
// in the order seq yields them.
func CollectOrdered[K comparable, V any](seq iter.Seq2[K, V], options ...option[K, V]) *OrderedMap[K, V] {
	m := NewOrdered[K, V](0, options...)
	for k, v := range seq {
		m.Put(k, v)
	}
	return m
}

// Put inserts an entry into the map, overwriting an existing value if an
// entry with the same key already exists. A new key is appended to the end
// of the iteration order; an existing key keeps its position.
func (m *OrderedMap[K, V]) Put(key K, value V) {
	h := m.hasher.Hash(key)
	if m.table.needsGrow() {
		m.grow()
	}
	if i := m.table.get(h, key); i != nil {
		m.list.nodes[*i].value = value
		return
	}
	m.table.insert(h, key, m.list.pushBack(key, value, h))
	m.checkInvariants()
}

// grow resizes the table by replaying the nodes from head to tail into a new
// table and a new, compacted list. Replaying in list order makes the new
// table identical to one built by inserting the keys in order.
func (m *OrderedMap[K, V]) grow() {
	old := m.list
	m.table.grow(func(insert func(h uint64, key K, value uint32) bool) {
		m.list = list[K, V]{}
		m.list.init(old.len)
		old.all(func(n *node[K, V]) bool {
			insert(n.hash, n.key, m.list.pushBack(n.key, n.value, n.hash))
			return true
		})
	})
}

// Get retrieves the value from the map for the specified key, return ok=false
// if the key is not present.
func (m *OrderedMap[K, V]) Get(key K) (value V, ok bool) {
	if i := m.table.get(m.hasher.Hash(key), key); i != nil {
		return m.list.nodes[*i].value, true
	}
	return value, false
}

// GetOrDefault returns the value for key, or def if the key is not present.
func (m *OrderedMap[K, V]) GetOrDefault(key K, def V) V {
	if i := m.table.get(m.hasher.Hash(key), key); i != nil {
		return m.list.nodes[*i].value
	}
	return def
}

// Has returns true if key is present in the map.
func (m *OrderedMap[K, V]) Has(key K) bool {
	_, ok := m.table.find(m.hasher.Hash(key), key)
	return ok
}

// Delete deletes the entry corresponding to the specified key from the map.
// It is a noop to delete a non-existent key. The remaining keys keep their
// relative order.
func (m *OrderedMap[K, V]) Delete(key K) {
	if i, ok := m.table.delete(m.hasher.Hash(key), key); ok {
		m.list.remove(i)
	}
	m.checkInvariants()
}

// Clear deletes all entries from the map resulting in an empty map. The
// capacity is retained.
func (m *OrderedMap[K, V]) Clear() {
	m.table.clear()
	m.list.clear()
	m.checkInvariants()
}

// Len returns the number of entries in the map.
func (m *OrderedMap[K, V]) Len() int {
	return m.list.len
}

// IsEmpty returns true if the map holds no entries.
func (m *OrderedMap[K, V]) IsEmpty() bool {
	return m.list.len == 0
}

// Capacity returns the number of slots in the map's table.
func (m *OrderedMap[K, V]) Capacity() int {
	return len(m.table.slots)
}

// First returns the oldest entry in the map, or ok=false if it is empty.
func (m *OrderedMap[K, V]) First() (key K, value V, ok bool) {
	if i := m.list.head(); i != 0 {
		n := &m.list.nodes[i]
		return n.key, n.value, true
	}
	return key, value, false
}

// Last returns the newest entry in the map, or ok=false if it is empty.
func (m *OrderedMap[K, V]) Last() (key K, value V, ok bool) {
	if i := m.list.tail(); i != 0 {
		n := &m.list.nodes[i]
		return n.key, n.value, true
	}
	return key, value, false
}

// All calls yield sequentially for each key and value in insertion order. If
// yield returns false, All stops the iteration. It is not safe to Put or
// Delete while ranging.
func (m *OrderedMap[K, V]) All(yield func(key K, value V) bool) {
	m.list.all(func(n *node[K, V]) bool {
		return yield(n.key, n.value)
	})
}

// Backward is like All, but iterates from the newest entry to the oldest.
func (m *OrderedMap[K, V]) Backward(yield func(key K, value V) bool) {
	m.list.backward(func(n *node[K, V]) bool {
		return yield(n.key, n.value)
	})
}

// Enumerate is like All, but also passes yield the insertion position of
// each entry among the live entries, starting at 0.
func (m *OrderedMap[K, V]) Enumerate(yield func(i int, key K, value V) bool) {
	var i int
	m.All(func(k K, v V) bool {
		if !yield(i, k, v) {
			return false
		}
		i++
		return true
	})
}

// Keys returns an iterator over the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		m.All(func(k K, _ V) bool {
			return yield(k)
		})
	}
}

// Values returns an iterator over the values in insertion order of their
// keys.
func (m *OrderedMap[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		m.All(func(_ K, v V) bool {
			return yield(v)
		})
	}
}

// Pairs returns the entries of the map in insertion order.
func (m *OrderedMap[K, V]) Pairs() []Pair[K, V] {
	pairs := make([]Pair[K, V], 0, m.Len())
	m.All(func(k K, v V) bool {
		pairs = append(pairs, Pair[K, V]{k, v})
		return true
	})
	return pairs
}

func (m *OrderedMap[K, V]) checkInvariants() {
	if invariants {
		if err := m.verify(); err != nil {
			panic(fmt.Sprintf("invariant failed: %v\n%s", err, m.table.debugString()))
		}
	}
}

// verify checks the table and the list, and that they describe the same set
// of entries.
func (m *OrderedMap[K, V]) verify() error {
	if err := m.table.verify(); err != nil {
		return err
	}
	if err := m.list.verify(); err != nil {
		return err
	}
	if m.table.used != m.list.len {
		return fmt.Errorf("table holds %d entries, but list holds %d", m.table.used, m.list.len)
	}
	var err error
	m.table.all(func(s *Slot[K, uint32]) bool {
		if s.value == 0 || int(s.value) >= len(m.list.nodes) {
			err = fmt.Errorf("%v refers to node %d of %d", s.key, s.value, len(m.list.nodes))
			return false
		}
		if n := &m.list.nodes[s.value]; n.key != s.key || n.hash != s.hash {
			err = fmt.Errorf("%v refers to node %d holding %v", s.key, s.value, n.key)
			return false
		}
		return true
	})
	return err
}

// layout renders the raw slot contents, with the values taken from the
// nodes the slots refer to.
func (m *OrderedMap[K, V]) layout() string {
	return m.table.layout(func(key K, i uint32) (any, any) {
		return key, m.list.nodes[i].value
	})
}
