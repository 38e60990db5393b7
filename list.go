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

import "fmt"

type node[K comparable, V any] struct {
	key   K
	value V
	hash  uint64
	prev  uint32
	next  uint32
}

// list is a doubly linked list of nodes kept in an arraylist and addressed
// by index, so that a node keeps its identity no matter which slot of the
// table refers to it.
//
// nodes[0] is the sentinel of a circular list: nodes[0].next is the head and
// nodes[0].prev is the tail. Index 0 never names a live node. Released nodes
// are chained through next starting at free, and reused by pushBack.
type list[K comparable, V any] struct {
	nodes []node[K, V]
	free  uint32
	len   int
}

func (l *list[K, V]) init(size int) {
	l.nodes = make([]node[K, V], 1, size+1)
	l.free = 0
	l.len = 0
}

// pushBack appends a node for key at the tail of the list and returns its
// index.
func (l *list[K, V]) pushBack(key K, value V, h uint64) uint32 {
	var i uint32
	if l.free != 0 {
		i = l.free
		l.free = l.nodes[i].next
	} else {
		if len(l.nodes) == 0 {
			l.init(0)
		}
		l.nodes = append(l.nodes, node[K, V]{})
		i = uint32(len(l.nodes) - 1)
	}
	tail := l.nodes[0].prev
	l.nodes[i] = node[K, V]{key: key, value: value, hash: h, prev: tail}
	l.nodes[tail].next = i
	l.nodes[0].prev = i
	l.len++
	return i
}

// remove unlinks node i and releases it for reuse.
func (l *list[K, V]) remove(i uint32) {
	n := &l.nodes[i]
	l.nodes[n.prev].next = n.next
	l.nodes[n.next].prev = n.prev
	*n = node[K, V]{next: l.free}
	l.free = i
	l.len--
}

func (l *list[K, V]) head() uint32 {
	if len(l.nodes) == 0 {
		return 0
	}
	return l.nodes[0].next
}

func (l *list[K, V]) tail() uint32 {
	if len(l.nodes) == 0 {
		return 0
	}
	return l.nodes[0].prev
}

// all calls yield for each node from head to tail. If yield returns false,
// iteration stops.
func (l *list[K, V]) all(yield func(n *node[K, V]) bool) {
	for i := l.head(); i != 0; i = l.nodes[i].next {
		if !yield(&l.nodes[i]) {
			return
		}
	}
}

// backward calls yield for each node from tail to head.
func (l *list[K, V]) backward(yield func(n *node[K, V]) bool) {
	for i := l.tail(); i != 0; i = l.nodes[i].prev {
		if !yield(&l.nodes[i]) {
			return
		}
	}
}

// clear releases every node while keeping the arraylist's capacity.
func (l *list[K, V]) clear() {
	clear(l.nodes)
	if len(l.nodes) > 0 {
		l.nodes = l.nodes[:1]
	}
	l.free = 0
	l.len = 0
}

// verify checks that walking the list in both directions visits exactly len
// nodes with consistent links, and that the free list accounts for the rest.
func (l *list[K, V]) verify() error {
	var count int
	prev := uint32(0)
	for i := l.head(); i != 0; i = l.nodes[i].next {
		if l.nodes[i].prev != prev {
			return fmt.Errorf("node(%d): prev=%d, expected %d", i, l.nodes[i].prev, prev)
		}
		prev = i
		if count++; count > l.len {
			return fmt.Errorf("list has more than %d nodes", l.len)
		}
	}
	if count != l.len {
		return fmt.Errorf("found %d linked nodes, but len is %d", count, l.len)
	}
	if t := l.tail(); t != prev {
		return fmt.Errorf("tail=%d, expected %d", t, prev)
	}
	var free int
	for i := l.free; i != 0; i = l.nodes[i].next {
		if free++; free > len(l.nodes) {
			return fmt.Errorf("free list is cyclic")
		}
	}
	if n := len(l.nodes); n > 0 && count+free != n-1 {
		return fmt.Errorf("%d linked + %d free nodes, but %d allocated", count, free, n-1)
	}
	return nil
}
