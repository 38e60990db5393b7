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

// options holds the configuration shared by Map and OrderedMap.
type options[K comparable, V any] struct {
	hasher    Hasher[K]
	allocator Allocator[K, V]
}

func makeOptions[K comparable, V any](opts []option[K, V]) options[K, V] {
	o := options[K, V]{
		allocator: defaultAllocator[K, V]{},
	}
	for _, op := range opts {
		op.apply(&o)
	}
	if o.hasher == nil {
		o.hasher = NewHasher[K]()
	}
	return o
}

// option provide an interface to do work on a map's configuration while it
// is being created.
type option[K comparable, V any] interface {
	apply(o *options[K, V])
}

type hasherOption[K comparable, V any] struct {
	hasher Hasher[K]
}

func (op hasherOption[K, V]) apply(o *options[K, V]) {
	o.hasher = op.hasher
}

// WithHasher is an option to specify the Hasher to use for a Map[K,V] or an
// OrderedMap[K,V], overriding the default seeded hash of K.
func WithHasher[K comparable, V any](hasher Hasher[K]) option[K, V] {
	return hasherOption[K, V]{hasher}
}

// WithHash is an option to specify the hash function to use for a Map[K,V]
// or an OrderedMap[K,V].
func WithHash[K comparable, V any](hash func(key K) uint64) option[K, V] {
	return hasherOption[K, V]{HasherFunc[K](hash)}
}

// Allocator specifies an interface for allocating and releasing memory used
// by a Map. The default allocator utilizes Go's builtin make() and allows the
// GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that slots be
// freed then Map.Close must be called in order to ensure Free is called.
type Allocator[K comparable, V any] interface {
	// Alloc should return a slice equivalent to make([]Slot[K,V], n).
	Alloc(n int) []Slot[K, V]

	// Free can optionally release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by Alloc.
	Free(v []Slot[K, V])
}

type defaultAllocator[K comparable, V any] struct{}

func (defaultAllocator[K, V]) Alloc(n int) []Slot[K, V] {
	return make([]Slot[K, V], n)
}

func (defaultAllocator[K, V]) Free(v []Slot[K, V]) {
}

type allocatorOption[K comparable, V any] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(o *options[K, V]) {
	o.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a
// Map[K,V]. An OrderedMap keeps its values in a separate node list, and
// NewOrdered panics when given this option.
func WithAllocator[K comparable, V any](allocator Allocator[K, V]) option[K, V] {
	return allocatorOption[K, V]{allocator}
}
