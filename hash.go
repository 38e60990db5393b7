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
	"hash/maphash"

	"github.com/cespare/xxhash"
	"golang.org/x/exp/constraints"
)

// Hasher computes the hash of a key. Only the low bits of the hash select
// the ideal slot of a key, so a Hasher should mix entropy into them.
// Distinct keys may share a hash; equal keys must not hash differently.
type Hasher[K comparable] interface {
	Hash(key K) uint64
}

// HasherFunc adapts an ordinary function to the Hasher interface.
type HasherFunc[K comparable] func(key K) uint64

// Hash returns f(key).
func (f HasherFunc[K]) Hash(key K) uint64 {
	return f(key)
}

// seededHasher hashes any comparable key the same way the builtin map does,
// using a seed chosen when the hasher is created.
type seededHasher[K comparable] struct {
	seed maphash.Seed
}

// NewHasher returns the default Hasher for K, seeded randomly. Two hashers
// returned by separate calls hash the same key differently.
func NewHasher[K comparable]() Hasher[K] {
	return seededHasher[K]{seed: maphash.MakeSeed()}
}

func (h seededHasher[K]) Hash(key K) uint64 {
	return maphash.Comparable(h.seed, key)
}

// StringHasher hashes string keys with xxHash64. Unlike the default hasher
// it is unseeded, so a key hashes the same in every map and every process.
type StringHasher struct{}

// Hash returns the xxHash64 digest of key.
func (StringHasher) Hash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// fib64 is 2^64 divided by the golden ratio.
const fib64 = 11400714819323198485

// IntegerHasher hashes integer keys with Fibonacci hashing. The product is
// folded so that the high bits, which carry most of the mixing, also reach
// the low bits used to pick a slot.
type IntegerHasher[K constraints.Integer] struct{}

// Hash returns the Fibonacci hash of key.
func (IntegerHasher[K]) Hash(key K) uint64 {
	h := uint64(key) * fib64
	return h ^ (h >> 32)
}
