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
	"strconv"
	"testing"

	"github.com/cespare/xxhash"
	"github.com/stretchr/testify/require"
)

func TestSeededHasher(t *testing.T) {
	type point struct{ x, y int }
	h := NewHasher[point]()
	require.Equal(t, h.Hash(point{1, 2}), h.Hash(point{1, 2}))
	require.NotEqual(t, h.Hash(point{1, 2}), h.Hash(point{2, 1}))

	m := New[point, string](0)
	m.Put(point{1, 2}, "a")
	m.Put(point{2, 1}, "b")
	require.Equal(t, "a", m.GetOrDefault(point{1, 2}, ""))
	require.Equal(t, "b", m.GetOrDefault(point{2, 1}, ""))
}

func TestStringHasher(t *testing.T) {
	var h StringHasher
	require.Equal(t, xxhash.Sum64String("hello"), h.Hash("hello"))

	m := NewOrdered[string, int](0, WithHasher[string, int](StringHasher{}))
	for i := 0; i < 100; i++ {
		m.Put(strconv.Itoa(i), i)
	}
	for i := 0; i < 100; i++ {
		require.EqualValues(t, i, m.GetOrDefault(strconv.Itoa(i), -1))
	}
	require.NoError(t, m.verify())
}

func TestIntegerHasher(t *testing.T) {
	var h IntegerHasher[uint32]
	require.Equal(t, h.Hash(7), h.Hash(7))

	// Sequential keys should spread over the low bits used to pick a slot.
	const mask = 1<<10 - 1
	seen := make(map[uint64]struct{})
	for k := uint32(0); k < 1<<10; k++ {
		seen[h.Hash(k)&mask] = struct{}{}
	}
	require.Greater(t, len(seen), 1<<9)

	// Negative keys hash like their two's complement bit pattern.
	var hi IntegerHasher[int64]
	var hu IntegerHasher[uint64]
	require.Equal(t, hu.Hash(^uint64(0)), hi.Hash(-1))
}

func TestHasherFunc(t *testing.T) {
	var calls int
	h := HasherFunc[int](func(key int) uint64 {
		calls++
		return uint64(key)
	})
	require.EqualValues(t, 42, h.Hash(42))
	require.Equal(t, 1, calls)
}
