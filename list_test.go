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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	var l list[byte, int]
	l.init(4)

	nexts := func() (s string) {
		l.all(func(n *node[byte, int]) bool {
			s += string(n.key)
			return true
		})
		return
	}
	prevs := func() (s string) {
		l.backward(func(n *node[byte, int]) bool {
			s += string(n.key)
			return true
		})
		return
	}

	require.Equal(t, "", nexts())
	require.EqualValues(t, 0, l.head())
	require.EqualValues(t, 0, l.tail())

	idx := make(map[byte]uint32)
	for c := byte('a'); c <= 'f'; c++ {
		idx[c] = l.pushBack(c, int(c), uint64(c))
	}
	require.Equal(t, "abcdef", nexts())
	require.Equal(t, "fedcba", prevs())
	require.EqualValues(t, 6, l.len)
	require.NoError(t, l.verify())

	// Removing the head, the tail and an interior node.
	l.remove(idx['a'])
	l.remove(idx['f'])
	l.remove(idx['c'])
	require.Equal(t, "bde", nexts())
	require.Equal(t, "edb", prevs())
	require.EqualValues(t, 3, l.len)
	require.NoError(t, l.verify())

	// Released nodes are reused, most recently released first, and appended
	// at the tail regardless of their index.
	require.Equal(t, idx['c'], l.pushBack('g', 0, 0))
	require.Equal(t, idx['f'], l.pushBack('h', 0, 0))
	require.Equal(t, idx['a'], l.pushBack('i', 0, 0))
	require.EqualValues(t, 7, l.pushBack('j', 0, 0))
	require.Equal(t, "bdeghij", nexts())
	require.Equal(t, "jihgedb", prevs())
	require.NoError(t, l.verify())

	l.clear()
	require.Equal(t, "", nexts())
	require.EqualValues(t, 0, l.len)
	require.NoError(t, l.verify())
	require.EqualValues(t, 1, l.pushBack('k', 0, 0))
	require.Equal(t, "k", nexts())
}

func TestListZeroValue(t *testing.T) {
	var l list[int, int]
	require.EqualValues(t, 0, l.head())
	l.all(func(n *node[int, int]) bool {
		require.Fail(t, "should not iterate")
		return true
	})
	require.EqualValues(t, 1, l.pushBack(1, 1, 1))
	require.EqualValues(t, 1, l.head())
	require.EqualValues(t, 1, l.tail())
	require.NoError(t, l.verify())
}
