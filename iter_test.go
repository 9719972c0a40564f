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


package strmap

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIterator(t *testing.T) {
	m := newTable[int](t)
	for k, v := range map[string]int{"a": 1, "b": 2, "c": 3} {
		_, err := m.Set(k, v)
		require.NoError(t, err)
	}

	seen := make(map[string]int)
	it := m.Iterator()
	for it.Next() {
		_, dup := seen[it.Key()]
		require.False(t, dup, "key %q yielded twice", it.Key())
		seen[it.Key()] = it.Value()
	}
	require.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, seen)
	require.NoError(t, it.Err())

	// Exhausted iterators stay exhausted.
	for i := 0; i < 3; i++ {
		require.False(t, it.Next())
		require.Equal(t, "", it.Key())
		require.EqualValues(t, 0, it.Value())
		require.NoError(t, it.Err())
	}

	// A new iterator restarts from the first slot.
	it = m.Iterator()
	var n int
	for it.Next() {
		n++
	}
	require.EqualValues(t, 3, n)
}

func TestIteratorEmpty(t *testing.T) {
	m := newTable[int](t)
	it := m.Iterator()
	require.False(t, it.Next())
	require.False(t, it.Next())
	require.NoError(t, it.Err())

	m.All(func(k string, v int) bool {
		require.Fail(t, "should not iterate")
		return true
	})
}

func TestIteratorSlotOrder(t *testing.T) {
	// Place "c", "b" and "a" at slots 0, 1 and 2 respectively.
	m := newTable[int](t, WithHash[int](func(key string) uint64 {
		return uint64('c' - key[0])
	}))
	for _, k := range []string{"a", "b", "c"} {
		_, err := m.Set(k, int(k[0]))
		require.NoError(t, err)
	}

	var keys []string
	it := m.Iterator()
	for it.Next() {
		keys = append(keys, it.Key())
		require.EqualValues(t, it.Key()[0], it.Value())
	}
	require.Equal(t, []string{"c", "b", "a"}, keys)
}

func TestIteratorInvalidated(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		m := newTable[int](t)
		for i := 0; i < 4; i++ {
			_, err := m.Set(strconv.Itoa(i), i)
			require.NoError(t, err)
		}

		it := m.Iterator()
		require.True(t, it.Next())

		// Inserting a new key invalidates the iterator.
		_, err := m.Set("x", 0)
		require.NoError(t, err)
		require.False(t, it.Next())
		require.ErrorIs(t, it.Err(), ErrIteratorInvalidated)
		require.Equal(t, "", it.Key())
		require.False(t, it.Next())
	})

	t.Run("rejected-set", func(t *testing.T) {
		m := newTable[*int](t)
		one := 1
		_, err := m.Set("a", &one)
		require.NoError(t, err)

		it := m.Iterator()
		_, err = m.Set("b", nil)
		require.ErrorIs(t, err, ErrInvalidArgument)
		require.True(t, it.Next())
		require.Equal(t, "a", it.Key())
		require.False(t, it.Next())
		require.NoError(t, it.Err())
	})

	t.Run("close", func(t *testing.T) {
		m, err := New[int]()
		require.NoError(t, err)
		_, err = m.Set("a", 1)
		require.NoError(t, err)

		it := m.Iterator()
		m.Close()
		require.False(t, it.Next())
		require.ErrorIs(t, it.Err(), ErrIteratorInvalidated)
	})
}

func TestAll(t *testing.T) {
	m := newTable[int](t)
	for i := 0; i < 100; i++ {
		_, err := m.Set(strconv.Itoa(i), i)
		require.NoError(t, err)
	}

	// Stop early.
	var n int
	m.All(func(k string, v int) bool {
		n++
		return n < 10
	})
	require.EqualValues(t, 10, n)

	// Mutating the table from within yield stops the iteration.
	n = 0
	m.All(func(k string, v int) bool {
		n++
		_, err := m.Set("new-"+k, v)
		require.NoError(t, err)
		return true
	})
	require.EqualValues(t, 1, n)
	require.EqualValues(t, 101, m.Len())

	var nilTable *Table[int]
	nilTable.All(func(k string, v int) bool {
		require.Fail(t, "should not iterate")
		return true
	})
}
