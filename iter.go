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

// Iterator is a forward cursor over the slots of a Table. Entries are
// returned in slot order, which is neither insertion order nor stable across
// growth.
//
// The table must not be mutated while an iterator is in use: the iterator
// reads the live slots and holds no snapshot. A mutation (or Close) is
// detected on the next call to Next, which then reports false and sets Err
// to ErrIteratorInvalidated.
//
//	it := t.Iterator()
//	for it.Next() {
//	  fmt.Printf("%s: %v\n", it.Key(), it.Value())
//	}
//	if err := it.Err(); err != nil {
//	  ...
//	}
type Iterator[V any] struct {
	t       *Table[V]
	index   int
	version uint64
	key     string
	value   V
	err     error
}

// Iterator returns an iterator positioned before the first slot of t. An
// iterator over a nil table is immediately exhausted.
func (t *Table[V]) Iterator() Iterator[V] {
	it := Iterator[V]{t: t}
	if t != nil {
		it.version = t.version
	}
	return it
}

// Next advances the iterator to the next occupied slot and returns true, or
// returns false once the slots are exhausted. Once Next has returned false
// it keeps returning false.
func (it *Iterator[V]) Next() bool {
	t := it.t
	if t == nil || it.err != nil {
		it.reset()
		return false
	}
	if it.version != t.version {
		it.err = ErrIteratorInvalidated
		it.reset()
		return false
	}

	for it.index < len(t.slots) {
		s := &t.slots[it.index]
		it.index++
		if s.occupied {
			it.key, it.value = s.key, s.value
			return true
		}
	}
	it.reset()
	return false
}

// Key returns the key of the current entry, or "" when the iterator is not
// positioned on an entry. The key is owned by the table.
func (it *Iterator[V]) Key() string {
	return it.key
}

// Value returns the value of the current entry, or the zero value when the
// iterator is not positioned on an entry.
func (it *Iterator[V]) Value() V {
	return it.value
}

// Err returns ErrIteratorInvalidated if iteration stopped because the table
// was mutated, and nil otherwise.
func (it *Iterator[V]) Err() error {
	return it.err
}

func (it *Iterator[V]) reset() {
	var zero V
	it.key, it.value = "", zero
}

// All calls yield sequentially for each key and value present in the table.
// If yield returns false, All stops the iteration. Mutating the table from
// within yield also stops the iteration.
//
// The signature conforms to range-over-func, so with Go 1.23:
//
//	for k, v := range t.All {
//	  fmt.Printf("%s: %v\n", k, v)
//	}
func (t *Table[V]) All(yield func(key string, value V) bool) {
	it := t.Iterator()
	for it.Next() {
		if !yield(it.Key(), it.Value()) {
			return
		}
	}
}
