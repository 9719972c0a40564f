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


// Package strmap implements a string-keyed hash table using open addressing
// with linear probing.
//
// # Layout
//
// A Table is a single contiguous slice of slots whose length (the capacity)
// is always a power of two and at least 16. Every slot is either empty or
// occupied; there are no tombstones because entries are never deleted. The
// home index of a key is hash(key) & (capacity-1). Lookups and inserts walk
// forward from the home index, wrapping to slot 0 past the end, until they
// find the key or an empty slot. Since a slot never reverts to empty, a
// probe chain is never broken and the walk always terminates: the table is
// at most half full.
//
// # Growth
//
// Before an insert, if the table is already half full, the capacity is
// doubled and every entry is re-inserted into the new slice. Growth happens
// before the insert rather than after it, so a failed growth leaves the
// table untouched and the insert fails as a whole.
//
// # Key ownership
//
// The table owns its keys. The first time a key is inserted it is copied
// into a buffer obtained from the table's Allocator, and the returned key
// string aliases that buffer. Growth moves the key, it never copies it
// again. Close releases every key buffer and the slot slice. Values are
// owned by the caller: the table stores them, never inspects them, and
// never frees them.
//
// A Table is NOT goroutine-safe.
package strmap

import (
	"fmt"
	"math/bits"
	"reflect"
	"strings"
	"unsafe"
)

const debug = false

// Slot holds a key and value. A slot with occupied == false is empty and its
// key and value are zero.
type Slot[V any] struct {
	key      string
	value    V
	occupied bool
}

// Table is an unordered map from string keys to values with Set, Get, Len
// and iteration. The zero value for a Table is not usable; use New.
type Table[V any] struct {
	hash      Hasher
	allocator Allocator[V]
	// slots is capacity in length.
	slots []Slot[V]
	// The total number of slots (always 2^N, N >= 4). capacity-1 is used as
	// a mask to compute hash%capacity.
	capacity int
	// maxCapacity bounds growth. Always a power of two.
	maxCapacity int
	// The number of occupied slots (i.e. the number of entries).
	used int
	// version is bumped by every mutation so that iterators can detect
	// they are stale.
	version uint64
	closed  bool
}

// New constructs a new, empty Table with room for 16 slots. It returns
// ErrAllocation if the allocator could not supply the initial slots.
func New[V any](options ...option[V]) (*Table[V], error) {
	t := &Table[V]{
		hash:        FNV1a,
		allocator:   defaultAllocator[V]{},
		maxCapacity: defaultMaxCapacity,
	}

	for _, op := range options {
		op.apply(t)
	}

	slots := t.allocator.AllocSlots(initialCapacity)
	if len(slots) < initialCapacity {
		return nil, fmt.Errorf("%w: %d initial slots", ErrAllocation, initialCapacity)
	}
	t.slots = slots[:initialCapacity]
	t.capacity = initialCapacity

	t.checkInvariants()
	return t, nil
}

// Close closes the table, releasing every key copy and the slot slice back
// to its configured allocator. It is invalid to use keys returned by the
// table after it has been closed. Close is idempotent and a nil *Table is a
// no-op.
func (t *Table[V]) Close() {
	if t == nil || t.closed {
		return
	}
	for i := range t.slots {
		if s := &t.slots[i]; s.occupied {
			t.allocator.FreeKey(keyBytes(s.key))
		}
	}
	t.allocator.FreeSlots(t.slots)

	t.slots = nil
	t.capacity = 0
	t.used = 0
	t.closed = true
	t.version++
}

// Get retrieves the value from the table for the specified key, returning
// ok=false if the key is not present. A nil or closed table holds no keys.
func (t *Table[V]) Get(key string) (value V, ok bool) {
	if t == nil || t.capacity == 0 {
		return value, false
	}
	if i, found := t.find(key); found {
		return t.slots[i].value, true
	}
	return value, false
}

// Set inserts an entry into the table, overwriting the value of an existing
// entry with the same key. It returns the table-owned copy of the key.
//
// Set fails with ErrInvalidArgument on a nil table or when value is nil
// (an untyped nil, or a nil pointer, map, slice, chan, func or interface),
// with ErrClosed after Close, and with ErrAllocation or ErrCapacityOverflow
// when growth or the key copy fails. A failed Set leaves the contents of the
// table unchanged.
func (t *Table[V]) Set(key string, value V) (string, error) {
	if t == nil || isNil(value) {
		return "", ErrInvalidArgument
	}
	if t.closed {
		return "", ErrClosed
	}

	// Grow before inserting so that the load factor never exceeds 1/2 and a
	// failed growth cannot lose the insert half-way.
	if t.used >= t.capacity/2 {
		if err := t.grow(); err != nil {
			return "", err
		}
	}

	stored, err := t.setSlot(t.slots, key, value, true)
	if err != nil {
		return "", err
	}
	t.version++
	t.checkInvariants()
	return stored, nil
}

// Len returns the number of entries in the table. A nil table is empty.
func (t *Table[V]) Len() int {
	if t == nil {
		return 0
	}
	return t.used
}

// find returns the index of the slot holding key, or ok=false.
func (t *Table[V]) find(key string) (i int, ok bool) {
	h := t.hash(key)
	mask := t.capacity - 1
	i = int(h & uint64(mask))
	if debug {
		fmt.Printf("get(%q): hash=%016x index=%d\n", key, h, i)
	}

	for {
		s := &t.slots[i]
		if !s.occupied {
			if debug {
				fmt.Printf("get(not-found): index=%d\n", i)
			}
			return i, false
		}
		if s.key == key {
			return i, true
		}
		if debug {
			fmt.Printf("get(skipping): index=%d key=%q\n", i, s.key)
		}
		i = (i + 1) & mask
	}
}

// setSlot places key and value into slots, which must have a power of two
// length and at least one empty slot. If the key is already present its value
// is overwritten in place. Otherwise the first empty slot on the probe chain
// is filled.
//
// When fresh is true the insert comes from Set: a new key is copied into
// table-owned memory and counted in used. When fresh is false the insert is a
// re-insertion during growth: the key is already owned by the table and is
// moved as is.
func (t *Table[V]) setSlot(slots []Slot[V], key string, value V, fresh bool) (string, error) {
	h := t.hash(key)
	mask := len(slots) - 1
	i := int(h & uint64(mask))
	if debug {
		fmt.Printf("set(%q): hash=%016x index=%d fresh=%t\n", key, h, i, fresh)
	}

	for ; slots[i].occupied; i = (i + 1) & mask {
		if s := &slots[i]; s.key == key {
			if debug {
				fmt.Printf("set(updating): index=%d key=%q\n", i, key)
			}
			s.value = value
			return s.key, nil
		}
	}

	if fresh {
		owned, ok := t.dupKey(key)
		if !ok {
			return "", fmt.Errorf("%w: key of %d bytes", ErrAllocation, len(key))
		}
		key = owned
		t.used++
	}

	s := &slots[i]
	s.key = key
	s.value = value
	s.occupied = true
	if debug {
		fmt.Printf("set(inserting): index=%d used=%d\n", i, t.used)
	}
	return key, nil
}

// grow doubles the capacity of the table by allocating a bigger slice and
// moving each entry of the table into it, then releases the old slice. The
// keys are moved, not copied. On failure the table is left as it was.
func (t *Table[V]) grow() error {
	if t.capacity > t.maxCapacity/2 {
		return fmt.Errorf("%w: capacity=%d max=%d", ErrCapacityOverflow, t.capacity, t.maxCapacity)
	}
	newCapacity := t.capacity * 2

	newSlots := t.allocator.AllocSlots(newCapacity)
	if len(newSlots) < newCapacity {
		return fmt.Errorf("%w: %d slots", ErrAllocation, newCapacity)
	}
	newSlots = newSlots[:newCapacity]

	if debug {
		fmt.Printf("grow: capacity=%d->%d used=%d\n", t.capacity, newCapacity, t.used)
	}

	for i := range t.slots {
		if s := &t.slots[i]; s.occupied {
			// Re-insertion never allocates, so it cannot fail.
			_, _ = t.setSlot(newSlots, s.key, s.value, false)
		}
	}

	t.allocator.FreeSlots(t.slots)
	t.slots = newSlots
	t.capacity = newCapacity
	t.version++
	return nil
}

// dupKey copies key into memory obtained from the allocator.
func (t *Table[V]) dupKey(key string) (string, bool) {
	buf := t.allocator.AllocKey(len(key))
	if len(buf) < len(key) {
		return "", false
	}
	buf = buf[:len(key)]
	copy(buf, key)
	return unsafe.String(unsafe.SliceData(buf), len(buf)), true
}

// keyBytes returns the allocator buffer backing a key copied by dupKey.
func keyBytes(key string) []byte {
	return unsafe.Slice(unsafe.StringData(key), len(key))
}

// isNil reports whether v is the "no value" sentinel that Set rejects.
func isNil[V any](v V) bool {
	if any(v) == nil {
		return true
	}
	switch rv := reflect.ValueOf(any(v)); rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

func (t *Table[V]) checkInvariants() {
	if invariants {
		if t.capacity < initialCapacity || bits.OnesCount(uint(t.capacity)) != 1 {
			panic(fmt.Sprintf("invariant failed: capacity %d is not a power of two >= %d\n%s",
				t.capacity, initialCapacity, t.debugString()))
		}
		if len(t.slots) != t.capacity {
			panic(fmt.Sprintf("invariant failed: %d slots, but capacity is %d\n%s",
				len(t.slots), t.capacity, t.debugString()))
		}
		if t.used > t.capacity/2 {
			panic(fmt.Sprintf("invariant failed: used %d exceeds half of capacity %d\n%s",
				t.used, t.capacity, t.debugString()))
		}

		// For every occupied slot, verify the probe chain from the key's home
		// index leads to this slot. Count the number of occupied slots.
		var used int
		for i := range t.slots {
			s := &t.slots[i]
			if !s.occupied {
				if s.key != "" {
					panic(fmt.Sprintf("invariant failed: slot(%d): empty slot holds key %q\n%s",
						i, s.key, t.debugString()))
				}
				continue
			}
			if j, ok := t.find(s.key); !ok || j != i {
				panic(fmt.Sprintf("invariant failed: slot(%d): %q not found [home=%d found=%d/%t]\n%s",
					i, s.key, int(t.hash(s.key)&uint64(t.capacity-1)), j, ok, t.debugString()))
			}
			used++
		}

		if used != t.used {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but used count is %d\n%s",
				used, t.used, t.debugString()))
		}
	}
}

func (t *Table[V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  version=%d\n", t.capacity, t.used, t.version)
	for i := range t.slots {
		s := &t.slots[i]
		if !s.occupied {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
			continue
		}
		fmt.Fprintf(&buf, "  %4d: %q [home=%d]\n", i, s.key, int(t.hash(s.key)&uint64(t.capacity-1)))
	}
	return buf.String()
}
