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

import "math/bits"

const (
	// initialCapacity is the number of slots in a new table.
	initialCapacity = 16
	// defaultMaxCapacity is the largest power of two representable as an
	// int.
	defaultMaxCapacity = 1 << (bits.UintSize - 2)
)

// option provide an interface to do work on Table while it is being created.
type option[V any] interface {
	apply(t *Table[V])
}

type hashOption[V any] struct {
	hash Hasher
}

func (op hashOption[V]) apply(t *Table[V]) {
	t.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a Table[V].
// The default is FNV1a.
func WithHash[V any](hash Hasher) option[V] {
	return hashOption[V]{hash}
}

// Allocator specifies an interface for allocating and releasing memory used
// by a Table. The default allocator utilizes Go's builtin make() and allows
// the GC to reclaim memory.
//
// An allocation fails when the returned slice is shorter than requested. The
// Table operation that requested it then returns ErrAllocation and leaves the
// table unchanged.
//
// If the allocator is manually managing memory then Table.Close must be called
// in order to ensure FreeSlots and FreeKey are called. Keys returned by Set,
// Iterator.Key and All alias memory from AllocKey and must not be used after
// Close.
type Allocator[V any] interface {
	// AllocSlots should return a slice equivalent to make([]Slot[V], n).
	AllocSlots(n int) []Slot[V]

	// FreeSlots can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by AllocSlots.
	// The keys referenced by the slots are not released by FreeSlots.
	FreeSlots(v []Slot[V])

	// AllocKey should return a slice equivalent to make([]byte, n). The
	// table copies a newly inserted key into it.
	AllocKey(n int) []byte

	// FreeKey can optionally release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by AllocKey.
	FreeKey(v []byte)
}

type defaultAllocator[V any] struct{}

func (defaultAllocator[V]) AllocSlots(n int) []Slot[V] {
	return make([]Slot[V], n)
}

func (defaultAllocator[V]) FreeSlots(v []Slot[V]) {
}

func (defaultAllocator[V]) AllocKey(n int) []byte {
	return make([]byte, n)
}

func (defaultAllocator[V]) FreeKey(v []byte) {
}

type allocatorOption[V any] struct {
	allocator Allocator[V]
}

func (op allocatorOption[V]) apply(t *Table[V]) {
	t.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a Table[V].
func WithAllocator[V any](allocator Allocator[V]) option[V] {
	return allocatorOption[V]{allocator}
}

type maxCapacityOption[V any] struct {
	maxCapacity int
}

func (op maxCapacityOption[V]) apply(t *Table[V]) {
	t.maxCapacity = op.maxCapacity
}

// WithMaxCapacity is an option to bound the number of slots a Table[V] may
// grow to. The value is rounded down to a power of two and raised to the
// initial capacity if smaller. A Set that would need to grow past the bound
// fails with ErrCapacityOverflow.
func WithMaxCapacity[V any](maxCapacity int) option[V] {
	if maxCapacity < initialCapacity {
		maxCapacity = initialCapacity
	}
	return maxCapacityOption[V]{1 << (bits.Len(uint(maxCapacity)) - 1)}
}
