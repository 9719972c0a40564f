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
	"errors"
	"fmt"
)

var (
	// ErrAllocation is returned when the configured Allocator could not
	// supply the memory for the slots or for a key copy.
	ErrAllocation = errors.New("strmap: allocation failed")

	// ErrCapacityOverflow is returned when doubling the capacity would
	// exceed the maximum capacity of the table. It wraps ErrAllocation.
	ErrCapacityOverflow = fmt.Errorf("%w: capacity overflow", ErrAllocation)

	// ErrInvalidArgument is returned by Set when called on a nil *Table or
	// with a nil value.
	ErrInvalidArgument = errors.New("strmap: invalid argument")

	// ErrClosed is returned by Set on a table that has been closed.
	ErrClosed = errors.New("strmap: table closed")

	// ErrIteratorInvalidated is reported by Iterator.Err when the table was
	// mutated or closed while the iterator was live.
	ErrIteratorInvalidated = errors.New("strmap: table mutated during iteration")
)
