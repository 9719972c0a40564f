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

import "github.com/cespare/xxhash/v2"

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// Hasher maps a key to a 64-bit digest. The low bits of the digest select
// the home slot, so a Hasher must mix well into its low bits.
type Hasher func(key string) uint64

// FNV1a is the default Hasher. The empty key hashes to the FNV offset basis.
var FNV1a Hasher = fnv1a

// XXHash is a Hasher backed by xxHash64. It is faster than FNV1a for long
// keys.
var XXHash Hasher = xxhash.Sum64String

func fnv1a(key string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= fnvPrime64
	}
	return h
}
