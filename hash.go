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

package fixedmap

import "github.com/cespare/xxhash/v2"

// HashFunc maps a key to a 64-bit hash. It must be deterministic: equal keys
// (under the Map's EqualFunc) must always hash to the same value.
type HashFunc func(key string) uint64

// EqualFunc reports whether two keys are the same key.
type EqualFunc func(a, b string) bool

// defaultHash is xxHash-64 with a seed of 0.
func defaultHash(key string) uint64 {
	return xxhash.Sum64String(key)
}

const (
	offset64 = 14695981039346656037
	prime64  = 1099511628211
)

// defaultSecondaryHash computes a 64-bit FNV-1a hash of the key. It is only
// used to derive the DoubleHash step and is independent of defaultHash.
func defaultSecondaryHash(key string) uint64 {
	hash := uint64(offset64)
	for i := 0; i < len(key); i++ {
		hash ^= uint64(key[i])
		hash *= prime64
	}
	return hash
}

func defaultEqual(a, b string) bool {
	return a == b
}
