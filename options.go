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

// option provide an interface to do work on Map while it is being created.
type option[V any] interface {
	apply(m *Map[V])
}

type hashOption[V any] struct {
	hash HashFunc
}

func (op hashOption[V]) apply(m *Map[V]) {
	if op.hash != nil {
		m.hash = op.hash
	}
}

// WithHash is an option to specify the primary hash function to use for a
// Map[V]. The default is xxHash-64 with a zero seed.
func WithHash[V any](hash HashFunc) option[V] {
	return hashOption[V]{hash}
}

type secondaryHashOption[V any] struct {
	hash HashFunc
}

func (op secondaryHashOption[V]) apply(m *Map[V]) {
	if op.hash != nil {
		m.secondary = op.hash
	}
}

// WithSecondaryHash is an option to specify the hash function used to derive
// the per-key step of the DoubleHash strategy. It is ignored by the other
// strategies. The default is 64-bit FNV-1a.
func WithSecondaryHash[V any](hash HashFunc) option[V] {
	return secondaryHashOption[V]{hash}
}

type strategyOption[V any] struct {
	strategy Strategy
}

func (op strategyOption[V]) apply(m *Map[V]) {
	m.strategy = op.strategy
}

// WithStrategy is an option to specify the probing Strategy of a Map[V]. The
// default is Linear.
func WithStrategy[V any](strategy Strategy) option[V] {
	return strategyOption[V]{strategy}
}

type equalOption[V any] struct {
	equal EqualFunc
}

func (op equalOption[V]) apply(m *Map[V]) {
	if op.equal != nil {
		m.equal = op.equal
		m.customEqual = true
	}
}

// WithEqual is an option to specify the key equality function of a Map[V].
// Keys that are equal must hash to the same value under the configured
// HashFunc. The default is byte-for-byte equality.
func WithEqual[V any](equal EqualFunc) option[V] {
	return equalOption[V]{equal}
}
