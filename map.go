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

// Package fixedmap implements immutable hash tables that map a set of string
// keys, known up front, to values. A Map is built once from its complete set
// of entries and is never modified afterwards: there is no Put, no Delete
// and no resizing. In exchange lookups never allocate and a Map can be read
// from any number of goroutines without synchronization.
//
// Typical uses are keyword recognizers, protocol constant tables and static
// configuration:
//
//	var keywords = fixedmap.MustNew([]fixedmap.Entry[int]{
//		{Key: "select", Value: tokSelect},
//		{Key: "from", Value: tokFrom},
//		{Key: "where", Value: tokWhere},
//	})
//
//	if tok, ok := keywords.Get(word); ok {
//		...
//	}
//
// # Layout
//
// A Map holds two arrays. The entries array is the input in its original
// order and backs iteration (Keys, Values and All). The slots array has a
// power-of-two length (the capacity) and holds, for each slot, either
// nothing or a reference to one entry. The capacity is the smallest power of
// two >= n/0.7, so the load factor never exceeds 0.7.
//
// # Probing
//
// Collisions are resolved with open addressing. The base slot of a key is
// hash(key) & (capacity-1) and a Strategy generates the remaining candidate
// slots from the base slot and the attempt number (see probeSeq). Entries
// are placed in input order into the first empty slot of their probe
// sequence. Since entries are never removed there are no tombstones, and a
// lookup that reaches an empty slot has proven that the key is absent.
//
// Linear, Bidirectional, Triangular and DoubleHash sequences visit every slot
// of a power-of-two table before repeating, so construction always
// succeeds for them. Quadratic and PseudoRandom sequences may revisit slots
// before covering the table; construction fails with ErrProbeExhausted if
// an entry can not be placed within a bounded number of attempts.
//
// Lookups walk the same sequence as construction and stop at an empty slot,
// at a slot holding an equal key, or after the length of the longest
// sequence walked during construction.
package fixedmap

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/bits"
	"strings"
)

const (
	debug = false

	// The maximum load factor is maxLoadNum/maxLoadDen.
	maxLoadNum = 7
	maxLoadDen = 10

	// probeLimitFactor bounds the number of attempts made to place a single
	// entry at probeLimitFactor*capacity for strategies that do not visit
	// every slot in their first capacity attempts.
	probeLimitFactor = 4

	// maxEntries is limited by the encoding of slot.
	maxEntries = math.MaxUint32 - 1
)

var (
	// ErrEmpty is returned when a Map is constructed from no entries.
	ErrEmpty = errors.New("fixedmap: no entries")
	// ErrDuplicateKey is returned when two entries have equal keys.
	ErrDuplicateKey = errors.New("fixedmap: duplicate key")
	// ErrProbeExhausted is returned when the probing strategy failed to
	// find an empty slot for an entry.
	ErrProbeExhausted = errors.New("fixedmap: probe sequence exhausted")
)

// Entry is a key and its value.
type Entry[V any] struct {
	Key   string
	Value V
}

// slot is either empty (0) or holds the index+1 of an entry.
type slot uint32

const slotEmpty slot = 0

func (s slot) full() bool {
	return s != slotEmpty
}

func (s slot) entry() int {
	return int(s) - 1
}

// Map is an immutable map from string keys to values, built by New. The
// zero value for a Map is not usable.
//
// A Map is safe for concurrent use by multiple goroutines.
type Map[V any] struct {
	hash      HashFunc
	secondary HashFunc
	equal     EqualFunc
	// customEqual is set when equal was supplied by WithEqual.
	customEqual bool
	strategy    Strategy
	// slots is capacity in length.
	slots []slot
	// entries holds the input in its original order.
	entries []Entry[V]
	// capacity-1. The capacity is used as a mask to quickly compute
	// i%capacity using a bitwise & operation.
	mask uint64
	// maxProbe is the number of attempts made by the longest placement.
	// Lookups give up after maxProbe attempts.
	maxProbe int
	// totalProbes is the sum of the attempts made by every placement.
	totalProbes int
}

// New constructs a Map holding the specified entries. Construction fails,
// returning no Map, if entries is empty, if two entries have equal keys, or
// if the probing strategy can not place an entry. The entries slice is
// copied and may be reused by the caller.
func New[V any](entries []Entry[V], options ...option[V]) (*Map[V], error) {
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(entries)) > maxEntries {
		return nil, fmt.Errorf("fixedmap: %d entries exceeds the maximum of %d", len(entries), uint64(maxEntries))
	}

	m := &Map[V]{
		hash:      defaultHash,
		secondary: defaultSecondaryHash,
		equal:     defaultEqual,
		strategy:  Linear,
	}
	for _, op := range options {
		op.apply(m)
	}
	if m.strategy >= numStrategies {
		return nil, fmt.Errorf("fixedmap: invalid strategy %s", m.strategy)
	}

	capacity := tableCapacity(len(entries))
	m.mask = uint64(capacity - 1)

	if err := m.checkDuplicates(entries); err != nil {
		return nil, err
	}

	m.slots = make([]slot, capacity)
	m.entries = make([]Entry[V], len(entries))
	copy(m.entries, entries)

	for i := range m.entries {
		if err := m.place(i); err != nil {
			return nil, err
		}
	}

	if debug {
		fmt.Printf("new: %s\n", m.debugString())
	}
	m.checkInvariants()
	return m, nil
}

// MustNew is like New but panics if the Map can not be constructed. It
// simplifies the initialization of package-level variables.
func MustNew[V any](entries []Entry[V], options ...option[V]) *Map[V] {
	m, err := New(entries, options...)
	if err != nil {
		panic(err)
	}
	return m
}

// tableCapacity returns the smallest power of two >= n/0.7.
func tableCapacity(n int) int {
	minCapacity := (n*maxLoadDen + maxLoadNum - 1) / maxLoadNum
	if minCapacity <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(minCapacity-1))
}

// checkDuplicates verifies that no two entries have equal keys. With the
// default equality function a builtin map gives the same answer as the
// pairwise comparison that a custom equality function requires.
func (m *Map[V]) checkDuplicates(entries []Entry[V]) error {
	if !m.customEqual {
		seen := make(map[string]int, len(entries))
		for j := range entries {
			if i, ok := seen[entries[j].Key]; ok {
				return duplicateKeyError(entries[j].Key, i, j)
			}
			seen[entries[j].Key] = j
		}
		return nil
	}

	for j := 1; j < len(entries); j++ {
		for i := 0; i < j; i++ {
			if m.equal(entries[i].Key, entries[j].Key) {
				return duplicateKeyError(entries[j].Key, i, j)
			}
		}
	}
	return nil
}

func duplicateKeyError(key string, i, j int) error {
	return fmt.Errorf("%w: %q (entries %d and %d)", ErrDuplicateKey, key, i, j)
}

// probeSeq returns the probe sequence of key.
func (m *Map[V]) probeSeq(key string) probeSeq {
	var step uint64
	if m.strategy == DoubleHash {
		step = m.secondary(key) | 1
	}
	return makeProbeSeq(m.strategy, m.hash(key), step, m.mask)
}

// place stores entries[i] in the first empty slot of its probe sequence.
// The caller guarantees that the key is not already present.
func (m *Map[V]) place(i int) error {
	key := m.entries[i].Key
	seq := m.probeSeq(key)
	if debug {
		fmt.Printf("place(%q): %s\n", key, seq)
	}

	limit := uint64(len(m.slots))
	if !m.strategy.fullCoverage() {
		limit *= probeLimitFactor
	}
	for ; seq.index < limit; seq = seq.next() {
		if s := m.slots[seq.offset]; s.full() {
			if debug {
				fmt.Printf("place(skipping): offset=%d key=%q\n", seq.offset, m.entries[s.entry()].Key)
			}
			continue
		}

		m.slots[seq.offset] = slot(i + 1)
		attempts := int(seq.index) + 1
		m.totalProbes += attempts
		if attempts > m.maxProbe {
			m.maxProbe = attempts
		}
		if debug {
			fmt.Printf("place(stored): offset=%d attempts=%d\n", seq.offset, attempts)
		}
		return nil
	}

	return fmt.Errorf("%w: strategy %s could not place %q (entry %d) in %d attempts",
		ErrProbeExhausted, m.strategy, key, i, limit)
}

// GetIndex returns the slot holding the specified key, or ok=false if the
// key is not present. The slot can be read with At.
func (m *Map[V]) GetIndex(key string) (index int, ok bool) {
	seq := m.probeSeq(key)
	if debug {
		fmt.Printf("get(%q): %s\n", key, seq)
	}

	for n := uint64(m.maxProbe); seq.index < n; seq = seq.next() {
		s := m.slots[seq.offset]
		if !s.full() {
			if debug {
				fmt.Printf("get(not-found): offset=%d empty\n", seq.offset)
			}
			return 0, false
		}
		if m.equal(key, m.entries[s.entry()].Key) {
			return int(seq.offset), true
		}
		if debug {
			fmt.Printf("get(skipping): offset=%d key=%q\n", seq.offset, m.entries[s.entry()].Key)
		}
	}
	return 0, false
}

// Get retrieves the value from the map for the specified key, return ok=false
// if the key is not present.
func (m *Map[V]) Get(key string) (value V, ok bool) {
	i, ok := m.GetIndex(key)
	if !ok {
		return value, false
	}
	return m.entries[m.slots[i].entry()].Value, true
}

// Contains reports whether the specified key is present.
func (m *Map[V]) Contains(key string) bool {
	_, ok := m.GetIndex(key)
	return ok
}

// At returns the entry stored in slot i, or ok=false if the slot is empty or
// out of range.
func (m *Map[V]) At(i int) (key string, value V, ok bool) {
	if i < 0 || i >= len(m.slots) || !m.slots[i].full() {
		return key, value, false
	}
	e := &m.entries[m.slots[i].entry()]
	return e.Key, e.Value, true
}

// Len returns the number of entries in the map.
func (m *Map[V]) Len() int {
	return len(m.entries)
}

// IsEmpty reports whether the map holds no entries. A Map constructed by
// New is never empty.
func (m *Map[V]) IsEmpty() bool {
	return len(m.entries) == 0
}

// Capacity returns the number of slots in the map, always a power of two.
func (m *Map[V]) Capacity() int {
	return len(m.slots)
}

// Strategy returns the probing strategy the map was built with.
func (m *Map[V]) Strategy() Strategy {
	return m.strategy
}

// All returns an iterator over the entries in the order they were passed to
// New.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(key string, value V) bool) {
		for i := range m.entries {
			if !yield(m.entries[i].Key, m.entries[i].Value) {
				return
			}
		}
	}
}

// Keys returns an iterator over the keys in the order they were passed to
// New.
func (m *Map[V]) Keys() iter.Seq[string] {
	return func(yield func(key string) bool) {
		for i := range m.entries {
			if !yield(m.entries[i].Key) {
				return
			}
		}
	}
}

// Values returns an iterator over the values in the order their entries were
// passed to New.
func (m *Map[V]) Values() iter.Seq[V] {
	return func(yield func(value V) bool) {
		for i := range m.entries {
			if !yield(m.entries[i].Value) {
				return
			}
		}
	}
}

func (m *Map[V]) checkInvariants() {
	if invariants {
		capacity := len(m.slots)
		if capacity == 0 || capacity&(capacity-1) != 0 {
			panic(fmt.Sprintf("invariant failed: capacity %d is not a power of two", capacity))
		}
		if capacity*maxLoadNum < len(m.entries)*maxLoadDen {
			panic(fmt.Sprintf("invariant failed: %d entries exceed the load factor of capacity %d",
				len(m.entries), capacity))
		}

		// Every entry is referenced by exactly one slot, and every occupied
		// slot is reachable by walking the probe sequence of its key.
		seen := make([]bool, len(m.entries))
		var used int
		for i, s := range m.slots {
			if !s.full() {
				continue
			}
			used++
			e := s.entry()
			if e < 0 || e >= len(m.entries) {
				panic(fmt.Sprintf("invariant failed: slot(%d): entry %d out of range\n%s", i, e, m.debugString()))
			}
			if seen[e] {
				panic(fmt.Sprintf("invariant failed: slot(%d): entry %d referenced twice\n%s", i, e, m.debugString()))
			}
			seen[e] = true
			key := m.entries[e].Key
			if j, ok := m.GetIndex(key); !ok || j != i {
				panic(fmt.Sprintf("invariant failed: slot(%d): %q resolved to (%d, %t)\n%s",
					i, key, j, ok, m.debugString()))
			}
		}

		if used != len(m.entries) {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but have %d entries\n%s",
				used, len(m.entries), m.debugString()))
		}
	}
}

func (m *Map[V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "strategy=%s capacity=%d len=%d max-probe=%d\n",
		m.strategy, len(m.slots), len(m.entries), m.maxProbe)
	for i, s := range m.slots {
		if !s.full() {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
			continue
		}
		e := &m.entries[s.entry()]
		fmt.Fprintf(&buf, "  %4d: %q=%v [entry=%d base=%d]\n",
			i, e.Key, e.Value, s.entry(), m.hash(e.Key)&m.mask)
	}
	return buf.String()
}
