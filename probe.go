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

import (
	"fmt"
	"strings"
)

// Strategy selects the collision resolution function used to generate the
// probe sequence of a key. The zero value is Linear.
type Strategy uint8

const (
	// Linear probes b, b+1, b+2, ...
	Linear Strategy = iota
	// Quadratic probes b+2^i. It visits at most log2(capacity)+1 distinct
	// slots and is only suitable for small tables.
	Quadratic
	// PseudoRandom probes b+mix(b, i) where mix is the splitmix64
	// finalizer. The sequence is reproducible but is not a permutation of
	// the slots.
	PseudoRandom
	// Bidirectional probes b, b+1, b-1, b+2, b-2, ...
	Bidirectional
	// Triangular probes b+i(i+1)/2, which is a permutation of the slots
	// when the capacity is a power of two.
	Triangular
	// DoubleHash probes b+i*s where s is derived from a second hash of the
	// key and forced odd.
	DoubleHash

	numStrategies
)

var strategyNames = [numStrategies]string{
	Linear:        "linear",
	Quadratic:     "quadratic",
	PseudoRandom:  "pseudo-random",
	Bidirectional: "bidirectional",
	Triangular:    "triangular",
	DoubleHash:    "double-hash",
}

// Strategies lists every supported Strategy.
var Strategies = []Strategy{Linear, Quadratic, PseudoRandom, Bidirectional, Triangular, DoubleHash}

func (s Strategy) String() string {
	if s < numStrategies {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// ParseStrategy returns the Strategy with the given name, as produced by
// Strategy.String.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return Strategy(s), nil
		}
	}
	return 0, fmt.Errorf("fixedmap: unknown probing strategy %q", name)
}

// fullCoverage reports whether the first capacity attempts of the strategy
// visit every slot of a power-of-two sized table exactly once.
func (s Strategy) fullCoverage() bool {
	switch s {
	case Linear, Bidirectional, Triangular, DoubleHash:
		return true
	}
	return false
}

// probe returns the unmasked slot for attempt i given base b and step. The
// step is only used by DoubleHash and must already be odd.
func (s Strategy) probe(b, i, step uint64) uint64 {
	switch s {
	case Linear:
		return b + i
	case Quadratic:
		return b + uint64(1)<<(i&63)
	case PseudoRandom:
		return b + mix64(b+i*0x9e3779b97f4a7c15)
	case Bidirectional:
		if i&1 == 1 {
			return b + (i+1)/2
		}
		return b - i/2
	case Triangular:
		return b + i*(i+1)/2
	case DoubleHash:
		return b + i*step
	}
	panic(fmt.Sprintf("fixedmap: invalid strategy %d", uint8(s)))
}

// mix64 is the splitmix64 finalizer.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// probeSeq maintains the state for a probe sequence. Construction and
// lookup both walk a key's slots exclusively through probeSeq, which is
// what guarantees that a lookup visits the slots in the same order that
// placement did:
//
//	offset(i) := strategy.probe(base, i, step) & mask
//
// where base is hash(key) & mask and step is secondary(key)|1 for
// DoubleHash and 0 otherwise.
type probeSeq struct {
	strategy Strategy
	mask     uint64
	base     uint64
	step     uint64
	index    uint64
	offset   uint64
}

func makeProbeSeq(strategy Strategy, hash, step, mask uint64) probeSeq {
	base := hash & mask
	return probeSeq{
		strategy: strategy,
		mask:     mask,
		base:     base,
		step:     step,
		index:    0,
		offset:   strategy.probe(base, 0, step) & mask,
	}
}

func (s probeSeq) next() probeSeq {
	s.index++
	s.offset = s.strategy.probe(s.base, s.index, s.step) & s.mask
	return s
}

func (s probeSeq) String() string {
	return fmt.Sprintf("strategy=%s mask=%d base=%d step=%d index=%d offset=%d",
		s.strategy, s.mask, s.base, s.step, s.index, s.offset)
}
