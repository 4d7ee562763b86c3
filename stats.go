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

import "fmt"

// Stats describes the layout of a Map. All of the figures are recorded
// while the Map is constructed.
type Stats struct {
	Strategy Strategy
	Len      int
	Capacity int
	// LoadFactor is Len/Capacity.
	LoadFactor float64
	// MaxProbe is the number of slots examined by the longest successful
	// lookup. It also bounds unsuccessful lookups.
	MaxProbe int
	// AvgProbe is the mean number of slots examined by a successful lookup.
	AvgProbe float64
}

// Stats returns statistics about the layout of the map.
func (m *Map[V]) Stats() Stats {
	return Stats{
		Strategy:   m.strategy,
		Len:        len(m.entries),
		Capacity:   len(m.slots),
		LoadFactor: float64(len(m.entries)) / float64(len(m.slots)),
		MaxProbe:   m.maxProbe,
		AvgProbe:   float64(m.totalProbes) / float64(len(m.entries)),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("strategy=%s len=%d capacity=%d load=%.3f max-probe=%d avg-probe=%.3f",
		s.Strategy, s.Len, s.Capacity, s.LoadFactor, s.MaxProbe, s.AvgProbe)
}
