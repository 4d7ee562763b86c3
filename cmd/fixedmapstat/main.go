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

// Command fixedmapstat builds a fixedmap.Map from a JSON file of entries with
// each requested probing strategy and prints the layout statistics of every
// table. It is a tool for choosing a strategy for a given key set.
//
// The input is a JSON array of objects with "key" and "value" fields:
//
//	[{"key": "apple", "value": 10}, {"key": "banana", "value": 20}]
//
// Usage:
//
//	fixedmapstat [-s linear,triangular] [file]
//
// The input is read from standard input when no file is given.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/fixedmap"
	"github.com/sugawarayuuta/sonnet"
)

var strategies = flag.String("s", "all", "comma separated probing strategies, or all")

type jsonEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func main() {
	flag.Parse()
	if flag.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "usage: fixedmapstat [-s strategies] [file]\n")
		os.Exit(2)
	}

	in := io.Reader(os.Stdin)
	if flag.NArg() == 1 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	if err := run(in, os.Stdout, *strategies); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, strategyList string) error {
	selected, err := parseStrategies(strategyList)
	if err != nil {
		return err
	}
	entries, err := readEntries(in)
	if err != nil {
		return err
	}

	for _, s := range selected {
		m, err := fixedmap.New(entries, fixedmap.WithStrategy[any](s))
		switch {
		case err == nil:
			fmt.Fprintln(out, m.Stats())
		case errors.Is(err, fixedmap.ErrProbeExhausted):
			// The other strategies may still succeed.
			fmt.Fprintf(out, "strategy=%s failed: %v\n", s, err)
		default:
			return err
		}
	}
	return nil
}

func parseStrategies(list string) ([]fixedmap.Strategy, error) {
	if list == "" || list == "all" {
		return fixedmap.Strategies, nil
	}
	var result []fixedmap.Strategy
	for _, name := range strings.Split(list, ",") {
		s, err := fixedmap.ParseStrategy(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}

func readEntries(in io.Reader) ([]fixedmap.Entry[any], error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	var decoded []jsonEntry
	if err := sonnet.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding entries: %w", err)
	}
	entries := make([]fixedmap.Entry[any], len(decoded))
	for i, e := range decoded {
		entries[i] = fixedmap.Entry[any]{Key: e.Key, Value: e.Value}
	}
	return entries, nil
}
