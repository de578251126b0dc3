// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"sort"

	"github.com/tidwall/btree"
)

// Alphabet is the corpus-wide mapping between token spellings and the
// dense ids assigned to them (spec.md §3.2). Id 0 is reserved for EOF and
// is never present in an Alphabet; live ids run 1..Len().
//
// During a build, Alphabet is populated once from a frequency histogram
// and never mutated again. The reader reconstructs an equivalent view
// directly from the mapped bytes (see reader.go); it does not use this
// type, since its ids table and spellings live in mapped memory rather
// than in a btree.
type Alphabet struct {
	bySpelling btree.Map[string, uint32] // spelling -> id
	byID       []string                  // byID[id-1] == spelling
}

// NewAlphabet assigns dense ids to the keys of freq, most frequent first,
// breaking ties lexicographically so that two builds over the same corpus
// produce the same alphabet regardless of map iteration order (spec.md
// §4.3, "Pass 3: alphabet assignment").
func NewAlphabet(freq map[string]int) *Alphabet {
	type entry struct {
		spelling string
		count    int
	}
	entries := make([]entry, 0, len(freq))
	for s, c := range freq {
		entries = append(entries, entry{s, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].spelling < entries[j].spelling
	})

	a := &Alphabet{byID: make([]string, len(entries))}
	for i, e := range entries {
		id := uint32(i + 1)
		a.byID[i] = e.spelling
		a.bySpelling.Set(e.spelling, id)
	}
	return a
}

// Len returns the number of live token ids (excludes the EOF id).
func (a *Alphabet) Len() int { return len(a.byID) }

// ID returns the id assigned to spelling and reports whether it was found.
func (a *Alphabet) ID(spelling string) (uint32, bool) {
	return a.bySpelling.Get(spelling)
}

// Spelling returns the spelling assigned to id. id must be in [1, Len()].
func (a *Alphabet) Spelling(id uint32) string {
	return a.byID[id-1]
}

// SortedIDs returns token ids in ascending alphabetical order of their
// spelling -- exactly the order the on-disk alphabetical token table
// stores (format.go, alphaRecordSize), and the order a btree.Map naturally
// iterates in.
func (a *Alphabet) SortedIDs() []uint32 {
	ids := make([]uint32, 0, a.Len())
	iter := a.bySpelling.Iter()
	for ok := iter.First(); ok; ok = iter.Next() {
		ids = append(ids, iter.Value())
	}
	return ids
}
