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

// Package verify implements the integrity verifier described in
// spec.md §4.7: an independent pass over a built index that re-derives
// every invariant the builder is supposed to have established, so a
// corrupted or hand-edited index file is caught before it is trusted for
// search.
package verify

import (
	"fmt"
	"os"

	"github.com/tomazos/ppgrep/internal/ppt/index"
)

// Problem is one violation found while verifying an index. Verify
// collects every problem it finds rather than stopping at the first one,
// so a single run can report everything wrong with an index.
type Problem struct {
	Reason string
}

func (p Problem) String() string { return p.Reason }

// Options controls how thorough a Verify run is.
type Options struct {
	// CorpusDir, if non-empty, is checked against: every file record must
	// correspond to a readable file of the recorded length. Omit it to
	// verify only the index's internal structure.
	CorpusDir string
}

// Verify walks r and returns every integrity problem found. A nil/empty
// return means the index is internally consistent (and, if CorpusDir was
// given, consistent with the files on disk).
func Verify(r *index.Reader, opts Options) []Problem {
	var problems []Problem
	report := func(format string, args ...any) {
		problems = append(problems, Problem{Reason: fmt.Sprintf(format, args...)})
	}

	verifyFileTable(r, opts, report)
	verifyCodeChaining(r, report)
	verifyAlphabet(r, report)

	return problems
}

func verifyFileTable(r *index.Reader, opts Options, report func(string, ...any)) {
	for i := 0; i < r.NumFiles(); i++ {
		fr := r.FileRecord(i)
		name := r.FileName(i)

		if fr.NumLines < 2 {
			report("file %d (%s): line table has %d entries, want >= 2", i, name, fr.NumLines)
			continue
		}

		first := r.LineRecord(int(fr.LineInfoIndex))
		if first.FileOffset != 0 || first.CodeOffset != 0 {
			report("file %d (%s): line_table[0] = %+v, want (0, 0)", i, name, first)
		}

		var prev index.LineRecord
		for j := 0; j < int(fr.NumLines); j++ {
			cur := r.LineRecord(int(fr.LineInfoIndex) + j)
			if j > 0 {
				if cur.FileOffset < prev.FileOffset || cur.CodeOffset < prev.CodeOffset {
					report("file %d (%s): line table not monotone at entry %d: %+v then %+v", i, name, j, prev, cur)
				}
			}
			prev = cur
		}

		last := r.LineRecord(int(fr.LineInfoIndex) + int(fr.NumLines) - 1)
		if last.FileOffset != fr.FileLength {
			report("file %d (%s): last line file_offset = %d, want file_length %d", i, name, last.FileOffset, fr.FileLength)
		}
		if fr.CodeLength == 0 || uint64(last.CodeOffset) != fr.CodeLength-1 {
			report("file %d (%s): last line code_offset = %d, want code_length-1 = %d", i, name, last.CodeOffset, fr.CodeLength-1)
		}

		if opts.CorpusDir != "" {
			verifyOnDisk(opts.CorpusDir, name, fr, report, i)
		}
	}
}

func verifyOnDisk(corpusDir, name string, fr index.FileRecord, report func(string, ...any), i int) {
	path := corpusDir + string(os.PathSeparator) + name
	info, err := os.Stat(path)
	if err != nil {
		report("file %d (%s): not found on disk under %s: %v", i, name, corpusDir, err)
		return
	}
	if uint64(info.Size()) != uint64(fr.FileLength) {
		report("file %d (%s): on-disk size %d does not match recorded file_length %d", i, name, info.Size(), fr.FileLength)
	}
}

func verifyCodeChaining(r *index.Reader, report func(string, ...any)) {
	var want uint64
	for i := 0; i < r.NumFiles(); i++ {
		fr := r.FileRecord(i)
		if fr.CodeOffset != want {
			report("file %d (%s): code_offset %d, want %d (files must chain without gaps)", i, r.FileName(i), fr.CodeOffset, want)
		}
		want = fr.CodeOffset + fr.CodeLength
	}
	if want != uint64(len(r.Code())) {
		report("code section length %d does not match sum of file code lengths %d", len(r.Code()), want)
	}
}

func verifyAlphabet(r *index.Reader, report func(string, ...any)) {
	if id, ok := r.TokenID("\x00unlikely-to-ever-be-a-real-spelling\x00"); ok {
		report("token_id(unknown spelling) = %d, want not-found", id)
	}
	for id := uint32(1); id <= uint32(r.NumTokens()); id++ {
		spelling, err := r.Spelling(id)
		if err != nil {
			report("spelling(%d): %v", id, err)
			continue
		}
		gotID, ok := r.TokenID(spelling)
		if !ok || gotID != id {
			report("token_id(spelling(%d)=%q) = %d, %v, want %d, true", id, spelling, gotID, ok, id)
		}
	}
}
