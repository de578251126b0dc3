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

// Package search implements the parallel block-striped substring scan
// described in spec.md §4.5: a query is tokenized and encoded with the
// same codec used to build the index, and then located as a plain byte
// substring of the code section, which the codec's subsequence property
// makes equivalent to a token-sequence containment query.
package search

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tomazos/ppgrep/internal/ppt/codec"
	"github.com/tomazos/ppgrep/internal/ppt/index"
	"github.com/tomazos/ppgrep/internal/ppt/tokenizer"
)

// Options configures a Query call. The zero Options is usable: every
// field defaults as documented.
type Options struct {
	// Workers bounds scanner parallelism. Zero means min(NumCPU, 20),
	// matching the reference's "fixed-size worker pool, default ~20"
	// (spec.md §5).
	Workers int
	// BlockSize is the number of candidate start positions each unit of
	// scanner work covers. Zero means 100_000 (spec.md §4.5 step 5).
	BlockSize int
	// SampleCapacity bounds how many matches Query returns in full. Zero
	// means 100.
	SampleCapacity int
	// ContextLines is how many lines of source to include above and below
	// the matched line in each returned Sample.
	ContextLines int
	// SampleSeed seeds the reservoir sampler. Zero is a valid seed.
	SampleSeed int64
	// MaxLineWidth truncates rendered lines to this many display columns,
	// cutting only on grapheme-cluster boundaries. Zero disables truncation.
	MaxLineWidth int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	n := runtime.NumCPU()
	if n > 20 {
		n = 20
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (o Options) blockSize() int {
	if o.BlockSize > 0 {
		return o.BlockSize
	}
	return 100_000
}

func (o Options) sampleCapacity() int {
	if o.SampleCapacity > 0 {
		return o.SampleCapacity
	}
	return 100
}

// Sample is one symbolized, sampled match: its location plus the
// rendered source lines covering it and its context.
type Sample struct {
	FilePath  string
	MatchLine int
	FirstLine int
	Lines     []string
}

// Result is the outcome of a successful Query.
type Result struct {
	TotalFiles   int
	TotalMatches int64
	Samples      []Sample
}

// Query tokenizes query, locates it in r's code section, and returns a
// reservoir sample of matches symbolized against the source files under
// corpusDir. It returns an error for every condition spec.md §7
// classifies as a query error: an empty query, a query the tokenizer
// rejects, or a query token absent from the corpus alphabet.
func Query(ctx context.Context, r *index.Reader, corpusDir, query string, opts Options) (Result, error) {
	res, err := tokenizer.Tokenize([]byte(query))
	if err != nil {
		return Result{}, fmt.Errorf("search: bad query: %w", err)
	}
	if len(res.Tokens) == 0 {
		return Result{}, fmt.Errorf("search: query contains no tokens")
	}

	needle := make([]byte, 0, len(res.Tokens)*2)
	for _, tok := range res.Tokens {
		id, ok := r.TokenID(tok.Spelling)
		if !ok {
			return Result{}, fmt.Errorf("search: no matches: %q does not occur in the corpus", tok.Spelling)
		}
		// The query is encoded without a trailing EOF id: it must match as
		// a strict substring, never anchored to a file boundary.
		needle, err = codec.Append(needle, id)
		if err != nil {
			return Result{}, fmt.Errorf("search: encoding query: %w", err)
		}
	}

	code := r.Code()
	sampler := NewSampler[uint64](opts.sampleCapacity(), opts.SampleSeed)
	if err := scan(ctx, code, needle, opts, sampler); err != nil {
		return Result{}, err
	}

	samples := make([]Sample, 0, len(sampler.Items()))
	for _, pos := range sampler.Items() {
		s, err := symbolizeMatch(r, corpusDir, pos, uint32(len(needle)), opts.ContextLines, opts.MaxLineWidth)
		if err != nil {
			return Result{}, err
		}
		samples = append(samples, s)
	}

	return Result{
		TotalFiles:   r.NumFiles(),
		TotalMatches: sampler.Count(),
		Samples:      samples,
	}, nil
}

// scan divides the valid candidate-start range of code into fixed-size
// blocks and has opts.workers() goroutines claim blocks via a shared
// atomic counter, the concurrency pattern spec.md §5 mandates for the
// scanner (as opposed to the builder's modular striping).
func scan(ctx context.Context, code, needle []byte, opts Options, sampler *Sampler[uint64]) error {
	if len(needle) == 0 || len(needle) > len(code) {
		return nil
	}
	// The last valid start position is the one at which the full needle
	// still fits before code_length.
	scanLimit := len(code) - len(needle) + 1
	blockSize := opts.blockSize()
	numBlocks := (scanLimit + blockSize - 1) / blockSize
	if numBlocks == 0 {
		return nil
	}

	var nextBlock atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.workers(); w++ {
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				b := nextBlock.Add(1) - 1
				if b >= int64(numBlocks) {
					return nil
				}
				start := int(b) * blockSize
				end := start + blockSize
				if end > scanLimit {
					end = scanLimit
				}
				scanBlock(code, needle, start, end, sampler)
			}
		})
	}
	return g.Wait()
}

// scanBlock tests every candidate start position in [start, end) against
// needle by direct byte comparison, stopping at the first mismatch.
func scanBlock(code, needle []byte, start, end int, sampler *Sampler[uint64]) {
	for pos := start; pos < end; pos++ {
		if bytes.Equal(code[pos:pos+len(needle)], needle) {
			sampler.Offer(uint64(pos))
		}
	}
}

// symbolizeMatch resolves one raw match position to a rendered Sample by
// asking the index reader for its file/line range and then reading the
// actual source bytes back off disk, exactly as spec.md §4.5 step 7
// describes (the index itself stores no source text).
func symbolizeMatch(r *index.Reader, corpusDir string, pos uint64, length uint32, contextLines, maxLineWidth int) (Sample, error) {
	m, err := r.Symbolize(pos, length, contextLines)
	if err != nil {
		return Sample{}, fmt.Errorf("search: symbolizing match at %d: %w", pos, err)
	}

	path := corpusDir + string(os.PathSeparator) + m.FileName
	f, err := os.Open(path)
	if err != nil {
		return Sample{}, fmt.Errorf("search: opening %s: %w", path, err)
	}
	defer f.Close()

	n := int64(m.FileOffsetEnd) - int64(m.FileOffsetStart)
	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, int64(m.FileOffsetStart)); err != nil {
		return Sample{}, fmt.Errorf("search: reading %s: %w", path, err)
	}

	lines := strings.Split(string(buf), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = truncateLine(line, maxLineWidth)
	}

	return Sample{
		FilePath:  m.FileName,
		MatchLine: m.MatchLine,
		FirstLine: m.FirstLine,
		Lines:     lines,
	}, nil
}
