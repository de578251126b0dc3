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
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tomazos/ppgrep/internal/ppt/codec"
	"github.com/tomazos/ppgrep/internal/ppt/tokenizer"
)

// Builder constructs an index file from a directory of source files. A
// zero Builder is ready to use; its exported fields have sane defaults
// applied lazily by Build.
//
// Building proceeds in passes over the candidate file list, per spec.md
// §4.3: a serial walk, a parallel tokenize-and-histogram pass, serial
// alphabet assignment, a parallel re-tokenize-encode-hash pass, serial
// dedup, a serial pass that sizes every section, and one serial
// forward write of the whole file (no backpatching). Workers within a
// parallel pass are assigned files by modular stripe (worker i handles
// indices i, i+Workers, i+2*Workers, ...), per spec.md §5; skip counts
// are aggregated under a single mutex, and pass 2's histograms are kept
// per worker and merged after the pass.
type Builder struct {
	// Workers bounds the number of goroutines used in each parallel pass.
	// Zero means min(runtime.NumCPU(), runtime.GOMAXPROCS(-1)).
	Workers int

	// MaxFileSize excludes any source file larger than this many bytes
	// from the corpus. Zero means no limit.
	MaxFileSize int64

	// ShuffleSeed seeds the deterministic PRNG used to reorder surviving
	// files before the second tokenize pass (spec.md §4.3). Builds with
	// the same corpus and the same seed produce byte-identical indexes.
	ShuffleSeed int64

	// ExcludeGlobs lists doublestar patterns (matched against each file's
	// corpus-relative path) to skip during the pass-1 walk, e.g.
	// "**/vendor/**" or "**/*.pb.go".
	ExcludeGlobs []string

	// MaxOpenFiles bounds how many source files pass 2 and pass 3 may have
	// open for reading at once, independent of Workers (a large Workers
	// count for CPU-bound tokenizing can still overwhelm a process's file
	// descriptor limit when every worker reads its own file concurrently).
	// Zero means the same value as workers().
	MaxOpenFiles int
}

// Stats summarizes a completed build.
type Stats struct {
	FilesWalked    int
	FilesIndexed   int
	TokensTotal    int64
	AlphabetSize   int
	Skipped        map[SkipReason]int
}

func (b *Builder) workers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	n := runtime.GOMAXPROCS(-1)
	if cpus := runtime.NumCPU(); cpus < n {
		n = cpus
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (b *Builder) maxOpenFiles() int64 {
	if b.MaxOpenFiles > 0 {
		return int64(b.MaxOpenFiles)
	}
	return int64(b.workers())
}

// excluded reports whether relPath matches any of b.ExcludeGlobs. A
// malformed pattern never excludes a file (doublestar.Match only errors on
// a syntactically invalid pattern, which is treated as a no-op here).
func (b *Builder) excluded(relPath string) bool {
	slashed := filepath.ToSlash(relPath)
	for _, pattern := range b.ExcludeGlobs {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}

// readFileBounded reads path after acquiring one slot of sem, mirroring
// experimental/incremental.Executor's acquire-before-work/release-via-defer
// pattern so concurrent file reads across a pass never exceed sem's
// weight regardless of how many goroutines are tokenizing at once.
func readFileBounded(ctx context.Context, sem *semaphore.Weighted, path string) ([]byte, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer sem.Release(1)
	return os.ReadFile(path)
}

// candidate is a file discovered by the pass-1 walk, surviving the size
// cap.
type candidate struct {
	relPath string
	absPath string
}

// pass2Result is the per-file outcome of the tokenize-and-histogram pass.
type pass2Result struct {
	ok     bool
	reason SkipReason
}

// pass3Result is the per-file outcome of the re-tokenize-encode-hash
// pass, keyed by position in the (already shuffled) survivor list.
type pass3Result struct {
	ok        bool
	reason    SkipReason
	encoded   []byte
	hash      [32]byte
	numTokens int
	fileLen   int
	lines     []LineRecord
}

// Build walks corpusDir, tokenizes every qualifying file, and writes a
// complete index to outPath.
func (b *Builder) Build(ctx context.Context, corpusDir, outPath string) (Stats, error) {
	stats := Stats{Skipped: map[SkipReason]int{}}
	workers := b.workers()

	// Pass 1 (serial): walk the corpus, apply the size cap.
	var candidates []candidate
	err := filepath.WalkDir(corpusDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			stats.Skipped[SkipUnreadable]++
			return nil
		}
		if b.MaxFileSize > 0 && info.Size() > b.MaxFileSize {
			stats.Skipped[SkipTooLarge]++
			return nil
		}
		rel, err := filepath.Rel(corpusDir, path)
		if err != nil {
			rel = path
		}
		if b.excluded(rel) {
			stats.Skipped[SkipExcluded]++
			return nil
		}
		candidates = append(candidates, candidate{relPath: rel, absPath: path})
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("index: walking %s: %w", corpusDir, err)
	}
	stats.FilesWalked = len(candidates)
	openFiles := semaphore.NewWeighted(b.maxOpenFiles())

	// Pass 2 (parallel, modular stripe): tokenize each candidate and fold
	// its spelling counts into a per-worker local histogram, merged after
	// the pass completes. A single mutex protects Stats.Skipped, which is
	// the only state every worker touches.
	results2 := make([]pass2Result, len(candidates))
	localHist := make([]map[string]int, workers)
	var mu sync.Mutex
	var tokensTotal int64

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		localHist[w] = make(map[string]int)
		g.Go(func() error {
			hist := localHist[w]
			for i := w; i < len(candidates); i += workers {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				src, err := readFileBounded(gctx, openFiles, candidates[i].absPath)
				if err != nil {
					results2[i] = pass2Result{reason: SkipUnreadable}
					mu.Lock()
					stats.Skipped[SkipUnreadable]++
					mu.Unlock()
					continue
				}
				res, err := tokenizer.Tokenize(src)
				if err != nil {
					results2[i] = pass2Result{reason: SkipTokenize}
					mu.Lock()
					stats.Skipped[SkipTokenize]++
					mu.Unlock()
					continue
				}
				if len(res.Tokens) == 0 {
					results2[i] = pass2Result{reason: SkipEmpty}
					mu.Lock()
					stats.Skipped[SkipEmpty]++
					mu.Unlock()
					continue
				}
				for _, tok := range res.Tokens {
					hist[tok.Spelling]++
				}
				results2[i] = pass2Result{ok: true}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	histogram := map[string]int{}
	for _, h := range localHist {
		for spelling, n := range h {
			histogram[spelling] += n
		}
	}

	var survivors []candidate
	for i, r := range results2 {
		if r.ok {
			survivors = append(survivors, candidates[i])
		}
	}

	// Alphabet assignment (serial): frequency order, spelling tiebreak.
	alphabet := NewAlphabet(histogram)
	stats.AlphabetSize = alphabet.Len()

	// Shuffle survivors with a deterministic PRNG before pass 3, so the
	// on-disk file order depends only on (corpus contents, ShuffleSeed),
	// never on goroutine scheduling (spec.md §4.3, §5).
	order := make([]int, len(survivors))
	for i := range order {
		order[i] = i
	}
	rand.New(rand.NewSource(b.ShuffleSeed)).Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	// Pass 3 (parallel, modular stripe over the shuffled order): re-tokenize,
	// encode with a trailing EOF id, and hash for dedup. Each worker writes
	// only to its own indices of results3, so no lock is needed there;
	// dedup itself must be serial to stay deterministic under the fixed
	// seed, so it happens in a later serial pass.
	results3 := make([]pass3Result, len(order))
	g2, gctx2 := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g2.Go(func() error {
			for pos := w; pos < len(order); pos += workers {
				if gctx2.Err() != nil {
					return gctx2.Err()
				}
				c := survivors[order[pos]]
				src, err := readFileBounded(gctx2, openFiles, c.absPath)
				if err != nil {
					results3[pos] = pass3Result{reason: SkipUnreadable}
					continue
				}
				res, err := tokenizer.Tokenize(src)
				if err != nil {
					results3[pos] = pass3Result{reason: SkipTokenize}
					continue
				}
				if len(res.Tokens) == 0 {
					results3[pos] = pass3Result{reason: SkipEmpty}
					continue
				}

				encoded := make([]byte, 0, len(res.Tokens)+1)
				lines := make([]LineRecord, 0, len(res.Newlines)+2)
				lines = append(lines, LineRecord{FileOffset: 0, CodeOffset: 0})
				nlIdx := 0
				for ti, tok := range res.Tokens {
					for nlIdx < len(res.Newlines) && res.Newlines[nlIdx].TokenIndex == ti {
						lines = append(lines, LineRecord{
							FileOffset: uint32(res.Newlines[nlIdx].FileOffset),
							CodeOffset: uint32(len(encoded)),
						})
						nlIdx++
					}
					id, ok := alphabet.ID(tok.Spelling)
					if !ok {
						return fmt.Errorf("index: internal: spelling %q missing from alphabet", tok.Spelling)
					}
					encoded, err = codec.Append(encoded, id)
					if err != nil {
						return fmt.Errorf("index: encoding %s: %w", c.relPath, err)
					}
				}
				for ; nlIdx < len(res.Newlines); nlIdx++ {
					lines = append(lines, LineRecord{
						FileOffset: uint32(res.Newlines[nlIdx].FileOffset),
						CodeOffset: uint32(len(encoded)),
					})
				}
				encoded = append(encoded, 0) // EOF id (0) terminates every file's sequence
				lines = append(lines, LineRecord{
					FileOffset: uint32(len(src)),
					CodeOffset: uint32(len(encoded) - 1),
				})

				results3[pos] = pass3Result{
					ok:        true,
					encoded:   encoded,
					hash:      sha3.Sum256(encoded),
					numTokens: len(res.Tokens),
					fileLen:   len(src),
					lines:     lines,
				}
			}
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return stats, err
	}

	// Serial finalization: dedup by content hash and assemble the final,
	// deterministic file order.
	type finalFile struct {
		candidate
		pass3Result
	}
	seen := map[[32]byte]bool{}
	var finals []finalFile
	for pos, r := range results3 {
		if !r.ok {
			mu.Lock()
			stats.Skipped[r.reason]++
			mu.Unlock()
			continue
		}
		if seen[r.hash] {
			mu.Lock()
			stats.Skipped[SkipDuplicate]++
			mu.Unlock()
			continue
		}
		seen[r.hash] = true
		finals = append(finals, finalFile{candidate: survivors[order[pos]], pass3Result: r})
	}
	stats.FilesIndexed = len(finals)

	// Pass 4 (serial): size the sections and compute every offset, so the
	// subsequent writes never need to backpatch a growing file -- each
	// section's length is known before any byte of it is written.
	var stringPool []byte
	nameOffsets := make([]uint64, len(finals))
	for i, f := range finals {
		nameOffsets[i] = uint64(len(stringPool))
		stringPool = append(stringPool, []byte(f.relPath)...)
		stringPool = append(stringPool, 0)
	}
	spellingOffsets := make([]uint64, alphabet.Len())
	for id := 1; id <= alphabet.Len(); id++ {
		spellingOffsets[id-1] = uint64(len(stringPool))
		stringPool = append(stringPool, []byte(alphabet.Spelling(uint32(id)))...)
		stringPool = append(stringPool, 0)
	}

	fileRecords := make([]FileRecord, len(finals))
	var lineRecords []LineRecord
	var codeLen uint64
	for i, f := range finals {
		fileRecords[i] = FileRecord{
			NameOffset:    nameOffsets[i],
			FileLength:    uint32(f.fileLen),
			NumLines:      uint32(len(f.lines)),
			LineInfoIndex: uint64(len(lineRecords)),
			CodeOffset:    codeLen,
			CodeLength:    uint64(len(f.encoded)),
		}
		lineRecords = append(lineRecords, f.lines...)
		codeLen += uint64(len(f.encoded))
		tokensTotal += int64(f.numTokens)
	}
	stats.TokensTotal = tokensTotal

	h := header{
		Version:        Version,
		NumFiles:       uint64(len(finals)),
		NumTokens:      uint64(alphabet.Len()),
		NumLineRecords: uint64(len(lineRecords)),
	}
	copy(h.Magic[:], Magic)

	h.FileTableOffset = headerSize
	h.TokenIDTableOffset = h.FileTableOffset + uint64(len(fileRecords))*fileRecordSize
	h.AlphaTableOffset = h.TokenIDTableOffset + uint64(alphabet.Len())*tokenIDRecordSize
	h.LineInfoOffset = h.AlphaTableOffset + uint64(alphabet.Len())*alphaRecordSize
	h.CodeOffset = h.LineInfoOffset + uint64(len(lineRecords))*lineRecordSize
	h.CodeLength = codeLen
	h.StringPoolOffset = h.CodeOffset + codeLen

	// Pass 5 (serial): write the skeleton in one pass, section by
	// section, in file order.
	out, err := os.Create(outPath)
	if err != nil {
		return stats, fmt.Errorf("index: creating %s: %w", outPath, err)
	}
	defer out.Close()

	w := newSectionWriter(out)
	w.write(h.marshal())
	for _, fr := range fileRecords {
		w.write(fr.marshal())
	}
	for id := 1; id <= alphabet.Len(); id++ {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], spellingOffsets[id-1])
		w.write(buf[:])
	}
	for _, id := range alphabet.SortedIDs() {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], id)
		w.write(buf[:])
	}
	for _, lr := range lineRecords {
		w.write(lr.marshal())
	}
	for _, f := range finals {
		w.write(f.encoded)
	}
	w.write(stringPool)

	if w.err != nil {
		return stats, fmt.Errorf("index: writing %s: %w", outPath, w.err)
	}
	return stats, nil
}

// sectionWriter is a thin buffered-write helper that remembers the first
// error seen so call sites can ignore per-write errors and check once at
// the end, matching the builder's linear section-by-section layout.
type sectionWriter struct {
	w   io.Writer
	err error
}

func newSectionWriter(w io.Writer) *sectionWriter { return &sectionWriter{w: w} }

func (sw *sectionWriter) write(p []byte) {
	if sw.err != nil || len(p) == 0 {
		return
	}
	_, sw.err = sw.w.Write(p)
}
