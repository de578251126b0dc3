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
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"golang.org/x/exp/constraints"
	"golang.org/x/sys/unix"
)

// clamp restricts v to [lo, hi]. The line-index arithmetic in Symbolize
// clamps in both directions depending on how far contextLines reaches
// past a file's real line range, so a single generic helper replaces four
// near-identical if blocks.
func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Reader is a read-only, memory-mapped view of an index file. It is safe
// for concurrent use by multiple goroutines; all lookups are pure reads
// over the mapped bytes (spec.md §4.4).
type Reader struct {
	data []byte // the full mmap'd file
	h    header

	fileTable  []byte // FileRecord array
	tokenTable []byte // id-order string-pool-offset array
	alphaTable []byte // sorted-by-spelling token id array
	lineInfo   []byte // LineRecord array
	code       []byte // encoded token-id bytes
	strings    []byte // null-terminated string pool
}

// Open memory-maps path and validates its header. The returned Reader
// must be closed with Close when no longer needed, which unmaps the file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: opening %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("index: stat %s: %w", path, err)
	}
	size := fi.Size()
	if size < headerSize {
		return nil, integrityErrorf("%s: file too small to hold a header (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("index: mmap %s: %w", path, err)
	}
	if err := unix.Mlock(data); err != nil {
		// Locking is an optimization (keeps the index resident under memory
		// pressure); its absence does not affect correctness.
		_ = err
	}

	r, err := newReader(data)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, err
	}
	return r, nil
}

func newReader(data []byte) (*Reader, error) {
	h, err := unmarshalHeader(data)
	if err != nil {
		return nil, err
	}
	if string(h.Magic[:]) != Magic {
		return nil, integrityErrorf("bad magic %q", h.Magic[:])
	}
	if h.Version != Version {
		return nil, integrityErrorf("unsupported version %d (want %d)", h.Version, Version)
	}

	r := &Reader{data: data, h: h}
	need := func(off, length uint64, what string) ([]byte, error) {
		if off > uint64(len(data)) || off+length > uint64(len(data)) {
			return nil, integrityErrorf("%s out of range: offset %d length %d file size %d", what, off, length, len(data))
		}
		return data[off : off+length], nil
	}

	var err2 error
	if r.fileTable, err2 = need(h.FileTableOffset, h.NumFiles*fileRecordSize, "file table"); err2 != nil {
		return nil, err2
	}
	if r.tokenTable, err2 = need(h.TokenIDTableOffset, h.NumTokens*tokenIDRecordSize, "token id table"); err2 != nil {
		return nil, err2
	}
	if r.alphaTable, err2 = need(h.AlphaTableOffset, h.NumTokens*alphaRecordSize, "alphabetical table"); err2 != nil {
		return nil, err2
	}
	if r.lineInfo, err2 = need(h.LineInfoOffset, h.NumLineRecords*lineRecordSize, "line info"); err2 != nil {
		return nil, err2
	}
	if r.code, err2 = need(h.CodeOffset, h.CodeLength, "code section"); err2 != nil {
		return nil, err2
	}
	if h.StringPoolOffset > uint64(len(data)) {
		return nil, integrityErrorf("string pool offset %d beyond file size %d", h.StringPoolOffset, len(data))
	}
	r.strings = data[h.StringPoolOffset:]
	return r, nil
}

// Close unmaps the underlying file. The Reader must not be used
// afterward.
func (r *Reader) Close() error {
	return unix.Munmap(r.data)
}

// NumFiles returns the number of files in the index.
func (r *Reader) NumFiles() int { return int(r.h.NumFiles) }

// NumTokens returns the number of live token ids (excludes EOF).
func (r *Reader) NumTokens() int { return int(r.h.NumTokens) }

// Code returns the full encoded code section -- the byte string the
// search engine scans.
func (r *Reader) Code() []byte { return r.code }

func (r *Reader) cString(offset uint64) []byte {
	b := r.strings[offset:]
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return b
	}
	return b[:i]
}

// FileRecord returns the i'th file record, in on-disk (code-offset) order.
func (r *Reader) FileRecord(i int) FileRecord {
	off := i * fileRecordSize
	return unmarshalFileRecord(r.fileTable[off : off+fileRecordSize])
}

// FileName returns the relative path stored for file record i.
func (r *Reader) FileName(i int) string {
	return string(r.cString(r.FileRecord(i).NameOffset))
}

// LineRecord returns the i'th entry of the global line-info array.
func (r *Reader) LineRecord(i int) LineRecord {
	off := i * lineRecordSize
	return unmarshalLineRecord(r.lineInfo[off : off+lineRecordSize])
}

// Spelling returns the spelling of token id (1..NumTokens). Id 0 (EOF)
// has no spelling and is rejected.
func (r *Reader) Spelling(id uint32) (string, error) {
	if id == 0 || uint64(id) > r.h.NumTokens {
		return "", fmt.Errorf("index: token id %d out of range [1, %d]", id, r.h.NumTokens)
	}
	off := (id - 1) * tokenIDRecordSize
	strOff := binary.LittleEndian.Uint64(r.tokenTable[off : off+8])
	return string(r.cString(strOff)), nil
}

// TokenID returns the id assigned to spelling, if present, via binary
// search over the alphabetical table (spec.md §4.4).
func (r *Reader) TokenID(spelling string) (uint32, bool) {
	n := int(r.h.NumTokens)
	idx := sort.Search(n, func(i int) bool {
		off := i * alphaRecordSize
		id := binary.LittleEndian.Uint32(r.alphaTable[off : off+4])
		s, err := r.Spelling(id)
		if err != nil {
			return true
		}
		return s >= spelling
	})
	if idx == n {
		return 0, false
	}
	off := idx * alphaRecordSize
	id := binary.LittleEndian.Uint32(r.alphaTable[off : off+4])
	s, err := r.Spelling(id)
	if err != nil || s != spelling {
		return 0, false
	}
	return id, true
}

// FileForOffset returns the index of the file record whose code range
// contains pos, the byte offset of a match start within Code(). It uses
// the "range contains" form of the partition predicate (code_offset +
// code_length <= pos means "still searching"), not an off-by-one
// code_offset <= pos form, so a match landing exactly on a file boundary
// resolves to the file that actually owns those bytes.
func (r *Reader) FileForOffset(pos uint64) (int, error) {
	n := int(r.h.NumFiles)
	idx := sort.Search(n, func(i int) bool {
		fr := r.FileRecord(i)
		return fr.CodeOffset+fr.CodeLength > pos
	})
	if idx == n {
		return 0, fmt.Errorf("index: offset %d beyond code section", pos)
	}
	return idx, nil
}

// LineForOffset returns the index into that file's line table (relative
// to FileRecord(fileIdx).LineInfoIndex) of the last line record whose
// CodeOffset does not exceed the file-relative code offset localPos.
func (r *Reader) LineForOffset(fileIdx int, localPos uint32) int {
	fr := r.FileRecord(fileIdx)
	lo, hi := 0, int(fr.NumLines)
	idx := sort.Search(hi-lo, func(i int) bool {
		lr := r.LineRecord(int(fr.LineInfoIndex) + lo + i)
		return lr.CodeOffset > localPos
	})
	if idx == 0 {
		return 0
	}
	return idx - 1
}

// Match is one symbolized occurrence of a search hit, expanded with
// context lines: the file it falls in, the 1-based line the match
// starts on, the 1-based first line of the rendered range, and the file
// byte range [FileOffsetStart, FileOffsetEnd) a caller should read and
// split on '\n' to render that range (spec.md §4.5 step 7).
type Match struct {
	FileIndex       int
	FileName        string
	MatchLine       int
	FirstLine       int
	FileOffsetStart uint32
	FileOffsetEnd   uint32
}

// Symbolize converts a raw code-section match (byte offset + length) into
// a file/line-anchored Match expanded by contextLines on each side
// (spec.md §4.4). It refuses any codeOffset outside the code section and
// any match that spans a file boundary -- both are integrity violations,
// not query errors.
func (r *Reader) Symbolize(codeOffset uint64, codeLength uint32, contextLines int) (Match, error) {
	fileIdx, err := r.FileForOffset(codeOffset)
	if err != nil {
		return Match{}, err
	}
	fr := r.FileRecord(fileIdx)
	if codeOffset+uint64(codeLength) > fr.CodeOffset+fr.CodeLength {
		return Match{}, integrityErrorf("match [%d, %d) spans a file boundary at file %d", codeOffset, codeOffset+uint64(codeLength), fileIdx)
	}
	if fr.NumLines < 2 {
		return Match{}, integrityErrorf("file %d has no line table", fileIdx)
	}

	localStart := uint32(codeOffset - fr.CodeOffset)
	localEndIncl := localStart
	if codeLength > 0 {
		localEndIncl = localStart + codeLength - 1
	}

	numRealLines := int(fr.NumLines) - 1 // exclude the trailing sentinel
	lastRealLine := numRealLines - 1
	startLine := clamp(r.LineForOffset(fileIdx, localStart), 0, lastRealLine)
	endLine := clamp(r.LineForOffset(fileIdx, localEndIncl), 0, lastRealLine)
	if startLine == endLine && endLine < lastRealLine {
		endLine++
	}

	firstLine := clamp(startLine-contextLines, 0, lastRealLine)
	lastLine := clamp(endLine+contextLines, 0, lastRealLine)

	base := int(fr.LineInfoIndex)
	startOff := r.LineRecord(base + firstLine).FileOffset
	endOff := r.LineRecord(base + lastLine + 1).FileOffset

	return Match{
		FileIndex:       fileIdx,
		FileName:        r.FileName(fileIdx),
		MatchLine:       startLine + 1,
		FirstLine:       firstLine + 1,
		FileOffsetStart: startOff,
		FileOffsetEnd:   endOff,
	}, nil
}
