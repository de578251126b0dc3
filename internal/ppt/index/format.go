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

// Package index defines the on-disk binary index format (spec.md §3.4),
// the builder that produces it, and the reader that maps it back into
// structured, queryable sections.
package index

import (
	"encoding/binary"
	"fmt"
)

// Magic identifies an index file. Version is bumped whenever the on-disk
// layout changes in an incompatible way.
const (
	Magic   = "pptI"
	Version = uint32(2)

	headerSize         = 88
	fileRecordSize     = 48
	lineRecordSize     = 8
	tokenIDRecordSize  = 8 // id-order table: one string-pool offset per id
	alphaRecordSize    = 4 // alphabetical table: one token id per slot
)

// header is the fixed 88-byte record at offset 0 of an index file. Every
// other section is located via an absolute byte offset stored here.
//
// The index is 64-bit and little-endian throughout; it is not portable
// across endianness (spec.md §3.4).
type header struct {
	Magic    [4]byte
	Version  uint32
	NumFiles uint64
	NumTokens uint64 // N; ids 1..N are live, 0 is EOF
	NumLineRecords uint64

	FileTableOffset   uint64
	TokenIDTableOffset uint64
	AlphaTableOffset  uint64
	LineInfoOffset    uint64
	CodeOffset        uint64
	CodeLength        uint64
	StringPoolOffset  uint64
}

func (h *header) marshal() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint64(buf[8:16], h.NumFiles)
	binary.LittleEndian.PutUint64(buf[16:24], h.NumTokens)
	binary.LittleEndian.PutUint64(buf[24:32], h.NumLineRecords)
	binary.LittleEndian.PutUint64(buf[32:40], h.FileTableOffset)
	binary.LittleEndian.PutUint64(buf[40:48], h.TokenIDTableOffset)
	binary.LittleEndian.PutUint64(buf[48:56], h.AlphaTableOffset)
	binary.LittleEndian.PutUint64(buf[56:64], h.LineInfoOffset)
	binary.LittleEndian.PutUint64(buf[64:72], h.CodeOffset)
	binary.LittleEndian.PutUint64(buf[72:80], h.CodeLength)
	binary.LittleEndian.PutUint64(buf[80:88], h.StringPoolOffset)
	return buf
}

func unmarshalHeader(buf []byte) (header, error) {
	var h header
	if len(buf) < headerSize {
		return h, fmt.Errorf("index: header truncated: have %d bytes, want %d", len(buf), headerSize)
	}
	copy(h.Magic[:], buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.NumFiles = binary.LittleEndian.Uint64(buf[8:16])
	h.NumTokens = binary.LittleEndian.Uint64(buf[16:24])
	h.NumLineRecords = binary.LittleEndian.Uint64(buf[24:32])
	h.FileTableOffset = binary.LittleEndian.Uint64(buf[32:40])
	h.TokenIDTableOffset = binary.LittleEndian.Uint64(buf[40:48])
	h.AlphaTableOffset = binary.LittleEndian.Uint64(buf[48:56])
	h.LineInfoOffset = binary.LittleEndian.Uint64(buf[56:64])
	h.CodeOffset = binary.LittleEndian.Uint64(buf[64:72])
	h.CodeLength = binary.LittleEndian.Uint64(buf[72:80])
	h.StringPoolOffset = binary.LittleEndian.Uint64(buf[80:88])
	return h, nil
}

// FileRecord describes one corpus file's place in the index (48 bytes on
// disk). Files are stored sorted by CodeOffset, and chain without gaps:
// FileRecord[i].CodeOffset + FileRecord[i].CodeLength == FileRecord[i+1].CodeOffset.
type FileRecord struct {
	NameOffset    uint64 // into the string pool; null-terminated relative path
	FileLength    uint32 // length in bytes of the original source file
	NumLines      uint32 // number of LineRecords for this file
	LineInfoIndex uint64 // index of this file's first LineRecord
	CodeOffset    uint64 // byte offset into the code section
	CodeLength    uint64 // byte length of this file's encoded sequence
	_reserved     uint64
}

func (r FileRecord) marshal() []byte {
	buf := make([]byte, fileRecordSize)
	binary.LittleEndian.PutUint64(buf[0:8], r.NameOffset)
	binary.LittleEndian.PutUint32(buf[8:12], r.FileLength)
	binary.LittleEndian.PutUint32(buf[12:16], r.NumLines)
	binary.LittleEndian.PutUint64(buf[16:24], r.LineInfoIndex)
	binary.LittleEndian.PutUint64(buf[24:32], r.CodeOffset)
	binary.LittleEndian.PutUint64(buf[32:40], r.CodeLength)
	return buf
}

func unmarshalFileRecord(buf []byte) FileRecord {
	return FileRecord{
		NameOffset:    binary.LittleEndian.Uint64(buf[0:8]),
		FileLength:    binary.LittleEndian.Uint32(buf[8:12]),
		NumLines:      binary.LittleEndian.Uint32(buf[12:16]),
		LineInfoIndex: binary.LittleEndian.Uint64(buf[16:24]),
		CodeOffset:    binary.LittleEndian.Uint64(buf[24:32]),
		CodeLength:    binary.LittleEndian.Uint64(buf[32:40]),
	}
}

// LineRecord is one entry of a file's line table (8 bytes on disk):
// (FileOffset, CodeOffset), both non-decreasing across a file's table. The
// first entry is always (0, 0); the last is a sentinel (file_length,
// code_length-1) (spec.md §3.3).
type LineRecord struct {
	FileOffset uint32
	CodeOffset uint32
}

func (r LineRecord) marshal() []byte {
	buf := make([]byte, lineRecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.FileOffset)
	binary.LittleEndian.PutUint32(buf[4:8], r.CodeOffset)
	return buf
}

func unmarshalLineRecord(buf []byte) LineRecord {
	return LineRecord{
		FileOffset: binary.LittleEndian.Uint32(buf[0:4]),
		CodeOffset: binary.LittleEndian.Uint32(buf[4:8]),
	}
}
