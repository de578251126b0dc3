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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := header{
		Version:            Version,
		NumFiles:           3,
		NumTokens:          10,
		NumLineRecords:     7,
		FileTableOffset:    88,
		TokenIDTableOffset: 1000,
		AlphaTableOffset:   2000,
		LineInfoOffset:     3000,
		CodeOffset:         4000,
		CodeLength:         500,
		StringPoolOffset:   4500,
	}
	copy(h.Magic[:], Magic)

	got, err := unmarshalHeader(h.marshal())
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHeaderTruncated(t *testing.T) {
	_, err := unmarshalHeader(make([]byte, headerSize-1))
	assert.Error(t, err, "expected error on truncated header")
}

func TestFileRecordRoundTrip(t *testing.T) {
	r := FileRecord{
		NameOffset:    10,
		FileLength:    1234,
		NumLines:      56,
		LineInfoIndex: 78,
		CodeOffset:    900,
		CodeLength:    111,
	}
	got := unmarshalFileRecord(r.marshal())
	assert.Equal(t, r, got)
}

func TestLineRecordRoundTrip(t *testing.T) {
	r := LineRecord{FileOffset: 42, CodeOffset: 99}
	got := unmarshalLineRecord(r.marshal())
	assert.Equal(t, r, got)
}
