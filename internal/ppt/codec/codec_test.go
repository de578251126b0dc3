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

package codec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLenAndRoundTrip(t *testing.T) {
	cases := []struct {
		id        uint32
		wantBytes int
	}{
		{0, 1},
		{1, 1},
		{127, 1},
		{128, 2},
		{1023, 2},
		{1024, 3},
		{65535, 3},
		{65536, 4},
		{4194303, 4},
		{4194304, 5},
		{268435455, 5},
	}
	for _, c := range cases {
		assert.Equalf(t, c.wantBytes, Len(c.id), "Len(%d)", c.id)

		enc, err := Append(nil, c.id)
		require.NoErrorf(t, err, "Append(%d)", c.id)
		assert.Lenf(t, enc, c.wantBytes, "Append(%d)", c.id)

		got, n, err := Decode(enc)
		require.NoErrorf(t, err, "Decode(Append(%d))", c.id)
		assert.Equalf(t, len(enc), n, "Decode(Append(%d)) bytes consumed", c.id)
		assert.Equalf(t, c.id, got, "Decode(Append(%d))", c.id)
	}
}

func TestAppendRejectsOversizedID(t *testing.T) {
	_, err := Append(nil, MaxTokenID+1)
	require.ErrorIs(t, err, ErrTokenIDTooLarge)
}

func TestDecodeTruncated(t *testing.T) {
	enc, _ := Append(nil, 4194304) // 5-byte encoding
	for n := 1; n < len(enc); n++ {
		if _, _, err := Decode(enc[:n]); err != ErrTruncated {
			t.Errorf("Decode(first %d of 5 bytes) error = %v, want ErrTruncated", n, err)
		}
	}
	if _, _, err := Decode(nil); err != ErrTruncated {
		t.Errorf("Decode(nil) error = %v, want ErrTruncated", err)
	}
}

func TestDecodeBadLeadByte(t *testing.T) {
	// A trailing byte (11xxxxxx) can never start an encoding.
	_, _, err := Decode([]byte{0xC1})
	require.ErrorIs(t, err, ErrBadLeadByte)
}

func TestIsLeadByte(t *testing.T) {
	enc, _ := Append(nil, 300)
	if !IsLeadByte(enc[0]) {
		t.Errorf("IsLeadByte(%#x) = false, want true (lead byte)", enc[0])
	}
	for _, b := range enc[1:] {
		if IsLeadByte(b) {
			t.Errorf("IsLeadByte(%#x) = true, want false (trailing byte)", b)
		}
	}
	for id := uint32(0); id < 128; id++ {
		if !IsLeadByte(byte(id)) {
			t.Errorf("IsLeadByte(%#x) = false for short-form byte, want true", id)
		}
	}
}

// TestSubsequenceLaw checks, for every pair drawn from a representative
// spread of short and long forms, that encoding commutes with
// concatenation (encode(a,b) == encode(a)+encode(b)) and that decoding the
// concatenation from offset 0 yields exactly a and then b.
func TestSubsequenceLaw(t *testing.T) {
	ids := []uint32{0, 1, 5, 127, 128, 200, 1023, 1024, 65535, 65536, 4194303, 4194304, 268435455}

	encodeAll := func(seq []uint32) []byte {
		var buf []byte
		var err error
		for _, id := range seq {
			buf, err = Append(buf, id)
			if err != nil {
				t.Fatalf("Append(%d): %v", id, err)
			}
		}
		return buf
	}

	for _, a := range ids {
		for _, b := range ids {
			whole := encodeAll([]uint32{a, b})
			first := encodeAll([]uint32{a})
			second := encodeAll([]uint32{b})
			want := append(append([]byte{}, first...), second...)
			if diff := cmp.Diff(want, whole); diff != "" {
				t.Fatalf("encode(%d,%d) != encode(%d)+encode(%d) (-want +got):\n%s", a, b, a, b, diff)
			}
			// Every lead byte boundary within whole must be decodable back
			// to exactly {a, b} -- scanning from offset 0 must land only on
			// the boundary between the two encodings, never mid-encoding.
			gotA, n, err := Decode(whole)
			if err != nil || gotA != a || n != len(first) {
				t.Fatalf("decode prefix of encode(%d,%d): got id=%d n=%d err=%v", a, b, gotA, n, err)
			}
			gotB, n2, err := Decode(whole[n:])
			if err != nil || gotB != b || n2 != len(second) {
				t.Fatalf("decode suffix of encode(%d,%d): got id=%d n=%d err=%v", a, b, gotB, n2, err)
			}
		}
	}
}

func TestLenMatchesAppendAcrossFullRange(t *testing.T) {
	// Exhaustively enumerating 2^28 ids is infeasible in a unit test; this
	// samples boundary-adjacent ids plus a geometric spread, which is
	// where length-bucket bugs actually live.
	var sample []uint32
	for shift := uint(0); shift <= 28; shift++ {
		v := uint32(1) << shift
		for _, d := range []int64{-1, 0, 1} {
			x := int64(v) + d
			if x >= 0 && x <= MaxTokenID {
				sample = append(sample, uint32(x))
			}
		}
	}
	for _, id := range sample {
		enc, err := Append(nil, id)
		if err != nil {
			t.Fatalf("Append(%d): %v", id, err)
		}
		if len(enc) != Len(id) {
			t.Errorf("Len(%d) = %d but Append produced %d bytes", id, Len(id), len(enc))
		}
		got, n, err := Decode(enc)
		if err != nil || got != id || n != len(enc) {
			t.Errorf("round-trip %d: got=%d n=%d err=%v", id, got, n, err)
		}
	}
}
