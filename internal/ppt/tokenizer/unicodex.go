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

package tokenizer

import "sort"

// crange is an inclusive code point range.
type crange struct{ lo, hi rune }

// inRanges reports whether c falls in one of a sorted, non-overlapping set
// of ranges, via binary search -- the same shape as the ASCII-fast-path-
// then-range-table lookups the rest of this codebase uses for classifying
// runes (see internal/ext/unicodex in the vendored lexer this package is
// descended from), specialized here to the exact C++ Standard Annex E
// ranges rather than Go's XID_Start/XID_Continue, since the grammar this
// tokenizer implements is the C++ preprocessing-token grammar, not Go's.
func inRanges(ranges []crange, c rune) bool {
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].hi >= c })
	return i < len(ranges) && ranges[i].lo <= c
}

// annexE1 is Annex E.1: characters allowed in identifiers (by inclusion),
// beyond the ASCII alphabetics and underscore.
var annexE1 = []crange{
	{0xA8, 0xA8}, {0xAA, 0xAA}, {0xAD, 0xAD},
	{0xAF, 0xAF}, {0xB2, 0xB5}, {0xB7, 0xBA},
	{0xBC, 0xBE}, {0xC0, 0xD6}, {0xD8, 0xF6},
	{0xF8, 0xFF}, {0x100, 0x167F}, {0x1681, 0x180D},
	{0x180F, 0x1FFF}, {0x200B, 0x200D}, {0x202A, 0x202E},
	{0x203F, 0x2040}, {0x2054, 0x2054}, {0x2060, 0x206F},
	{0x2070, 0x218F}, {0x2460, 0x24FF}, {0x2776, 0x2793},
	{0x2C00, 0x2DFF}, {0x2E80, 0x2FFF}, {0x3004, 0x3007},
	{0x3021, 0x302F}, {0x3031, 0x303F}, {0x3040, 0xD7FF},
	{0xF900, 0xFD3D}, {0xFD40, 0xFDCF}, {0xFDF0, 0xFE44},
	{0xFE47, 0xFFFD}, {0x10000, 0x1FFFD}, {0x20000, 0x2FFFD},
	{0x30000, 0x3FFFD}, {0x40000, 0x4FFFD}, {0x50000, 0x5FFFD},
	{0x60000, 0x6FFFD}, {0x70000, 0x7FFFD}, {0x80000, 0x8FFFD},
	{0x90000, 0x9FFFD}, {0xA0000, 0xAFFFD}, {0xB0000, 0xBFFFD},
	{0xC0000, 0xCFFFD}, {0xD0000, 0xDFFFD}, {0xE0000, 0xEFFFD},
}

// annexE2 is Annex E.2: combining characters disallowed as the *first*
// character of an identifier (they remain allowed in the body).
var annexE2 = []crange{
	{0x300, 0x36F}, {0x1DC0, 0x1DFF}, {0x20D0, 0x20FF}, {0xFE20, 0xFE2F},
}

func isAlpha(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isHexDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isSpace(c rune) bool {
	switch c {
	case ' ', '\t', '\v', '\f', '\r', '\n':
		return true
	default:
		return false
	}
}

// isIdentifierFirst reports whether c may start an identifier.
func isIdentifierFirst(c rune) bool {
	switch {
	case c <= 0:
		return false
	case c <= 127:
		return isAlpha(c) || c == '_'
	default:
		return inRanges(annexE1, c) && !inRanges(annexE2, c)
	}
}

// isIdentifierBody reports whether c may continue an identifier.
func isIdentifierBody(c rune) bool {
	switch {
	case c <= 0:
		return false
	case c <= 127:
		return isAlpha(c) || isDigit(c) || c == '_'
	default:
		return inRanges(annexE1, c)
	}
}
