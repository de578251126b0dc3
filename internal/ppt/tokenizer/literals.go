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

// These sets classify an accumulated identifier spelling just before it is
// about to be followed by a quote, to decide whether it is an encoding
// prefix rather than a bare identifier -- e.g. "u8" immediately before a
// '"' begins a UTF-8 string literal, not an identifier named u8.

var charLiteralPrefixes = map[string]bool{
	"u": true, "U": true, "L": true,
}

var stringLiteralPrefixes = map[string]bool{
	"u8": true, "u": true, "U": true, "L": true,
}

var rawStringLiteralPrefixes = map[string]bool{
	"u8R": true, "uR": true, "UR": true, "LR": true, "R": true,
}

// digraphKeywords are identifiers that are actually spelled-out operators
// (alternative tokens, [lex.digraph] adjacent). An accumulated identifier
// that matches one of these is re-emitted as Operator instead of
// Identifier.
var digraphKeywords = map[string]bool{
	"new": true, "delete": true, "and": true, "and_eq": true,
	"bitand": true, "bitor": true, "compl": true, "not": true,
	"not_eq": true, "or": true, "or_eq": true, "xor": true, "xor_eq": true,
}

func isSimpleEscapeChar(c rune) bool {
	switch c {
	case '\'', '"', '?', '\\', 'a', 'b', 'f', 'n', 'r', 't', 'v':
		return true
	default:
		return false
	}
}
