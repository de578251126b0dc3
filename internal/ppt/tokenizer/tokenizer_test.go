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

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spellings(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Spelling
	}
	return out
}

func TestTokenizeBasic(t *testing.T) {
	res, err := Tokenize([]byte("int x = 42;\n"))
	require.NoError(t, err)
	want := []string{"int", "x", "=", "42", ";"}
	assert.Equal(t, want, spellings(res.Tokens))
	assert.Equal(t, Identifier, res.Tokens[1].Kind)
	assert.Equal(t, Number, res.Tokens[3].Kind)
}

func TestTokenizeRawStringLiteral(t *testing.T) {
	res, err := Tokenize([]byte(`R"foo(a)b)foo"`))
	require.NoError(t, err)
	require.Lenf(t, res.Tokens, 1, "tokens = %v", spellings(res.Tokens))
	assert.Equal(t, StringLiteral, res.Tokens[0].Kind)
	assert.Equal(t, `R"foo(a)b)foo"`, res.Tokens[0].Spelling)
}

func TestTokenizeRawStringDelimiterCanContainUnbalancedParen(t *testing.T) {
	// The raw-string terminator is ")delim\"", recognized literally -- a
	// lone ')' inside the body must not end the literal early.
	res, err := Tokenize([]byte(`R"(a)b(c)d)"`))
	require.NoError(t, err)
	require.Lenf(t, res.Tokens, 1, "tokens = %v", spellings(res.Tokens))
	assert.Equal(t, StringLiteral, res.Tokens[0].Kind)
}

func TestTokenizeDigraphIsOperatorNotIdentifier(t *testing.T) {
	res, err := Tokenize([]byte("a and b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "and", "b"}, spellings(res.Tokens))
	require.Len(t, res.Tokens, 3)
	assert.Equal(t, Operator, res.Tokens[1].Kind)
}

func TestTokenizeDeterministic(t *testing.T) {
	src := []byte("#include <foo/bar.h>\ntemplate<class T> T f(T x) { return x+1; }\n")
	r1, err := Tokenize(src)
	require.NoError(t, err)
	r2, err := Tokenize(src)
	require.NoError(t, err)
	assert.Equal(t, r1.Tokens, r2.Tokens)
}

func TestTokenizeHeaderNameAfterInclude(t *testing.T) {
	res, err := Tokenize([]byte("#include <foo/bar.h>\n"))
	require.NoError(t, err)
	want := []string{"#", "include", "<foo/bar.h>"}
	assert.Equal(t, want, spellings(res.Tokens))
	require.Len(t, res.Tokens, 3)
	assert.Equal(t, HeaderName, res.Tokens[2].Kind)
}

func TestTokenizeQuotedHeaderName(t *testing.T) {
	res, err := Tokenize([]byte(`#include "foo.h"` + "\n"))
	require.NoError(t, err)
	require.Lenf(t, res.Tokens, 3, "tokens = %v", spellings(res.Tokens))
	assert.Equal(t, HeaderName, res.Tokens[2].Kind)
	assert.Equal(t, `"foo.h"`, res.Tokens[2].Spelling)
}

func TestTokenizeNewlines(t *testing.T) {
	res, err := Tokenize([]byte("a\nb\n"))
	require.NoError(t, err)
	require.Len(t, res.Newlines, 2)
	assert.Equal(t, Newline{FileOffset: 1, TokenIndex: 1}, res.Newlines[0])
	assert.Equal(t, Newline{FileOffset: 3, TokenIndex: 2}, res.Newlines[1])
}

func TestTokenizeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unterminated char literal", "'a"},
		{"unterminated string literal", `"abc`},
		{"unterminated block comment", "/* comment"},
		{"invalid utf8", string([]byte{'a', 0xff, 'b'})},
		{"raw string delimiter too long", `R"` + strings.Repeat("a", 20) + `(x)` + strings.Repeat("a", 20) + `"`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Tokenize([]byte(c.src))
			assert.Errorf(t, err, "Tokenize(%q): got no error, want one", c.src)
		})
	}
}

func TestTokenizeCommentsAreElided(t *testing.T) {
	res, err := Tokenize([]byte("a /* comment */ b // line comment\nc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, spellings(res.Tokens))
}

func TestTokenizeCharAndStringLiteralsWithEscapes(t *testing.T) {
	res, err := Tokenize([]byte(`'\n' "a\tb\"c"`))
	require.NoError(t, err)
	require.Lenf(t, res.Tokens, 2, "tokens = %v", spellings(res.Tokens))
	assert.Equal(t, CharLiteral, res.Tokens[0].Kind)
	assert.Equal(t, StringLiteral, res.Tokens[1].Kind)
}

// Re-concatenating a well-formed token stream's spellings with separating
// whitespace and re-tokenizing it must reproduce the same (kind, spelling)
// sequence: spec.md's tokenizer round-trip invariant.
func TestTokenizeRoundTripsWellFormedTokens(t *testing.T) {
	srcs := [][]byte{
		[]byte("int add(int x, int y) { return x + y; }\n"),
		[]byte("#include <foo/bar.h>\ntemplate<class T> T f(T x) { return x+1; }\n"),
		[]byte(`'\n' "a\tb\"c" 42 3.14e+1f`),
		[]byte("a and b bitand c"),
	}
	for _, src := range srcs {
		t.Run(string(src), func(t *testing.T) {
			first, err := Tokenize(src)
			require.NoError(t, err)

			reassembled := strings.Join(spellings(first.Tokens), " ")
			second, err := Tokenize([]byte(reassembled))
			require.NoError(t, err)

			require.Lenf(t, second.Tokens, len(first.Tokens), "round trip through %q", reassembled)
			for i := range first.Tokens {
				assert.Equalf(t, first.Tokens[i], second.Tokens[i], "token %d round trip through %q", i, reassembled)
			}
		})
	}
}
