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

// state names the ~50 node of the state machine driving token recognition.
// States are grouped by what they're currently accumulating: operator
// prefixes, identifier bodies, numbers, literals, raw strings, header
// names, whitespace and comments.
type state int

const (
	stStart state = iota
	stEquals
	stColon
	stHash
	stLangle
	stLangle2
	stLangleColon
	stLangleColon2
	stRangle
	stRangle2
	stPercent
	stPercentColon
	stPercentColonPercent
	stAsterisk
	stPlus
	stDash
	stDashRangle
	stHat
	stAmpersand
	stBar
	stExclamation
	stDot
	stDot2
	stPPNumber
	stPPNumberE
	stIdentifier
	stWhitespace
	stForwardSlash
	stWhitespaceForwardSlash
	stInlineComment
	stInlineCommentEnding
	stSingleLineComment
	stCharLiteral
	stCharLiteralBackslash
	stCharLiteralHex
	stCharLiteralSuffix
	stUserDefinedCharLiteral
	stStringLiteral
	stStringLiteralBackslash
	stStringLiteralHex
	stStringLiteralSuffix
	stUserDefinedStringLiteral
	stRawStringLiteral
	stRawStringBody
	stHeaderNameH
	stHeaderNameQ
	stDone
)

// headerNameState tracks, across tokens on the current logical line,
// whether a following <...> or "..." should be read as a header-name
// token. It resets to "ready" on every newline (spec.md §4.1).
type headerNameState int

const (
	hnsReady       headerNameState = 1 // column 1 of a new line
	hnsSawHash     headerNameState = 2 // just saw "#" or "%:"
	hnsSawInclude  headerNameState = 3 // just saw the identifier "include"
	hnsNone        headerNameState = 0 // anything else
)

// keepWait appends the lookahead to the accumulator and switches state,
// waiting for the next input.
func (l *lexer) keepWait(next state) error {
	l.accum = append(l.accum, l.lookahead)
	l.st = next
	return nil
}

// clearWait discards the accumulator and switches state, waiting for the
// next input.
func (l *lexer) clearWait(next state) error {
	l.accum = l.accum[:0]
	l.st = next
	return nil
}

// keepRedirect switches state and immediately reprocesses the same
// lookahead, without touching the accumulator.
func (l *lexer) keepRedirect(next state) error {
	l.st = next
	return l.step()
}

// clearRedirect discards the accumulator, switches state, and immediately
// reprocesses the same lookahead.
func (l *lexer) clearRedirect(next state) error {
	l.accum = l.accum[:0]
	l.st = next
	return l.step()
}
