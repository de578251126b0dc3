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

// Result is the output of tokenizing one source file or query string: a
// flat token sequence plus the out-of-band raw newline markers needed to
// build a line table (spec.md §3.1, §3.3).
type Result struct {
	Tokens   []Token
	Newlines []Newline
}

// Tokenize runs the full decoder pipeline and state machine over src and
// returns the resulting tokens and raw newline markers. It returns a
// non-nil *Error (never wrapped) on any grammar violation.
func Tokenize(src []byte) (Result, error) {
	l := &lexer{
		utf8:     &utf8Decoder{},
		trigraph: &trigraphDecoder{},
		ucn:      &ucnDecoder{},
		splicer:  &lineSplicer{},
		ender:    &newlineEnder{},
		st:       stStart,
		hns:      hnsReady,
	}

	for i := 0; i <= len(src); i++ {
		var b codePoint
		if i < len(src) {
			b = codePoint(src[i])
		} else {
			b = eof
		}
		l.offset = i
		if err := l.process(b); err != nil {
			return Result{}, err
		}
		// Recorded after the newline is processed, so the line's last token
		// (flushed by the newline itself) is already counted and TokenIndex
		// names the first token of the following line.
		if b == '\n' {
			l.newlines = append(l.newlines, Newline{FileOffset: i, TokenIndex: len(l.tokens)})
		}
	}

	return Result{Tokens: l.tokens, Newlines: l.newlines}, nil
}

// lexer is the bookkeeping shared by every stage of the pipeline and the
// state machine that sits downstream of it.
type lexer struct {
	utf8     *utf8Decoder
	trigraph *trigraphDecoder
	ucn      *ucnDecoder
	splicer  *lineSplicer
	ender    *newlineEnder

	rawMode bool // bypasses stages 2-5 while inside a raw string body

	st    state
	accum []rune
	hns   headerNameState

	rawStringDelim []rune
	rawStringMatch int

	lookahead codePoint
	offset    int // raw byte offset of the input currently being processed

	tokens   []Token
	newlines []Newline
}

// process feeds one raw byte (or eof, as -1) through the decoder pipeline
// and the state machine.
func (l *lexer) process(b codePoint) error {
	outs, err := l.utf8.decode(b)
	if err != nil {
		return errAt(l.offset, "%s", err)
	}

	for _, cp := range outs {
		if l.rawMode {
			l.lookahead = cp
			if err := l.step(); err != nil {
				return err
			}
			continue
		}
		if err := l.feedPostUTF8(cp); err != nil {
			return err
		}
	}
	return nil
}

// feedPostUTF8 pushes a decoded code point through trigraph decoding, UCN
// decoding, line splicing, and newline-ending, fanning out at each stage
// since any of them may emit zero, one, or more code points.
func (l *lexer) feedPostUTF8(cp codePoint) error {
	outs, err := l.trigraph.decode(cp)
	if err != nil {
		return errAt(l.offset, "%s", err)
	}
	for _, c2 := range outs {
		outs2, err := l.ucn.decode(c2)
		if err != nil {
			return errAt(l.offset, "%s", err)
		}
		for _, c3 := range outs2 {
			outs3, err := l.splicer.decode(c3)
			if err != nil {
				return errAt(l.offset, "%s", err)
			}
			for _, c4 := range outs3 {
				outs4, err := l.ender.decode(c4)
				if err != nil {
					return errAt(l.offset, "%s", err)
				}
				for _, c5 := range outs4 {
					l.lookahead = c5
					if err := l.step(); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (l *lexer) accumString() string { return string(l.accum) }

// push emits a token of the given kind using the accumulator as spelling.
func (l *lexer) push(kind Kind) {
	l.tokens = append(l.tokens, Token{Kind: kind, Spelling: l.accumString()})
}

// emitOp emits an Operator token with an explicit spelling (used for
// multi-character punctuators assembled without keeping every character in
// the accumulator, and for digraphs re-spelled from an identifier).
func (l *lexer) emitOp(spelling string) {
	if l.hns == hnsReady && (spelling == "#" || spelling == "%:") {
		l.hns = hnsSawHash
	} else {
		l.hns = hnsNone
	}
	l.tokens = append(l.tokens, Token{Kind: Operator, Spelling: spelling})
}

func (l *lexer) emitIdentifier(spelling string) {
	if l.hns == hnsSawHash && spelling == "include" {
		l.hns = hnsSawInclude
	} else {
		l.hns = hnsNone
	}
	l.tokens = append(l.tokens, Token{Kind: Identifier, Spelling: spelling})
}

func (l *lexer) emitOther(kind Kind, spelling string) {
	l.hns = hnsNone
	l.tokens = append(l.tokens, Token{Kind: kind, Spelling: spelling})
}

// step executes one transition of the state machine on l.lookahead. It may
// recurse (via keepRedirect/clearRedirect) to reprocess the same lookahead
// in a new state, exactly as many states in the C++ grammar fall through
// without consuming input.
func (l *lexer) step() error {
	switch l.st {
	case stStart:
		return l.stepStart()
	case stEquals:
		return l.stepSuffix1(map[rune]string{'=': "=="}, "=")
	case stColon:
		return l.stepSuffix1(map[rune]string{'>': ":>", ':': "::"}, ":")
	case stHash:
		return l.stepSuffix1(map[rune]string{'#': "##"}, "#")
	case stLangle:
		return l.stepLangle()
	case stLangle2:
		return l.stepSuffix1(map[rune]string{'=': "<<="}, "<<")
	case stLangleColon:
		return l.stepLangleColon()
	case stLangleColon2:
		return l.stepLangleColon2()
	case stRangle:
		return l.stepRangle()
	case stRangle2:
		return l.stepSuffix1(map[rune]string{'=': ">>="}, ">>")
	case stPercent:
		return l.stepPercent()
	case stPercentColon:
		return l.stepPercentColon()
	case stPercentColonPercent:
		return l.stepPercentColonPercent()
	case stAsterisk:
		return l.stepSuffix1(map[rune]string{'=': "*="}, "*")
	case stPlus:
		return l.stepPlus()
	case stDash:
		return l.stepDash()
	case stDashRangle:
		return l.stepSuffix1(map[rune]string{'*': "->*"}, "->")
	case stHat:
		return l.stepSuffix1(map[rune]string{'=': "^="}, "^")
	case stAmpersand:
		return l.stepAmpersand()
	case stBar:
		return l.stepBar()
	case stExclamation:
		return l.stepSuffix1(map[rune]string{'=': "!="}, "!")
	case stDot:
		return l.stepDot()
	case stDot2:
		return l.stepDot2()
	case stPPNumber:
		return l.stepPPNumber()
	case stPPNumberE:
		return l.stepPPNumberE()
	case stIdentifier:
		return l.stepIdentifier()
	case stWhitespace:
		return l.stepWhitespace()
	case stForwardSlash, stWhitespaceForwardSlash:
		return l.stepForwardSlash()
	case stInlineComment:
		return l.stepInlineComment()
	case stInlineCommentEnding:
		return l.stepInlineCommentEnding()
	case stSingleLineComment:
		return l.stepSingleLineComment()
	case stCharLiteral:
		return l.stepLiteralBody(stCharLiteralBackslash, stCharLiteralSuffix, "character literal")
	case stCharLiteralBackslash:
		return l.stepLiteralBackslash(stCharLiteral, stCharLiteralHex)
	case stCharLiteralHex:
		return l.stepLiteralHex(stCharLiteral)
	case stCharLiteralSuffix:
		return l.stepLiteralSuffix(stUserDefinedCharLiteral, CharLiteral)
	case stUserDefinedCharLiteral:
		return l.stepUserDefinedLiteral(stUserDefinedCharLiteral, CharLiteral)
	case stStringLiteral:
		return l.stepLiteralBody(stStringLiteralBackslash, stStringLiteralSuffix, "string literal")
	case stStringLiteralBackslash:
		return l.stepLiteralBackslash(stStringLiteral, stStringLiteralHex)
	case stStringLiteralHex:
		return l.stepLiteralHex(stStringLiteral)
	case stStringLiteralSuffix:
		return l.stepLiteralSuffix(stUserDefinedStringLiteral, StringLiteral)
	case stUserDefinedStringLiteral:
		return l.stepUserDefinedLiteral(stUserDefinedStringLiteral, StringLiteral)
	case stRawStringLiteral:
		return l.stepRawStringLiteral()
	case stRawStringBody:
		return l.stepRawStringBody()
	case stHeaderNameH:
		return l.stepHeaderName('>', stHeaderNameH, "header name")
	case stHeaderNameQ:
		return l.stepHeaderName('"', stHeaderNameQ, "header name")
	case stDone:
		return errAt(l.offset, "tokenizer invoked after eof")
	default:
		return errAt(l.offset, "unknown tokenizer state %d", l.st)
	}
}
